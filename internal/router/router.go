package router

import (
	"time"

	"predix/config"
	"predix/internal/handler"
	"predix/internal/middleware"
	"predix/internal/repository"
	"predix/internal/service"
	"predix/internal/ws"
	"predix/pkg/chain"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, gateway *chain.Gateway) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Skip gin.Logger() to reduce log noise; use gin.Default() if you need request logging
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	depositRepo := repository.NewDepositRepository(db)
	addressRepo := repository.NewAddressBookRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	walletHub := ws.NewHub()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	withdrawalSvc := service.NewWithdrawalService(db, walletRepo, withdrawalRepo, addressRepo, gateway, walletHub)
	depositSvc := service.NewDepositService(db, walletRepo, depositRepo, walletHub)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, auditRepo)
	walletHandler := handler.NewWalletHandler(walletRepo)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalSvc, auditRepo)
	withdrawalWebhookHandler := handler.NewWithdrawalWebhookHandler(cfg, withdrawalSvc, auditRepo)
	depositHandler := handler.NewDepositHandler(depositSvc, gateway)
	depositWebhookHandler := handler.NewDepositWebhookHandler(cfg, depositSvc)
	addressHandler := handler.NewAddressHandler(addressRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/wallet", walletHandler.GetBalances)
			me.GET("/wallet/transactions", walletHandler.GetTransactions)
			me.GET("/addresses", addressHandler.List)

			me.POST("/withdrawals/validate", withdrawalHandler.Validate)
			me.POST("/withdrawals", withdrawalHandler.Create)
			me.GET("/withdrawals", withdrawalHandler.List)
			me.GET("/withdrawals/current", withdrawalHandler.GetCurrent)
			me.POST("/withdrawals/:id/cancel", withdrawalHandler.Cancel)

			me.GET("/deposits", depositHandler.List)
			me.POST("/deposits/:id/claim", depositHandler.Claim)
			me.GET("/deposit-address/:asset", depositHandler.DepositAddress)
		}

		api.POST("/webhooks/withdrawal-status", withdrawalWebhookHandler.Handle)
		api.POST("/webhooks/deposit", depositWebhookHandler.Handle)
	}

	r.GET("/ws/wallet", ws.UpgradeWalletWS(&cfg.JWT, walletHub))

	return r
}
