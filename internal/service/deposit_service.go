package service

import (
	"errors"
	"time"

	"predix/internal/domain"
	"predix/internal/limits"
	"predix/internal/models"
	"predix/internal/repository"
	"predix/internal/ws"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrDepositNotFound = errors.New("deposit not found")
	ErrNotYetConfirmed = errors.New("deposit not yet confirmed")
	ErrDepositNotOwned = errors.New("deposit belongs to another user")
)

// DepositEvent is the chain gateway's webhook payload for an incoming
// transfer. The gateway resolves the custody address to a user before
// posting, so the event carries the user directly.
type DepositEvent struct {
	UserID        uint   `json:"user_id" binding:"required"`
	TxHash        string `json:"tx_hash" binding:"required"`
	Asset         string `json:"asset" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	Confirmations int    `json:"confirmations"`
}

// ClaimResult reports a claim outcome. AlreadyCredited marks the idempotent
// path: the deposit was credited before this call and no second credit
// happened.
type ClaimResult struct {
	Deposit         *models.Deposit `json:"deposit"`
	AlreadyCredited bool            `json:"already_credited"`
}

type DepositService struct {
	db          *gorm.DB
	walletRepo  *repository.WalletRepository
	depositRepo *repository.DepositRepository
	hub         *ws.Hub
}

func NewDepositService(db *gorm.DB, walletRepo *repository.WalletRepository, depositRepo *repository.DepositRepository, hub *ws.Hub) *DepositService {
	return &DepositService{db: db, walletRepo: walletRepo, depositRepo: depositRepo, hub: hub}
}

// Process ingests a chain event. Events are idempotent on tx_hash: a new hash
// creates the record, repeats only ratchet the confirmation count upward.
// Once confirmed, the amount either auto-credits or parks in PENDING_CLAIM
// depending on the asset's dust threshold.
func (s *DepositService) Process(ev DepositEvent) (*models.Deposit, error) {
	amount, err := decimal.NewFromString(ev.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, errors.New("invalid deposit amount")
	}
	spec := limits.Spec(ev.Asset)
	var rec *models.Deposit
	err = s.db.Transaction(func(tx *gorm.DB) error {
		dRepo := s.depositRepo.WithTx(tx)
		d, err := dRepo.GetByTxHash(ev.TxHash)
		if err != nil {
			return err
		}
		if d == nil {
			d = &models.Deposit{
				UserID:                ev.UserID,
				TxHash:                ev.TxHash,
				Asset:                 ev.Asset,
				Amount:                amount,
				Confirmations:         ev.Confirmations,
				RequiredConfirmations: spec.RequiredConfirmations,
				Status:                domain.DepositPendingConfirmation,
			}
			if err := dRepo.Create(d); err != nil {
				return err
			}
		} else {
			if d.Status != domain.DepositPendingConfirmation {
				// already routed; later events carry nothing new
				rec = d
				return nil
			}
			if ev.Confirmations > d.Confirmations {
				d.Confirmations = ev.Confirmations
			}
		}
		if d.Confirmations >= d.RequiredConfirmations {
			if d.Amount.GreaterThanOrEqual(spec.AutoCreditThreshold) {
				if err := s.credit(tx, d, domain.WalletTxTypeDeposit); err != nil {
					return err
				}
				d.Status = domain.DepositAutoCredited
			} else {
				d.Status = domain.DepositPendingClaim
			}
		}
		if err := dRepo.Update(d); err != nil {
			return err
		}
		rec = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(rec)
	return rec, nil
}

// Claim credits a PENDING_CLAIM deposit exactly once. The credit and the
// status flip commit as one transaction: a failed credit leaves the record in
// PENDING_CLAIM so a retry is safe. Claiming an already-credited deposit
// returns a success-shaped result with no second credit, because client
// retries after network timeouts are expected.
func (s *DepositService) Claim(userID, depositID uint) (ClaimResult, error) {
	var result ClaimResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		dRepo := s.depositRepo.WithTx(tx)
		d, err := dRepo.GetByID(depositID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDepositNotFound
			}
			return err
		}
		if d.UserID != userID {
			return ErrDepositNotOwned
		}
		switch d.Status {
		case domain.DepositClaimed, domain.DepositAutoCredited:
			result = ClaimResult{Deposit: d, AlreadyCredited: true}
			return nil
		case domain.DepositPendingConfirmation:
			return ErrNotYetConfirmed
		}
		if d.Confirmations < d.RequiredConfirmations {
			return ErrNotYetConfirmed
		}
		if err := s.credit(tx, d, domain.WalletTxTypeDepositClaim); err != nil {
			return err
		}
		d.Status = domain.DepositClaimed
		if err := dRepo.Update(d); err != nil {
			return err
		}
		result = ClaimResult{Deposit: d}
		return nil
	})
	if err != nil {
		return ClaimResult{}, err
	}
	if !result.AlreadyCredited {
		s.notify(result.Deposit)
	}
	return result, nil
}

func (s *DepositService) credit(tx *gorm.DB, d *models.Deposit, txType string) error {
	walletRepo := s.walletRepo.WithTx(tx)
	if err := walletRepo.Credit(d.UserID, d.Asset, d.Amount); err != nil {
		return err
	}
	if err := walletRepo.RecordTransaction(d.UserID, d.Asset, d.Amount, txType, d.TxHash); err != nil {
		return err
	}
	now := time.Now()
	d.CreditedAt = &now
	return nil
}

func (s *DepositService) List(userID uint, limit int) ([]models.Deposit, error) {
	return s.depositRepo.ListByUser(userID, limit)
}

func (s *DepositService) notify(d *models.Deposit) {
	if s.hub == nil || d == nil {
		return
	}
	s.hub.BroadcastToUser(d.UserID, map[string]interface{}{
		"type":          "deposit_status",
		"id":            d.ID,
		"tx_hash":       d.TxHash,
		"asset":         d.Asset,
		"amount":        d.Amount,
		"status":        d.Status,
		"confirmations": d.Confirmations,
	})
}
