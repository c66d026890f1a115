package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"predix/internal/domain"
	"predix/internal/limits"
	"predix/internal/models"
	"predix/internal/repository"
	"predix/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrWithdrawalInProgress = errors.New("a withdrawal is already in flight")
	ErrInvalidTransition    = errors.New("invalid withdrawal status transition")
	ErrWithdrawalNotFound   = errors.New("withdrawal not found")
	ErrNotOwner             = errors.New("withdrawal belongs to another user")
)

// WithdrawalRequest is the user's proposed withdrawal before validation.
type WithdrawalRequest struct {
	Asset              string
	Amount             string // decimal string as entered
	DestinationAddress string
}

// ValidationResult is either Accepted (with the net amount that will hit the
// chain) or Rejected with one reason code, the first failed check in order.
type ValidationResult struct {
	Accepted  bool            `json:"accepted"`
	Reason    string          `json:"reason,omitempty"`
	NetAmount decimal.Decimal `json:"net_amount"`
	Policy    limits.Policy   `json:"policy"`
}

// ChainGateway is the custody/processing backend. Its completion events come
// back through the status webhook, not through these calls.
type ChainGateway interface {
	SubmitForApproval(ctx context.Context, w *models.Withdrawal) error
	DepositAddress(ctx context.Context, userID uint, asset string) (string, error)
}

// StatusEvent is the shape the processing backend posts when a withdrawal
// moves forward.
type StatusEvent struct {
	ReferenceID string `json:"withdrawal_id" binding:"required"`
	NewStatus   string `json:"new_status" binding:"required"`
	TxHash      string `json:"tx_hash"`
	Reason      string `json:"reason"`
}

// Validate applies the withdrawal checks in order, short-circuiting on the
// first failure so the user sees the single most relevant error. Pure: no
// side effects, safe to call on every keystroke.
func Validate(req WithdrawalRequest, balance decimal.Decimal, policy limits.Policy) ValidationResult {
	reject := func(reason string) ValidationResult {
		return ValidationResult{Reason: reason, Policy: policy}
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return reject(domain.ReasonInvalidAmount)
	}
	if amount.LessThan(policy.MinAmount) {
		return reject(domain.ReasonBelowMinimum)
	}
	if amount.Add(policy.FeeAmount).GreaterThan(balance) {
		return reject(domain.ReasonInsufficientBalance)
	}
	if amount.GreaterThan(policy.MaxAmount) {
		return reject(domain.ReasonAboveMaximum)
	}
	if amount.GreaterThan(policy.DailyRemaining) {
		return reject(domain.ReasonDailyLimitExceeded)
	}
	if !limits.ValidAddress(req.Asset, req.DestinationAddress) {
		return reject(domain.ReasonInvalidAddress)
	}
	return ValidationResult{
		Accepted:  true,
		NetAmount: amount.Sub(policy.FeeAmount),
		Policy:    policy,
	}
}

// allowedTransitions is the full state machine. Anything not listed here,
// including any move out of a terminal state, is rejected.
var allowedTransitions = map[string][]string{
	domain.WithdrawalRequested: {domain.WithdrawalApproved, domain.WithdrawalRejected},
	domain.WithdrawalApproved:  {domain.WithdrawalSent, domain.WithdrawalFailed},
	domain.WithdrawalSent:      {domain.WithdrawalConfirmed, domain.WithdrawalFailed},
}

func transitionAllowed(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type WithdrawalService struct {
	db             *gorm.DB
	walletRepo     *repository.WalletRepository
	withdrawalRepo *repository.WithdrawalRepository
	addressRepo    *repository.AddressBookRepository
	gateway        ChainGateway
	hub            *ws.Hub
}

func NewWithdrawalService(
	db *gorm.DB,
	walletRepo *repository.WalletRepository,
	withdrawalRepo *repository.WithdrawalRepository,
	addressRepo *repository.AddressBookRepository,
	gateway ChainGateway,
	hub *ws.Hub,
) *WithdrawalService {
	return &WithdrawalService{
		db:             db,
		walletRepo:     walletRepo,
		withdrawalRepo: withdrawalRepo,
		addressRepo:    addressRepo,
		gateway:        gateway,
		hub:            hub,
	}
}

// resolveDestination falls back to the user's primary address-book entry for
// the asset's network when the request leaves the destination empty.
func (s *WithdrawalService) resolveDestination(userID uint, req *WithdrawalRequest) {
	if req.DestinationAddress != "" || s.addressRepo == nil {
		return
	}
	entry, err := s.addressRepo.GetPrimary(userID, limits.Spec(req.Asset).Network)
	if err == nil && entry != nil {
		req.DestinationAddress = entry.FullAddress
	}
}

// Check runs validation against the user's live balance and trailing-24h
// usage without creating anything. Backs the live-feedback endpoint.
func (s *WithdrawalService) Check(userID uint, req WithdrawalRequest) (ValidationResult, error) {
	s.resolveDestination(userID, &req)
	balance := decimal.Zero
	if w, err := s.walletRepo.Get(userID, req.Asset); err == nil {
		balance = w.Available
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ValidationResult{}, err
	}
	used, err := s.withdrawalRepo.DailyUsed(userID, req.Asset, time.Now())
	if err != nil {
		return ValidationResult{}, err
	}
	return Validate(req, balance, limits.For(req.Asset, used)), nil
}

// Submit re-validates authoritatively and, on acceptance, freezes
// gross+fee and persists the record in REQUESTED, all in one transaction so
// two tabs can never both pass the one-in-flight check. The record is then
// handed to the processing backend.
func (s *WithdrawalService) Submit(userID uint, req WithdrawalRequest) (*models.Withdrawal, ValidationResult, error) {
	s.resolveDestination(userID, &req)
	var rec *models.Withdrawal
	var res ValidationResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		wRepo := s.withdrawalRepo.WithTx(tx)
		walletRepo := s.walletRepo.WithTx(tx)

		current, err := wRepo.GetCurrent(userID)
		if err != nil {
			return err
		}
		if current != nil {
			return ErrWithdrawalInProgress
		}
		wallet, err := walletRepo.GetOrCreate(userID, req.Asset)
		if err != nil {
			return err
		}
		used, err := wRepo.DailyUsed(userID, req.Asset, time.Now())
		if err != nil {
			return err
		}
		res = Validate(req, wallet.Available, limits.For(req.Asset, used))
		if !res.Accepted {
			return nil
		}
		gross, _ := decimal.NewFromString(req.Amount)
		fee := res.Policy.FeeAmount
		if err := walletRepo.Freeze(userID, req.Asset, gross.Add(fee)); err != nil {
			return err
		}
		now := time.Now()
		rec = &models.Withdrawal{
			UserID:             userID,
			ReferenceID:        fmt.Sprintf("wd-%s", uuid.New().String()),
			Asset:              req.Asset,
			GrossAmount:        gross,
			Fee:                fee,
			NetAmount:          res.NetAmount,
			DestinationAddress: req.DestinationAddress,
			Status:             domain.WithdrawalRequested,
			StatusUpdatedAt:    now,
		}
		return wRepo.Create(rec)
	})
	if err != nil {
		return nil, res, err
	}
	if rec == nil {
		return nil, res, nil
	}
	if s.gateway != nil {
		if err := s.gateway.SubmitForApproval(context.Background(), rec); err != nil {
			// Funds stay frozen in REQUESTED; the processing backend
			// reconciles stuck submissions on its side.
			log.Printf("[Withdrawal] submit for approval failed for %s: %v", rec.ReferenceID, err)
		}
	}
	s.notify(rec)
	return rec, res, nil
}

// ApplyStatusEvent advances the state machine from a processing-backend
// event. Out-of-order, duplicate and terminal-state events return
// ErrInvalidTransition instead of being applied.
func (s *WithdrawalService) ApplyStatusEvent(ev StatusEvent) (*models.Withdrawal, error) {
	var rec *models.Withdrawal
	err := s.db.Transaction(func(tx *gorm.DB) error {
		wRepo := s.withdrawalRepo.WithTx(tx)
		w, err := wRepo.GetByReferenceID(ev.ReferenceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWithdrawalNotFound
			}
			return err
		}
		if err := s.applyTransition(tx, w, ev.NewStatus, ev.TxHash, ev.Reason); err != nil {
			return err
		}
		rec = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(rec)
	return rec, nil
}

// applyTransition mutates w and the wallet inside the caller's transaction.
// REJECTED and FAILED release exactly the amount frozen at request time,
// once; CONFIRMED converts the hold into a permanent debit.
func (s *WithdrawalService) applyTransition(tx *gorm.DB, w *models.Withdrawal, newStatus, txHash, reason string) error {
	if !transitionAllowed(w.Status, newStatus) {
		return ErrInvalidTransition
	}
	walletRepo := s.walletRepo.WithTx(tx)
	frozen := w.FrozenAmount()
	switch newStatus {
	case domain.WithdrawalApproved:
		// status write only
	case domain.WithdrawalSent:
		w.TxHash = txHash
	case domain.WithdrawalRejected:
		if err := walletRepo.Unfreeze(w.UserID, w.Asset, frozen); err != nil {
			return err
		}
		if err := walletRepo.RecordTransaction(w.UserID, w.Asset, frozen, domain.WalletTxTypeWithdrawalRefund, w.ReferenceID); err != nil {
			return err
		}
		w.RejectReason = reason
	case domain.WithdrawalFailed:
		if err := walletRepo.Unfreeze(w.UserID, w.Asset, frozen); err != nil {
			return err
		}
		if err := walletRepo.RecordTransaction(w.UserID, w.Asset, frozen, domain.WalletTxTypeWithdrawalRefund, w.ReferenceID); err != nil {
			return err
		}
		w.FailReason = reason
	case domain.WithdrawalConfirmed:
		if err := walletRepo.DebitFrozen(w.UserID, w.Asset, frozen); err != nil {
			return err
		}
		if err := walletRepo.RecordTransaction(w.UserID, w.Asset, frozen.Neg(), domain.WalletTxTypeWithdrawal, w.ReferenceID); err != nil {
			return err
		}
	default:
		return ErrInvalidTransition
	}
	w.Status = newStatus
	w.StatusUpdatedAt = time.Now()
	return s.withdrawalRepo.WithTx(tx).Update(w)
}

// Cancel lets the user abort a withdrawal that is still in REQUESTED. It is
// modeled as a rejection with a USER_CANCELLED reason and follows the same
// fund-release rule.
func (s *WithdrawalService) Cancel(userID, withdrawalID uint) (*models.Withdrawal, error) {
	var rec *models.Withdrawal
	err := s.db.Transaction(func(tx *gorm.DB) error {
		wRepo := s.withdrawalRepo.WithTx(tx)
		w, err := wRepo.GetByID(withdrawalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWithdrawalNotFound
			}
			return err
		}
		if w.UserID != userID {
			return ErrNotOwner
		}
		if w.Status != domain.WithdrawalRequested {
			return ErrInvalidTransition
		}
		if err := s.applyTransition(tx, w, domain.WithdrawalRejected, "", domain.ReasonUserCancelled); err != nil {
			return err
		}
		rec = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(rec)
	return rec, nil
}

// Current returns the user's in-flight withdrawal, or nil.
func (s *WithdrawalService) Current(userID uint) (*models.Withdrawal, error) {
	return s.withdrawalRepo.GetCurrent(userID)
}

func (s *WithdrawalService) History(userID uint, limit int) ([]models.Withdrawal, error) {
	return s.withdrawalRepo.ListByUser(userID, limit)
}

func (s *WithdrawalService) notify(w *models.Withdrawal) {
	if s.hub == nil || w == nil {
		return
	}
	s.hub.BroadcastToUser(w.UserID, map[string]interface{}{
		"type":          "withdrawal_status",
		"id":            w.ID,
		"reference_id":  w.ReferenceID,
		"asset":         w.Asset,
		"status":        w.Status,
		"tx_hash":       w.TxHash,
		"reject_reason": w.RejectReason,
		"fail_reason":   w.FailReason,
	})
}
