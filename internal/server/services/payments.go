package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/logging"
	"github.com/dmitrijs2005/confkeeper/internal/server/config"
	"github.com/dmitrijs2005/confkeeper/internal/server/models"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/conferences"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Gateway decides whether a card charge goes through.
type Gateway interface {
	Charge(ctx context.Context, amount float64, card Card) bool
}

type Card struct {
	Number string
	CVV    string
	Expiry string
}

// RandomGateway approves a charge with a fixed probability.
type RandomGateway struct {
	SuccessRate float64
	roll        func() float64
}

func NewRandomGateway(rate float64) *RandomGateway {
	return &RandomGateway{SuccessRate: rate, roll: rand.Float64}
}

func (g *RandomGateway) Charge(context.Context, float64, Card) bool {
	return g.roll() < g.SuccessRate
}

type ProcessInput struct {
	PaymentID  string `json:"payment_id"`
	CardNumber string `json:"card_number"`
	CVV        string `json:"cvv"`
	Expiry     string `json:"expiry"`
}

var (
	errPaymentNotFound  = common.NewError(common.ErrorNotFound, "Payment not found")
	errNotPayer         = common.NewError(common.ErrForbidden, "Payment belongs to another user")
	errPaymentProcessed = common.NewError(common.ErrVersionConflict, "Payment already processed")
	errPaymentDeclined  = common.NewError(common.ErrorValidation, "Payment processing failed. Please try again.")
	errRefundNotAllowed = common.NewError(common.ErrorValidation, "Only completed payments can be refunded")
)

type PaymentService struct {
	repos   repomanager.RepositoryManager
	log     logging.Logger
	timeout time.Duration
	now     func() time.Time
	gateway Gateway
}

func NewPaymentService(m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger, gw Gateway) *PaymentService {
	if gw == nil {
		gw = NewRandomGateway(cfg.PaymentSuccessRate)
	}
	return &PaymentService{
		repos:   m,
		log:     log,
		timeout: cfg.StoreTimeout,
		now:     func() time.Time { return time.Now().UTC() },
		gateway: gw,
	}
}

// Initiate opens a pending payment for a conference.
func (s *PaymentService) Initiate(ctx context.Context, actor *models.Identity, conferenceID string, amount float64) (*models.Payment, error) {
	if actor == nil {
		return nil, errLoginRequired
	}
	if strings.TrimSpace(conferenceID) == "" || amount <= 0 {
		return nil, common.NewError(common.ErrorValidation, "Invalid conference or amount")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	c, err := s.repos.Conferences().GetByID(ctx, conferenceID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, errConferenceNotFound
		}
		return nil, storeFailure(ctx, s.log, "initiate payment", err)
	}

	p := &models.Payment{
		ID:             uuid.NewString(),
		UserID:         actor.UserID,
		ConferenceID:   c.ID,
		ConferenceName: c.Name,
		Amount:         amount,
		Status:         models.PaymentPending,
		CreatedAt:      s.now(),
	}
	if err := s.repos.Payments().Create(ctx, p); err != nil {
		return nil, storeFailure(ctx, s.log, "initiate payment", err)
	}

	s.log.Info(ctx, "payment initiated", "payment_id", p.ID, "conference_id", c.ID)
	return p, nil
}

// Process charges a pending payment. A declined charge still returns the
// failed payment together with the error.
func (s *PaymentService) Process(ctx context.Context, actor *models.Identity, in ProcessInput) (*models.Payment, error) {
	if actor == nil {
		return nil, errLoginRequired
	}
	card := Card{
		Number: strings.ReplaceAll(strings.TrimSpace(in.CardNumber), " ", ""),
		CVV:    strings.TrimSpace(in.CVV),
		Expiry: strings.TrimSpace(in.Expiry),
	}
	if in.PaymentID == "" || card.Number == "" || card.CVV == "" || card.Expiry == "" {
		return nil, common.NewError(common.ErrorValidation, "Missing payment details")
	}
	if !digits(card.Number, 16) {
		return nil, common.NewError(common.ErrorValidation, "Invalid card number")
	}
	if !digits(card.CVV, 3) {
		return nil, common.NewError(common.ErrorValidation, "Invalid CVV")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	p, err := s.owned(ctx, actor, in.PaymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PaymentPending {
		return nil, errPaymentProcessed
	}

	now := s.now()
	p.ProcessedAt = &now
	approved := s.gateway.Charge(ctx, p.Amount, card)
	if approved {
		txn, err := common.MakeReference("TXN", 6)
		if err != nil {
			return nil, err
		}
		p.Status = models.PaymentCompleted
		p.TransactionID = txn
	} else {
		p.Status = models.PaymentFailed
	}

	if err := s.repos.Payments().Update(ctx, p, models.PaymentPending); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return nil, errPaymentProcessed
		}
		return nil, storeFailure(ctx, s.log, "process payment", err)
	}

	if !approved {
		s.log.Info(ctx, "payment declined", "payment_id", p.ID)
		return p, errPaymentDeclined
	}

	s.log.Info(ctx, "payment completed", "payment_id", p.ID, "transaction_id", p.TransactionID)
	err = s.repos.Conferences().AddAttendee(ctx, p.ConferenceID, p.UserID)
	if err != nil && !errors.Is(err, conferences.ErrAlreadyRegistered) {
		s.log.Warn(ctx, "paid user could not join conference", "payment_id", p.ID, "conference_id", p.ConferenceID, "error", err)
	}
	return p, nil
}

func (s *PaymentService) Status(ctx context.Context, actor *models.Identity, id string) (*models.Payment, error) {
	if actor == nil {
		return nil, errLoginRequired
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.owned(ctx, actor, id)
}

// History lists the actor's payments, newest first.
func (s *PaymentService) History(ctx context.Context, actor *models.Identity) ([]*models.Payment, error) {
	if actor == nil {
		return nil, errLoginRequired
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	list, err := s.repos.Payments().ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, storeFailure(ctx, s.log, "payment history", err)
	}
	return list, nil
}

func (s *PaymentService) Refund(ctx context.Context, actor *models.Identity, id, reason string) (*models.Payment, error) {
	if actor == nil {
		return nil, errLoginRequired
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	p, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PaymentCompleted {
		return nil, errRefundNotAllowed
	}

	ref, err := common.MakeReference("REF", 6)
	if err != nil {
		return nil, err
	}
	p.Status = models.PaymentRefundRequested
	p.RefundID = ref
	p.RefundReason = strings.TrimSpace(reason)

	if err := s.repos.Payments().Update(ctx, p, models.PaymentCompleted); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return nil, errRefundNotAllowed
		}
		return nil, storeFailure(ctx, s.log, "refund payment", err)
	}

	s.log.Info(ctx, "refund requested", "payment_id", p.ID, "refund_id", p.RefundID)
	return p, nil
}

func (s *PaymentService) owned(ctx context.Context, actor *models.Identity, id string) (*models.Payment, error) {
	p, err := s.repos.Payments().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, errPaymentNotFound
		}
		return nil, storeFailure(ctx, s.log, "load payment", err)
	}
	if p.UserID != actor.UserID {
		return nil, errNotPayer
	}
	return p, nil
}

func digits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
