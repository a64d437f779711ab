package services

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JonasKash/sok/gateway"
	"github.com/JonasKash/sok/models"
	"github.com/JonasKash/sok/repository"
)

var (
	ErrLeadRequired    = errors.New("lead must be captured before starting a payment")
	ErrAttemptNotFound = errors.New("checkout attempt not found")
	ErrInvalidLead     = errors.New("lead is missing required fields")
)

var nonDigits = regexp.MustCompile(`\D`)

// CheckoutAttempt is one visitor's run at the paywall: attribution captured
// on open, a lead captured before payment, and at most one payment session.
type CheckoutAttempt struct {
	ID          string
	Attribution models.AttributionContext
	Lead        *models.Lead
	Session     *PaymentSession
	CreatedAt   time.Time
}

// CheckoutManager orchestrates the fixed checkout step order: open, lead
// capture, payment. It owns the attempt registry and enforces that a lead
// exists before any money moves.
type CheckoutManager struct {
	gw          gateway.Port
	listener    ApprovalListener
	leads       repository.LeadRepository
	attribution repository.AttributionRepository
	funnel      *FunnelService
	crm         *WebhookClient
	logger      *zap.Logger

	price      decimal.Decimal
	successURL string

	mu       sync.Mutex
	attempts map[string]*CheckoutAttempt
}

func NewCheckoutManager(
	gw gateway.Port,
	listener ApprovalListener,
	leads repository.LeadRepository,
	attribution repository.AttributionRepository,
	funnel *FunnelService,
	crm *WebhookClient,
	price decimal.Decimal,
	successURL string,
	logger *zap.Logger,
) *CheckoutManager {
	return &CheckoutManager{
		gw:          gw,
		listener:    listener,
		leads:       leads,
		attribution: attribution,
		funnel:      funnel,
		crm:         crm,
		price:       price,
		successURL:  successURL,
		logger:      logger,
		attempts:    make(map[string]*CheckoutAttempt),
	}
}

// Open starts a new attempt and persists the attribution snapshot so a
// returning visitor keeps first-touch UTM values.
func (m *CheckoutManager) Open(ctx context.Context, attribution models.AttributionContext) (*CheckoutAttempt, error) {
	if attribution.SessionID == "" {
		attribution.SessionID = uuid.NewString()
	}

	if stored, err := m.attribution.Get(ctx, attribution.SessionID); err != nil {
		m.logger.Warn("attribution lookup failed", zap.Error(err))
	} else if stored != nil && attribution.UTM.IsZero() {
		attribution.UTM = stored.UTM
	}
	if err := m.attribution.Save(ctx, attribution); err != nil {
		m.logger.Warn("attribution save failed", zap.Error(err))
	}

	attempt := &CheckoutAttempt{
		ID:          uuid.NewString(),
		Attribution: attribution,
		CreatedAt:   time.Now(),
	}

	m.mu.Lock()
	m.attempts[attempt.ID] = attempt
	m.mu.Unlock()

	m.recordStage(ctx, models.StageCheckoutClick, attempt, nil)
	return attempt, nil
}

// CaptureLead persists the lead and forwards it to the CRM webhook. The
// persist is load-bearing; the CRM forward is best-effort.
func (m *CheckoutManager) CaptureLead(ctx context.Context, attemptID string, lead *models.Lead) error {
	attempt, err := m.attempt(attemptID)
	if err != nil {
		return err
	}

	lead.WhatsApp = nonDigits.ReplaceAllString(lead.WhatsApp, "")
	if lead.WhatsApp == "" || lead.BusinessName == "" {
		return ErrInvalidLead
	}
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	lead.SessionID = attempt.Attribution.SessionID
	lead.UTMSource = attempt.Attribution.UTM.Source
	lead.UTMMedium = attempt.Attribution.UTM.Medium
	lead.UTMCampaign = attempt.Attribution.UTM.Campaign

	if err := m.leads.Create(ctx, lead); err != nil {
		return err
	}

	m.mu.Lock()
	attempt.Lead = lead
	attempt.Attribution.LeadID = lead.ID.String()
	attribution := attempt.Attribution
	m.mu.Unlock()

	if err := m.attribution.Save(ctx, attribution); err != nil {
		m.logger.Warn("attribution save failed", zap.Error(err))
	}
	if m.crm != nil {
		if err := m.crm.Post(ctx, lead); err != nil {
			m.logger.Warn("crm webhook delivery failed",
				zap.String("lead_id", lead.ID.String()),
				zap.Error(err),
			)
		}
	}

	m.recordStage(ctx, models.StageCheckoutFormSubmit, attempt, lead)
	return nil
}

// StartPayment creates the PIX session for an attempt and begins polling.
// A prior session in a terminal or errored state is discarded; its handle
// can no longer notify. An in-flight session is reused as-is.
func (m *CheckoutManager) StartPayment(ctx context.Context, attemptID string) (*PaymentSession, error) {
	attempt, err := m.attempt(attemptID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if attempt.Lead == nil {
		m.mu.Unlock()
		return nil, ErrLeadRequired
	}
	if prev := attempt.Session; prev != nil {
		switch prev.State() {
		case StateIdle, StateCreating, StateAwaitingPayerAction:
			m.mu.Unlock()
			return prev, nil
		}
		prev.Dismiss()
	}
	session := NewPaymentSession(m.gw, m.listener, attempt.Attribution, m.logger)
	attempt.Session = session
	m.mu.Unlock()

	// Payer fields stay on gateway defaults; the lead's WhatsApp-first
	// contact data does not map onto the processor's payer schema.
	intent := models.PaymentIntent{Amount: m.price}
	if err := session.Create(ctx, intent); err != nil {
		return session, err
	}
	session.StartPolling(context.WithoutCancel(ctx))
	return session, nil
}

// Snapshot returns the attempt's externally visible state, including the
// confirmation redirect URL once the payment is approved.
func (m *CheckoutManager) Snapshot(attemptID string) (*AttemptSnapshot, error) {
	attempt, err := m.attempt(attemptID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	attribution := attempt.Attribution
	session := attempt.Session
	hasLead := attempt.Lead != nil
	m.mu.Unlock()

	snap := &AttemptSnapshot{
		AttemptID: attemptID,
		SessionID: attribution.SessionID,
		LeadID:    attribution.LeadID,
		HasLead:   hasLead,
		Payment:   SessionSnapshot{State: StateIdle},
	}
	if session != nil {
		snap.Payment = session.Snapshot()
		if snap.Payment.State == StateApproved {
			snap.RedirectURL = m.buildRedirectURL(attribution, snap.Payment.PaymentID)
		}
	}
	return snap, nil
}

// Dismiss abandons the attempt and cancels any active polling.
func (m *CheckoutManager) Dismiss(attemptID string) error {
	m.mu.Lock()
	attempt, ok := m.attempts[attemptID]
	if ok {
		delete(m.attempts, attemptID)
	}
	m.mu.Unlock()
	if !ok {
		return ErrAttemptNotFound
	}
	if attempt.Session != nil {
		attempt.Session.Dismiss()
	}
	m.logger.Info("checkout attempt dismissed", zap.String("attempt_id", attemptID))
	return nil
}

// AttemptSnapshot is the checkout status payload served to the front end.
type AttemptSnapshot struct {
	AttemptID   string          `json:"attempt_id"`
	SessionID   string          `json:"session_id"`
	LeadID      string          `json:"lead_id,omitempty"`
	HasLead     bool            `json:"has_lead"`
	Payment     SessionSnapshot `json:"payment"`
	RedirectURL string          `json:"redirect_url,omitempty"`
}

func (m *CheckoutManager) attempt(id string) (*CheckoutAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempt, ok := m.attempts[id]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	return attempt, nil
}

// buildRedirectURL assembles the post-payment confirmation URL. Every value
// is query-encoded and absent values are omitted rather than sent empty.
func (m *CheckoutManager) buildRedirectURL(attribution models.AttributionContext, paymentID int64) string {
	base, err := url.Parse(m.successURL)
	if err != nil {
		m.logger.Error("success url misconfigured", zap.String("url", m.successURL), zap.Error(err))
		return ""
	}

	values := base.Query()
	attribution.UTM.AppendTo(values)
	if attribution.LeadID != "" {
		values.Set("lead_id", attribution.LeadID)
	}
	if attribution.SessionID != "" {
		values.Set("session_id", attribution.SessionID)
	}
	if paymentID != 0 {
		values.Set("payment_id", strconv.FormatInt(paymentID, 10))
	}
	values.Set("payment_amount", m.price.StringFixed(2))
	values.Set("payment_method", "pix")
	values.Set("timestamp", time.Now().UTC().Format(time.RFC3339))

	base.RawQuery = values.Encode()
	return base.String()
}

func (m *CheckoutManager) recordStage(ctx context.Context, stage string, attempt *CheckoutAttempt, lead *models.Lead) {
	if m.funnel == nil {
		return
	}
	event := &models.FunnelEvent{
		Stage:     stage,
		SessionID: attempt.Attribution.SessionID,
	}
	if lead != nil {
		leadID := lead.ID.String()
		event.LeadID = &leadID
	}
	event.SetUTM(attempt.Attribution.UTM)
	if err := m.funnel.Record(ctx, event); err != nil {
		m.logger.Warn("checkout stage not recorded",
			zap.String("stage", stage),
			zap.Error(err),
		)
	}
}
