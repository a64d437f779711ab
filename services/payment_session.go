package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JonasKash/sok/gateway"
	"github.com/JonasKash/sok/models"
)

// SessionState is the lifecycle position of one payment session.
type SessionState string

const (
	StateIdle                SessionState = "idle"
	StateCreating            SessionState = "creating"
	StateAwaitingPayerAction SessionState = "awaiting_payer_action"
	StateApproved            SessionState = "approved"
	StateRejected            SessionState = "rejected"
	StateCancelled           SessionState = "cancelled"
	StateErrored             SessionState = "errored"
)

const (
	defaultPollInterval = 5 * time.Second

	// ConnectivityWarnThreshold is the number of consecutive poll failures
	// before the session surfaces a connectivity warning. The session itself
	// is not abandoned.
	ConnectivityWarnThreshold = 6
)

var (
	ErrSessionBusy  = errors.New("payment session already created")
	ErrNotRetryable = errors.New("payment session is not in an errored state")
)

// ApprovalListener receives the one-time notification when a session
// reaches Approved.
type ApprovalListener interface {
	PaymentApproved(ctx context.Context, attribution models.AttributionContext, payment *models.PixPayment)
}

// PaymentSession owns a single payment's lifecycle from intent creation
// through a terminal status. The session is the only writer of its own
// state; the gateway view is only refreshed by re-fetching, never mutated
// locally.
type PaymentSession struct {
	gw          gateway.Port
	listener    ApprovalListener
	attribution models.AttributionContext
	logger      *zap.Logger
	interval    time.Duration

	mu                  sync.Mutex
	state               SessionState
	intent              models.PaymentIntent
	payment             *models.PixPayment
	pollCancel          context.CancelFunc
	pollDone            chan struct{}
	pollFailures        int
	connectivityWarning bool
	notified            bool
	lastErr             error
}

func NewPaymentSession(gw gateway.Port, listener ApprovalListener, attribution models.AttributionContext, logger *zap.Logger) *PaymentSession {
	return &PaymentSession{
		gw:          gw,
		listener:    listener,
		attribution: attribution,
		logger:      logger,
		interval:    defaultPollInterval,
		state:       StateIdle,
	}
}

// Create submits the intent to the gateway. No polling happens until the
// creation response has been received. On failure the session lands in
// Errored and exposes Retry.
func (s *PaymentSession) Create(ctx context.Context, intent models.PaymentIntent) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrSessionBusy
	}
	s.state = StateCreating
	s.intent = intent
	s.mu.Unlock()

	payment, err := s.gw.CreatePayment(ctx, intent)

	s.mu.Lock()
	if s.state != StateCreating {
		// Dismissed while the creation request was in flight. The late
		// result must not resurrect the session.
		s.mu.Unlock()
		return err
	}
	if err != nil {
		s.state = StateErrored
		s.lastErr = err
		s.mu.Unlock()
		s.logger.Warn("payment creation failed", zap.Error(err))
		return err
	}
	s.payment = payment
	s.pollFailures = 0
	if !models.IsTerminalStatus(payment.Status) {
		s.state = StateAwaitingPayerAction
		s.mu.Unlock()
		s.logger.Info("payment session created",
			zap.Int64("payment_id", payment.ID),
			zap.String("status", payment.Status),
		)
		return nil
	}
	s.mu.Unlock()
	// The gateway can, in principle, answer creation with a terminal
	// status straight away.
	s.applyTerminal(ctx, payment.Status)
	return nil
}

// Retry re-enters Creating with the same logical intent. A brand-new
// idempotency key is attached by the gateway client on every creation call,
// including retries after pure network failures.
func (s *PaymentSession) Retry(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateErrored {
		s.mu.Unlock()
		return ErrNotRetryable
	}
	intent := s.intent
	s.state = StateIdle
	s.lastErr = nil
	s.mu.Unlock()
	return s.Create(ctx, intent)
}

// StartPolling launches the status poll loop. It is a no-op unless the
// session is awaiting payer action, and at most one loop runs per session.
func (s *PaymentSession) StartPolling(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateAwaitingPayerAction || s.pollCancel != nil {
		s.mu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.pollCancel = cancel
	s.pollDone = done
	interval := s.interval
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				if !s.Tick(pollCtx) {
					return
				}
			}
		}
	}()
}

// Tick performs a single status poll and returns false once polling must
// stop. The ticker loop serializes calls, so at most one status request is
// in flight per session.
func (s *PaymentSession) Tick(ctx context.Context) bool {
	s.mu.Lock()
	if s.state != StateAwaitingPayerAction {
		s.mu.Unlock()
		return false
	}
	id := s.payment.ID
	s.mu.Unlock()

	latest, err := s.gw.GetPaymentStatus(ctx, id)

	s.mu.Lock()
	if s.state != StateAwaitingPayerAction {
		// Session was dismissed while the request was in flight; the
		// stale response must not be applied.
		s.mu.Unlock()
		return false
	}
	if err != nil {
		// Transient poll failures are absorbed; only creation failures
		// are fatal to the session.
		s.pollFailures++
		if s.pollFailures >= ConnectivityWarnThreshold {
			s.connectivityWarning = true
		}
		s.mu.Unlock()
		s.logger.Warn("payment status poll failed",
			zap.Int64("payment_id", id),
			zap.Error(err),
		)
		return true
	}
	s.pollFailures = 0
	s.connectivityWarning = false
	changed := s.payment.Status != latest.Status
	s.payment.Status = latest.Status
	s.payment.StatusDetail = latest.StatusDetail
	s.mu.Unlock()

	if changed {
		s.logger.Info("payment status changed",
			zap.Int64("payment_id", id),
			zap.String("status", latest.Status),
		)
	}

	switch latest.Status {
	case models.StatusApproved, models.StatusRejected, models.StatusCancelled:
		s.applyTerminal(ctx, latest.Status)
		return false
	default:
		// Unknown statuses are treated as non-terminal: keep polling,
		// never interpret them as approved.
		return true
	}
}

// applyTerminal moves the session to its terminal state. The Approved edge
// fires the listener exactly once. Only a live session transitions; a
// dismissal racing the status result wins and nobody is notified.
func (s *PaymentSession) applyTerminal(ctx context.Context, status string) {
	s.mu.Lock()
	switch s.state {
	case StateCreating, StateAwaitingPayerAction:
	default:
		s.mu.Unlock()
		return
	}
	var payment models.PixPayment
	if s.payment != nil {
		payment = *s.payment
	}
	notify := false
	switch status {
	case models.StatusApproved:
		s.state = StateApproved
		notify = !s.notified
		s.notified = true
	case models.StatusRejected:
		s.state = StateRejected
	case models.StatusCancelled:
		s.state = StateCancelled
	}
	attribution := s.attribution
	listener := s.listener
	s.mu.Unlock()

	if notify && listener != nil {
		listener.PaymentApproved(ctx, attribution, &payment)
	}
}

// Dismiss cancels polling and abandons the session. A dismissed session
// never fires the approval listener.
func (s *PaymentSession) Dismiss() {
	s.mu.Lock()
	cancel := s.pollCancel
	done := s.pollDone
	s.pollCancel = nil
	s.pollDone = nil
	switch s.state {
	case StateIdle, StateCreating, StateAwaitingPayerAction:
		s.state = StateCancelled
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// State returns the current lifecycle position.
func (s *PaymentSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SessionSnapshot is the externally visible view of a session.
type SessionSnapshot struct {
	State               SessionState `json:"state"`
	Status              string       `json:"status,omitempty"`
	StatusDetail        string       `json:"status_detail,omitempty"`
	PaymentID           int64        `json:"payment_id,omitempty"`
	QRCode              string       `json:"qr_code,omitempty"`
	QRImageURL          string       `json:"qr_image_url,omitempty"`
	TicketURL           string       `json:"ticket_url,omitempty"`
	ExpiresAt           string       `json:"expires_at,omitempty"`
	ConnectivityWarning bool         `json:"connectivity_warning,omitempty"`
	ErrorMessage        string       `json:"error_message,omitempty"`
	AuthorizationError  bool         `json:"authorization_error,omitempty"`
}

// Snapshot captures the session for display. Internal errors are mapped to
// canned user-facing messages; raw gateway payloads are never exposed.
func (s *PaymentSession) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := SessionSnapshot{
		State:               s.state,
		ConnectivityWarning: s.connectivityWarning,
	}
	if s.payment != nil {
		snap.Status = s.payment.Status
		snap.StatusDetail = s.payment.StatusDetail
		snap.PaymentID = s.payment.ID
		snap.QRCode = s.payment.QRCode
		snap.QRImageURL = s.payment.QRImageURL()
		snap.TicketURL = s.payment.TicketURL
		snap.ExpiresAt = s.payment.DateOfExpiration
	}
	if s.state == StateErrored && s.lastErr != nil {
		snap.ErrorMessage = gateway.UserMessage(s.lastErr)
		var ge *gateway.GatewayError
		if errors.As(s.lastErr, &ge) && ge.Authorization() {
			snap.AuthorizationError = true
		}
	}
	return snap
}

// LastError returns the creation error that moved the session to Errored.
func (s *PaymentSession) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SetPollInterval overrides the polling cadence. Used by wiring and tests.
func (s *PaymentSession) SetPollInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
}
