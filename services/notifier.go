package services

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JonasKash/sok/models"
	"github.com/JonasKash/sok/repository"
)

// ConversionNotifier turns an approved payment into downstream conversion
// signals: a payment_confirmed funnel event and an ad platform purchase.
// Every delivery is at-most-once per payment and best-effort; the payment
// itself is already settled by the time this runs, so nothing here may fail
// the checkout.
type ConversionNotifier struct {
	funnel *FunnelService
	ads    AdConversionSink
	leads  repository.LeadRepository
	logger *zap.Logger

	mu    sync.Mutex
	fired map[int64]struct{}
}

func NewConversionNotifier(funnel *FunnelService, ads AdConversionSink, leads repository.LeadRepository, logger *zap.Logger) *ConversionNotifier {
	return &ConversionNotifier{
		funnel: funnel,
		ads:    ads,
		leads:  leads,
		logger: logger,
		fired:  make(map[int64]struct{}),
	}
}

// PaymentApproved implements ApprovalListener. Duplicate approvals for the
// same payment id are dropped here as a second line of defense behind the
// session's own once-guard.
func (n *ConversionNotifier) PaymentApproved(ctx context.Context, attribution models.AttributionContext, payment *models.PixPayment) {
	n.mu.Lock()
	if _, seen := n.fired[payment.ID]; seen {
		n.mu.Unlock()
		return
	}
	n.fired[payment.ID] = struct{}{}
	n.mu.Unlock()

	paymentID := strconv.FormatInt(payment.ID, 10)
	n.logger.Info("payment approved, firing conversion signals",
		zap.String("payment_id", paymentID),
		zap.String("session_id", attribution.SessionID),
	)

	event := &models.FunnelEvent{
		Stage:     models.StagePaymentConfirmed,
		SessionID: attribution.SessionID,
		PaymentID: &paymentID,
		Amount:    decimal.NullDecimal{Decimal: payment.TransactionAmount, Valid: true},
		Currency:  "BRL",
	}
	if attribution.LeadID != "" {
		leadID := attribution.LeadID
		event.LeadID = &leadID
	}
	event.SetUTM(attribution.UTM)

	if n.funnel != nil {
		if err := n.funnel.Record(ctx, event); err != nil {
			n.logger.Error("payment_confirmed event not recorded",
				zap.String("payment_id", paymentID),
				zap.Error(err),
			)
		}
	}

	if n.ads != nil {
		purchase := PurchaseEvent{
			Value:    payment.TransactionAmount,
			Currency: "BRL",
			OrderID:  paymentID,
			LeadID:   attribution.LeadID,
			Phone:    n.leadPhone(ctx, attribution.LeadID),
		}
		if err := n.ads.TrackPurchase(ctx, purchase); err != nil {
			n.logger.Error("purchase conversion not delivered",
				zap.String("payment_id", paymentID),
				zap.Error(err),
			)
		}
	}
}

// leadPhone resolves the captured lead's WhatsApp number so the ad platform
// can match the conversion on hashed contact data. A failed lookup only
// degrades match quality, so it is logged and skipped.
func (n *ConversionNotifier) leadPhone(ctx context.Context, leadID string) string {
	if n.leads == nil || leadID == "" {
		return ""
	}
	id, err := uuid.Parse(leadID)
	if err != nil {
		return ""
	}
	lead, err := n.leads.GetByID(ctx, id)
	if err != nil {
		n.logger.Warn("lead lookup for conversion failed",
			zap.String("lead_id", leadID),
			zap.Error(err),
		)
		return ""
	}
	return lead.WhatsApp
}
