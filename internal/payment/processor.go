package payment

import (
	"context"
	"errors"
	"fmt"

	"storepay-be/internal/ipay88"
	"storepay-be/internal/logger"
	"storepay-be/internal/order"

	"go.uber.org/zap"
)

type Outcome string

const (
	// OutcomeApplied means the callback was recorded; the order may or may
	// not have been failed, see MarkedFailed.
	OutcomeApplied Outcome = "APPLIED"

	// OutcomeOrderNotFound means the callback referenced an order we no
	// longer know. Acknowledged as a no-op so the gateway stops retrying.
	OutcomeOrderNotFound Outcome = "ORDER_NOT_FOUND"
)

type ProcessingResult struct {
	Outcome      Outcome
	MarkedFailed bool
}

// Processor applies a validated callback to order state exactly once.
type Processor interface {
	Apply(ctx context.Context, payload *ipay88.CallbackPayload) (ProcessingResult, error)
}

type processor struct {
	orders order.Repository
}

func NewProcessor(orders order.Repository) Processor {
	return &processor{orders: orders}
}

// Apply expects a payload that already passed signature validation. The
// audit write and the conditional FAILED transition happen in one
// transaction; a persistence error leaves the order untouched and is safe
// to retry on the next delivery.
func (p *processor) Apply(ctx context.Context, payload *ipay88.CallbackPayload) (ProcessingResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("ref_no", payload.RefNo),
		zap.String("status", payload.Status),
	)

	o, err := p.orders.GetByOrderNo(ctx, payload.RefNo)
	if errors.Is(err, order.ErrOrderNotFound) {
		// Gateways retry for orders that no longer exist; acknowledge
		// instead of erroring.
		log.Warn("callback for unknown order, acknowledging as no-op")
		return ProcessingResult{Outcome: OutcomeOrderNotFound}, nil
	}
	if err != nil {
		return ProcessingResult{}, fmt.Errorf("load order: %w", err)
	}

	raw, err := payload.AuditJSON()
	if err != nil {
		return ProcessingResult{}, fmt.Errorf("encode audit payload: %w", err)
	}

	// Status "0" with no authorization code is the gateway's declared
	// failure; every other combination counts as success and leaves the
	// order status alone.
	declined := payload.Status == ipay88.StatusFailed && payload.AuthCode == ""

	markedFailed, err := p.orders.RecordCallbackTx(ctx, o.OrderNo, raw, declined)
	if err != nil {
		return ProcessingResult{}, fmt.Errorf("record callback: %w", err)
	}

	if declined && !markedFailed {
		log.Info("order already in a terminal state, failure transition skipped")
	}
	if markedFailed {
		log.Info("order marked as failed from gateway callback",
			zap.String("err_desc", payload.ErrDesc),
		)
	}

	return ProcessingResult{Outcome: OutcomeApplied, MarkedFailed: markedFailed}, nil
}
