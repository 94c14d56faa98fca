package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"storepay-be/internal/ipay88"
	"storepay-be/internal/logger"
	"storepay-be/internal/payment"

	"go.uber.org/zap"
)

// receiveOK is the literal acknowledgment body the gateway expects from a
// backend-post endpoint. Anything else triggers redelivery.
const receiveOK = "RECEIVEOK"

// Handler serves the two gateway-facing endpoints: the payment form field
// endpoint the storefront renders, and the backend-post callback.
type Handler struct {
	Builder   *ipay88.RequestBuilder
	Validator *ipay88.Validator
	Processor payment.Processor
	Payments  payment.Repository
}

func NewWebhookHandler(
	builder *ipay88.RequestBuilder,
	validator *ipay88.Validator,
	processor payment.Processor,
	payments payment.Repository,
) *Handler {
	return &Handler{
		Builder:   builder,
		Validator: validator,
		Processor: processor,
		Payments:  payments,
	}
}

// PaymentFormHandler builds the signed field set for an order. The
// storefront renders these into the auto-submitting form; shoppers only
// ever see a generic message on failure.
func (h *Handler) PaymentFormHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := h.Builder.BuildRequest(ctx, r.URL.Query().Get("orderNo"))
	if errors.Is(err, ipay88.ErrInvalidRequest) {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to build payment request", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(req); err != nil {
		logger.FromCtx(ctx).Error("failed to write payment request", zap.Error(err))
	}
}

// CallbackHandler is the gateway backend-post route.
func (h *Handler) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx)

	// Step 1 – parse the form payload
	payload, err := ipay88.ParseCallback(r)
	if err != nil {
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	raw, err := payload.AuditJSON()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	sum := sha256.Sum256(raw)
	eventID := hex.EncodeToString(sum[:])

	// Step 2 – verify the response signature before trusting anything
	res := h.Validator.Validate(payload)
	if !res.OK {
		h.auditRejected(ctx, eventID, payload, raw, res)
		log.Warn("rejecting gateway callback",
			zap.String("reason", string(res.Reason)),
			zap.String("ref_no", payload.RefNo),
		)
		if res.Reason == ipay88.ReasonMalformedPayload {
			http.Error(w, "malformed payload", http.StatusBadRequest)
			return
		}
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	// Step 3 – record the callback. Byte-identical redeliveries collapse
	// onto the existing row, but only a row that finished processing is
	// acknowledged without re-running the transition: a delivery that
	// failed mid-flight must be retried, not swallowed.
	callbackID, alreadyProcessed, err := h.Payments.SaveCallback(
		ctx, payment.ProviderIPay88, eventID, payload.RefNo, raw, true,
	)
	if err != nil {
		log.Error("failed to save gateway callback", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if alreadyProcessed {
		log.Info("duplicate gateway callback acknowledged",
			zap.String("ref_no", payload.RefNo),
			zap.String("event_id", eventID),
		)
		fmt.Fprint(w, receiveOK)
		return
	}

	// Step 4 – apply the order-state transition
	result, err := h.Processor.Apply(ctx, payload)
	if err != nil {
		log.Error("failed to apply gateway callback",
			zap.String("ref_no", payload.RefNo),
			zap.Error(err),
		)
		if markErr := h.Payments.MarkWebhookFailed(ctx, callbackID, err.Error()); markErr != nil {
			log.Error("failed to mark callback as failed", zap.Error(markErr))
		}
		http.Error(w, "failed to process callback", http.StatusInternalServerError)
		return
	}

	if err := h.Payments.MarkWebhookProcessed(ctx, callbackID); err != nil {
		// The state change already committed; log and still acknowledge so
		// the gateway does not redeliver.
		log.Error("failed to mark callback as processed", zap.Error(err))
	}

	log.Info("gateway callback processed",
		zap.String("ref_no", payload.RefNo),
		zap.String("outcome", string(result.Outcome)),
		zap.Bool("marked_failed", result.MarkedFailed),
	)

	fmt.Fprint(w, receiveOK)
}

// auditRejected keeps a trace of callbacks that failed validation. The
// rejection itself never depends on this write succeeding.
func (h *Handler) auditRejected(
	ctx context.Context,
	eventID string,
	payload *ipay88.CallbackPayload,
	raw json.RawMessage,
	res ipay88.ValidationResult,
) {
	log := logger.FromCtx(ctx)

	callbackID, _, err := h.Payments.SaveCallback(
		ctx, payment.ProviderIPay88, eventID, payload.RefNo, raw, false,
	)
	if err != nil {
		log.Error("failed to audit rejected callback", zap.Error(err))
		return
	}
	if err := h.Payments.MarkWebhookFailed(ctx, callbackID, string(res.Reason)); err != nil {
		log.Error("failed to record rejection reason", zap.Error(err))
	}
}
