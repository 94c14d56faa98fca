package ipay88

import (
	"fmt"
	"net/http"
)

type ValidationReason string

const (
	ReasonSignatureMismatch ValidationReason = "SIGNATURE_MISMATCH"
	ReasonMalformedPayload  ValidationReason = "MALFORMED_PAYLOAD"
)

type ValidationResult struct {
	OK     bool
	Reason ValidationReason
}

// ParseCallback reads the form-encoded backend post into a CallbackPayload.
// No validation happens here; the payload stays untrusted.
func ParseCallback(r *http.Request) (*CallbackPayload, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse callback form: %w", err)
	}

	raw := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		raw[k] = r.PostForm.Get(k)
	}

	return &CallbackPayload{
		MerchantCode: r.PostForm.Get("MerchantCode"),
		PaymentID:    r.PostForm.Get("PaymentId"),
		RefNo:        r.PostForm.Get("RefNo"),
		Amount:       r.PostForm.Get("Amount"),
		Currency:     r.PostForm.Get("Currency"),
		Remark:       r.PostForm.Get("Remark"),
		TransID:      r.PostForm.Get("TransId"),
		AuthCode:     r.PostForm.Get("AuthCode"),
		Status:       r.PostForm.Get("Status"),
		ErrDesc:      r.PostForm.Get("ErrDesc"),
		Signature:    r.PostForm.Get("Signature"),
		Raw:          raw,
	}, nil
}

// Validator re-derives the response signature for inbound callbacks.
// Stateless; it never looks at order state, so it is safe from any number
// of concurrent callers.
type Validator struct {
	cfg Config
}

func NewValidator(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// Validate checks the payload carries the contracted fields and that its
// signature matches one computed with our merchant key. Comparison is
// constant time.
func (v *Validator) Validate(p *CallbackPayload) ValidationResult {
	if p == nil || p.RefNo == "" || p.Status == "" || p.Signature == "" {
		return ValidationResult{OK: false, Reason: ReasonMalformedPayload}
	}

	expected := ResponseSignature(
		v.cfg.MerchantKey,
		v.cfg.MerchantCode,
		p.PaymentID,
		p.RefNo,
		p.Amount,
		p.Currency,
		p.Status,
	)

	if !VerifySignature(expected, p.Signature) {
		return ValidationResult{OK: false, Reason: ReasonSignatureMismatch}
	}

	return ValidationResult{OK: true}
}
