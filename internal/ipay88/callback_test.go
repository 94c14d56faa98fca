package ipay88

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedCallbackForm(secret string, overrides map[string]string) url.Values {
	fields := map[string]string{
		"MerchantCode": "M00001",
		"PaymentId":    "1",
		"RefNo":        "ORD-1002",
		"Amount":       "1,250.50",
		"Currency":     "MYR",
		"Status":       StatusSuccess,
		"AuthCode":     "ABC123",
	}
	for k, v := range overrides {
		fields[k] = v
	}

	sig := ResponseSignature(
		secret,
		fields["MerchantCode"],
		fields["PaymentId"],
		fields["RefNo"],
		fields["Amount"],
		fields["Currency"],
		fields["Status"],
	)

	form := url.Values{}
	for k, v := range fields {
		if v != "" {
			form.Set(k, v)
		}
	}
	form.Set("Signature", sig)
	return form
}

func parseForm(t *testing.T, form url.Values) *CallbackPayload {
	t.Helper()

	req := httptest.NewRequest("POST", "/webhook/ipay88", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	payload, err := ParseCallback(req)
	require.NoError(t, err)
	return payload
}

func TestParseCallback(t *testing.T) {
	form := signedCallbackForm("merchant-secret", nil)
	payload := parseForm(t, form)

	assert.Equal(t, "ORD-1002", payload.RefNo)
	assert.Equal(t, StatusSuccess, payload.Status)
	assert.Equal(t, "ABC123", payload.AuthCode)
	assert.Equal(t, "1,250.50", payload.Amount)
	assert.NotEmpty(t, payload.Signature)
	assert.Equal(t, "ORD-1002", payload.Raw["RefNo"])
}

func TestValidate_Accepts(t *testing.T) {
	v := NewValidator(testConfig(3))

	payload := parseForm(t, signedCallbackForm("merchant-secret", nil))
	res := v.Validate(payload)

	assert.True(t, res.OK)
	assert.Empty(t, res.Reason)
}

func TestValidate_SignatureMismatch(t *testing.T) {
	v := NewValidator(testConfig(3))

	t.Run("Wrong secret", func(t *testing.T) {
		payload := parseForm(t, signedCallbackForm("stolen-secret", nil))
		res := v.Validate(payload)

		assert.False(t, res.OK)
		assert.Equal(t, ReasonSignatureMismatch, res.Reason)
	})

	t.Run("Tampered status", func(t *testing.T) {
		form := signedCallbackForm("merchant-secret", nil)
		form.Set("Status", StatusFailed) // signature no longer covers this
		payload := parseForm(t, form)

		res := v.Validate(payload)
		assert.False(t, res.OK)
		assert.Equal(t, ReasonSignatureMismatch, res.Reason)
	})

	t.Run("Tampered amount", func(t *testing.T) {
		form := signedCallbackForm("merchant-secret", nil)
		form.Set("Amount", "0.01")
		payload := parseForm(t, form)

		res := v.Validate(payload)
		assert.False(t, res.OK)
		assert.Equal(t, ReasonSignatureMismatch, res.Reason)
	})
}

func TestValidate_MalformedPayload(t *testing.T) {
	v := NewValidator(testConfig(3))

	t.Run("Missing RefNo", func(t *testing.T) {
		form := signedCallbackForm("merchant-secret", nil)
		form.Del("RefNo")
		payload := parseForm(t, form)

		res := v.Validate(payload)
		assert.False(t, res.OK)
		assert.Equal(t, ReasonMalformedPayload, res.Reason)
	})

	t.Run("Missing Signature", func(t *testing.T) {
		form := signedCallbackForm("merchant-secret", nil)
		form.Del("Signature")
		payload := parseForm(t, form)

		res := v.Validate(payload)
		assert.False(t, res.OK)
		assert.Equal(t, ReasonMalformedPayload, res.Reason)
	})

	t.Run("Nil payload", func(t *testing.T) {
		res := v.Validate(nil)
		assert.False(t, res.OK)
		assert.Equal(t, ReasonMalformedPayload, res.Reason)
	})
}

func TestValidate_FailureCallbackWithoutAuthCode(t *testing.T) {
	// A declined payment omits AuthCode entirely; that is still a
	// well-formed, correctly signed payload.
	v := NewValidator(testConfig(3))

	form := signedCallbackForm("merchant-secret", map[string]string{
		"Status":   StatusFailed,
		"AuthCode": "",
	})
	payload := parseForm(t, form)

	res := v.Validate(payload)
	assert.True(t, res.OK)
	assert.Empty(t, payload.AuthCode)
}
