package ipay88

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// The gateway signs the undelimited concatenation of a fixed field sequence
// with the merchant key prepended. Request and response use different
// sequences; the helpers below fix the order by construction so callers
// cannot mix the two contexts up.

// RequestSignature covers the outbound payment form:
// MerchantKey & MerchantCode & RefNo & Amount & Currency.
func RequestSignature(secret, merchantCode, refNo, amount, currency string) string {
	return signSHA256(secret, merchantCode, refNo, canonicalAmount(amount), currency)
}

// ResponseSignature covers the inbound backend post:
// MerchantKey & MerchantCode & PaymentId & RefNo & Amount & Currency & Status.
func ResponseSignature(secret, merchantCode, paymentID, refNo, amount, currency, status string) string {
	return signSHA256(secret, merchantCode, paymentID, refNo, canonicalAmount(amount), currency, status)
}

func signSHA256(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalAmount strips the thousands separator and decimal point before
// hashing. The formatted string still travels on the wire; only the signed
// bytes are canonicalized, per the integration guide.
func canonicalAmount(amount string) string {
	amount = strings.ReplaceAll(amount, ",", "")
	return strings.ReplaceAll(amount, ".", "")
}

// VerifySignature compares a computed signature against the supplied one in
// constant time. Hex case differences are not a mismatch.
func VerifySignature(expected, supplied string) bool {
	e := strings.ToLower(expected)
	s := strings.ToLower(supplied)
	if len(e) != len(s) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(e), []byte(s)) == 1
}
