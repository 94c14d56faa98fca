package ipay88

import "encoding/json"

// Gateway status codes carried in the backend post. Anything other than a
// "0" status with no authorization code is treated as a successful payment;
// the full code table lives in the gateway's integration guide.
const (
	StatusFailed  = "0"
	StatusSuccess = "1"
)

// SignatureType advertised in the outbound form. The gateway also accepts
// SHA1 but this integration only ever signs with SHA256.
const SignatureTypeSHA256 = "SHA256"

// Config carries the merchant settings the gateway integration needs.
// Loaded once at startup and immutable afterwards.
type Config struct {
	MerchantCode string
	MerchantKey  string
	ActionURL    string
	ResponseURL  string
	PaymentMode  int
}

// PaymentRequest is the complete signed field set the shopper's browser
// posts to the gateway entry endpoint. Field names must match the gateway
// integration guide byte for byte.
type PaymentRequest struct {
	ActionURL     string `json:"action_url"`
	MerchantCode  string `json:"MerchantCode"`
	RefNo         string `json:"RefNo"`
	Amount        string `json:"Amount"`
	Currency      string `json:"Currency"`
	ProdDesc      string `json:"ProdDesc"`
	UserName      string `json:"UserName"`
	UserEmail     string `json:"UserEmail"`
	UserContact   string `json:"UserContact"`
	SignatureType string `json:"SignatureType"`
	Signature     string `json:"Signature"`
}

// CallbackPayload holds the raw form fields of a gateway backend post.
// Untrusted until Validator.Validate has checked the signature.
type CallbackPayload struct {
	MerchantCode string
	PaymentID    string
	RefNo        string
	Amount       string
	Currency     string
	Remark       string
	TransID      string
	AuthCode     string
	Status       string
	ErrDesc      string
	Signature    string

	// Raw keeps every submitted field, persisted verbatim for audit.
	Raw map[string]string
}

// AuditJSON renders the raw form snapshot for persistence. Map keys are
// sorted by the encoder, so identical callbacks produce identical bytes.
func (p *CallbackPayload) AuditJSON() (json.RawMessage, error) {
	return json.Marshal(p.Raw)
}
