package ipay88

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storepay-be/internal/config"
	"storepay-be/internal/logger"
	"storepay-be/internal/order"

	"go.uber.org/zap"
)

// ErrInvalidRequest covers every precondition failure while building a
// payment request: missing reference, unknown order, ineligible state or a
// non-positive amount. The storefront shows a generic message for all of
// them; details stay in the logs.
var ErrInvalidRequest = errors.New("invalid payment request")

// OrderSource is the subset of order lookup the builder needs.
type OrderSource interface {
	GetByOrderNo(ctx context.Context, orderNo string) (*order.Order, error)
}

// RequestBuilder assembles the signed field set for the payment form.
type RequestBuilder struct {
	orders OrderSource
	cfg    Config
}

func NewRequestBuilder(orders OrderSource, cfg Config) *RequestBuilder {
	if cfg.MerchantKey == "" {
		logger.L().Warn("iPay88 merchant key is empty")
	}
	return &RequestBuilder{orders: orders, cfg: cfg}
}

// BuildRequest loads the order, checks it is still payable and returns the
// complete signed form field set. Nothing is ever returned unsigned.
func (b *RequestBuilder) BuildRequest(ctx context.Context, orderNo string) (*PaymentRequest, error) {
	log := logger.FromCtx(ctx).With(zap.String("order_no", orderNo))

	if orderNo == "" {
		return nil, fmt.Errorf("%w: missing order reference", ErrInvalidRequest)
	}

	o, err := b.orders.GetByOrderNo(ctx, orderNo)
	if errors.Is(err, order.ErrOrderNotFound) {
		log.Warn("payment request for unknown order")
		return nil, fmt.Errorf("%w: order not found", ErrInvalidRequest)
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}

	if o.Status != order.StatusCreated && o.Status != order.StatusPlaced {
		log.Warn("order not eligible for payment", zap.String("status", string(o.Status)))
		return nil, fmt.Errorf("%w: order not eligible for payment", ErrInvalidRequest)
	}
	if o.GrossAmount <= 0 {
		return nil, fmt.Errorf("%w: non-positive order amount", ErrInvalidRequest)
	}

	actionURL := b.cfg.ActionURL
	if b.cfg.PaymentMode == config.PaymentModeTesting {
		// Testing mode never leaves the shop; the form posts straight back
		// to our own response endpoint.
		actionURL = b.cfg.ResponseURL
	}

	gross := o.GrossAmount
	if b.cfg.PaymentMode == config.PaymentModeNominalAmount {
		// Charge a nominal unit instead of the real total so gateway tests
		// never move real money. The stored order total is untouched.
		gross = 1.00
	}
	amount := FormatAmount(gross)

	req := &PaymentRequest{
		ActionURL:     actionURL,
		MerchantCode:  b.cfg.MerchantCode,
		RefNo:         o.OrderNo,
		Amount:        amount,
		Currency:      o.Currency,
		ProdDesc:      o.ProdDesc,
		UserName:      o.CustomerName,
		UserEmail:     o.CustomerEmail,
		UserContact:   o.CustomerPhone,
		SignatureType: SignatureTypeSHA256,
		Signature:     RequestSignature(b.cfg.MerchantKey, b.cfg.MerchantCode, o.OrderNo, amount, o.Currency),
	}

	log.Info("payment request built",
		zap.String("amount", amount),
		zap.String("currency", o.Currency),
		zap.Int("payment_mode", b.cfg.PaymentMode),
	)

	return req, nil
}

// FormatAmount renders a gross amount with exactly two decimals and
// thousands separators (12345.6 -> "12,345.60"). The gateway reconstructs
// this exact string when it verifies the request signature.
func FormatAmount(amount float64) string {
	fixed := strconv.FormatFloat(amount, 'f', 2, 64)

	intPart, decPart, _ := strings.Cut(fixed, ".")

	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign = "-"
		intPart = intPart[1:]
	}

	var sb strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(d)
	}

	return sign + sb.String() + "." + decPart
}
