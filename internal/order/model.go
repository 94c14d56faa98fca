package order

import (
	"encoding/json"
	"time"
)

type OrderStatus string

const (
	StatusCreated   OrderStatus = "CREATED"
	StatusPlaced    OrderStatus = "PLACED"
	StatusFailed    OrderStatus = "FAILED"
	StatusConfirmed OrderStatus = "CONFIRMED"
)

// Order is created upstream by the checkout flow. This service only reads
// it to build a payment request and conditionally fails it from a callback.
type Order struct {
	ID            uint
	OrderNo       string
	Status        OrderStatus
	GrossAmount   float64
	Currency      string
	ProdDesc      string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PaymentTransaction holds the gateway-return metadata for an order, one
// row per order. The raw callback payload is kept verbatim for audit.
type PaymentTransaction struct {
	OrderNo       string
	ReturnPayload json.RawMessage
	UpdatedAt     time.Time
}
