package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type Repository interface {
	GetByOrderNo(ctx context.Context, orderNo string) (*Order, error)

	// RecordCallbackTx persists the raw callback payload onto the order's
	// payment transaction and, when markFailed is set, transitions the
	// order to FAILED if it is still in a payable state. Both writes run in
	// one transaction. Returns whether the status row actually changed.
	RecordCallbackTx(
		ctx context.Context,
		orderNo string,
		payload json.RawMessage,
		markFailed bool,
	) (bool, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByOrderNo(ctx context.Context, orderNo string) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, order_no, status, gross_amount, currency, prod_desc,
		       customer_name, customer_email, customer_phone, created_at, updated_at
		FROM orders WHERE order_no = $1
	`, orderNo)

	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNo, &o.Status, &o.GrossAmount, &o.Currency, &o.ProdDesc,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.CreatedAt, &o.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) RecordCallbackTx(
	ctx context.Context,
	orderNo string,
	payload json.RawMessage,
	markFailed bool,
) (bool, error) {

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// 1. Store the raw gateway return for audit
	_, err = tx.ExecContext(ctx, `
		INSERT INTO payment_transactions (order_no, return_payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (order_no)
		DO UPDATE SET return_payload = EXCLUDED.return_payload, updated_at = now()
	`, orderNo, payload)
	if err != nil {
		return false, fmt.Errorf("store return payload: %w", err)
	}

	var failed bool
	if markFailed {
		// 2. Fail the order only while it is still payable. The check and
		// the write are one statement, so concurrent duplicate deliveries
		// collapse into a single transition.
		res, err := tx.ExecContext(ctx, `
			UPDATE orders
			SET status = $2, updated_at = now()
			WHERE order_no = $1 AND status IN ($3, $4)
		`, orderNo, StatusFailed, StatusCreated, StatusPlaced)
		if err != nil {
			return false, fmt.Errorf("fail order: %w", err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		failed = rows > 0
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return failed, nil
}
