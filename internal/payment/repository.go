package payment

import (
	"context"
	"database/sql"
	"encoding/json"
)

const ProviderIPay88 = "IPAY88"

type Repository interface {
	// SaveCallback records an inbound gateway callback, keyed on the
	// unique (provider, event_id) pair. Redeliveries return the existing
	// row's id; alreadyProcessed reports whether that row completed
	// processing, so a delivery that failed mid-flight is retried rather
	// than swallowed.
	SaveCallback(
		ctx context.Context,
		provider string,
		eventID string,
		refNo string,
		payload json.RawMessage,
		signatureValid bool,
	) (callbackID int64, alreadyProcessed bool, err error)

	MarkWebhookProcessed(ctx context.Context, callbackID int64) error
	MarkWebhookFailed(ctx context.Context, callbackID int64, reason string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SaveCallback(
	ctx context.Context,
	provider string,
	eventID string,
	refNo string,
	payload json.RawMessage,
	signatureValid bool,
) (int64, bool, error) {

	// The no-op DO UPDATE makes RETURNING yield the existing row on
	// conflict, so redeliveries always come back with an id and the
	// processed flag instead of vanishing behind DO NOTHING.
	const q = `
	INSERT INTO payment_webhooks (
		provider,
		event_id,
		ref_no,
		signature_valid,
		payload
	)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (provider, event_id)
	DO UPDATE SET payload = payment_webhooks.payload
	RETURNING id, processed_at IS NOT NULL;
	`

	var (
		id        int64
		processed bool
	)
	err := r.db.QueryRowContext(
		ctx,
		q,
		provider,
		eventID,
		refNo,
		signatureValid,
		payload,
	).Scan(&id, &processed)
	if err != nil {
		return 0, false, err
	}

	return id, processed, nil
}

func (r *repository) MarkWebhookProcessed(
	ctx context.Context,
	callbackID int64,
) error {

	// Clears any earlier failure reason so a successful retry leaves a
	// clean audit row.
	const q = `
	UPDATE payment_webhooks
	SET processed_at = now(), process_error = NULL
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, callbackID)
	return err
}

func (r *repository) MarkWebhookFailed(
	ctx context.Context,
	callbackID int64,
	reason string,
) error {

	const q = `
	UPDATE payment_webhooks
	SET process_error = $2
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, callbackID, reason)
	return err
}
