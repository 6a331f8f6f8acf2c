package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation    = "23505"
	submissionKeyIndex = "idx_leads_submission_key"
)

// DBTX is the subset of pgxpool.Pool used by the repository.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres stores leads in the leads table.
type Postgres struct {
	db DBTX
}

var _ Store = (*Postgres)(nil)

// NewPostgres creates a Postgres-backed lead store.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

func (r *Postgres) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	service, err := json.Marshal(params.Service)
	if err != nil {
		return Lead{}, fmt.Errorf("encode service: %w", err)
	}

	lead := Lead{
		ID:                uuid.New(),
		SessionID:         params.SessionID,
		SubmissionKey:     params.SubmissionKey,
		Name:              params.Name,
		Email:             params.Email,
		Phone:             params.Phone,
		PhoneE164:         params.PhoneE164,
		Problem:           params.Problem,
		Service:           params.Service,
		Urgency:           params.Urgency,
		PriceEstimate:     params.PriceEstimate,
		Status:            params.Status,
		ContactPreference: params.ContactPreference,
		ConsentGiven:      params.ConsentGiven,
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO leads (
			id, session_id, submission_key, name, email, phone, phone_e164, problem, service,
			urgency, price_estimate, status, contact_preference, consent_given
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at
	`,
		lead.ID, nullable(lead.SessionID), nullable(lead.SubmissionKey), lead.Name, lead.Email, lead.Phone, nullable(lead.PhoneE164), lead.Problem, service,
		lead.Urgency, lead.PriceEstimate, lead.Status, lead.ContactPreference, lead.ConsentGiven,
	).Scan(&lead.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == submissionKeyIndex {
		return Lead{}, ErrDuplicateSubmission
	}
	if err != nil {
		return Lead{}, fmt.Errorf("insert lead: %w", err)
	}

	return lead, nil
}

func (r *Postgres) FindBySubmission(ctx context.Context, key string) (*uuid.UUID, error) {
	if key == "" {
		return nil, nil
	}

	var raw string
	err := r.db.QueryRow(ctx, `
		SELECT id::text
		FROM leads
		WHERE submission_key = $1
	`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find lead by submission: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse lead id: %w", err)
	}
	return &id, nil
}

func (r *Postgres) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	lead := Lead{ID: id}
	var service []byte
	err := r.db.QueryRow(ctx, `
		SELECT coalesce(session_id, ''), coalesce(submission_key, ''), name, email, phone, coalesce(phone_e164, ''), problem, service,
			urgency, price_estimate, status, contact_preference, consent_given, created_at
		FROM leads
		WHERE id = $1
	`, id).Scan(
		&lead.SessionID, &lead.SubmissionKey, &lead.Name, &lead.Email, &lead.Phone, &lead.PhoneE164, &lead.Problem, &service,
		&lead.Urgency, &lead.PriceEstimate, &lead.Status, &lead.ContactPreference, &lead.ConsentGiven, &lead.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}

	if err := json.Unmarshal(service, &lead.Service); err != nil {
		return Lead{}, fmt.Errorf("decode service: %w", err)
	}
	return lead, nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
