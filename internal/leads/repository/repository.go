// Package repository stores leads captured by estimate conversations.
package repository

import (
	"context"
	"errors"
	"time"

	"estimate_portal_backend/internal/estimate/catalog"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("lead not found")
	// ErrDuplicateSubmission is returned by Create when a lead with the
	// same submission key already exists.
	ErrDuplicateSubmission = errors.New("lead already stored for submission")
)

// Lead is a stored lead row.
type Lead struct {
	ID                uuid.UUID
	SessionID         string
	SubmissionKey     string
	Name              string
	Email             string
	Phone             string
	PhoneE164         string
	Problem           string
	Service           catalog.ServiceDescriptor
	Urgency           string
	PriceEstimate     string
	Status            string
	ContactPreference string
	ConsentGiven      bool
	CreatedAt         time.Time
}

// CreateLeadParams are the fields written for a new lead.
type CreateLeadParams struct {
	SessionID         string
	SubmissionKey     string
	Name              string
	Email             string
	Phone             string
	PhoneE164         string
	Problem           string
	Service           catalog.ServiceDescriptor
	Urgency           string
	PriceEstimate     string
	Status            string
	ContactPreference string
	ConsentGiven      bool
}

// LeadWriter creates leads.
type LeadWriter interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
}

// SubmissionFinder looks up the lead already stored for a submission.
type SubmissionFinder interface {
	// FindBySubmission returns the id of the lead stored under key, or nil.
	FindBySubmission(ctx context.Context, key string) (*uuid.UUID, error)
}

// LeadReader reads leads by id.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
}

// Store is the full lead store used by the leads service.
type Store interface {
	LeadWriter
	SubmissionFinder
	LeadReader
}
