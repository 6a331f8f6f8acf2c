// Package leads provides lead persistence for completed estimate conversations.
// This file defines the public API of the leads bounded context.
// Only types and functions defined here should be used by other domains.
package leads

import (
	"context"
	"errors"
	"fmt"

	"estimate_portal_backend/internal/leads/repository"
	"estimate_portal_backend/platform/config"
	"estimate_portal_backend/platform/dynamo"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Lead is a stored lead as seen by other domains.
type Lead = repository.Lead

// Reader loads stored leads. Satisfied by every lead store backend.
type Reader = repository.LeadReader

// ErrNotFound is returned by Reader for unknown ids.
var ErrNotFound = repository.ErrNotFound

// OpenStore builds the lead store selected by LEAD_STORE. It returns a nil
// store for "none"; pool is required for "postgres".
func OpenStore(ctx context.Context, cfg config.LeadStoreConfig, pool *pgxpool.Pool) (repository.Store, error) {
	switch cfg.GetLeadStore() {
	case config.LeadStorePostgres:
		if pool == nil {
			return nil, errors.New("postgres lead store requires a database pool")
		}
		return repository.NewPostgres(pool), nil
	case config.LeadStoreDynamoDB:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return repository.NewDynamo(client, cfg.GetDynamoDBLeadsTable()), nil
	case config.LeadStoreNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown lead store %q", cfg.GetLeadStore())
	}
}
