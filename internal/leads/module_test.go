package leads

import (
	"context"
	"testing"

	"estimate_portal_backend/internal/leads/repository"
	"estimate_portal_backend/platform/config"
)

func TestModuleWithoutStoreHasNoSaver(t *testing.T) {
	m := NewModule(nil, nil, nil)
	if m.Saver() != nil {
		t.Fatal("expected nil saver interface without a store")
	}
	if m.Reader() != nil {
		t.Fatal("expected nil reader without a store")
	}
}

func TestModuleWithStoreExposesSaver(t *testing.T) {
	m := NewModule(repository.NewPostgres(nil), nil, nil)
	if m.Saver() == nil || m.Reader() == nil {
		t.Fatal("expected saver and reader")
	}
}

func TestOpenStoreSelectsBackend(t *testing.T) {
	ctx := context.Background()

	store, err := OpenStore(ctx, &config.Config{LeadStore: config.LeadStoreNone}, nil)
	if err != nil || store != nil {
		t.Fatalf("none: got %v, %v", store, err)
	}

	if _, err := OpenStore(ctx, &config.Config{LeadStore: config.LeadStorePostgres}, nil); err == nil {
		t.Fatal("postgres without pool must fail")
	}

	store, err = OpenStore(ctx, &config.Config{
		LeadStore:          config.LeadStoreDynamoDB,
		AWSRegion:          "us-east-1",
		DynamoDBEndpoint:   "http://localhost:8000",
		DynamoDBLeadsTable: "leads",
	}, nil)
	if err != nil {
		t.Fatalf("dynamodb: %v", err)
	}
	if _, ok := store.(*repository.Dynamo); !ok {
		t.Fatalf("expected dynamo store, got %T", store)
	}

	if _, err := OpenStore(ctx, &config.Config{LeadStore: "sqlite"}, nil); err == nil {
		t.Fatal("unknown backend must fail")
	}
}
