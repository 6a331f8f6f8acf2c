package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// DynamoAPI is the subset of *dynamodb.Client used by the store.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

const (
	leadKeyPrefix       = "lead#"
	submissionKeyPrefix = "submission#"
)

// Table layout (single table, PK "id" string):
//   - lead#<uuid>        the lead itself
//   - submission#<key>   points a submission key at its lead
type leadItem struct {
	ID                string `dynamodbav:"id"`
	LeadID            string `dynamodbav:"lead_id"`
	SessionID         string `dynamodbav:"session_id,omitempty"`
	SubmissionKey     string `dynamodbav:"submission_key,omitempty"`
	Name              string `dynamodbav:"name"`
	Email             string `dynamodbav:"email"`
	Phone             string `dynamodbav:"phone"`
	PhoneE164         string `dynamodbav:"phone_e164,omitempty"`
	Problem           string `dynamodbav:"problem"`
	Service           string `dynamodbav:"service"`
	Urgency           string `dynamodbav:"urgency"`
	PriceEstimate     string `dynamodbav:"price_estimate"`
	Status            string `dynamodbav:"status"`
	ContactPreference string `dynamodbav:"contact_preference"`
	ConsentGiven      bool   `dynamodbav:"consent_given"`
	CreatedAt         string `dynamodbav:"created_at"`
}

type submissionItem struct {
	ID        string `dynamodbav:"id"`
	LeadID    string `dynamodbav:"lead_id"`
	CreatedAt string `dynamodbav:"created_at"`
}

// Dynamo stores leads in a DynamoDB table.
type Dynamo struct {
	ddb       DynamoAPI
	tableName string
	now       func() time.Time
}

var _ Store = (*Dynamo)(nil)

// NewDynamo creates a DynamoDB-backed lead store.
func NewDynamo(ddb DynamoAPI, tableName string) *Dynamo {
	return &Dynamo{ddb: ddb, tableName: tableName, now: time.Now}
}

// Create writes the lead and its submission marker in one transaction.
// Neither item may already exist; an existing marker yields
// ErrDuplicateSubmission.
func (r *Dynamo) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
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
		CreatedAt:         r.now().UTC(),
	}
	createdAt := lead.CreatedAt.Format(time.RFC3339Nano)

	item, err := attributevalue.MarshalMap(leadItem{
		ID:                leadKeyPrefix + lead.ID.String(),
		LeadID:            lead.ID.String(),
		SessionID:         lead.SessionID,
		SubmissionKey:     lead.SubmissionKey,
		Name:              lead.Name,
		Email:             lead.Email,
		Phone:             lead.Phone,
		PhoneE164:         lead.PhoneE164,
		Problem:           lead.Problem,
		Service:           string(service),
		Urgency:           lead.Urgency,
		PriceEstimate:     lead.PriceEstimate,
		Status:            lead.Status,
		ContactPreference: lead.ContactPreference,
		ConsentGiven:      lead.ConsentGiven,
		CreatedAt:         createdAt,
	})
	if err != nil {
		return Lead{}, fmt.Errorf("marshal lead: %w", err)
	}

	writes := []types.TransactWriteItem{{
		Put: &types.Put{
			TableName:                aws.String(r.tableName),
			Item:                     item,
			ConditionExpression:      aws.String("attribute_not_exists(#id)"),
			ExpressionAttributeNames: map[string]string{"#id": "id"},
		},
	}}

	if lead.SubmissionKey != "" {
		marker, err := attributevalue.MarshalMap(submissionItem{
			ID:        submissionKeyPrefix + lead.SubmissionKey,
			LeadID:    lead.ID.String(),
			CreatedAt: createdAt,
		})
		if err != nil {
			return Lead{}, fmt.Errorf("marshal marker: %w", err)
		}
		writes = append(writes, types.TransactWriteItem{
			Put: &types.Put{
				TableName:                aws.String(r.tableName),
				Item:                     marker,
				ConditionExpression:      aws.String("attribute_not_exists(#id)"),
				ExpressionAttributeNames: map[string]string{"#id": "id"},
			},
		})
	}

	if _, err := r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes}); err != nil {
		var canceled *types.TransactionCanceledException
		if lead.SubmissionKey != "" && errors.As(err, &canceled) {
			return Lead{}, ErrDuplicateSubmission
		}
		return Lead{}, fmt.Errorf("put lead: %w", err)
	}
	return lead, nil
}

func (r *Dynamo) FindBySubmission(ctx context.Context, key string) (*uuid.UUID, error) {
	if key == "" {
		return nil, nil
	}

	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: submissionKeyPrefix + key},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get marker: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var marker submissionItem
	if err := attributevalue.UnmarshalMap(out.Item, &marker); err != nil {
		return nil, fmt.Errorf("unmarshal marker: %w", err)
	}
	id, err := uuid.Parse(marker.LeadID)
	if err != nil {
		return nil, fmt.Errorf("parse lead id: %w", err)
	}
	return &id, nil
}

func (r *Dynamo) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: leadKeyPrefix + id.String()},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}
	if len(out.Item) == 0 {
		return Lead{}, ErrNotFound
	}

	var it leadItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return Lead{}, fmt.Errorf("unmarshal lead: %w", err)
	}
	return fromLeadItem(it)
}

func fromLeadItem(it leadItem) (Lead, error) {
	id, err := uuid.Parse(it.LeadID)
	if err != nil {
		return Lead{}, fmt.Errorf("parse lead id: %w", err)
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)

	lead := Lead{
		ID:                id,
		SessionID:         it.SessionID,
		SubmissionKey:     it.SubmissionKey,
		Name:              it.Name,
		Email:             it.Email,
		Phone:             it.Phone,
		PhoneE164:         it.PhoneE164,
		Problem:           it.Problem,
		Urgency:           it.Urgency,
		PriceEstimate:     it.PriceEstimate,
		Status:            it.Status,
		ContactPreference: it.ContactPreference,
		ConsentGiven:      it.ConsentGiven,
		CreatedAt:         createdAt,
	}
	if err := json.Unmarshal([]byte(it.Service), &lead.Service); err != nil {
		return Lead{}, fmt.Errorf("decode service: %w", err)
	}
	return lead, nil
}
