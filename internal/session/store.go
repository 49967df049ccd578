// Package session persists the session-scoped checkout selections
// (shipping address and payment method) so they survive page reloads.
// Each session owns exactly one record; writes are last-write-wins.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/go-checkout-flow/internal/aws"
	"github.com/imrishuroy/go-checkout-flow/internal/checkout"
)

// Store is the DynamoDB-backed checkout.StateStore.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewStore returns a configured Store.
// tableName: DynamoDB table for checkout session state.
// ttlWindow: how long abandoned state is kept (e.g., 7*24*time.Hour).
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// SaveAddress overwrites the persisted address unconditionally.
func (s *Store) SaveAddress(ctx context.Context, sessionID string, addr checkout.ShippingAddress) error {
	raw, err := json.Marshal(addr)
	if err != nil {
		return fmt.Errorf("marshal address: %w", err)
	}
	return s.setAttribute(ctx, sessionID, "address", string(raw))
}

// LoadAddress returns the persisted address, or (nil, nil) when none
// was saved for the session.
func (s *Store) LoadAddress(ctx context.Context, sessionID string) (*checkout.ShippingAddress, error) {
	rec, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Address == "" {
		return nil, nil
	}
	var addr checkout.ShippingAddress
	if err := json.Unmarshal([]byte(rec.Address), &addr); err != nil {
		return nil, fmt.Errorf("unmarshal address: %w", err)
	}
	return &addr, nil
}

// SavePaymentMethod overwrites the persisted payment method.
func (s *Store) SavePaymentMethod(ctx context.Context, sessionID string, method checkout.PaymentMethod) error {
	return s.setAttribute(ctx, sessionID, "payment_method", string(method))
}

// LoadPaymentMethod returns the persisted method, or "" when none was
// saved; the holder falls back to its default.
func (s *Store) LoadPaymentMethod(ctx context.Context, sessionID string) (checkout.PaymentMethod, error) {
	rec, err := s.get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", nil
	}
	return checkout.PaymentMethod(rec.PaymentMethod), nil
}

// Clear deletes the session record. Clearing a session that never
// persisted anything is not an error.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	input := &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"session_id": &types.AttributeValueMemberS{Value: sessionID},
		},
		ConditionExpression: awsString("attribute_exists(session_id)"),
	}
	_, err := s.client.DeleteItem(ctx, input)
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException" {
			return nil
		}
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// setAttribute writes one attribute of the session record, creating
// the record if needed and refreshing updated_at and the TTL.
func (s *Store) setAttribute(ctx context.Context, sessionID, attr, value string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"session_id": &types.AttributeValueMemberS{Value: sessionID},
		},
		UpdateExpression: awsString("SET #a = :v, updated_at = :ua, expires_at = :exp"),
		ExpressionAttributeNames: map[string]string{
			"#a": attr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v":   &types.AttributeValueMemberS{Value: value},
			":ua":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":exp": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Add(s.ttlWindow).Unix())},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	}
	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		return fmt.Errorf("update item (%s): %w", attr, err)
	}
	return nil
}

// get fetches the raw session record. Returns (nil, nil) if not found.
func (s *Store) get(ctx context.Context, sessionID string) (*Record, error) {
	input := &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"session_id": &types.AttributeValueMemberS{Value: sessionID},
		},
	}
	out, err := s.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &rec, nil
}

// Helper
func awsString(s string) *string { return &s }
