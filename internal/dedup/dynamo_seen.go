package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoSeenStore is the shared SeenStore for multi-instance deployments.
// Items carry an expires_at attribute for DynamoDB TTL cleanup; because that
// cleanup is lazy, Seen also checks expiry client-side.
type DynamoSeenStore struct {
	client    *dynamodb.Client
	tableName string
	ttl       time.Duration
}

type seenItem struct {
	DeliveryKey string `dynamodbav:"delivery_key"`
	FirstSeenAt string `dynamodbav:"first_seen_at"`
	ExpiresAt   int64  `dynamodbav:"expires_at"`
}

func NewDynamoSeenStore(client *dynamodb.Client, tableName string, ttl time.Duration) *DynamoSeenStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DynamoSeenStore{client: client, tableName: tableName, ttl: ttl}
}

func (s *DynamoSeenStore) Seen(ctx context.Context, key string) (bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"delivery_key": &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, fmt.Errorf("failed to get seen item: %w", err)
	}
	if len(out.Item) == 0 {
		return false, nil
	}

	var item seenItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return false, fmt.Errorf("failed to unmarshal seen item: %w", err)
	}
	return time.Now().Unix() < item.ExpiresAt, nil
}

func (s *DynamoSeenStore) MarkSeen(ctx context.Context, key string) error {
	now := time.Now()
	av, err := attributevalue.MarshalMap(seenItem{
		DeliveryKey: key,
		FirstSeenAt: now.Format(time.RFC3339Nano),
		ExpiresAt:   now.Add(s.ttl).Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal seen item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put seen item: %w", err)
	}
	return nil
}
