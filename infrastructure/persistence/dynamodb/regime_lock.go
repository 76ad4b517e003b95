package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"mirage-engine/application/ports"
	"mirage-engine/domain/core/valueobjects"
	pkgerrors "mirage-engine/pkg/errors"
)

// lockDuration caps how long a regime lock may be held before the TTL
// reclaims it from a crashed holder.
const lockDuration = 30 * time.Second

// RegimeLock implements ports.RegimeLock with DynamoDB conditional
// writes. Multi-host deployments use it to keep one writer per regime;
// single-host runs rely on the in-process keeper instead.
type RegimeLock struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewRegimeLock creates a DynamoDB-backed regime lock
func NewRegimeLock(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.RegimeLock {
	return &RegimeLock{client: client, tableName: tableName, logger: logger}
}

// Acquire takes the lock for the given regime. A held lock surfaces as
// a retryable contention error; callers back off and retry.
func (l *RegimeLock) Acquire(ctx context.Context, regimeID valueobjects.RegimeID, ownerID string) error {
	now := time.Now()
	expiresAt := now.Add(lockDuration)

	item := map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: fmt.Sprintf("LOCK#REGIME#%s", regimeID.String())},
		"SK":         &types.AttributeValueMemberS{Value: "LOCK"},
		"Owner":      &types.AttributeValueMemberS{Value: ownerID},
		"AcquiredAt": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		"ExpiresAt":  &types.AttributeValueMemberS{Value: expiresAt.Format(time.RFC3339)},
		"TTL":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiresAt.Unix())},
	}

	_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(l.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAt < :now OR #owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "Owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":owner": &types.AttributeValueMemberS{Value: ownerID},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			l.logger.Debug("regime lock held elsewhere",
				zap.String("regime_id", regimeID.String()),
				zap.String("owner", ownerID),
			)
			return pkgerrors.ErrRegimeContention.
				WithDetail("regime_id", regimeID.String())
		}
		return fmt.Errorf("failed to acquire regime lock: %w", err)
	}

	l.logger.Debug("regime lock acquired",
		zap.String("regime_id", regimeID.String()),
		zap.String("owner", ownerID),
	)
	return nil
}

// Release frees the lock when held by the given owner. Releasing a
// lock someone else holds, or no lock at all, is a no-op.
func (l *RegimeLock) Release(ctx context.Context, regimeID valueobjects.RegimeID, ownerID string) error {
	_, err := l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(l.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("LOCK#REGIME#%s", regimeID.String())},
			"SK": &types.AttributeValueMemberS{Value: "LOCK"},
		},
		ConditionExpression: aws.String("#owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "Owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: ownerID},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return nil
		}
		return fmt.Errorf("failed to release regime lock: %w", err)
	}
	return nil
}
