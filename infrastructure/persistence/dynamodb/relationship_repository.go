package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"mirage-engine/application/ports"
	"mirage-engine/domain/core/entities"
	"mirage-engine/domain/core/valueobjects"
	pkgerrors "mirage-engine/pkg/errors"
)

// RelationshipRepository implements ports.RelationshipRepository on
// DynamoDB. Relationships key by their source character, so fetching a
// character's social graph is one Query.
type RelationshipRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewRelationshipRepository creates a DynamoDB-backed relationship store
func NewRelationshipRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.RelationshipRepository {
	return &RelationshipRepository{client: client, tableName: tableName, logger: logger}
}

type relationshipItem struct {
	PK        string  `dynamodbav:"PK"`
	SK        string  `dynamodbav:"SK"`
	SourceID  string  `dynamodbav:"SourceID"`
	TargetID  string  `dynamodbav:"TargetID"`
	Trust     float64 `dynamodbav:"Trust"`
	Conflict  float64 `dynamodbav:"Conflict"`
	Intensity float64 `dynamodbav:"Intensity"`
	Influence float64 `dynamodbav:"Influence"`
	IsActive  bool    `dynamodbav:"IsActive"`
	History   string  `dynamodbav:"History"`
	CreatedAt string  `dynamodbav:"CreatedAt"`
	UpdatedAt string  `dynamodbav:"UpdatedAt"`
}

// Save persists a relationship
func (r *RelationshipRepository) Save(ctx context.Context, relationship *entities.Relationship) error {
	history, err := json.Marshal(relationship.History())
	if err != nil {
		return fmt.Errorf("failed to marshal relationship history: %w", err)
	}

	item := relationshipItem{
		PK:        fmt.Sprintf("RELATIONSHIP#%s", relationship.SourceID().String()),
		SK:        fmt.Sprintf("TARGET#%s", relationship.TargetID().String()),
		SourceID:  relationship.SourceID().String(),
		TargetID:  relationship.TargetID().String(),
		Trust:     relationship.Trust(),
		Conflict:  relationship.Conflict(),
		Intensity: relationship.Intensity(),
		Influence: relationship.Influence(),
		IsActive:  relationship.IsActive(),
		History:   string(history),
		CreatedAt: relationship.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt: relationship.UpdatedAt().Format(time.RFC3339Nano),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal relationship: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to save relationship: %w", err)
	}
	r.logger.Debug("relationship saved",
		zap.String("source_id", relationship.SourceID().String()),
		zap.String("target_id", relationship.TargetID().String()),
	)
	return nil
}

// Get retrieves the directed relationship from source to target
func (r *RelationshipRepository) Get(ctx context.Context, sourceID, targetID valueobjects.CharacterID) (*entities.Relationship, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("RELATIONSHIP#%s", sourceID.String())},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("TARGET#%s", targetID.String())},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewDomainError(
			pkgerrors.DomainNotFoundError, "RELATIONSHIP_NOT_FOUND",
			"no relationship between the given characters",
		).WithDetail("source_id", sourceID.String()).WithDetail("target_id", targetID.String())
	}

	var item relationshipItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal relationship: %w", err)
	}
	return itemToRelationship(item)
}

// GetBySource retrieves every relationship a character holds
func (r *RelationshipRepository) GetBySource(ctx context.Context, sourceID valueobjects.CharacterID) ([]*entities.Relationship, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(fmt.Sprintf("RELATIONSHIP#%s", sourceID.String())))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var out []*entities.Relationship
	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query relationships: %w", err)
		}
		for _, raw := range page.Items {
			var item relationshipItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal relationship: %w", err)
			}
			relationship, err := itemToRelationship(item)
			if err != nil {
				return nil, err
			}
			out = append(out, relationship)
		}
	}
	return out, nil
}

func itemToRelationship(item relationshipItem) (*entities.Relationship, error) {
	sourceID, err := valueobjects.NewCharacterIDFromString(item.SourceID)
	if err != nil {
		return nil, fmt.Errorf("corrupt relationship item: %w", err)
	}
	targetID, err := valueobjects.NewCharacterIDFromString(item.TargetID)
	if err != nil {
		return nil, fmt.Errorf("corrupt relationship item: %w", err)
	}
	var history []entities.SocialInteraction
	if item.History != "" {
		if err := json.Unmarshal([]byte(item.History), &history); err != nil {
			return nil, fmt.Errorf("corrupt relationship history: %w", err)
		}
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	return entities.ReconstructRelationship(
		sourceID, targetID,
		item.Trust, item.Conflict, item.Intensity, item.Influence,
		item.IsActive, history, createdAt, updatedAt,
	), nil
}
