package dynamodb

import (
	"context"
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

// hashIndexName is the GSI keyed by content hash for idempotent mints
const hashIndexName = "ContentHashIndex"

// characterIndexName is the GSI keyed by character for galleries
const characterIndexName = "CharacterArtifactIndex"

// ArtifactRepository implements ports.ArtifactRepository on DynamoDB
type ArtifactRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewArtifactRepository creates a DynamoDB-backed artifact store
func NewArtifactRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.ArtifactRepository {
	return &ArtifactRepository{client: client, tableName: tableName, logger: logger}
}

type artifactItem struct {
	PK          string  `dynamodbav:"PK"`
	SK          string  `dynamodbav:"SK"`
	GSI1PK      string  `dynamodbav:"GSI1PK"`
	GSI2PK      string  `dynamodbav:"GSI2PK"`
	EntityType  string  `dynamodbav:"EntityType"`
	TokenID     string  `dynamodbav:"TokenID"`
	CharacterID string  `dynamodbav:"CharacterID"`
	ContentHash string  `dynamodbav:"ContentHash"`
	Tier        string  `dynamodbav:"Tier"`
	RarityScore float64 `dynamodbav:"RarityScore"`
	Generation  int     `dynamodbav:"Generation"`
	EventCount  int     `dynamodbav:"EventCount"`
	Price       float64 `dynamodbav:"Price"`
	IsOnSale    bool    `dynamodbav:"IsOnSale"`
	MintedAt    string  `dynamodbav:"MintedAt"`
	UpdatedAt   string  `dynamodbav:"UpdatedAt"`
}

// Save persists an artifact
func (r *ArtifactRepository) Save(ctx context.Context, artifact *entities.FateArtifact) error {
	item := artifactItem{
		PK:          fmt.Sprintf("ARTIFACT#%s", artifact.TokenID()),
		SK:          "METADATA",
		GSI1PK:      fmt.Sprintf("HASH#%s", artifact.ContentHash()),
		GSI2PK:      fmt.Sprintf("CHARACTER#%s", artifact.CharacterID().String()),
		EntityType:  "ARTIFACT",
		TokenID:     artifact.TokenID(),
		CharacterID: artifact.CharacterID().String(),
		ContentHash: artifact.ContentHash(),
		Tier:        string(artifact.Tier()),
		RarityScore: artifact.RarityScore(),
		Generation:  artifact.Generation(),
		EventCount:  artifact.EventCount(),
		Price:       artifact.Price(),
		IsOnSale:    artifact.IsOnSale(),
		MintedAt:    artifact.MintedAt().Format(time.RFC3339Nano),
		UpdatedAt:   artifact.UpdatedAt().Format(time.RFC3339Nano),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to save artifact: %w", err)
	}
	r.logger.Debug("artifact saved",
		zap.String("token_id", artifact.TokenID()),
		zap.String("tier", string(artifact.Tier())),
	)
	return nil
}

// GetByTokenID retrieves an artifact by token
func (r *ArtifactRepository) GetByTokenID(ctx context.Context, tokenID string) (*entities.FateArtifact, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("ARTIFACT#%s", tokenID)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewDomainError(
			pkgerrors.DomainNotFoundError, "ARTIFACT_NOT_FOUND",
			"no artifact with the given token",
		).WithDetail("token_id", tokenID)
	}

	var item artifactItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact: %w", err)
	}
	return itemToArtifact(item)
}

// GetByContentHash retrieves the artifact minted from a snapshot hash
func (r *ArtifactRepository) GetByContentHash(ctx context.Context, hash string) (*entities.FateArtifact, error) {
	artifacts, err := r.queryIndex(ctx, hashIndexName, "GSI1PK", fmt.Sprintf("HASH#%s", hash))
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return nil, pkgerrors.NewDomainError(
			pkgerrors.DomainNotFoundError, "ARTIFACT_NOT_FOUND",
			"no artifact with the given content hash",
		).WithDetail("content_hash", hash)
	}
	return artifacts[0], nil
}

// GetByCharacterID retrieves every artifact minted from a character
func (r *ArtifactRepository) GetByCharacterID(ctx context.Context, characterID valueobjects.CharacterID) ([]*entities.FateArtifact, error) {
	return r.queryIndex(ctx, characterIndexName, "GSI2PK", fmt.Sprintf("CHARACTER#%s", characterID.String()))
}

func (r *ArtifactRepository) queryIndex(ctx context.Context, index, key, value string) ([]*entities.FateArtifact, error) {
	keyCond := expression.Key(key).Equal(expression.Value(value))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var out []*entities.FateArtifact
	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query artifacts: %w", err)
		}
		for _, raw := range page.Items {
			var item artifactItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal artifact: %w", err)
			}
			artifact, err := itemToArtifact(item)
			if err != nil {
				return nil, err
			}
			out = append(out, artifact)
		}
	}
	return out, nil
}

func itemToArtifact(item artifactItem) (*entities.FateArtifact, error) {
	characterID, err := valueobjects.NewCharacterIDFromString(item.CharacterID)
	if err != nil {
		return nil, fmt.Errorf("corrupt artifact item: %w", err)
	}
	mintedAt, _ := time.Parse(time.RFC3339Nano, item.MintedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	return entities.ReconstructFateArtifact(
		item.TokenID, characterID, item.ContentHash,
		valueobjects.RarityTier(item.Tier), item.RarityScore,
		item.Generation, item.EventCount,
		item.Price, item.IsOnSale,
		mintedAt, updatedAt,
	), nil
}
