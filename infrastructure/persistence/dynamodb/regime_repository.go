package dynamodb

import (
	"context"
	"errors"
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

// RegimeRepository implements ports.RegimeRepository on DynamoDB.
// Saves are conditional on the stored version so two hosts flushing the
// same regime cannot silently overwrite each other.
type RegimeRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewRegimeRepository creates a DynamoDB-backed regime store
func NewRegimeRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.RegimeRepository {
	return &RegimeRepository{client: client, tableName: tableName, logger: logger}
}

type regimeItem struct {
	PK           string                 `dynamodbav:"PK"`
	SK           string                 `dynamodbav:"SK"`
	EntityType   string                 `dynamodbav:"EntityType"`
	RegimeID     string                 `dynamodbav:"RegimeID"`
	Name         string                 `dynamodbav:"Name"`
	RegimeType   string                 `dynamodbav:"RegimeType"`
	Satisfaction float64                `dynamodbav:"Satisfaction"`
	Corruption   float64                `dynamodbav:"Corruption"`
	Stability    float64                `dynamodbav:"Stability"`
	Prosperity   float64                `dynamodbav:"Prosperity"`
	Freedom      float64                `dynamodbav:"Freedom"`
	TechLevel    float64                `dynamodbav:"TechLevel"`
	Classes      []entities.SocialClass `dynamodbav:"Classes"`
	CreatedAt    string                 `dynamodbav:"CreatedAt"`
	UpdatedAt    string                 `dynamodbav:"UpdatedAt"`
	Version      int                    `dynamodbav:"Version"`
}

// Save persists a regime; the write is rejected when a newer version
// is already stored.
func (r *RegimeRepository) Save(ctx context.Context, regime *entities.Regime) error {
	item := regimeItem{
		PK:           fmt.Sprintf("REGIME#%s", regime.ID().String()),
		SK:           "METADATA",
		EntityType:   "REGIME",
		RegimeID:     regime.ID().String(),
		Name:         regime.Name(),
		RegimeType:   regime.RegimeType(),
		Satisfaction: regime.Satisfaction(),
		Corruption:   regime.Corruption(),
		Stability:    regime.Stability(),
		Prosperity:   regime.Prosperity(),
		Freedom:      regime.Freedom(),
		TechLevel:    regime.TechLevel(),
		Classes:      regime.Classes(),
		CreatedAt:    regime.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt:    regime.UpdatedAt().Format(time.RFC3339Nano),
		Version:      regime.Version(),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal regime: %w", err)
	}

	cond := expression.Or(
		expression.AttributeNotExists(expression.Name("PK")),
		expression.Name("Version").LessThan(expression.Value(regime.Version())),
	)
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return pkgerrors.ErrRegimeContention.
				WithDetail("regime_id", regime.ID().String()).
				WithDetail("version", regime.Version())
		}
		return fmt.Errorf("failed to save regime: %w", err)
	}
	r.logger.Debug("regime saved",
		zap.String("regime_id", regime.ID().String()),
		zap.Int("version", regime.Version()),
	)
	return nil
}

// GetByID retrieves a regime by its ID
func (r *RegimeRepository) GetByID(ctx context.Context, id valueobjects.RegimeID) (*entities.Regime, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("REGIME#%s", id.String())},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get regime: %w", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.ErrRegimeNotFound.WithDetail("regime_id", id.String())
	}

	var item regimeItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal regime: %w", err)
	}
	return r.itemToRegime(item)
}

// List retrieves every known regime
func (r *RegimeRepository) List(ctx context.Context) ([]*entities.Regime, error) {
	filter := expression.Name("EntityType").Equal(expression.Value("REGIME"))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build filter: %w", err)
	}

	var out []*entities.Regime
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan regimes: %w", err)
		}
		for _, raw := range page.Items {
			var item regimeItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal regime: %w", err)
			}
			regime, err := r.itemToRegime(item)
			if err != nil {
				return nil, err
			}
			out = append(out, regime)
		}
	}
	return out, nil
}

// Delete removes a regime
func (r *RegimeRepository) Delete(ctx context.Context, id valueobjects.RegimeID) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("REGIME#%s", id.String())},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete regime: %w", err)
	}
	return nil
}

func (r *RegimeRepository) itemToRegime(item regimeItem) (*entities.Regime, error) {
	id, err := valueobjects.NewRegimeIDFromString(item.RegimeID)
	if err != nil {
		return nil, fmt.Errorf("corrupt regime item: %w", err)
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	return entities.ReconstructRegime(
		id, item.Name, item.RegimeType,
		item.Satisfaction, item.Corruption, item.Stability,
		item.Prosperity, item.Freedom, item.TechLevel,
		item.Classes, createdAt, updatedAt, item.Version,
	), nil
}
