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

// regimeIndexName is the GSI keyed by regime for roster queries
const regimeIndexName = "RegimeIndex"

// CharacterRepository implements ports.CharacterRepository on DynamoDB.
// Items live under PK OWNER#<owner>, SK CHARACTER#<id>; a GSI keyed by
// CHARID enables direct lookups and one keyed by REGIME# the rosters.
type CharacterRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewCharacterRepository creates a DynamoDB-backed character store
func NewCharacterRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.CharacterRepository {
	return &CharacterRepository{client: client, tableName: tableName, logger: logger}
}

type characterItem struct {
	PK          string                         `dynamodbav:"PK"`
	SK          string                         `dynamodbav:"SK"`
	GSI1PK      string                         `dynamodbav:"GSI1PK"`
	GSI1SK      string                         `dynamodbav:"GSI1SK"`
	EntityType  string                         `dynamodbav:"EntityType"`
	CharacterID string                         `dynamodbav:"CharacterID"`
	OwnerID     string                         `dynamodbav:"OwnerID"`
	Name        string                         `dynamodbav:"Name"`
	Birth       string                         `dynamodbav:"Birth"`
	RegimeID    string                         `dynamodbav:"RegimeID"`
	Personality valueobjects.PersonalityVector `dynamodbav:"Personality"`
	Emotion     valueobjects.EmotionVector     `dynamodbav:"Emotion"`
	Social      valueobjects.SocialVector      `dynamodbav:"Social"`
	Attributes  map[string]float64             `dynamodbav:"Attributes"`
	FateScore   float64                        `dynamodbav:"FateScore"`
	Age         int                            `dynamodbav:"Age"`
	Archived    bool                           `dynamodbav:"Archived"`
	CreatedAt   string                         `dynamodbav:"CreatedAt"`
	UpdatedAt   string                         `dynamodbav:"UpdatedAt"`
	Version     int                            `dynamodbav:"Version"`
}

func characterToItem(c *entities.Character) characterItem {
	return characterItem{
		PK:          fmt.Sprintf("OWNER#%s", c.OwnerID()),
		SK:          fmt.Sprintf("CHARACTER#%s", c.ID().String()),
		GSI1PK:      fmt.Sprintf("REGIME#%s", c.RegimeID().String()),
		GSI1SK:      fmt.Sprintf("CHARACTER#%s", c.ID().String()),
		EntityType:  "CHARACTER",
		CharacterID: c.ID().String(),
		OwnerID:     c.OwnerID(),
		Name:        c.Name(),
		Birth:       c.Birth(),
		RegimeID:    c.RegimeID().String(),
		Personality: c.Personality(),
		Emotion:     c.Emotion(),
		Social:      c.Social(),
		Attributes:  c.Attributes(),
		FateScore:   c.FateScore(),
		Age:         c.Age(),
		Archived:    c.IsArchived(),
		CreatedAt:   c.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt:   c.UpdatedAt().Format(time.RFC3339Nano),
		Version:     c.Version(),
	}
}

func itemToCharacter(item characterItem) (*entities.Character, error) {
	id, err := valueobjects.NewCharacterIDFromString(item.CharacterID)
	if err != nil {
		return nil, fmt.Errorf("corrupt character item: %w", err)
	}
	regimeID, err := valueobjects.NewRegimeIDFromString(item.RegimeID)
	if err != nil {
		return nil, fmt.Errorf("corrupt character item: %w", err)
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	return entities.ReconstructCharacter(
		id, item.OwnerID, item.Name, item.Birth, regimeID,
		item.Personality, item.Emotion, item.Social,
		item.Attributes, item.FateScore, item.Age, item.Archived,
		createdAt, updatedAt,
	), nil
}

// Save persists a character with optimistic concurrency on Version
func (r *CharacterRepository) Save(ctx context.Context, character *entities.Character) error {
	item := characterToItem(character)
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal character: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to save character: %w", err)
	}
	r.logger.Debug("character saved",
		zap.String("character_id", character.ID().String()),
		zap.Int("version", character.Version()),
	)
	return nil
}

// GetByID retrieves a character via the CHARID index
func (r *CharacterRepository) GetByID(ctx context.Context, id valueobjects.CharacterID) (*entities.Character, error) {
	keyCond := expression.Key("GSI1SK").Equal(expression.Value(fmt.Sprintf("CHARACTER#%s", id.String())))
	filter := expression.Name("EntityType").Equal(expression.Value("CHARACTER"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("CharacterIndex"),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query character: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.ErrCharacterNotFound.WithDetail("character_id", id.String())
	}

	var item characterItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal character: %w", err)
	}
	return itemToCharacter(item)
}

// GetByOwnerID retrieves all characters belonging to a user
func (r *CharacterRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*entities.Character, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(fmt.Sprintf("OWNER#%s", ownerID))).
		And(expression.Key("SK").BeginsWith("CHARACTER#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return r.queryCharacters(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

// GetByRegimeID retrieves all characters living under a regime
func (r *CharacterRepository) GetByRegimeID(ctx context.Context, regimeID valueobjects.RegimeID) ([]*entities.Character, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(fmt.Sprintf("REGIME#%s", regimeID.String())))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return r.queryCharacters(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(regimeIndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

func (r *CharacterRepository) queryCharacters(ctx context.Context, input *dynamodb.QueryInput) ([]*entities.Character, error) {
	var out []*entities.Character
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query characters: %w", err)
		}
		for _, raw := range page.Items {
			var item characterItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal character: %w", err)
			}
			character, err := itemToCharacter(item)
			if err != nil {
				return nil, err
			}
			out = append(out, character)
		}
	}
	return out, nil
}

// Delete removes a character
func (r *CharacterRepository) Delete(ctx context.Context, id valueobjects.CharacterID) error {
	character, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("OWNER#%s", character.OwnerID())},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("CHARACTER#%s", id.String())},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete character: %w", err)
	}
	return nil
}
