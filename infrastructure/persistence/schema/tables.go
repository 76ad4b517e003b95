// Package schema declares the DynamoDB tables the engine persists to
// and can provision them for local stacks. Index names here must match
// the ones the repositories query.
package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"mirage-engine/infrastructure/config"
)

func keySchema(hash, sort string) []types.KeySchemaElement {
	schema := []types.KeySchemaElement{
		{AttributeName: aws.String(hash), KeyType: types.KeyTypeHash},
	}
	if sort != "" {
		schema = append(schema, types.KeySchemaElement{
			AttributeName: aws.String(sort), KeyType: types.KeyTypeRange,
		})
	}
	return schema
}

func stringAttrs(names ...string) []types.AttributeDefinition {
	defs := make([]types.AttributeDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, types.AttributeDefinition{
			AttributeName: aws.String(name),
			AttributeType: types.ScalarAttributeTypeS,
		})
	}
	return defs
}

func globalIndex(name, hash, sort string) types.GlobalSecondaryIndex {
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(name),
		KeySchema:  keySchema(hash, sort),
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

// TableInputs returns the CreateTable definitions for every table the
// engine uses, keyed off the configured table names.
func TableInputs(cfg *config.Config) []*dynamodb.CreateTableInput {
	return []*dynamodb.CreateTableInput{
		{
			TableName:            aws.String(cfg.CharacterTable),
			BillingMode:          types.BillingModePayPerRequest,
			KeySchema:            keySchema("PK", "SK"),
			AttributeDefinitions: stringAttrs("PK", "SK", "GSI1PK", "GSI1SK"),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				globalIndex("CharacterIndex", "GSI1SK", ""),
				globalIndex("RegimeIndex", "GSI1PK", "GSI1SK"),
			},
		},
		{
			TableName:            aws.String(cfg.RegimeTable),
			BillingMode:          types.BillingModePayPerRequest,
			KeySchema:            keySchema("PK", "SK"),
			AttributeDefinitions: stringAttrs("PK", "SK"),
		},
		{
			TableName:            aws.String(cfg.ArtifactTable),
			BillingMode:          types.BillingModePayPerRequest,
			KeySchema:            keySchema("PK", "SK"),
			AttributeDefinitions: stringAttrs("PK", "SK", "GSI1PK", "GSI2PK"),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				globalIndex("ContentHashIndex", "GSI1PK", ""),
				globalIndex("CharacterArtifactIndex", "GSI2PK", ""),
			},
		},
		{
			TableName:            aws.String(cfg.EventTable),
			BillingMode:          types.BillingModePayPerRequest,
			KeySchema:            keySchema("PK", "SK"),
			AttributeDefinitions: stringAttrs("PK", "SK", "GSI1PK", "GSI1SK"),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				globalIndex("EventTypeIndex", "GSI1PK", "GSI1SK"),
			},
		},
		{
			TableName:            aws.String(cfg.LockTable),
			BillingMode:          types.BillingModePayPerRequest,
			KeySchema:            keySchema("PK", "SK"),
			AttributeDefinitions: stringAttrs("PK", "SK"),
		},
	}
}

// EnsureTables creates any missing tables. Existing tables are left
// untouched; index drift is not reconciled here.
func EnsureTables(ctx context.Context, client *dynamodb.Client, cfg *config.Config, logger *zap.Logger) error {
	for _, input := range TableInputs(cfg) {
		_, err := client.CreateTable(ctx, input)
		if err != nil {
			var exists *types.ResourceInUseException
			if errors.As(err, &exists) {
				continue
			}
			return fmt.Errorf("failed to create table %s: %w", aws.ToString(input.TableName), err)
		}
		logger.Info("table created", zap.String("table", aws.ToString(input.TableName)))
	}
	return nil
}
