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
	"go.uber.org/zap"

	"mirage-engine/application/ports"
	"mirage-engine/domain/events"
)

// typeIndexName is the GSI keyed by event type
const typeIndexName = "EventTypeIndex"

// EventStore implements ports.EventStore on DynamoDB. Events append
// under their aggregate's partition with a time-ordered sort key, so
// reading an aggregate's history is one Query in stored order.
type EventStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewEventStore creates a DynamoDB-backed event store
func NewEventStore(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.EventStore {
	return &EventStore{client: client, tableName: tableName, logger: logger}
}

type eventItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	GSI1PK      string `dynamodbav:"GSI1PK"`
	GSI1SK      string `dynamodbav:"GSI1SK"`
	AggregateID string `dynamodbav:"AggregateID"`
	EventType   string `dynamodbav:"EventType"`
	Timestamp   string `dynamodbav:"Timestamp"`
	Version     int    `dynamodbav:"Version"`
	Payload     string `dynamodbav:"Payload"`
}

// SaveEvents persists domain events in order
func (s *EventStore) SaveEvents(ctx context.Context, evts []events.DomainEvent) error {
	for i, evt := range evts {
		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}

		item := eventItem{
			PK:          fmt.Sprintf("AGGREGATE#%s", evt.GetAggregateID()),
			SK:          fmt.Sprintf("EVENT#%s#%04d", evt.GetTimestamp().UTC().Format(time.RFC3339Nano), i),
			GSI1PK:      fmt.Sprintf("TYPE#%s", evt.GetEventType()),
			GSI1SK:      evt.GetTimestamp().UTC().Format(time.RFC3339Nano),
			AggregateID: evt.GetAggregateID(),
			EventType:   evt.GetEventType(),
			Timestamp:   evt.GetTimestamp().UTC().Format(time.RFC3339Nano),
			Version:     evt.GetVersion(),
			Payload:     string(payload),
		}
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("failed to marshal event item: %w", err)
		}

		_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.tableName),
			Item:      av,
		})
		if err != nil {
			return fmt.Errorf("failed to save event: %w", err)
		}
	}
	s.logger.Debug("events saved", zap.Int("count", len(evts)))
	return nil
}

// GetEvents retrieves events for an aggregate in stored order
func (s *EventStore) GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(fmt.Sprintf("AGGREGATE#%s", aggregateID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return s.queryEvents(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, 0)
}

// GetEventsByType retrieves up to limit events of a specific type
func (s *EventStore) GetEventsByType(ctx context.Context, eventType string, limit int) ([]events.DomainEvent, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(fmt.Sprintf("TYPE#%s", eventType)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return s.queryEvents(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(typeIndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, limit)
}

func (s *EventStore) queryEvents(ctx context.Context, input *dynamodb.QueryInput, limit int) ([]events.DomainEvent, error) {
	var out []events.DomainEvent
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query events: %w", err)
		}
		for _, raw := range page.Items {
			var item eventItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event: %w", err)
			}
			evt, err := decodeEvent(item)
			if err != nil {
				return nil, err
			}
			out = append(out, evt)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

// decodeEvent rebuilds a typed domain event from its stored payload.
// Unknown types decode to the base envelope so old events stay readable
// after a type is retired.
func decodeEvent(item eventItem) (events.DomainEvent, error) {
	raw := []byte(item.Payload)
	switch item.EventType {
	case "graph.node_added":
		var evt events.DestinyNodeAdded
		return evt, json.Unmarshal(raw, &evt)
	case "graph.event_recorded":
		var evt events.CausalEventRecorded
		return evt, json.Unmarshal(raw, &evt)
	case "session.tick_completed":
		var evt events.TickCompleted
		return evt, json.Unmarshal(raw, &evt)
	case "session.completed":
		var evt events.SessionCompleted
		return evt, json.Unmarshal(raw, &evt)
	case "session.failed":
		var evt events.SessionFailed
		return evt, json.Unmarshal(raw, &evt)
	case "artifact.minted":
		var evt events.ArtifactMinted
		return evt, json.Unmarshal(raw, &evt)
	default:
		var evt events.BaseEvent
		return evt, json.Unmarshal(raw, &evt)
	}
}
