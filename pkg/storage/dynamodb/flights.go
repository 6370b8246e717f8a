package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/chris/skymiles/pkg/models"
	"github.com/chris/skymiles/pkg/storage"
)

// CreateFlight stores a new flight, assigning an ID when none is set.
func (s *Store) CreateFlight(ctx context.Context, flight *models.Flight) (*models.Flight, error) {
	f := *flight
	if f.Id == "" {
		f.Id = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	item, err := attributevalue.MarshalMap(toFlightRecord(&f))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal flight: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.FlightsTableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, fmt.Errorf("flight %s: %w", f.Id, storage.ErrConflict)
		}
		return nil, storage.Transient("put flight", err)
	}
	return &f, nil
}

// GetFlight retrieves a flight by its ID.
func (s *Store) GetFlight(ctx context.Context, flightID string) (*models.Flight, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.FlightsTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: flightID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storage.Transient("get flight", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("flight %s: %w", flightID, storage.ErrNotFound)
	}

	var record flightRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flight: %w", err)
	}
	f := record.toModel()
	return &f, nil
}

// ListFlights scans the flights table, filtering server side, and returns the
// matches ordered by date then code.
func (s *Store) ListFlights(ctx context.Context, filter models.FlightFilter) ([]models.Flight, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(s.FlightsTableName),
	}

	var conditions []string
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	addCondition := func(attr, value string) {
		if value == "" {
			return
		}
		conditions = append(conditions, fmt.Sprintf("#%s = :%s", attr, attr))
		names["#"+attr] = attr
		values[":"+attr] = &types.AttributeValueMemberS{Value: value}
	}
	addCondition("origin", filter.Origin)
	addCondition("destination", filter.Destination)
	addCondition("date", filter.Date)
	if len(conditions) > 0 {
		input.FilterExpression = aws.String(strings.Join(conditions, " AND "))
		input.ExpressionAttributeNames = names
		input.ExpressionAttributeValues = values
	}

	flights := make([]models.Flight, 0)
	paginator := dynamodb.NewScanPaginator(s.Client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storage.Transient("scan flights", err)
		}
		var records []flightRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &records); err != nil {
			return nil, fmt.Errorf("failed to unmarshal flights: %w", err)
		}
		for _, r := range records {
			flights = append(flights, r.toModel())
		}
	}

	sort.Slice(flights, func(i, j int) bool {
		if flights[i].Date != flights[j].Date {
			return flights[i].Date < flights[j].Date
		}
		return flights[i].Code < flights[j].Code
	})
	return flights, nil
}

// DeleteFlight removes a flight.
func (s *Store) DeleteFlight(ctx context.Context, flightID string) error {
	_, err := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.FlightsTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: flightID},
		},
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("flight %s: %w", flightID, storage.ErrNotFound)
		}
		return storage.Transient("delete flight", err)
	}
	return nil
}

// DecrementCapacity takes one seat from a flight with a conditional update.
// The condition guarantees capacity never goes below zero under concurrency.
func (s *Store) DecrementCapacity(ctx context.Context, flightID string) (*models.Flight, error) {
	result, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.FlightsTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: flightID},
		},
		UpdateExpression:    aws.String("SET #capacity = #capacity - :one"),
		ConditionExpression: aws.String("attribute_exists(id) AND #capacity > :zero"),
		ExpressionAttributeNames: map[string]string{
			"#capacity": "capacity",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":  &types.AttributeValueMemberN{Value: "1"},
			":zero": &types.AttributeValueMemberN{Value: "0"},
		},
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			if len(ccf.Item) == 0 {
				return nil, fmt.Errorf("flight %s: %w", flightID, storage.ErrNotFound)
			}
			return nil, fmt.Errorf("flight %s: %w", flightID, storage.ErrCapacityExhausted)
		}
		return nil, storage.Transient("decrement capacity", err)
	}

	var record flightRecord
	if err := attributevalue.UnmarshalMap(result.Attributes, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flight: %w", err)
	}
	f := record.toModel()
	return &f, nil
}
