package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chris/skymiles/pkg/models"
	"github.com/chris/skymiles/pkg/storage"
	"github.com/chris/skymiles/pkg/storage/dynamodb/mocks"
)

func testFlight() *models.Flight {
	bp := decimal.RequireFromString("899.99")
	return &models.Flight{
		Id:            "flight-1",
		Code:          "SK100",
		Origin:        "LIS",
		Destination:   "JFK",
		Date:          "2026-03-01",
		Price:         decimal.RequireFromString("455.50"),
		BusinessPrice: &bp,
		Capacity:      3,
		CreatedAt:     time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func flightItem(t *testing.T, f *models.Flight) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(toFlightRecord(f))
	require.NoError(t, err)
	return av
}

func TestCreateFlight(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, FlightsTableName: "flights"}

		mockClient.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			price, ok := in.Item["price"].(*types.AttributeValueMemberN)
			return *in.TableName == "flights" && ok && price.Value == "455.5"
		})).Return(&dynamodb.PutItemOutput{}, nil).Once()

		f := testFlight()
		f.Id = ""
		created, err := store.CreateFlight(context.Background(), f)

		assert.NoError(t, err)
		assert.NotEmpty(t, created.Id)
		assert.Equal(t, "SK100", created.Code)
		mockClient.AssertExpectations(t)
	})

	t.Run("Duplicate ID", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, FlightsTableName: "flights"}

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{}).Once()

		_, err := store.CreateFlight(context.Background(), testFlight())

		assert.ErrorIs(t, err, storage.ErrConflict)
		mockClient.AssertExpectations(t)
	})
}

func TestGetFlight(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, FlightsTableName: "flights"}
		expected := testFlight()

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: flightItem(t, expected)}, nil).Once()

		f, err := store.GetFlight(context.Background(), expected.Id)

		require.NoError(t, err)
		assert.Equal(t, expected.Code, f.Code)
		assert.True(t, expected.Price.Equal(f.Price))
		require.NotNil(t, f.BusinessPrice)
		assert.True(t, expected.BusinessPrice.Equal(*f.BusinessPrice))
		assert.Equal(t, int64(3), f.Capacity)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, FlightsTableName: "flights"}

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil).Once()

		_, err := store.GetFlight(context.Background(), "missing")

		assert.ErrorIs(t, err, storage.ErrNotFound)
		mockClient.AssertExpectations(t)
	})

	t.Run("DynamoDB Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, FlightsTableName: "flights"}

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("dynamodb error")).Once()

		_, err := store.GetFlight(context.Background(), "flight-1")

		assert.ErrorIs(t, err, storage.ErrTransient)
		mockClient.AssertExpectations(t)
	})
}

func TestListFlights(t *testing.T) {
	t.Run("Filtered And Sorted", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, FlightsTableName: "flights"}

		later := testFlight()
		later.Id, later.Code, later.Date = "flight-2", "SK200", "2026-03-02"
		earlier := testFlight()

		// The paginator passes its own option func, hence the third argument.
		mockClient.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
			return in.FilterExpression != nil &&
				*in.FilterExpression == "#origin = :origin AND #destination = :destination" &&
				in.ExpressionAttributeNames["#origin"] == "origin"
		}), mock.Anything).Return(&dynamodb.ScanOutput{
			Items: []map[string]types.AttributeValue{flightItem(t, later), flightItem(t, earlier)},
		}, nil).Once()

		flights, err := store.ListFlights(context.Background(), models.FlightFilter{Origin: "LIS", Destination: "JFK"})

		require.NoError(t, err)
		require.Len(t, flights, 2)
		assert.Equal(t, "SK100", flights[0].Code)
		assert.Equal(t, "SK200", flights[1].Code)
		mockClient.AssertExpectations(t)
	})

	t.Run("No Filter", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, FlightsTableName: "flights"}

		mockClient.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
			return in.FilterExpression == nil
		}), mock.Anything).Return(&dynamodb.ScanOutput{}, nil).Once()

		flights, err := store.ListFlights(context.Background(), models.FlightFilter{})

		assert.NoError(t, err)
		assert.Empty(t, flights)
		mockClient.AssertExpectations(t)
	})
}

func TestDeleteFlight(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, FlightsTableName: "flights"}

		mockClient.On("DeleteItem", mock.Anything, mock.Anything).Return(&dynamodb.DeleteItemOutput{}, nil).Once()

		assert.NoError(t, store.DeleteFlight(context.Background(), "flight-1"))
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, FlightsTableName: "flights"}

		mockClient.On("DeleteItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{}).Once()

		err := store.DeleteFlight(context.Background(), "missing")

		assert.ErrorIs(t, err, storage.ErrNotFound)
		mockClient.AssertExpectations(t)
	})
}

func TestDecrementCapacity(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, FlightsTableName: "flights"}
		updated := testFlight()
		updated.Capacity = 2

		mockClient.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
			return *in.ConditionExpression == "attribute_exists(id) AND #capacity > :zero"
		})).Return(&dynamodb.UpdateItemOutput{Attributes: flightItem(t, updated)}, nil).Once()

		f, err := store.DecrementCapacity(context.Background(), updated.Id)

		require.NoError(t, err)
		assert.Equal(t, int64(2), f.Capacity)
		mockClient.AssertExpectations(t)
	})

	t.Run("Capacity Exhausted", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, FlightsTableName: "flights"}
		soldOut := testFlight()
		soldOut.Capacity = 0

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).
			Return(nil, &types.ConditionalCheckFailedException{Item: flightItem(t, soldOut)}).Once()

		_, err := store.DecrementCapacity(context.Background(), soldOut.Id)

		assert.ErrorIs(t, err, storage.ErrCapacityExhausted)
		mockClient.AssertExpectations(t)
	})

	t.Run("Flight Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, FlightsTableName: "flights"}

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{}).Once()

		_, err := store.DecrementCapacity(context.Background(), "missing")

		assert.ErrorIs(t, err, storage.ErrNotFound)
		mockClient.AssertExpectations(t)
	})
}
