package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chris/skymiles/pkg/models"
	"github.com/chris/skymiles/pkg/storage"
	"github.com/chris/skymiles/pkg/storage/dynamodb/mocks"
)

func TestSettlePurchase(t *testing.T) {
	settlement := models.Settlement{
		PurchaseId:  "0192f7a4-0000-7000-8000-000000000001",
		AccountId:   "user-1",
		MilesEarned: 45,
		SettledAt:   time.Date(2026, 1, 2, 9, 5, 0, 0, time.UTC),
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, AccountsTableName: "accounts", PurchasesTableName: "purchases"}
		credited, _ := attributevalue.MarshalMap(models.Account{Id: "user-1", Miles: 45, Version: 2})

		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			flip := in.TransactItems[0].Update
			credit := in.TransactItems[1].Update
			earned := credit.ExpressionAttributeValues[":amount"].(*types.AttributeValueMemberN)
			return *flip.ConditionExpression == "attribute_exists(id) AND #status = :pending" && earned.Value == "45"
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: credited}, nil).Once()

		account, err := store.SettlePurchase(context.Background(), settlement)

		require.NoError(t, err)
		assert.Equal(t, int64(45), account.Miles)
		mockClient.AssertExpectations(t)
	})

	t.Run("Committed Settlement Survives Failed Read Back", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, AccountsTableName: "accounts", PurchasesTableName: "purchases"}

		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("read timeout")).Once()

		account, err := store.SettlePurchase(context.Background(), settlement)

		require.NoError(t, err)
		assert.Nil(t, account)
		mockClient.AssertExpectations(t)
	})

	t.Run("Already Settled", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, AccountsTableName: "accounts", PurchasesTableName: "purchases"}
		settled, _ := attributevalue.MarshalMap(toPurchaseRecord(&models.Purchase{Id: settlement.PurchaseId, Status: models.SETTLED}))

		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelled(
			reason(conditionalCheckFailed, settled),
			reason("None", nil),
		)).Once()

		_, err := store.SettlePurchase(context.Background(), settlement)

		assert.ErrorIs(t, err, storage.ErrAlreadySettled)
		mockClient.AssertNotCalled(t, "GetItem", mock.Anything, mock.Anything)
		mockClient.AssertExpectations(t)
	})

	t.Run("Purchase Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient}

		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelled(
			reason(conditionalCheckFailed, nil),
			reason("None", nil),
		)).Once()

		_, err := store.SettlePurchase(context.Background(), settlement)

		assert.ErrorIs(t, err, storage.ErrNotFound)
		mockClient.AssertExpectations(t)
	})

	t.Run("Transaction Fails", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient}

		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, errors.New("transaction failed")).Once()

		_, err := store.SettlePurchase(context.Background(), settlement)

		assert.ErrorIs(t, err, storage.ErrTransient)
		assert.Contains(t, err.Error(), "settle purchase")
		mockClient.AssertExpectations(t)
	})
}
