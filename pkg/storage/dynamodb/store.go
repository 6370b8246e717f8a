package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/chris/skymiles/pkg/storage"
)

//go:generate go run github.com/vektra/mockery/v2 --name DynamoDBAPI --output mocks

// DynamoDBAPI is the subset of the DynamoDB client used by the Store.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store implements the Storage interface using AWS DynamoDB.
type Store struct {
	Client             DynamoDBAPI
	FlightsTableName   string
	AccountsTableName  string
	PurchasesTableName string
}

// New creates a new Store.
func New(client DynamoDBAPI, flightsTable, accountsTable, purchasesTable string) *Store {
	return &Store{
		Client:             client,
		FlightsTableName:   flightsTable,
		AccountsTableName:  accountsTable,
		PurchasesTableName: purchasesTable,
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

const (
	pendingCreatedAtIndex = "status-created_at-index"
	accountIDIndex        = "account_id-index"

	conditionalCheckFailed = "ConditionalCheckFailed"
)

// cancellationCode returns the reason code of the i-th item of a cancelled transaction.
// The boolean reports whether the item's condition failed on a missing item.
func cancellationCode(tce *types.TransactionCanceledException, i int) (code string, missing bool) {
	if i >= len(tce.CancellationReasons) {
		return "", false
	}
	reason := tce.CancellationReasons[i]
	if reason.Code == nil {
		return "", false
	}
	return *reason.Code, len(reason.Item) == 0
}
