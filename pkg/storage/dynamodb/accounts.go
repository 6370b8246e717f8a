package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/chris/skymiles/pkg/models"
	"github.com/chris/skymiles/pkg/storage"
)

// upsertCreditExpression adds miles to an account and creates it when it does not exist yet.
const upsertCreditExpression = "SET miles = if_not_exists(miles, :zero) + :amount, " +
	"version = if_not_exists(version, :zero) + :inc, " +
	"created_at = if_not_exists(created_at, :now)"

func accountKey(accountID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"account_id": &types.AttributeValueMemberS{Value: accountID},
	}
}

func milesValue(n int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

func upsertCreditValues(amount int64, now time.Time) (map[string]types.AttributeValue, error) {
	nowAV, err := attributevalue.Marshal(now)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timestamp: %w", err)
	}
	return map[string]types.AttributeValue{
		":zero":   milesValue(0),
		":amount": milesValue(amount),
		":inc":    milesValue(1),
		":now":    nowAV,
	}, nil
}

// GetAccount retrieves an account by its ID.
func (s *Store) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.AccountsTableName),
		Key:            accountKey(accountID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storage.Transient("get account", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}

	var account models.Account
	if err := attributevalue.UnmarshalMap(result.Item, &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &account, nil
}

// CreateAccount creates a new account with a zero balance.
func (s *Store) CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error) {
	a := *account
	a.Version = 1
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal account: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.AccountsTableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(account_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, fmt.Errorf("account %s: %w", a.Id, storage.ErrConflict)
		}
		return nil, storage.Transient("put account", err)
	}
	return &a, nil
}

// CreditMiles adds miles to an account in a single update, creating the account when missing.
func (s *Store) CreditMiles(ctx context.Context, accountID string, amount int64) (*models.Account, error) {
	values, err := upsertCreditValues(amount, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	result, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.AccountsTableName),
		Key:                       accountKey(accountID),
		UpdateExpression:          aws.String(upsertCreditExpression),
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, storage.Transient("credit miles", err)
	}

	var account models.Account
	if err := attributevalue.UnmarshalMap(result.Attributes, &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &account, nil
}

// DebitMiles removes miles from an account. The condition keeps the balance non-negative.
func (s *Store) DebitMiles(ctx context.Context, accountID string, amount int64) (*models.Account, error) {
	result, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.AccountsTableName),
		Key:                 accountKey(accountID),
		UpdateExpression:    aws.String("SET miles = miles - :amount, version = version + :inc"),
		ConditionExpression: aws.String("attribute_exists(account_id) AND miles >= :amount"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":amount": milesValue(amount),
			":inc":    milesValue(1),
		},
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			if len(ccf.Item) == 0 {
				return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
			}
			return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrInsufficientMiles)
		}
		return nil, storage.Transient("debit miles", err)
	}

	var account models.Account
	if err := attributevalue.UnmarshalMap(result.Attributes, &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &account, nil
}
