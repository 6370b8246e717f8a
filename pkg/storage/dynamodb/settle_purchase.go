package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/chris/skymiles/pkg/models"
	"github.com/chris/skymiles/pkg/storage"
)

// SettlePurchase flips a purchase from PENDING to SETTLED and credits the account
// in one transaction. The status condition makes a second settlement of the same
// purchase fail with ErrAlreadySettled instead of crediting twice.
func (s *Store) SettlePurchase(ctx context.Context, st models.Settlement) (*models.Account, error) {
	// 1. Prepare values.
	settledAtAV, err := timestamp{st.SettledAt}.MarshalDynamoDBAttributeValue()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settlement time: %w", err)
	}
	creditValues, err := upsertCreditValues(st.MilesEarned, st.SettledAt)
	if err != nil {
		return nil, err
	}

	// 2. Construct the TransactWriteItems input.
	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				// Operation 1: Mark the purchase as settled, only if still pending.
				Update: &types.Update{
					TableName: aws.String(s.PurchasesTableName),
					Key: map[string]types.AttributeValue{
						"id": &types.AttributeValueMemberS{Value: st.PurchaseId},
					},
					UpdateExpression:    aws.String("SET #status = :settled, settled_at = :settled_at, miles_earned = :earned"),
					ConditionExpression: aws.String("attribute_exists(id) AND #status = :pending"),
					ExpressionAttributeNames: map[string]string{
						"#status": "status",
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":settled":    &types.AttributeValueMemberS{Value: string(models.SETTLED)},
						":pending":    &types.AttributeValueMemberS{Value: string(models.PENDING)},
						":settled_at": settledAtAV,
						":earned":     milesValue(st.MilesEarned),
					},
					ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
				},
			},
			{
				// Operation 2: Credit the account, creating it when missing.
				Update: &types.Update{
					TableName:                 aws.String(s.AccountsTableName),
					Key:                       accountKey(st.AccountId),
					UpdateExpression:          aws.String(upsertCreditExpression),
					ExpressionAttributeValues: creditValues,
				},
			},
		},
	}

	// 3. Execute the transaction.
	if _, err := s.Client.TransactWriteItems(ctx, input); err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			if code, missing := cancellationCode(tce, 0); code == conditionalCheckFailed {
				if missing {
					return nil, fmt.Errorf("purchase %s: %w", st.PurchaseId, storage.ErrNotFound)
				}
				return nil, fmt.Errorf("purchase %s: %w", st.PurchaseId, storage.ErrAlreadySettled)
			}
		}
		return nil, storage.Transient("settle purchase", err)
	}

	// 4. Return the credited account. The settlement is committed, so a failed
	// read only loses the new balance.
	account, err := s.GetAccount(ctx, st.AccountId)
	if err != nil {
		slog.WarnContext(ctx, "failed to read account after settlement", "purchase_id", st.PurchaseId, "account_id", st.AccountId, "error", err)
		return nil, nil
	}
	return account, nil
}
