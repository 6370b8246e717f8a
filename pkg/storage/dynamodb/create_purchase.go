package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/chris/skymiles/pkg/models"
	"github.com/chris/skymiles/pkg/storage"
)

// Positions of the items in the purchase transaction.
const (
	purchaseAccountItem = iota
	purchaseFlightItem
	purchaseRecordItem
)

// CreatePurchase commits a purchase in a single TransactWriteItems call: the account
// update, the capacity decrement and the purchase record succeed or fail together.
func (s *Store) CreatePurchase(ctx context.Context, np *models.NewPurchase) (*models.Flight, *models.Purchase, error) {
	p := np.Purchase
	if p.Status != models.PENDING {
		return nil, nil, storage.Validationf("new purchase must be %s, got %s", models.PENDING, p.Status)
	}

	slog.DebugContext(ctx, "creating purchase", "purchase_id", p.Id, "flight_id", p.FlightId, "account_id", p.AccountId)

	// 1. Marshal the purchase record.
	purchaseAV, err := attributevalue.MarshalMap(toPurchaseRecord(&p))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal purchase: %w", err)
	}

	// 2. Build the account update: a debit for miles payments, a lazy create otherwise.
	accountUpdate, err := s.purchaseAccountUpdate(p.AccountId, np.MilesCost, time.Now().UTC())
	if err != nil {
		return nil, nil, err
	}

	// 3. Construct the TransactWriteItems input.
	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			purchaseAccountItem: {
				Update: accountUpdate,
			},
			purchaseFlightItem: {
				Update: &types.Update{
					TableName: aws.String(s.FlightsTableName),
					Key: map[string]types.AttributeValue{
						"id": &types.AttributeValueMemberS{Value: p.FlightId},
					},
					UpdateExpression:    aws.String("SET #capacity = #capacity - :one"),
					ConditionExpression: aws.String("attribute_exists(id) AND #capacity > :zero"),
					ExpressionAttributeNames: map[string]string{
						"#capacity": "capacity",
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":one":  milesValue(1),
						":zero": milesValue(0),
					},
					ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
				},
			},
			purchaseRecordItem: {
				Put: &types.Put{
					TableName:           aws.String(s.PurchasesTableName),
					Item:                purchaseAV,
					ConditionExpression: aws.String("attribute_not_exists(id)"),
				},
			},
		},
	}

	// 4. Execute the transaction.
	if _, err := s.Client.TransactWriteItems(ctx, input); err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			if mapped := mapPurchaseCancellation(tce, &p); mapped != nil {
				return nil, nil, mapped
			}
		}
		return nil, nil, storage.Transient("create purchase", err)
	}

	// 5. Read back the flight so the caller sees the remaining capacity. The
	// purchase is committed at this point, so a failed read must not fail it.
	flight, err := s.GetFlight(ctx, p.FlightId)
	if err != nil {
		slog.WarnContext(ctx, "failed to read flight after purchase", "purchase_id", p.Id, "flight_id", p.FlightId, "error", err)
		flight = flightAfterPurchase(np.Flight, p.FlightId)
	}
	return flight, &p, nil
}

// flightAfterPurchase derives the post-purchase flight from the snapshot taken
// before the write.
func flightAfterPurchase(before *models.Flight, flightID string) *models.Flight {
	if before == nil {
		return &models.Flight{Id: flightID}
	}
	f := *before
	if f.Capacity > 0 {
		f.Capacity--
	}
	return &f
}

func (s *Store) purchaseAccountUpdate(accountID string, milesCost int64, now time.Time) (*types.Update, error) {
	if milesCost > 0 {
		return &types.Update{
			TableName:           aws.String(s.AccountsTableName),
			Key:                 accountKey(accountID),
			UpdateExpression:    aws.String("SET miles = miles - :cost, version = version + :inc"),
			ConditionExpression: aws.String("attribute_exists(account_id) AND miles >= :cost"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":cost": milesValue(milesCost),
				":inc":  milesValue(1),
			},
			ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
		}, nil
	}

	nowAV, err := attributevalue.Marshal(now)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timestamp: %w", err)
	}
	return &types.Update{
		TableName: aws.String(s.AccountsTableName),
		Key:       accountKey(accountID),
		UpdateExpression: aws.String("SET miles = if_not_exists(miles, :zero), " +
			"version = if_not_exists(version, :one), created_at = if_not_exists(created_at, :now)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": milesValue(0),
			":one":  milesValue(1),
			":now":  nowAV,
		},
	}, nil
}

// mapPurchaseCancellation maps the cancellation reasons to a storage error.
// It returns nil when no condition failed, e.g. on a transaction conflict.
func mapPurchaseCancellation(tce *types.TransactionCanceledException, p *models.Purchase) error {
	if code, missing := cancellationCode(tce, purchaseFlightItem); code == conditionalCheckFailed {
		if missing {
			return fmt.Errorf("flight %s: %w", p.FlightId, storage.ErrNotFound)
		}
		return fmt.Errorf("flight %s: %w", p.FlightId, storage.ErrCapacityExhausted)
	}
	if code, missing := cancellationCode(tce, purchaseAccountItem); code == conditionalCheckFailed {
		if missing {
			return fmt.Errorf("account %s: %w", p.AccountId, storage.ErrNotFound)
		}
		return fmt.Errorf("account %s: %w", p.AccountId, storage.ErrInsufficientMiles)
	}
	if code, _ := cancellationCode(tce, purchaseRecordItem); code == conditionalCheckFailed {
		return fmt.Errorf("purchase %s: %w", p.Id, storage.ErrConflict)
	}
	return nil
}
