package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/chris/skymiles/pkg/models"
	"github.com/chris/skymiles/pkg/storage"
)

// GetPurchase retrieves a purchase by its ID.
func (s *Store) GetPurchase(ctx context.Context, purchaseID string) (*models.Purchase, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.PurchasesTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: purchaseID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storage.Transient("get purchase", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("purchase %s: %w", purchaseID, storage.ErrNotFound)
	}

	var record purchaseRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal purchase: %w", err)
	}
	purchase := record.toModel()
	return &purchase, nil
}

// ListPurchasesByAccount queries the account index. Purchase IDs are time ordered,
// so scanning the index backwards returns the newest purchase first.
func (s *Store) ListPurchasesByAccount(ctx context.Context, accountID string) ([]models.Purchase, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.PurchasesTableName),
		IndexName:              aws.String(accountIDIndex),
		KeyConditionExpression: aws.String("account_id = :account_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":account_id": &types.AttributeValueMemberS{Value: accountID},
		},
		ScanIndexForward: aws.Bool(false),
	}
	return s.queryPurchases(ctx, "list purchases", input)
}

// GetPendingPurchases queries the status index for PENDING purchases created before the cutoff,
// oldest first.
func (s *Store) GetPendingPurchases(ctx context.Context, createdBefore time.Time) ([]models.Purchase, error) {
	cutoffAV, err := timestamp{createdBefore}.MarshalDynamoDBAttributeValue()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cutoff time: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.PurchasesTableName),
		IndexName:              aws.String(pendingCreatedAtIndex),
		KeyConditionExpression: aws.String("#status = :status AND created_at < :cutoff"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(models.PENDING)},
			":cutoff": cutoffAV,
		},
		ScanIndexForward: aws.Bool(true),
	}
	return s.queryPurchases(ctx, "query pending purchases", input)
}

func (s *Store) queryPurchases(ctx context.Context, op string, input *dynamodb.QueryInput) ([]models.Purchase, error) {
	purchases := make([]models.Purchase, 0)
	paginator := dynamodb.NewQueryPaginator(s.Client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storage.Transient(op, err)
		}
		var batch []purchaseRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal purchases: %w", err)
		}
		for _, r := range batch {
			purchases = append(purchases, r.toModel())
		}
	}
	return purchases, nil
}
