package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/kiosk-settlement/pkg/models"
)

// TransitionTransaction atomically moves a transaction from the expected status to next.
// The update only applies if the stored status still matches, so a second settlement
// attempt for the same transaction observes false instead of overwriting the first.
func (s *Store) TransitionTransaction(ctx context.Context, txID string, expected, next models.TransactionStatus, items []string, totalAmount int64) (bool, error) {
	if items == nil {
		items = []string{}
	}
	itemsAV, err := attributevalue.Marshal(items)
	if err != nil {
		return false, fmt.Errorf("failed to marshal items: %w", err)
	}
	nowAV, err := attributevalue.Marshal(time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to marshal timestamp: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TransactionsTableName),
		Key: map[string]types.AttributeValue{
			"transaction_id": &types.AttributeValueMemberS{Value: txID},
		},
		UpdateExpression:    aws.String("SET #status = :next_status, #items = :items, total_amount = :total, updated_at = :now"),
		ConditionExpression: aws.String("#status = :expected_status"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
			"#items":  "items",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":next_status":     &types.AttributeValueMemberS{Value: string(next)},
			":expected_status": &types.AttributeValueMemberS{Value: string(expected)},
			":items":           itemsAV,
			":total":           &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", totalAmount)},
			":now":             nowAV,
		},
	}

	_, err = s.Client.UpdateItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			// Either the row is missing or another settlement already won.
			return false, nil
		}
		return false, fmt.Errorf("failed to update transaction status to %s: %w", next, err)
	}

	return true, nil
}
