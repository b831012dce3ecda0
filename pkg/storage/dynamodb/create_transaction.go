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
	"github.com/chris/kiosk-settlement/pkg/storage"
)

// CreateTransaction records a new PENDING_ITEMS transaction.
// The put is conditional on the ID not existing yet, so concurrent creators race safely.
func (s *Store) CreateTransaction(ctx context.Context, txID, authorizationID string) (*models.Transaction, error) {
	now := time.Now().UTC()
	tx := &models.Transaction{
		TransactionID:          txID,
		PaymentAuthorizationID: authorizationID,
		Status:                 models.PENDING_ITEMS,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	item, err := attributevalue.MarshalMap(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.TransactionsTableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(transaction_id)"),
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, storage.ErrDuplicateTransaction
		}
		return nil, fmt.Errorf("failed to put transaction: %w", err)
	}

	return tx, nil
}
