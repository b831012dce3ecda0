package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/kiosk-settlement/pkg/models"
	"github.com/chris/kiosk-settlement/pkg/storage"
	"github.com/chris/kiosk-settlement/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCreateTransaction(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, TransactionsTableName: "transactions"}

		mockClient.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			_, hasID := in.Item["transaction_id"]
			return *in.TableName == "transactions" &&
				*in.ConditionExpression == "attribute_not_exists(transaction_id)" &&
				hasID
		})).Once().Return(&dynamodb.PutItemOutput{}, nil)

		result, err := store.CreateTransaction(context.Background(), "tx1", "pi_123")

		assert.NoError(t, err)
		assert.Equal(t, "tx1", result.TransactionID)
		assert.Equal(t, "pi_123", result.PaymentAuthorizationID)
		assert.Equal(t, models.PENDING_ITEMS, result.Status)
		assert.False(t, result.CreatedAt.IsZero())
		assert.Equal(t, result.CreatedAt, result.UpdatedAt)
		mockClient.AssertExpectations(t)
	})

	t.Run("Duplicate", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, TransactionsTableName: "transactions"}

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		_, err := store.CreateTransaction(context.Background(), "tx1", "pi_123")

		assert.ErrorIs(t, err, storage.ErrDuplicateTransaction)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, TransactionsTableName: "transactions"}

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("put item failed"))

		_, err := store.CreateTransaction(context.Background(), "tx1", "pi_123")

		assert.Error(t, err)
		assert.NotErrorIs(t, err, storage.ErrDuplicateTransaction)
		assert.Contains(t, err.Error(), "failed to put transaction")
		mockClient.AssertExpectations(t)
	})
}
