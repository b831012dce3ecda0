package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/kiosk-settlement/pkg/models"
	"github.com/chris/kiosk-settlement/pkg/storage/dynamodb/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestTransitionTransaction(t *testing.T) {
	txID := uuid.New().String()

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, TransactionsTableName: "transactions"}

		mockClient.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
			expected := in.ExpressionAttributeValues[":expected_status"].(*types.AttributeValueMemberS)
			next := in.ExpressionAttributeValues[":next_status"].(*types.AttributeValueMemberS)
			total := in.ExpressionAttributeValues[":total"].(*types.AttributeValueMemberN)
			items := in.ExpressionAttributeValues[":items"].(*types.AttributeValueMemberL)
			return *in.ConditionExpression == "#status = :expected_status" &&
				expected.Value == "PENDING_ITEMS" &&
				next.Value == "CAPTURED" &&
				total.Value == "350" &&
				len(items.Value) == 2
		})).Return(&dynamodb.UpdateItemOutput{}, nil).Once()

		applied, err := store.TransitionTransaction(context.Background(), txID, models.PENDING_ITEMS, models.CAPTURED, []string{"cola", "chips"}, 350)

		assert.NoError(t, err)
		assert.True(t, applied)
		mockClient.AssertExpectations(t)
	})

	t.Run("Nil Items Stored As Empty List", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, TransactionsTableName: "transactions"}

		mockClient.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
			items, ok := in.ExpressionAttributeValues[":items"].(*types.AttributeValueMemberL)
			return ok && len(items.Value) == 0
		})).Return(&dynamodb.UpdateItemOutput{}, nil).Once()

		applied, err := store.TransitionTransaction(context.Background(), txID, models.PENDING_ITEMS, models.CANCELLED, nil, 0)

		assert.NoError(t, err)
		assert.True(t, applied)
		mockClient.AssertExpectations(t)
	})

	t.Run("Already Settled", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, TransactionsTableName: "transactions"}

		mockClient.On("UpdateItem", mock.Anything, mock.AnythingOfType("*dynamodb.UpdateItemInput")).Return(nil, &types.ConditionalCheckFailedException{}).Once()

		applied, err := store.TransitionTransaction(context.Background(), txID, models.PENDING_ITEMS, models.CANCELLED, nil, 0)

		assert.NoError(t, err)
		assert.False(t, applied)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, TransactionsTableName: "transactions"}

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

		applied, err := store.TransitionTransaction(context.Background(), txID, models.PENDING_ITEMS, models.ERROR, nil, 0)

		assert.Error(t, err)
		assert.False(t, applied)
		assert.Contains(t, err.Error(), "failed to update transaction status to ERROR")
		mockClient.AssertExpectations(t)
	})
}
