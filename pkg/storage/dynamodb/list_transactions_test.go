package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/kiosk-settlement/pkg/models"
	"github.com/chris/kiosk-settlement/pkg/storage/dynamodb/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGetStuckTransactions(t *testing.T) {
	stuckTxs := []models.Transaction{
		{TransactionID: uuid.New().String(), Status: models.PENDING_ITEMS},
		{TransactionID: uuid.New().String(), Status: models.PENDING_ITEMS},
	}

	marshal := func(t *testing.T, txs []models.Transaction) []map[string]types.AttributeValue {
		var out []map[string]types.AttributeValue
		for _, tx := range txs {
			av, err := attributevalue.MarshalMap(tx)
			assert.NoError(t, err)
			out = append(out, av)
		}
		return out
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, TransactionsTableName: "transactions"}

		mockClient.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			return *in.IndexName == stuckTransactionGSI
		})).Return(&dynamodb.QueryOutput{Items: marshal(t, stuckTxs)}, nil)

		result, err := store.GetStuckTransactions(context.Background(), time.Minute)

		assert.NoError(t, err)
		assert.Len(t, result, 2)
		assert.Equal(t, stuckTxs[0].TransactionID, result[0].TransactionID)
		mockClient.AssertExpectations(t)
	})

	t.Run("Paginated", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, TransactionsTableName: "transactions"}

		lastKey := map[string]types.AttributeValue{"transaction_id": &types.AttributeValueMemberS{Value: stuckTxs[0].TransactionID}}
		mockClient.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{Items: marshal(t, stuckTxs[:1]), LastEvaluatedKey: lastKey}, nil).Once()
		mockClient.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{Items: marshal(t, stuckTxs[1:])}, nil).Once()

		result, err := store.GetStuckTransactions(context.Background(), time.Minute)

		assert.NoError(t, err)
		assert.Len(t, result, 2)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, TransactionsTableName: "transactions"}

		mockClient.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("query failed"))

		_, err := store.GetStuckTransactions(context.Background(), time.Minute)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query for stuck transactions")
		mockClient.AssertExpectations(t)
	})
}
