// Package postgres implements the Ledger on PostgreSQL through gorm.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chris/kiosk-settlement/pkg/models"
	"github.com/chris/kiosk-settlement/pkg/storage"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// transactionRecord is the row layout of the transactions table.
type transactionRecord struct {
	TransactionID          string    `gorm:"column:transaction_id;primaryKey"`
	PaymentAuthorizationID string    `gorm:"column:payment_authorization_id;not null"`
	Status                 string    `gorm:"column:status;not null"`
	ItemsJSON              string    `gorm:"column:items_json;not null"`
	TotalAmount            int64     `gorm:"column:total_amount;not null"`
	CreatedAt              time.Time `gorm:"column:created_at;not null"`
	UpdatedAt              time.Time `gorm:"column:updated_at;not null"`
}

func (transactionRecord) TableName() string { return "transactions" }

// Store implements the Ledger interface on a gorm connection.
type Store struct {
	DB *gorm.DB
}

// New creates a new Store.
func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Open connects to PostgreSQL. Driver errors are translated so unique
// violations surface as gorm.ErrDuplicatedKey.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return db, nil
}

var _ storage.Ledger = (*Store)(nil)

func (s *Store) CreateTransaction(ctx context.Context, txID, authorizationID string) (*models.Transaction, error) {
	now := time.Now().UTC()
	rec := transactionRecord{
		TransactionID:          txID,
		PaymentAuthorizationID: authorizationID,
		Status:                 string(models.PENDING_ITEMS),
		ItemsJSON:              "[]",
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, storage.ErrDuplicateTransaction
		}
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	return toDomain(rec, false)
}

func (s *Store) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	var rec transactionRecord
	if err := s.DB.WithContext(ctx).First(&rec, "transaction_id = ?", txID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("transaction with ID %s: %w", txID, storage.ErrTransactionNotFound)
		}
		return nil, fmt.Errorf("failed to select transaction: %w", err)
	}
	return toDomain(rec, models.TransactionStatus(rec.Status).IsTerminal())
}

func (s *Store) GetStuckTransactions(ctx context.Context, maxAge time.Duration) ([]models.Transaction, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	var recs []transactionRecord
	err := s.DB.WithContext(ctx).
		Where("status = ? AND created_at < ?", string(models.PENDING_ITEMS), cutoff).
		Order("created_at").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query for stuck transactions: %w", err)
	}

	transactions := make([]models.Transaction, 0, len(recs))
	for _, rec := range recs {
		tx, err := toDomain(rec, false)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	return transactions, nil
}

// TransitionTransaction issues a single conditional UPDATE; the status
// predicate makes it a compare-and-set.
func (s *Store) TransitionTransaction(ctx context.Context, txID string, expected, next models.TransactionStatus, items []string, totalAmount int64) (bool, error) {
	itemsJSON, err := encodeItems(items)
	if err != nil {
		return false, err
	}

	res := s.DB.WithContext(ctx).
		Model(&transactionRecord{}).
		Where("transaction_id = ? AND status = ?", txID, string(expected)).
		Updates(map[string]any{
			"status":       string(next),
			"items_json":   itemsJSON,
			"total_amount": totalAmount,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to update transaction status to %s: %w", next, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func encodeItems(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode items: %w", err)
	}
	return string(b), nil
}

// toDomain converts a row. Items are only reported once the row is settled.
func toDomain(rec transactionRecord, settled bool) (*models.Transaction, error) {
	tx := &models.Transaction{
		TransactionID:          rec.TransactionID,
		PaymentAuthorizationID: rec.PaymentAuthorizationID,
		Status:                 models.TransactionStatus(rec.Status),
		TotalAmount:            rec.TotalAmount,
		CreatedAt:              rec.CreatedAt,
		UpdatedAt:              rec.UpdatedAt,
	}
	if settled {
		items := []string{}
		if rec.ItemsJSON != "" {
			if err := json.Unmarshal([]byte(rec.ItemsJSON), &items); err != nil {
				return nil, fmt.Errorf("failed to decode items for transaction %s: %w", rec.TransactionID, err)
			}
		}
		tx.Items = items
	}
	return tx, nil
}
