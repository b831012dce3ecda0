// Package memory provides an in-process Ledger for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/chris/kiosk-settlement/pkg/models"
	"github.com/chris/kiosk-settlement/pkg/storage"
)

// Store keeps transactions in a mutex guarded map.
type Store struct {
	mu           sync.Mutex
	transactions map[string]models.Transaction
	now          func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		transactions: make(map[string]models.Transaction),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

var _ storage.Ledger = (*Store)(nil)

func (s *Store) CreateTransaction(_ context.Context, txID, authorizationID string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[txID]; ok {
		return nil, storage.ErrDuplicateTransaction
	}
	now := s.now()
	tx := models.Transaction{
		TransactionID:          txID,
		PaymentAuthorizationID: authorizationID,
		Status:                 models.PENDING_ITEMS,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	s.transactions[txID] = tx
	return clone(tx), nil
}

func (s *Store) GetTransaction(_ context.Context, txID string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[txID]
	if !ok {
		return nil, fmt.Errorf("transaction with ID %s: %w", txID, storage.ErrTransactionNotFound)
	}
	return clone(tx), nil
}

func (s *Store) GetStuckTransactions(_ context.Context, maxAge time.Duration) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	var stuck []models.Transaction
	for _, tx := range s.transactions {
		if tx.Status == models.PENDING_ITEMS && tx.CreatedAt.Before(cutoff) {
			stuck = append(stuck, *clone(tx))
		}
	}
	sort.Slice(stuck, func(i, j int) bool { return stuck[i].CreatedAt.Before(stuck[j].CreatedAt) })
	return stuck, nil
}

func (s *Store) TransitionTransaction(_ context.Context, txID string, expected, next models.TransactionStatus, items []string, totalAmount int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[txID]
	if !ok || tx.Status != expected {
		return false, nil
	}
	tx.Status = next
	tx.Items = slices.Clone(items)
	if tx.Items == nil {
		tx.Items = []string{}
	}
	tx.TotalAmount = totalAmount
	tx.UpdatedAt = s.now()
	s.transactions[txID] = tx
	return true, nil
}

func clone(tx models.Transaction) *models.Transaction {
	tx.Items = slices.Clone(tx.Items)
	return &tx
}
