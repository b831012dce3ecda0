package storage

import "errors"

// ErrDuplicateTransaction is returned when a transaction with the same ID already exists.
var ErrDuplicateTransaction = errors.New("transaction already exists")

// ErrTransactionNotFound is returned when no transaction exists for the given ID.
var ErrTransactionNotFound = errors.New("transaction not found")
