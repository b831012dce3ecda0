package storage

// Ledger defines the root interface for the transaction ledger.
// It composes all available storage operations. Components should depend on the
// more granular interfaces (TransactionReader, SettlementStore, etc.) where they can.
type Ledger interface {
	TransactionReader
	TransactionWriter
	SettlementStore
}
