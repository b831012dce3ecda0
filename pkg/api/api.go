// Package api defines the JSON bodies exchanged over the HTTP interface.
package api

import "time"

// TransactionStatus mirrors the ledger status of a transaction.
type TransactionStatus string

const (
	PENDINGITEMS TransactionStatus = "PENDING_ITEMS"
	CAPTURED     TransactionStatus = "CAPTURED"
	CANCELLED    TransactionStatus = "CANCELLED"
	ERROR        TransactionStatus = "ERROR"
)

// UnlockRequest asks for a kiosk unlock. Id is optional; the server
// generates one when it is absent.
type UnlockRequest struct {
	Id *string `json:"id,omitempty"`
}

// UnlockResponse is returned once the unlock command has been sent.
type UnlockResponse struct {
	Status        string `json:"status"`
	TransactionId string `json:"transaction_id"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Transaction is the public view of a ledger row. Total is TotalAmount
// formatted in major units.
type Transaction struct {
	TransactionId   string            `json:"transaction_id"`
	AuthorizationId string            `json:"authorization_id"`
	Status          TransactionStatus `json:"status"`
	Items           []string          `json:"items"`
	TotalAmount     int64             `json:"total_amount"`
	Total           string            `json:"total"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}
