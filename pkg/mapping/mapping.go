package mapping

import (
	"github.com/chris/kiosk-settlement/pkg/api"
	"github.com/chris/kiosk-settlement/pkg/models"
	"github.com/chris/kiosk-settlement/pkg/protocol"
)

// ToApiTransaction converts a domain Transaction model to an API Transaction model.
func ToApiTransaction(tx *models.Transaction) *api.Transaction {
	items := tx.Items
	if items == nil {
		items = []string{}
	}
	return &api.Transaction{
		TransactionId:   tx.TransactionID,
		AuthorizationId: tx.PaymentAuthorizationID,
		Status:          api.TransactionStatus(tx.Status),
		Items:           items,
		TotalAmount:     tx.TotalAmount,
		Total:           protocol.FormatMinorUnits(tx.TotalAmount),
		CreatedAt:       tx.CreatedAt,
		UpdatedAt:       tx.UpdatedAt,
	}
}

// ToApiUnlockResponse converts a freshly unlocked transaction to the unlock response body.
func ToApiUnlockResponse(tx *models.Transaction) *api.UnlockResponse {
	return &api.UnlockResponse{
		Status:        "success",
		TransactionId: tx.TransactionID,
	}
}
