package amqp

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LedgerChangedMessage tells readers that an account's ledger was rewritten.
// It carries no ledger data; consumers reload from their backend.
type LedgerChangedMessage struct {
	AccountID string    `json:"account_id"`
	Revision  string    `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage stamps the message with a fresh revision id.
func NewLedgerChangedMessage(accountID string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		AccountID: accountID,
		Revision:  uuid.NewString(),
		Timestamp: time.Now(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.AccountID) == "" {
		return nil, errors.New("ledger changed message without account_id")
	}
	return &msg, nil
}
