package services

import (
	"context"
	"fmt"
	"log/slog"

	"finboard/internal/amqp"
	"finboard/internal/ledger"
)

// Publisher announces rewritten ledgers; *amqp.Client implements it.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// ImportResult summarises one import.
type ImportResult struct {
	Accounts     int
	Transactions int
	Published    int
}

// ImportService writes a ledger document to storage and then notifies readers.
type ImportService struct {
	writer    ledger.Writer
	publisher Publisher
	logger    *slog.Logger
}

// NewImportService accepts a nil publisher when messaging is disabled.
func NewImportService(writer ledger.Writer, publisher Publisher, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{writer: writer, publisher: publisher, logger: logger}
}

// Import validates doc, stores it in one write and publishes one message per
// account. A failed publish is logged but does not fail the import: the data
// is already committed and caches expire on their own.
func (s *ImportService) Import(ctx context.Context, doc ledger.Document) (ImportResult, error) {
	accounts, txs, err := doc.Split()
	if err != nil {
		return ImportResult{}, fmt.Errorf("validate ledger: %w", err)
	}

	if err := s.writer.ImportLedger(ctx, accounts, txs); err != nil {
		return ImportResult{}, fmt.Errorf("store ledger: %w", err)
	}

	res := ImportResult{Accounts: len(accounts)}
	for _, list := range txs {
		res.Transactions += len(list)
	}

	if s.publisher == nil {
		return res, nil
	}
	for _, a := range accounts {
		msg := amqp.NewLedgerChangedMessage(a.ID)
		if err := s.publisher.PublishLedgerChanged(ctx, msg); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish ledger change",
				"account_id", a.ID, "error", err)
			continue
		}
		res.Published++
	}
	return res, nil
}
