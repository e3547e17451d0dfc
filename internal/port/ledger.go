package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tributa/internal/domain"
)

// LedgerReader provides the accounting data written into the corporate bookkeeping.
type LedgerReader interface {
	ListAccounts(ctx context.Context, orgID uuid.UUID) ([]domain.Account, error)
	ListBalances(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.AccountBalance, error)
	// ListJournalEntries returns entries with their Lines populated, ordered by date and number.
	ListJournalEntries(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.JournalEntry, error)
	GetStatements(ctx context.Context, orgID uuid.UUID, fiscalYear int) (*domain.FinancialStatements, error)
}

// SpedDataReader is everything a bookkeeping generator reads.
type SpedDataReader interface {
	OrganizationReader
	FiscalDocumentReader
	LedgerReader
}
