package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tributa/internal/domain"
)

// FiscalDocumentReader provides the already-materialized goods movement of a branch.
// Implementations return invoices with their Items populated, ordered by issue date.
type FiscalDocumentReader interface {
	ListInvoices(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]domain.FiscalInvoice, error)
	ListPartners(ctx context.Context, branchID uuid.UUID) ([]domain.Partner, error)
	ListProducts(ctx context.Context, branchID uuid.UUID) ([]domain.Product, error)
	// GetInventory returns nil when no inventory was taken at the date.
	GetInventory(ctx context.Context, branchID uuid.UUID, at time.Time) (*domain.Inventory, error)
	GetTaxCarryover(ctx context.Context, branchID uuid.UUID, periodStart time.Time) (*domain.TaxCarryover, error)
}
