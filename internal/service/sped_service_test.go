package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"tributa/internal/domain"
	"tributa/internal/port"
	"tributa/internal/service"
	"tributa/internal/sped"
)

// stalledReader blocks every fetch until the context ends.
type stalledReader struct{}

var _ port.SpedDataReader = stalledReader{}

func (stalledReader) GetBranch(ctx context.Context, _, _ uuid.UUID) (*domain.Organization, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledReader) ListInvoices(ctx context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.FiscalInvoice, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledReader) ListPartners(ctx context.Context, _ uuid.UUID) ([]domain.Partner, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledReader) ListProducts(ctx context.Context, _ uuid.UUID) ([]domain.Product, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledReader) GetInventory(ctx context.Context, _ uuid.UUID, _ time.Time) (*domain.Inventory, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledReader) GetTaxCarryover(ctx context.Context, _ uuid.UUID, _ time.Time) (*domain.TaxCarryover, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledReader) ListAccounts(ctx context.Context, _ uuid.UUID) ([]domain.Account, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledReader) ListBalances(ctx context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.AccountBalance, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledReader) ListJournalEntries(ctx context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.JournalEntry, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledReader) GetStatements(ctx context.Context, _ uuid.UUID, _ int) (*domain.FinancialStatements, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func spedPeriod() sped.Period {
	return sped.Period{
		OrganizationID: uuid.New(),
		BranchID:       uuid.New(),
		Year:           2025,
		Month:          time.March,
		Finality:       domain.FinalityOriginal,
	}
}

func TestSpedService_Timeout(t *testing.T) {
	svc := service.NewSpedService(sped.NewGenerator(stalledReader{}), 20*time.Millisecond)

	start := time.Now()
	_, err := svc.Generate(context.Background(), sped.VariantICMSIPI, spedPeriod())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, domain.ErrDataSource)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSpedService_InvalidPeriodSkipsReader(t *testing.T) {
	svc := service.NewSpedService(sped.NewGenerator(stalledReader{}), 0)
	p := spedPeriod()
	p.Month = 13

	_, err := svc.Generate(context.Background(), sped.VariantICMSIPI, p)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

func TestSpedService_Layouts(t *testing.T) {
	gen := sped.NewGenerator(stalledReader{}, sped.WithVersion(sped.VariantContributions, "007"))
	svc := service.NewSpedService(gen, 0)

	assert.Equal(t, []service.Layout{
		{Variant: sped.VariantICMSIPI, Version: "019"},
		{Variant: sped.VariantContributions, Version: "007"},
		{Variant: sped.VariantCorporate, Version: "9.00"},
	}, svc.Layouts(2025))
}
