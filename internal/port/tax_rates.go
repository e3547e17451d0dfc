package port

import (
	"context"
	"time"

	"tributa/internal/domain"
)

// TaxMatrixReader looks up ICMS rates by jurisdiction pair and validity date.
// It returns domain.ErrRateNotFound when no entry is in force.
type TaxMatrixReader interface {
	ICMSRate(ctx context.Context, originUF, destinationUF string, at time.Time) (*domain.ICMSMatrixEntry, error)
}

// ReformRateReader serves the IBS/CBS transition schedule.
type ReformRateReader interface {
	// PhaseAt returns the phase in force at the date, or domain.ErrRateNotFound.
	PhaseAt(ctx context.Context, at time.Time) (*domain.ReformPhase, error)
	// ClassificationReductions lists the product-classification reductions in force at the date.
	ClassificationReductions(ctx context.Context, at time.Time) ([]domain.ClassificationReduction, error)
}
