package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tributa/internal/domain"
	"tributa/internal/money"
	"tributa/internal/port"
	"tributa/internal/tax"
)

// TaxRequest is one line for the current-regime calculators. When ICMS is requested
// without a rate, the rate is resolved from the tax matrix for the origin and
// destination states in force at Date.
type TaxRequest struct {
	Date          time.Time          `json:"date"`
	OriginUF      string             `json:"origin_uf,omitempty"`
	DestinationUF string             `json:"destination_uf,omitempty"`
	Taxes         tax.AggregateInput `json:"taxes"`
}

// TaxService runs current-regime tax calculations.
type TaxService interface {
	Calculate(ctx context.Context, req TaxRequest) (*tax.AggregateResult, error)
}

type taxService struct {
	calc   *tax.Calculator
	matrix port.TaxMatrixReader
	logger *zap.Logger
}

// NewTaxService creates a new TaxService implementation.
func NewTaxService(calc *tax.Calculator, matrix port.TaxMatrixReader, logger *zap.Logger) TaxService {
	return &taxService{calc: calc, matrix: matrix, logger: logger}
}

func (s *taxService) Calculate(ctx context.Context, req TaxRequest) (*tax.AggregateResult, error) {
	in := req.Taxes
	if in.ICMS != nil && in.ICMS.Rate.IsZero() && !in.ICMS.Exempt && req.OriginUF != "" {
		icms, err := s.resolveICMSRate(ctx, req, *in.ICMS)
		if err != nil {
			return nil, err
		}
		in.ICMS = &icms
	}

	res, err := s.calc.Aggregate(in)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("taxes calculated",
		zap.Int("taxes", len(res.Results)),
		zap.String("total", res.Total.String()),
	)
	return &res, nil
}

func (s *taxService) resolveICMSRate(ctx context.Context, req TaxRequest, icms tax.ICMSInput) (tax.ICMSInput, error) {
	if err := domain.ValidateUF(req.OriginUF); err != nil {
		return icms, err
	}
	dest := req.DestinationUF
	if dest == "" {
		dest = req.OriginUF
	}
	if err := domain.ValidateUF(dest); err != nil {
		return icms, err
	}
	if req.Date.IsZero() {
		return icms, fmt.Errorf("%w: date is required to look up the ICMS rate", domain.ErrMissingField)
	}

	entry, err := s.matrix.ICMSRate(ctx, req.OriginUF, dest, req.Date)
	if err != nil {
		if errors.Is(err, domain.ErrRateNotFound) {
			return icms, err
		}
		return icms, fmt.Errorf("%w: icms matrix: %w", domain.ErrDataSource, err)
	}
	rate, err := money.NewPercentage(entry.Rate)
	if err != nil {
		return icms, err
	}
	icms.Rate = rate
	icms.Interstate = req.OriginUF != dest
	return icms, nil
}
