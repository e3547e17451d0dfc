package service

import (
	"context"

	"go.uber.org/zap"

	"tributa/internal/reform"
)

// ReformService runs the IBS/CBS transition calculations.
type ReformService interface {
	Calculate(ctx context.Context, in reform.Input) (*reform.Result, error)
	Compare(ctx context.Context, in reform.CompareInput) (*reform.Comparison, error)
}

type reformService struct {
	calc   *reform.Calculator
	logger *zap.Logger
}

// NewReformService creates a new ReformService implementation.
func NewReformService(calc *reform.Calculator, logger *zap.Logger) ReformService {
	return &reformService{calc: calc, logger: logger}
}

func (s *reformService) Calculate(ctx context.Context, in reform.Input) (*reform.Result, error) {
	res, err := s.calc.Calculate(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("reform taxes calculated",
		zap.Time("date", in.Date),
		zap.Int("lines", len(res.Lines)),
		zap.String("total", res.Total.String()),
	)
	return res, nil
}

func (s *reformService) Compare(ctx context.Context, in reform.CompareInput) (*reform.Comparison, error) {
	cmp, err := s.calc.Compare(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("reform comparison",
		zap.Time("date", in.Date),
		zap.String("current_total", cmp.CurrentTotal.String()),
		zap.String("new_total", cmp.NewTotal.String()),
		zap.String("recommendation", string(cmp.Recommendation)),
	)
	return cmp, nil
}
