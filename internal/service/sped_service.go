package service

import (
	"context"
	"time"

	"tributa/internal/sped"
)

// SpedService generates bookkeeping files.
type SpedService interface {
	Generate(ctx context.Context, variant sped.Variant, p sped.Period) (*sped.Result, error)
	Layouts(year int) []Layout
}

// Layout is the version a variant is generated with.
type Layout struct {
	Variant sped.Variant `json:"variant"`
	Version string       `json:"version"`
}

type spedService struct {
	gen     *sped.Generator
	timeout time.Duration
}

// NewSpedService creates a new SpedService. A positive timeout bounds each generation.
func NewSpedService(gen *sped.Generator, timeout time.Duration) SpedService {
	return &spedService{gen: gen, timeout: timeout}
}

func (s *spedService) Generate(ctx context.Context, variant sped.Variant, p sped.Period) (*sped.Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.gen.Generate(ctx, variant, p)
}

func (s *spedService) Layouts(year int) []Layout {
	variants := sped.Variants()
	out := make([]Layout, len(variants))
	for i, v := range variants {
		out[i] = Layout{Variant: v, Version: s.gen.Version(v, year)}
	}
	return out
}
