package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"tributa/internal/domain"
	"tributa/internal/port"
)

type taxMatrixRepo struct {
	db *sqlx.DB
}

// NewTaxMatrixRepo creates a new PostgreSQL-backed TaxMatrixReader.
func NewTaxMatrixRepo(db *sqlx.DB) port.TaxMatrixReader {
	return &taxMatrixRepo{db: db}
}

func (r *taxMatrixRepo) ICMSRate(ctx context.Context, originUF, destinationUF string, at time.Time) (*domain.ICMSMatrixEntry, error) {
	var entry domain.ICMSMatrixEntry
	err := r.db.GetContext(ctx, &entry,
		`SELECT origin_uf, destination_uf, rate, valid_from, valid_to
		 FROM icms_matrix
		 WHERE origin_uf = $1 AND destination_uf = $2
		   AND valid_from <= $3 AND (valid_to IS NULL OR valid_to >= $3)
		 ORDER BY valid_from DESC
		 LIMIT 1`,
		originUF, destinationUF, at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: ICMS %s->%s at %s", domain.ErrRateNotFound,
				originUF, destinationUF, at.Format(time.DateOnly))
		}
		return nil, fmt.Errorf("taxMatrixRepo.ICMSRate: %w", err)
	}
	return &entry, nil
}

type reformRateRepo struct {
	db *sqlx.DB
}

// NewReformRateRepo creates a new PostgreSQL-backed ReformRateReader.
func NewReformRateRepo(db *sqlx.DB) port.ReformRateReader {
	return &reformRateRepo{db: db}
}

func (r *reformRateRepo) PhaseAt(ctx context.Context, at time.Time) (*domain.ReformPhase, error) {
	var phase domain.ReformPhase
	err := r.db.GetContext(ctx, &phase,
		`SELECT valid_from, valid_to, cbs_rate, ibs_state_rate, ibs_city_rate
		 FROM reform_phases
		 WHERE valid_from <= $1 AND valid_to >= $1
		 ORDER BY valid_from DESC
		 LIMIT 1`,
		at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: reform phase at %s", domain.ErrRateNotFound, at.Format(time.DateOnly))
		}
		return nil, fmt.Errorf("reformRateRepo.PhaseAt: %w", err)
	}
	return &phase, nil
}

func (r *reformRateRepo) ClassificationReductions(ctx context.Context, at time.Time) ([]domain.ClassificationReduction, error) {
	var reductions []domain.ClassificationReduction
	err := r.db.SelectContext(ctx, &reductions,
		`SELECT ncm_prefix, reduction, valid_from
		 FROM classification_reductions
		 WHERE valid_from <= $1
		 ORDER BY ncm_prefix`,
		at)
	if err != nil {
		return nil, fmt.Errorf("reformRateRepo.ClassificationReductions: %w", err)
	}
	return reductions, nil
}
