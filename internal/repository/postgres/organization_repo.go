package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tributa/internal/domain"
	"tributa/internal/port"
)

type organizationRepo struct {
	db *sqlx.DB
}

// NewOrganizationRepo creates a new PostgreSQL-backed OrganizationReader.
func NewOrganizationRepo(db *sqlx.DB) port.OrganizationReader {
	return &organizationRepo{db: db}
}

// GetBranch returns nil when the branch does not belong to the organization.
func (r *organizationRepo) GetBranch(ctx context.Context, orgID, branchID uuid.UUID) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.GetContext(ctx, &org,
		`SELECT o.id, b.id AS branch_id, o.legal_name, b.trade_name, b.cnpj, b.uf,
		        b.state_registration, b.municipality_code, b.municipal_registration, b.suframa,
		        o.nire, b.efd_profile, b.activity_type, o.tax_regime, o.contribution_regime,
		        b.address, b.phone, b.email, o.accountant_name, o.accountant_cpf, o.accountant_crc
		 FROM branches b
		 JOIN organizations o ON o.id = b.organization_id
		 WHERE o.id = $1 AND b.id = $2`,
		orgID, branchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("organizationRepo.GetBranch: %w", err)
	}
	return &org, nil
}
