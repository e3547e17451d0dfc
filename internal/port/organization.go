package port

import (
	"context"

	"github.com/google/uuid"

	"tributa/internal/domain"
)

// OrganizationReader resolves the taxpayer identity of a branch.
type OrganizationReader interface {
	GetBranch(ctx context.Context, orgID, branchID uuid.UUID) (*domain.Organization, error)
}
