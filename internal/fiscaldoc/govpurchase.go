package fiscaldoc

import (
	"errors"
	"fmt"

	"tributa/internal/domain"
	"tributa/internal/money"
)

// GovEntity is the tpEnteGov of a government purchase.
type GovEntity int

const (
	GovEntityFederal   GovEntity = 1
	GovEntityState     GovEntity = 2
	GovEntityMunicipal GovEntity = 3
)

// GovPurchase is the government-purchase block of a goods invoice.
type GovPurchase struct {
	Entity        GovEntity        `json:"entity"`
	UF            string           `json:"uf,omitempty"`
	Municipality  string           `json:"municipality,omitempty"`
	Reduction     money.Percentage `json:"reduction"`
	OperationType int              `json:"operation_type"` // tpOperGov: 1 supply, 2 payment recognized
}

// GovPurchaseBuilder assembles a GovPurchase and validates it on Build.
type GovPurchaseBuilder struct {
	gp GovPurchase
}

// NewGovPurchaseBuilder starts a builder for the entity type.
func NewGovPurchaseBuilder(entity GovEntity) *GovPurchaseBuilder {
	return &GovPurchaseBuilder{gp: GovPurchase{Entity: entity, OperationType: 1}}
}

func (b *GovPurchaseBuilder) State(uf string) *GovPurchaseBuilder {
	b.gp.UF = uf
	return b
}

func (b *GovPurchaseBuilder) Municipality(code string) *GovPurchaseBuilder {
	b.gp.Municipality = code
	return b
}

func (b *GovPurchaseBuilder) Reduction(p money.Percentage) *GovPurchaseBuilder {
	b.gp.Reduction = p
	return b
}

func (b *GovPurchaseBuilder) OperationType(t int) *GovPurchaseBuilder {
	b.gp.OperationType = t
	return b
}

// Build validates the block. Jurisdiction fields not used by the entity type are dropped.
func (b *GovPurchaseBuilder) Build() (*GovPurchase, error) {
	gp := b.gp
	if err := gp.Validate(); err != nil {
		return nil, err
	}
	switch gp.Entity {
	case GovEntityFederal:
		gp.UF, gp.Municipality = "", ""
	case GovEntityState:
		gp.Municipality = ""
	}
	return &gp, nil
}

// Validate checks the required jurisdiction fields of the entity type.
func (gp GovPurchase) Validate() error {
	var errs []error
	switch gp.Entity {
	case GovEntityFederal:
	case GovEntityState:
		errs = append(errs, gp.requireUF())
	case GovEntityMunicipal:
		errs = append(errs, gp.requireUF())
		if gp.Municipality == "" {
			errs = append(errs, &FieldError{Field: "gov_purchase.municipality", Err: domain.ErrMissingField})
		} else if err := domain.ValidateMunicipality(gp.Municipality); err != nil {
			errs = append(errs, &FieldError{Field: "gov_purchase.municipality", Err: err})
		}
	default:
		return fmt.Errorf("%w: entity type %d (expected 1, 2 or 3)", domain.ErrInvalidGovPurchase, gp.Entity)
	}
	if gp.OperationType != 1 && gp.OperationType != 2 {
		errs = append(errs, &FieldError{Field: "gov_purchase.operation_type", Err: domain.ErrInvalidCode})
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidGovPurchase, err)
	}
	return nil
}

func (gp GovPurchase) requireUF() error {
	if gp.UF == "" {
		return &FieldError{Field: "gov_purchase.uf", Err: domain.ErrMissingField}
	}
	if err := domain.ValidateUF(gp.UF); err != nil {
		return &FieldError{Field: "gov_purchase.uf", Err: err}
	}
	return nil
}

func (gp GovPurchase) write(w *xmlWriter) {
	w.open("gCompraGov")
	w.leaf("tpEnteGov", fmt.Sprint(int(gp.Entity)))
	switch gp.Entity {
	case GovEntityState:
		w.leaf("UFEnteGov", gp.UF)
	case GovEntityMunicipal:
		w.leaf("UFEnteGov", gp.UF)
		w.leaf("cMunEnteGov", gp.Municipality)
	}
	w.leaf("pRedutor", gp.Reduction.Value().StringFixed(4))
	w.leaf("tpOperGov", fmt.Sprint(gp.OperationType))
	w.close("gCompraGov")
}
