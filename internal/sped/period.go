// Package sped assembles the digital bookkeeping files (EFD ICMS/IPI, EFD Contribuições
// and ECD) from reference data read through port.SpedDataReader.
package sped

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"tributa/internal/domain"
)

// Variant selects the bookkeeping layout.
type Variant string

const (
	VariantICMSIPI       Variant = "ICMS_IPI"
	VariantContributions Variant = "CONTRIBUICOES"
	VariantCorporate     Variant = "ECD"
)

// Variants lists every supported layout.
func Variants() []Variant {
	return []Variant{VariantICMSIPI, VariantContributions, VariantCorporate}
}

// ParseVariant accepts the variant name or its lower-case URL form (icms_ipi, contribuicoes, ecd).
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Variants() {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownVariant, s)
}

var hashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Period identifies one bookkeeping run. ECD periods cover the whole Year and must carry
// Month 12.
type Period struct {
	OrganizationID  uuid.UUID       `json:"organization_id"`
	BranchID        uuid.UUID       `json:"branch_id"`
	Year            int             `json:"year"`
	Month           time.Month      `json:"month"`
	Finality        domain.Finality `json:"finality"`
	PredecessorHash string          `json:"predecessor_hash,omitempty"`
}

// Validate checks p for variant v.
func (p Period) Validate(v Variant) error {
	if p.OrganizationID == uuid.Nil {
		return fmt.Errorf("%w: organization_id", domain.ErrMissingField)
	}
	if p.BranchID == uuid.Nil {
		return fmt.Errorf("%w: branch_id", domain.ErrMissingField)
	}
	if p.Year < 2000 || p.Year > 9999 {
		return fmt.Errorf("%w: year %d", domain.ErrInvalidPeriod, p.Year)
	}
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("%w: month %d", domain.ErrInvalidPeriod, p.Month)
	}
	if v == VariantCorporate && p.Month != time.December {
		return fmt.Errorf("%w: corporate bookkeeping is annual and must reference month 12, got %d",
			domain.ErrInvalidPeriod, p.Month)
	}

	switch p.Finality {
	case domain.FinalityOriginal:
		if p.PredecessorHash != "" {
			return domain.ErrUnexpectedPredecessor
		}
	case domain.FinalitySubstitution:
		if p.PredecessorHash == "" {
			return domain.ErrPredecessorRequired
		}
		if !hashPattern.MatchString(p.PredecessorHash) {
			return fmt.Errorf("%w: predecessor hash must be a lower-case SHA-256 hex digest", domain.ErrInvalidPeriod)
		}
	default:
		return fmt.Errorf("%w: finality %q", domain.ErrInvalidPeriod, p.Finality)
	}
	return nil
}

// Range returns the first and last day covered by the run.
func (p Period) Range(v Variant) (time.Time, time.Time) {
	if v == VariantCorporate {
		start := time.Date(p.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, time.Date(p.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	start := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

// FileName returns SPED_<VARIANT>_<MMYYYY>.txt.
func (p Period) FileName(v Variant) string {
	return fmt.Sprintf("SPED_%s_%02d%04d.txt", v, int(p.Month), p.Year)
}

// LayoutVersion returns the layout code written in the header record.
func LayoutVersion(v Variant, year int) string {
	switch v {
	case VariantContributions:
		return "006"
	case VariantCorporate:
		return "9.00"
	}
	switch {
	case year <= 2024:
		return "018"
	case year == 2025:
		return "019"
	default:
		return "020"
	}
}
