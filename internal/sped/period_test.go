package sped_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tributa/internal/domain"
	"tributa/internal/sped"
)

func TestPeriod_Validate(t *testing.T) {
	hash := strings.Repeat("0f", 32)
	tests := []struct {
		name    string
		variant sped.Variant
		mutate  func(*sped.Period)
		wantErr error
	}{
		{name: "monthly ok", variant: sped.VariantICMSIPI},
		{name: "ecd december ok", variant: sped.VariantCorporate, mutate: func(p *sped.Period) { p.Month = time.December }},
		{name: "ecd mid year", variant: sped.VariantCorporate, mutate: func(p *sped.Period) { p.Month = time.June }, wantErr: domain.ErrInvalidPeriod},
		{name: "month zero", variant: sped.VariantICMSIPI, mutate: func(p *sped.Period) { p.Month = 0 }, wantErr: domain.ErrInvalidPeriod},
		{name: "month 13", variant: sped.VariantContributions, mutate: func(p *sped.Period) { p.Month = 13 }, wantErr: domain.ErrInvalidPeriod},
		{name: "year too early", variant: sped.VariantICMSIPI, mutate: func(p *sped.Period) { p.Year = 1999 }, wantErr: domain.ErrInvalidPeriod},
		{name: "missing organization", variant: sped.VariantICMSIPI, mutate: func(p *sped.Period) { p.OrganizationID = uuid.Nil }, wantErr: domain.ErrMissingField},
		{name: "missing branch", variant: sped.VariantICMSIPI, mutate: func(p *sped.Period) { p.BranchID = uuid.Nil }, wantErr: domain.ErrMissingField},
		{name: "original with predecessor", variant: sped.VariantICMSIPI, mutate: func(p *sped.Period) { p.PredecessorHash = hash }, wantErr: domain.ErrUnexpectedPredecessor},
		{name: "substitution without predecessor", variant: sped.VariantICMSIPI, mutate: func(p *sped.Period) { p.Finality = domain.FinalitySubstitution }, wantErr: domain.ErrPredecessorRequired},
		{name: "substitution with predecessor", variant: sped.VariantICMSIPI, mutate: func(p *sped.Period) {
			p.Finality = domain.FinalitySubstitution
			p.PredecessorHash = hash
		}},
		{name: "malformed predecessor", variant: sped.VariantICMSIPI, mutate: func(p *sped.Period) {
			p.Finality = domain.FinalitySubstitution
			p.PredecessorHash = strings.ToUpper(hash)
		}, wantErr: domain.ErrInvalidPeriod},
		{name: "unknown finality", variant: sped.VariantICMSIPI, mutate: func(p *sped.Period) { p.Finality = "9" }, wantErr: domain.ErrInvalidPeriod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := period(2025, time.March)
			if tt.mutate != nil {
				tt.mutate(&p)
			}
			err := p.Validate(tt.variant)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPeriod_Range(t *testing.T) {
	p := period(2024, time.February)
	start, end := p.Range(sped.VariantICMSIPI)
	assert.Equal(t, day(2024, time.February, 1), start)
	assert.Equal(t, day(2024, time.February, 29), end)

	p.Month = time.December
	start, end = p.Range(sped.VariantCorporate)
	assert.Equal(t, day(2024, time.January, 1), start)
	assert.Equal(t, day(2024, time.December, 31), end)
}

func TestPeriod_FileName(t *testing.T) {
	assert.Equal(t, "SPED_ICMS_IPI_072025.txt", period(2025, time.July).FileName(sped.VariantICMSIPI))
	assert.Equal(t, "SPED_ECD_122024.txt", period(2024, time.December).FileName(sped.VariantCorporate))
}

func TestLayoutVersion(t *testing.T) {
	assert.Equal(t, "018", sped.LayoutVersion(sped.VariantICMSIPI, 2024))
	assert.Equal(t, "019", sped.LayoutVersion(sped.VariantICMSIPI, 2025))
	assert.Equal(t, "020", sped.LayoutVersion(sped.VariantICMSIPI, 2026))
	assert.Equal(t, "006", sped.LayoutVersion(sped.VariantContributions, 2026))
	assert.Equal(t, "9.00", sped.LayoutVersion(sped.VariantCorporate, 2026))
}

func TestParseVariant(t *testing.T) {
	v, err := sped.ParseVariant("icms_ipi")
	require.NoError(t, err)
	assert.Equal(t, sped.VariantICMSIPI, v)

	v, err = sped.ParseVariant(" ECD ")
	require.NoError(t, err)
	assert.Equal(t, sped.VariantCorporate, v)

	_, err = sped.ParseVariant("ecf")
	assert.ErrorIs(t, err, domain.ErrUnknownVariant)
}
