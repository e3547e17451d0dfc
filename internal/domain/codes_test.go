package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tributa/internal/domain"
)

func TestParseICMSCode(t *testing.T) {
	for _, s := range []string{"00", "70", "101", " 500 "} {
		_, err := domain.ParseICMSCode(s)
		assert.NoError(t, err, s)
	}
	_, err := domain.ParseICMSCode("77")
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestICMSCode_BranchFor(t *testing.T) {
	tests := []struct {
		name    string
		code    domain.ICMSCode
		regime  domain.TaxRegime
		want    domain.ICMSBranch
		wantErr error
	}{
		{name: "cst taxed", code: "00", regime: domain.RegimeNormal, want: domain.ICMSBranchTaxed},
		{name: "cst reduced with st", code: "70", regime: domain.RegimeNormal, want: domain.ICMSBranchReducedWithST},
		{name: "csosn credit", code: "101", regime: domain.RegimeSimplesNacional, want: domain.ICMSBranchSimplesCredit},
		{name: "cst under simples", code: "00", regime: domain.RegimeSimplesNacional, wantErr: domain.ErrUnsupportedCombo},
		{name: "csosn under normal", code: "101", regime: domain.RegimeNormal, wantErr: domain.ErrUnsupportedCombo},
		{name: "unknown code", code: "77", regime: domain.RegimeNormal, wantErr: domain.ErrInvalidCode},
		{name: "unknown regime", code: "00", regime: "lucro", wantErr: domain.ErrUnsupportedCombo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.code.BranchFor(tt.regime)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestICMSBranch_HasSubstitution(t *testing.T) {
	assert.True(t, domain.ICMSBranchTaxedWithST.HasSubstitution())
	assert.True(t, domain.ICMSBranchExemptWithST.HasSubstitution())
	assert.False(t, domain.ICMSBranchSTCharged.HasSubstitution())
	assert.False(t, domain.ICMSBranchTaxed.HasSubstitution())
}

func TestIPICode(t *testing.T) {
	code, err := domain.ParseIPICode("52")
	require.NoError(t, err)
	assert.True(t, code.ForcesZero())

	code, err = domain.ParseIPICode("50")
	require.NoError(t, err)
	assert.False(t, code.ForcesZero())

	_, err = domain.ParseIPICode("66")
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestContributionCode_Basis(t *testing.T) {
	tests := map[string]domain.ContributionBasis{
		"01": domain.ContributionBasisRate,
		"02": domain.ContributionBasisDifferentiated,
		"03": domain.ContributionBasisPerUnit,
		"06": domain.ContributionBasisZero,
	}
	for s, want := range tests {
		code, err := domain.ParseContributionCode(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, code.Basis(), s)
	}
	_, err := domain.ParseContributionCode("00")
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestJurisdiction(t *testing.T) {
	require.NoError(t, domain.ValidateUF("MG"))
	assert.ErrorIs(t, domain.ValidateUF("XX"), domain.ErrInvalidJurisdiction)
	assert.ErrorIs(t, domain.ValidateUF("mg"), domain.ErrInvalidJurisdiction)

	code, err := domain.UFNumericCode("SP")
	require.NoError(t, err)
	assert.Equal(t, "35", code)

	uf, ok := domain.UFFromNumericCode("31")
	assert.True(t, ok)
	assert.Equal(t, "MG", uf)
	_, ok = domain.UFFromNumericCode("99")
	assert.False(t, ok)

	require.NoError(t, domain.ValidateMunicipality("3106200"))
	assert.ErrorIs(t, domain.ValidateMunicipality("310620"), domain.ErrInvalidJurisdiction)
	assert.ErrorIs(t, domain.ValidateMunicipality("31062A0"), domain.ErrInvalidJurisdiction)
}
