package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// ICMSCode is a CST (normal regime) or CSOSN (Simples Nacional) classification for ICMS.
type ICMSCode string

// ICMSBranch is the calculation branch a code selects.
type ICMSBranch int

const (
	ICMSBranchTaxed ICMSBranch = iota
	ICMSBranchTaxedWithST
	ICMSBranchReduced
	ICMSBranchReducedWithST
	ICMSBranchExemptWithST
	ICMSBranchExempt
	ICMSBranchSTCharged
	ICMSBranchSimplesCredit
	ICMSBranchOther
)

var icmsCST = map[ICMSCode]ICMSBranch{
	"00": ICMSBranchTaxed,
	"10": ICMSBranchTaxedWithST,
	"20": ICMSBranchReduced,
	"30": ICMSBranchExemptWithST,
	"40": ICMSBranchExempt,
	"41": ICMSBranchExempt,
	"50": ICMSBranchExempt,
	"51": ICMSBranchExempt,
	"60": ICMSBranchSTCharged,
	"70": ICMSBranchReducedWithST,
	"90": ICMSBranchOther,
}

var icmsCSOSN = map[ICMSCode]ICMSBranch{
	"101": ICMSBranchSimplesCredit,
	"102": ICMSBranchExempt,
	"103": ICMSBranchExempt,
	"201": ICMSBranchExemptWithST,
	"202": ICMSBranchExemptWithST,
	"203": ICMSBranchExemptWithST,
	"300": ICMSBranchExempt,
	"400": ICMSBranchExempt,
	"500": ICMSBranchSTCharged,
	"900": ICMSBranchOther,
}

// ParseICMSCode validates a CST/CSOSN string.
func ParseICMSCode(s string) (ICMSCode, error) {
	c := ICMSCode(strings.TrimSpace(s))
	if _, ok := icmsCST[c]; ok {
		return c, nil
	}
	if _, ok := icmsCSOSN[c]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: ICMS %q", ErrInvalidCode, s)
}

// IsCSOSN reports whether the code belongs to the Simples Nacional table.
func (c ICMSCode) IsCSOSN() bool {
	_, ok := icmsCSOSN[c]
	return ok
}

// BranchFor returns the calculation branch for the code under the regime.
// CST codes only apply to the normal regime and CSOSN codes only to Simples Nacional.
func (c ICMSCode) BranchFor(regime TaxRegime) (ICMSBranch, error) {
	switch regime {
	case RegimeNormal:
		if b, ok := icmsCST[c]; ok {
			return b, nil
		}
	case RegimeSimplesNacional:
		if b, ok := icmsCSOSN[c]; ok {
			return b, nil
		}
	default:
		return 0, fmt.Errorf("%w: unknown regime %q", ErrUnsupportedCombo, regime)
	}
	if _, err := ParseICMSCode(string(c)); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("%w: ICMS %s under %s", ErrUnsupportedCombo, c, regime)
}

// HasSubstitution reports whether the branch carries a withheld ST amount.
func (b ICMSBranch) HasSubstitution() bool {
	return b == ICMSBranchTaxedWithST || b == ICMSBranchReducedWithST || b == ICMSBranchExemptWithST
}

// IPICode is the CST for IPI.
type IPICode string

var ipiTaxed = map[IPICode]bool{
	"00": true, "49": true, "50": true, "99": true,
}

var ipiExempt = map[IPICode]bool{
	"01": true, "02": true, "03": true, "04": true, "05": true,
	"51": true, "52": true, "53": true, "54": true, "55": true,
}

// ParseIPICode validates an IPI CST.
func ParseIPICode(s string) (IPICode, error) {
	c := IPICode(strings.TrimSpace(s))
	if ipiTaxed[c] || ipiExempt[c] {
		return c, nil
	}
	return "", fmt.Errorf("%w: IPI %q", ErrInvalidCode, s)
}

// ForcesZero reports whether the code implies no IPI is due.
func (c IPICode) ForcesZero() bool { return ipiExempt[c] }

// ContributionCode is the CST shared by PIS and COFINS.
type ContributionCode string

// ContributionBasis is how a contribution code computes its amount.
type ContributionBasis int

const (
	ContributionBasisRate ContributionBasis = iota
	ContributionBasisDifferentiated
	ContributionBasisPerUnit
	ContributionBasisZero
)

var contributionCodes = map[ContributionCode]ContributionBasis{
	"01": ContributionBasisRate,
	"02": ContributionBasisDifferentiated,
	"03": ContributionBasisPerUnit,
	"04": ContributionBasisZero,
	"05": ContributionBasisZero,
	"06": ContributionBasisZero,
	"07": ContributionBasisZero,
	"08": ContributionBasisZero,
	"09": ContributionBasisZero,
	"49": ContributionBasisRate,
	"50": ContributionBasisRate,
	"51": ContributionBasisRate,
	"52": ContributionBasisRate,
	"53": ContributionBasisRate,
	"54": ContributionBasisRate,
	"55": ContributionBasisRate,
	"56": ContributionBasisRate,
	"60": ContributionBasisRate,
	"61": ContributionBasisRate,
	"62": ContributionBasisRate,
	"63": ContributionBasisRate,
	"64": ContributionBasisRate,
	"65": ContributionBasisRate,
	"66": ContributionBasisRate,
	"67": ContributionBasisRate,
	"70": ContributionBasisZero,
	"71": ContributionBasisZero,
	"72": ContributionBasisZero,
	"73": ContributionBasisZero,
	"74": ContributionBasisZero,
	"75": ContributionBasisZero,
	"98": ContributionBasisRate,
	"99": ContributionBasisRate,
}

// ParseContributionCode validates a PIS/COFINS CST.
func ParseContributionCode(s string) (ContributionCode, error) {
	c := ContributionCode(strings.TrimSpace(s))
	if _, ok := contributionCodes[c]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: PIS/COFINS %q", ErrInvalidCode, s)
}

// Basis returns how the code computes its amount. Unknown codes report zero basis;
// callers are expected to have parsed the code first.
func (c ContributionCode) Basis() ContributionBasis { return contributionCodes[c] }

// IsCredit reports whether the code describes a credit-generating acquisition (50–66).
func (c ContributionCode) IsCredit() bool {
	return c >= "50" && c <= "66"
}

// ufCodes maps federative unit abbreviations to IBGE numeric codes.
var ufCodes = map[string]string{
	"RO": "11", "AC": "12", "AM": "13", "RR": "14", "PA": "15", "AP": "16", "TO": "17",
	"MA": "21", "PI": "22", "CE": "23", "RN": "24", "PB": "25", "PE": "26", "AL": "27",
	"SE": "28", "BA": "29", "MG": "31", "ES": "32", "RJ": "33", "SP": "35", "PR": "41",
	"SC": "42", "RS": "43", "MS": "50", "MT": "51", "GO": "52", "DF": "53",
}

var municipalityPattern = regexp.MustCompile(`^\d{7}$`)

// ValidateUF checks a 2-letter federative unit abbreviation.
func ValidateUF(uf string) error {
	if _, ok := ufCodes[uf]; !ok {
		return fmt.Errorf("%w: state %q", ErrInvalidJurisdiction, uf)
	}
	return nil
}

// UFNumericCode returns the IBGE 2-digit code for a UF abbreviation.
func UFNumericCode(uf string) (string, error) {
	code, ok := ufCodes[uf]
	if !ok {
		return "", fmt.Errorf("%w: state %q", ErrInvalidJurisdiction, uf)
	}
	return code, nil
}

// UFFromNumericCode is the reverse of UFNumericCode.
func UFFromNumericCode(code string) (string, bool) {
	for uf, c := range ufCodes {
		if c == code {
			return uf, true
		}
	}
	return "", false
}

// ValidateMunicipality checks a 7-digit IBGE municipality code.
func ValidateMunicipality(code string) error {
	if !municipalityPattern.MatchString(code) {
		return fmt.Errorf("%w: municipality %q", ErrInvalidJurisdiction, code)
	}
	return nil
}
