package fiscalxml

import (
	"context"
	"fmt"
	"strings"

	"tributa/internal/domain"
	"tributa/internal/fiscaldoc"
)

// ValidationResult is the outcome of one check at one path.
type ValidationResult struct {
	Passed        bool
	FieldPath     string
	ExpectedValue string
	ActualValue   string
	Message       string
}

// requiredElementValidator checks that an element exists below the info element. Paths
// may differ per kind; kinds without an entry are skipped.
type requiredElementValidator struct {
	ruleKey  string
	ruleName string
	severity domain.ValidationSeverity
	paths    map[fiscaldoc.Kind]string
	// nonEmpty also requires text content.
	nonEmpty bool
}

func (v *requiredElementValidator) RuleKey() string  { return v.ruleKey }
func (v *requiredElementValidator) RuleName() string { return v.ruleName }
func (v *requiredElementValidator) RuleType() domain.ValidationRuleType {
	return domain.ValidationRuleRequired
}
func (v *requiredElementValidator) Severity() domain.ValidationSeverity { return v.severity }

func (v *requiredElementValidator) Validate(_ context.Context, doc *Document) []ValidationResult {
	path, ok := v.paths[doc.Kind]
	if !ok {
		return nil
	}
	fieldPath := doc.Kind.InfoElement() + "/" + path
	node := doc.Info.Find(path)
	passed := node != nil
	actual := ""
	if node != nil {
		actual = strings.TrimSpace(node.Text)
		if v.nonEmpty && actual == "" {
			passed = false
		}
	}
	return []ValidationResult{{
		Passed:        passed,
		FieldPath:     fieldPath,
		ExpectedValue: "element present",
		ActualValue:   actual,
		Message:       elementMessage(passed, v.ruleName, fieldPath),
	}}
}

func elementMessage(passed bool, ruleName, fieldPath string) string {
	if passed {
		return fmt.Sprintf("%s: %s is present", ruleName, fieldPath)
	}
	return fmt.Sprintf("%s: %s is missing or empty", ruleName, fieldPath)
}

func allKinds(path string) map[fiscaldoc.Kind]string {
	return map[fiscaldoc.Kind]string{
		fiscaldoc.KindNFe: path, fiscaldoc.KindCTe: path, fiscaldoc.KindNFSe: path, fiscaldoc.KindMDFe: path,
	}
}

// RequiredElementValidators returns the presence rules per document kind.
func RequiredElementValidators() []*requiredElementValidator {
	return []*requiredElementValidator{
		{
			ruleKey: "req.identification", ruleName: "Required: Identification",
			severity: domain.ValidationSeverityError,
			paths: map[fiscaldoc.Kind]string{
				fiscaldoc.KindNFe:  "ide",
				fiscaldoc.KindCTe:  "ide",
				fiscaldoc.KindNFSe: "DPS/infDPS/ide",
				fiscaldoc.KindMDFe: "ide",
			},
		},
		{
			ruleKey: "req.identification.number", ruleName: "Required: Document Number",
			severity: domain.ValidationSeverityError, nonEmpty: true,
			paths: map[fiscaldoc.Kind]string{
				fiscaldoc.KindNFe:  "ide/nNF",
				fiscaldoc.KindCTe:  "ide/nCT",
				fiscaldoc.KindNFSe: "nNFSe",
				fiscaldoc.KindMDFe: "ide/nMDF",
			},
		},
		{
			ruleKey: "req.identification.issue_date", ruleName: "Required: Issue Date",
			severity: domain.ValidationSeverityError, nonEmpty: true,
			paths: map[fiscaldoc.Kind]string{
				fiscaldoc.KindNFe:  "ide/dhEmi",
				fiscaldoc.KindCTe:  "ide/dhEmi",
				fiscaldoc.KindNFSe: "DPS/infDPS/ide/dhEmi",
				fiscaldoc.KindMDFe: "ide/dhEmi",
			},
		},
		{
			ruleKey: "req.issuer", ruleName: "Required: Issuer",
			severity: domain.ValidationSeverityError, paths: allKinds("emit"),
		},
		{
			ruleKey: "req.issuer.name", ruleName: "Required: Issuer Name",
			severity: domain.ValidationSeverityError, nonEmpty: true, paths: allKinds("emit/xNome"),
		},
		{
			ruleKey: "req.recipient", ruleName: "Required: Recipient",
			severity: domain.ValidationSeverityError,
			paths: map[fiscaldoc.Kind]string{
				fiscaldoc.KindNFe:  "dest",
				fiscaldoc.KindNFSe: "DPS/infDPS/toma",
			},
		},
		{
			ruleKey: "req.sender", ruleName: "Required: Sender",
			severity: domain.ValidationSeverityError,
			paths:    map[fiscaldoc.Kind]string{fiscaldoc.KindCTe: "rem"},
		},
		{
			ruleKey: "req.receiver", ruleName: "Required: Receiver",
			severity: domain.ValidationSeverityError,
			paths:    map[fiscaldoc.Kind]string{fiscaldoc.KindCTe: "dest"},
		},
		{
			ruleKey: "req.items", ruleName: "Required: Items",
			severity: domain.ValidationSeverityError,
			paths: map[fiscaldoc.Kind]string{
				fiscaldoc.KindNFe:  "det",
				fiscaldoc.KindNFSe: "DPS/infDPS/serv",
				fiscaldoc.KindMDFe: "infDoc",
			},
		},
		{
			ruleKey: "req.totals", ruleName: "Required: Totals",
			severity: domain.ValidationSeverityError,
			paths: map[fiscaldoc.Kind]string{
				fiscaldoc.KindNFe:  "total/ICMSTot",
				fiscaldoc.KindCTe:  "vPrest",
				fiscaldoc.KindNFSe: "valores",
				fiscaldoc.KindMDFe: "tot",
			},
		},
		{
			ruleKey: "req.tax_block", ruleName: "Required: Tax Block",
			severity: domain.ValidationSeverityError,
			paths: map[fiscaldoc.Kind]string{
				fiscaldoc.KindNFe:  "det/imposto",
				fiscaldoc.KindCTe:  "imp",
				fiscaldoc.KindNFSe: "DPS/infDPS/valores/trib",
			},
		},
	}
}
