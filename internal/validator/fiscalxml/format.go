package fiscalxml

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"tributa/internal/domain"
	"tributa/internal/fiscaldoc"
)

var cnpjPattern = regexp.MustCompile(`^\d{14}$`)

// formatValidator checks the shape of a value.
type formatValidator struct {
	ruleKey  string
	ruleName string
	severity domain.ValidationSeverity
	validate func(*Document) []ValidationResult
}

func (v *formatValidator) RuleKey() string                     { return v.ruleKey }
func (v *formatValidator) RuleName() string                    { return v.ruleName }
func (v *formatValidator) RuleType() domain.ValidationRuleType { return domain.ValidationRuleFormat }
func (v *formatValidator) Severity() domain.ValidationSeverity { return v.severity }

func (v *formatValidator) Validate(_ context.Context, doc *Document) []ValidationResult {
	if doc.Info == nil {
		return nil
	}
	return v.validate(doc)
}

func formatResult(fieldPath, expected, actual, ruleName string, passed bool) ValidationResult {
	msg := fmt.Sprintf("%s: %s matches expected format", ruleName, fieldPath)
	if !passed {
		msg = fmt.Sprintf("%s: %s does not match expected format", ruleName, fieldPath)
	}
	return ValidationResult{Passed: passed, FieldPath: fieldPath, ExpectedValue: expected, ActualValue: actual, Message: msg}
}

// skipped mirrors the required rules: an absent value is reported there, not here.
func skipped(fieldPath, expected, ruleName string) ValidationResult {
	return ValidationResult{
		Passed: true, FieldPath: fieldPath, ExpectedValue: expected,
		Message: fmt.Sprintf("%s: field is empty, skipping format check", ruleName),
	}
}

// FormatValidators returns all format rules.
func FormatValidators() []*formatValidator {
	return []*formatValidator{
		{
			ruleKey: "fmt.access_key", ruleName: "Format: Access Key",
			severity: domain.ValidationSeverityError,
			validate: func(d *Document) []ValidationResult {
				const name = "Format: Access Key"
				fieldPath := d.Kind.InfoElement() + "/@Id"
				id := d.Info.Attrs["Id"]
				expected := fmt.Sprintf("%s + %d-digit key", d.Kind.IDPrefix(), d.Kind.KeyLength())
				if !strings.HasPrefix(id, d.Kind.IDPrefix()) {
					return []ValidationResult{formatResult(fieldPath, expected, id, name, false)}
				}
				_, err := fiscaldoc.ParseAccessKey(d.Kind, strings.TrimPrefix(id, d.Kind.IDPrefix()))
				return []ValidationResult{formatResult(fieldPath, expected, id, name, err == nil)}
			},
		},
		{
			ruleKey: "fmt.issuer.cnpj", ruleName: "Format: Issuer CNPJ",
			severity: domain.ValidationSeverityError,
			validate: func(d *Document) []ValidationResult {
				const name = "Format: Issuer CNPJ"
				fieldPath := d.Kind.InfoElement() + "/emit/CNPJ"
				v := d.Text("emit/CNPJ")
				if v == "" {
					return []ValidationResult{skipped(fieldPath, "14 digits", name)}
				}
				return []ValidationResult{formatResult(fieldPath, "14 digits", v, name, cnpjPattern.MatchString(v))}
			},
		},
		{
			ruleKey: "fmt.identification.state", ruleName: "Format: State Code",
			severity: domain.ValidationSeverityError,
			validate: func(d *Document) []ValidationResult {
				const name = "Format: State Code"
				fieldPath := d.Kind.InfoElement() + "/ide/cUF"
				v := d.Text("ide/cUF")
				if v == "" {
					return []ValidationResult{skipped(fieldPath, "IBGE state code", name)}
				}
				_, ok := domain.UFFromNumericCode(v)
				return []ValidationResult{formatResult(fieldPath, "IBGE state code", v, name, ok)}
			},
		},
		{
			ruleKey: "fmt.identification.issue_date", ruleName: "Format: Issue Date",
			severity: domain.ValidationSeverityError,
			validate: func(d *Document) []ValidationResult {
				const name = "Format: Issue Date"
				path := "ide/dhEmi"
				if d.Kind == fiscaldoc.KindNFSe {
					path = "DPS/infDPS/ide/dhEmi"
				}
				fieldPath := d.Kind.InfoElement() + "/" + path
				v := d.Text(path)
				if v == "" {
					return []ValidationResult{skipped(fieldPath, "RFC 3339 timestamp", name)}
				}
				_, err := time.Parse(time.RFC3339, v)
				return []ValidationResult{formatResult(fieldPath, "RFC 3339 timestamp", v, name, err == nil)}
			},
		},
		{
			ruleKey: "fmt.gov_purchase", ruleName: "Format: Government Purchase",
			severity: domain.ValidationSeverityError,
			validate: func(d *Document) []ValidationResult {
				const name = "Format: Government Purchase"
				gp := d.Info.Find("ide/gCompraGov")
				if gp == nil {
					return nil
				}
				fieldPath := d.Kind.InfoElement() + "/ide/gCompraGov"
				entity := strings.TrimSpace(gp.Find("tpEnteGov").textOrEmpty())
				uf := gp.Find("UFEnteGov") != nil
				mun := gp.Find("cMunEnteGov") != nil
				var passed bool
				switch entity {
				case "1":
					passed = !uf && !mun
				case "2":
					passed = uf && !mun
				case "3":
					passed = uf && mun
				}
				return []ValidationResult{formatResult(fieldPath, "jurisdiction fields matching tpEnteGov", entity, name, passed)}
			},
		},
	}
}

func (n *Node) textOrEmpty() string {
	if n == nil {
		return ""
	}
	return n.Text
}
