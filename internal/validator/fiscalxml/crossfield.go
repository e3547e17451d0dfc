package fiscalxml

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tributa/internal/domain"
	"tributa/internal/fiscaldoc"
)

var lineTolerance = decimal.RequireFromString("0.01")

// crossFieldValidator checks relationships between elements.
type crossFieldValidator struct {
	ruleKey  string
	ruleName string
	severity domain.ValidationSeverity
	kinds    []fiscaldoc.Kind
	validate func(*Document) []ValidationResult
}

func (v *crossFieldValidator) RuleKey() string                     { return v.ruleKey }
func (v *crossFieldValidator) RuleName() string                    { return v.ruleName }
func (v *crossFieldValidator) RuleType() domain.ValidationRuleType { return domain.ValidationRuleCrossField }
func (v *crossFieldValidator) Severity() domain.ValidationSeverity { return v.severity }

func (v *crossFieldValidator) Validate(_ context.Context, doc *Document) []ValidationResult {
	if doc.Info == nil {
		return nil
	}
	for _, k := range v.kinds {
		if k == doc.Kind {
			return v.validate(doc)
		}
	}
	return nil
}

// sumCheck compares the sum of every value at itemPath with the total at totalPath,
// allowing 0.01 per summed line.
func sumCheck(d *Document, ruleName, itemPath, totalPath string) []ValidationResult {
	fieldPath := d.Kind.InfoElement() + "/" + totalPath
	total := d.Info.Find(totalPath)
	if total == nil {
		return []ValidationResult{{
			Passed: true, FieldPath: fieldPath,
			Message: fmt.Sprintf("%s: total missing, skipping", ruleName),
		}}
	}
	want, err := decimal.NewFromString(strings.TrimSpace(total.Text))
	if err != nil {
		return []ValidationResult{{
			Passed: false, FieldPath: fieldPath, ActualValue: total.Text,
			Message: fmt.Sprintf("%s: %s is not a number", ruleName, fieldPath),
		}}
	}

	sum := decimal.Zero
	lines := d.Info.FindAll(itemPath)
	for _, n := range lines {
		v, err := decimal.NewFromString(strings.TrimSpace(n.Text))
		if err != nil {
			return []ValidationResult{{
				Passed: false, FieldPath: d.Kind.InfoElement() + "/" + itemPath, ActualValue: n.Text,
				Message: fmt.Sprintf("%s: line value %q is not a number", ruleName, n.Text),
			}}
		}
		sum = sum.Add(v)
	}
	count := int64(len(lines))
	if count == 0 {
		count = 1
	}
	passed := sum.Sub(want).Abs().LessThanOrEqual(lineTolerance.Mul(decimal.NewFromInt(count)))
	msg := fmt.Sprintf("%s: %s matches the sum of lines", ruleName, fieldPath)
	if !passed {
		msg = fmt.Sprintf("%s: %s = %s but lines sum to %s", ruleName, fieldPath, want.StringFixed(2), sum.StringFixed(2))
	}
	return []ValidationResult{{
		Passed:        passed,
		FieldPath:     fieldPath,
		ExpectedValue: sum.StringFixed(2),
		ActualValue:   want.StringFixed(2),
		Message:       msg,
	}}
}

// CrossFieldValidators returns the totals rules.
func CrossFieldValidators() []*crossFieldValidator {
	nfe := []fiscaldoc.Kind{fiscaldoc.KindNFe}
	sums := []struct {
		key, name, item, total string
	}{
		{"xf.totals.products", "Cross-field: Products Total", "det/prod/vProd", "total/ICMSTot/vProd"},
		{"xf.totals.icms", "Cross-field: ICMS Total", "det/imposto/ICMS/vICMS", "total/ICMSTot/vICMS"},
		{"xf.totals.icms_st", "Cross-field: ICMS ST Total", "det/imposto/ICMS/vICMSST", "total/ICMSTot/vST"},
		{"xf.totals.ipi", "Cross-field: IPI Total", "det/imposto/IPI/vIPI", "total/ICMSTot/vIPI"},
		{"xf.totals.pis", "Cross-field: PIS Total", "det/imposto/PIS/vPIS", "total/ICMSTot/vPIS"},
		{"xf.totals.cofins", "Cross-field: COFINS Total", "det/imposto/COFINS/vCOFINS", "total/ICMSTot/vCOFINS"},
	}
	out := make([]*crossFieldValidator, 0, len(sums)+2)
	for _, s := range sums {
		out = append(out, &crossFieldValidator{
			ruleKey: s.key, ruleName: s.name, severity: domain.ValidationSeverityError, kinds: nfe,
			validate: func(d *Document) []ValidationResult { return sumCheck(d, s.name, s.item, s.total) },
		})
	}
	out = append(out,
		&crossFieldValidator{
			ruleKey: "xf.totals.invoice", ruleName: "Cross-field: Invoice Total",
			severity: domain.ValidationSeverityError, kinds: nfe,
			validate: func(d *Document) []ValidationResult {
				return invoiceTotalCheck(d, "Cross-field: Invoice Total")
			},
		},
		&crossFieldValidator{
			ruleKey: "xf.totals.service", ruleName: "Cross-field: Service Total",
			severity: domain.ValidationSeverityError, kinds: []fiscaldoc.Kind{fiscaldoc.KindCTe},
			validate: func(d *Document) []ValidationResult {
				return sumCheck(d, "Cross-field: Service Total", "vPrest/Comp/vComp", "vPrest/vTPrest")
			},
		},
	)
	return out
}

// invoiceTotalCheck verifies vNF = vProd + vST + vIPI.
func invoiceTotalCheck(d *Document, ruleName string) []ValidationResult {
	fieldPath := d.Kind.InfoElement() + "/total/ICMSTot/vNF"
	parse := func(p string) decimal.Decimal {
		v, err := decimal.NewFromString(d.Text("total/ICMSTot/" + p))
		if err != nil {
			return decimal.Zero
		}
		return v
	}
	want := parse("vProd").Add(parse("vST")).Add(parse("vIPI"))
	got := parse("vNF")
	passed := want.Sub(got).Abs().LessThanOrEqual(lineTolerance)
	msg := fmt.Sprintf("%s: vNF equals vProd + vST + vIPI", ruleName)
	if !passed {
		msg = fmt.Sprintf("%s: vNF %s differs from expected %s", ruleName, got.StringFixed(2), want.StringFixed(2))
	}
	return []ValidationResult{{
		Passed: passed, FieldPath: fieldPath,
		ExpectedValue: want.StringFixed(2), ActualValue: got.StringFixed(2), Message: msg,
	}}
}
