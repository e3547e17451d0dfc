package validator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tributa/internal/domain"
	"tributa/internal/validator/fiscalxml"
)

// Engine runs the registered rules against serialized fiscal documents.
type Engine struct {
	registry *Registry
	logger   *zap.Logger
}

// NewEngine creates a new validation engine.
func NewEngine(registry *Registry, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{registry: registry, logger: logger}
}

// Report is the outcome of validating one payload.
type Report struct {
	Kind             string                  `json:"kind"`
	ValidationStatus domain.ValidationStatus `json:"validation_status"`
	Summary          ValidationSummary       `json:"summary"`
	Results          []ValidationResultItem  `json:"results"`
	FieldStatuses    map[string]*FieldStatus `json:"field_statuses"`
}

// Valid reports whether no error-severity rule failed.
func (r *Report) Valid() bool {
	return r.ValidationStatus != domain.ValidationStatusInvalid
}

// Failures returns the failed results.
func (r *Report) Failures() []ValidationResultItem {
	var out []ValidationResultItem
	for _, item := range r.Results {
		if !item.Passed {
			out = append(out, item)
		}
	}
	return out
}

// ValidationSummary holds aggregate counts of validation results.
type ValidationSummary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// ValidationResultItem is a single validation result in the report.
type ValidationResultItem struct {
	RuleKey       string                    `json:"rule_key"`
	RuleName      string                    `json:"rule_name"`
	RuleType      domain.ValidationRuleType `json:"rule_type"`
	Severity      domain.ValidationSeverity `json:"severity"`
	Passed        bool                      `json:"passed"`
	FieldPath     string                    `json:"field_path"`
	ExpectedValue string                    `json:"expected_value"`
	ActualValue   string                    `json:"actual_value"`
	Message       string                    `json:"message"`
}

// Validate parses payload and runs every registered rule. Only unparseable payloads
// return an error; rule failures are reported in the Report.
func (e *Engine) Validate(ctx context.Context, payload []byte) (*Report, error) {
	doc, err := fiscalxml.Parse(payload)
	if err != nil {
		return nil, fmt.Errorf("parsing payload: %w", err)
	}
	if doc.Info == nil {
		return nil, fmt.Errorf("%w: %s has no %s element",
			domain.ErrInvalidDocument, doc.Kind.Root(), doc.Kind.InfoElement())
	}

	var results []ValidationResultItem
	var summary ValidationSummary
	for _, v := range e.registry.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, vr := range v.Validate(ctx, doc) {
			results = append(results, ValidationResultItem{
				RuleKey:       v.RuleKey(),
				RuleName:      v.RuleName(),
				RuleType:      v.RuleType(),
				Severity:      v.Severity(),
				Passed:        vr.Passed,
				FieldPath:     vr.FieldPath,
				ExpectedValue: vr.ExpectedValue,
				ActualValue:   vr.ActualValue,
				Message:       vr.Message,
			})
			switch {
			case vr.Passed:
				summary.Passed++
			case v.Severity() == domain.ValidationSeverityError:
				summary.Errors++
			default:
				summary.Warnings++
			}
		}
	}
	summary.Total = len(results)

	var status domain.ValidationStatus
	switch {
	case summary.Errors > 0:
		status = domain.ValidationStatusInvalid
	case summary.Warnings > 0:
		status = domain.ValidationStatusWarning
	default:
		status = domain.ValidationStatusValid
	}

	e.logger.Debug("document validated",
		zap.String("kind", string(doc.Kind)),
		zap.String("status", string(status)),
		zap.Int("results", summary.Total),
		zap.Int("errors", summary.Errors),
	)

	return &Report{
		Kind:             string(doc.Kind),
		ValidationStatus: status,
		Summary:          summary,
		Results:          results,
		FieldStatuses:    ComputeFieldStatuses(results),
	}, nil
}
