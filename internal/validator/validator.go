package validator

import (
	"context"

	"tributa/internal/domain"
	"tributa/internal/validator/fiscalxml"
)

// Validator is the interface for a single built-in validation rule.
type Validator interface {
	Validate(ctx context.Context, doc *fiscalxml.Document) []fiscalxml.ValidationResult
	RuleKey() string
	RuleName() string
	RuleType() domain.ValidationRuleType
	Severity() domain.ValidationSeverity
}
