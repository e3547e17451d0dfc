package validator

import (
	"tributa/internal/domain"
)

// FieldStatus represents the computed validation state for a single element path.
type FieldStatus struct {
	Status   domain.FieldValidationStatus `json:"status"`
	Messages []string                     `json:"messages"`
}

// ComputeFieldStatuses groups results by field path. An error-severity failure marks
// the path invalid; a warning-severity failure marks it warning unless already invalid.
func ComputeFieldStatuses(results []ValidationResultItem) map[string]*FieldStatus {
	statuses := make(map[string]*FieldStatus)
	for _, r := range results {
		fs, ok := statuses[r.FieldPath]
		if !ok {
			fs = &FieldStatus{Status: domain.FieldStatusValid, Messages: []string{}}
			statuses[r.FieldPath] = fs
		}
		if r.Passed {
			continue
		}
		if r.Severity == domain.ValidationSeverityError {
			fs.Status = domain.FieldStatusInvalid
		} else if fs.Status != domain.FieldStatusInvalid {
			fs.Status = domain.FieldStatusWarning
		}
		fs.Messages = append(fs.Messages, r.Message)
	}
	return statuses
}
