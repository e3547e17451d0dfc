package domain

// TaxRegime is the company's ICMS regime. It decides whether CST or CSOSN codes apply.
type TaxRegime string

const (
	RegimeNormal          TaxRegime = "normal"
	RegimeSimplesNacional TaxRegime = "simples_nacional"
)

// ContributionRegime selects the PIS/COFINS rate set.
type ContributionRegime string

const (
	ContributionCumulative    ContributionRegime = "cumulative"
	ContributionNonCumulative ContributionRegime = "non_cumulative"
)

// Valid reports whether r is a known contribution regime.
func (r ContributionRegime) Valid() bool {
	return r == ContributionCumulative || r == ContributionNonCumulative
}

// Environment is the fiscal authority environment a document is issued against.
type Environment string

const (
	EnvironmentProduction   Environment = "1"
	EnvironmentHomologation Environment = "2"
)

// Valid reports whether e is a known environment.
func (e Environment) Valid() bool {
	return e == EnvironmentProduction || e == EnvironmentHomologation
}

// OperationDirection tells whether a fiscal invoice is an entry or an exit for the branch.
type OperationDirection string

const (
	DirectionInbound  OperationDirection = "0"
	DirectionOutbound OperationDirection = "1"
)

// IssuerKind tells whether the branch issued the invoice itself.
type IssuerKind string

const (
	IssuerOwn        IssuerKind = "0"
	IssuerThirdParty IssuerKind = "1"
)

// Finality is the bookkeeping finality (original vs substitution).
type Finality string

const (
	FinalityOriginal     Finality = "0"
	FinalitySubstitution Finality = "1"
)

// BalanceSide marks a debit or credit balance/entry line.
type BalanceSide string

const (
	SideDebit  BalanceSide = "D"
	SideCredit BalanceSide = "C"
)

// ValidationSeverity defines the severity level of a validation rule.
type ValidationSeverity string

const (
	ValidationSeverityError   ValidationSeverity = "error"
	ValidationSeverityWarning ValidationSeverity = "warning"
)

// ValidationRuleType defines the kind of structural validation rule.
type ValidationRuleType string

const (
	ValidationRuleRequired   ValidationRuleType = "required"
	ValidationRuleFormat     ValidationRuleType = "format"
	ValidationRuleCrossField ValidationRuleType = "cross_field"
)

// ValidationStatus is the overall outcome of validating one document.
type ValidationStatus string

const (
	ValidationStatusValid   ValidationStatus = "valid"
	ValidationStatusWarning ValidationStatus = "warning"
	ValidationStatusInvalid ValidationStatus = "invalid"
)

// FieldValidationStatus is the per-path outcome shown next to a document element.
type FieldValidationStatus string

const (
	FieldStatusValid   FieldValidationStatus = "valid"
	FieldStatusInvalid FieldValidationStatus = "invalid"
	FieldStatusWarning FieldValidationStatus = "warning"
)
