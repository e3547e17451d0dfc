package domain

import "errors"

var (
	ErrInvalidCode           = errors.New("invalid tax classification code")
	ErrUnsupportedCombo      = errors.New("tax code not applicable to the given regime")
	ErrRateOutOfRange        = errors.New("rate out of range")
	ErrInvalidAmount         = errors.New("invalid monetary amount")
	ErrCurrencyMismatch      = errors.New("currency mismatch")
	ErrMissingField          = errors.New("required field is missing")
	ErrInvalidAccessKey      = errors.New("invalid access key")
	ErrInvalidJurisdiction   = errors.New("invalid jurisdiction code")
	ErrInvalidPeriod         = errors.New("invalid bookkeeping period")
	ErrOutsideSchedule       = errors.New("operation date outside the reform schedule window")
	ErrRateNotFound          = errors.New("no rate registered for the requested key")
	ErrDataSource            = errors.New("reference data source failure")
	ErrTotalsMismatch        = errors.New("document totals do not match line items")
	ErrInvalidDocument       = errors.New("invalid fiscal document")
	ErrUnknownVariant        = errors.New("unknown bookkeeping variant")
	ErrZeroCurrentBurden     = errors.New("current-regime total is zero")
	ErrInvalidGovPurchase    = errors.New("invalid government purchase block")
	ErrMalformedXML          = errors.New("malformed fiscal document xml")
	ErrPredecessorRequired   = errors.New("substitution requires the predecessor hash")
	ErrUnexpectedPredecessor = errors.New("original bookkeeping must not reference a predecessor")
)
