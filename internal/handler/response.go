package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tributa/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// clientErrors maps input and rule violations to their response codes. Order matters:
// the first sentinel found in the chain wins.
var clientErrors = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrMalformedXML, http.StatusBadRequest, "MALFORMED_XML"},
	{domain.ErrInvalidDocument, http.StatusBadRequest, "INVALID_DOCUMENT"},
	{domain.ErrUnknownVariant, http.StatusBadRequest, "UNKNOWN_VARIANT"},
	{domain.ErrInvalidPeriod, http.StatusBadRequest, "INVALID_PERIOD"},
	{domain.ErrPredecessorRequired, http.StatusBadRequest, "PREDECESSOR_REQUIRED"},
	{domain.ErrUnexpectedPredecessor, http.StatusBadRequest, "UNEXPECTED_PREDECESSOR"},
	{domain.ErrInvalidAccessKey, http.StatusBadRequest, "INVALID_ACCESS_KEY"},
	{domain.ErrInvalidJurisdiction, http.StatusBadRequest, "INVALID_JURISDICTION"},
	{domain.ErrInvalidCode, http.StatusBadRequest, "INVALID_CODE"},
	{domain.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
	{domain.ErrCurrencyMismatch, http.StatusBadRequest, "CURRENCY_MISMATCH"},
	{domain.ErrRateOutOfRange, http.StatusBadRequest, "RATE_OUT_OF_RANGE"},
	{domain.ErrMissingField, http.StatusBadRequest, "MISSING_FIELD"},
	{domain.ErrUnsupportedCombo, http.StatusUnprocessableEntity, "UNSUPPORTED_COMBINATION"},
	{domain.ErrTotalsMismatch, http.StatusUnprocessableEntity, "TOTALS_MISMATCH"},
	{domain.ErrInvalidGovPurchase, http.StatusUnprocessableEntity, "INVALID_GOV_PURCHASE"},
	{domain.ErrOutsideSchedule, http.StatusUnprocessableEntity, "OUTSIDE_SCHEDULE"},
	{domain.ErrZeroCurrentBurden, http.StatusUnprocessableEntity, "ZERO_CURRENT_BURDEN"},
	{domain.ErrRateNotFound, http.StatusNotFound, "RATE_NOT_FOUND"},
}

// MapDomainError translates domain errors to HTTP status codes and error codes. Client
// errors carry the error text so callers can see which field or line failed.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT", "operation timed out"
	case errors.Is(err, context.Canceled):
		return 499, "CANCELED", "request canceled"
	case errors.Is(err, domain.ErrDataSource):
		return http.StatusBadGateway, "DATA_SOURCE_ERROR", "reference data source unavailable"
	}
	for _, ce := range clientErrors {
		if errors.Is(err, ce.err) {
			return ce.status, ce.code, err.Error()
		}
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
}

// HandleError maps a domain error and sends the appropriate error response. Server-side
// failures are attached to the context for the request logger.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		_ = c.Error(err)
	}
	RespondError(c, status, code, msg)
}

// respondBindError reports a request body that could not be decoded.
func respondBindError(c *gin.Context, err error) {
	RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body: "+err.Error())
}
