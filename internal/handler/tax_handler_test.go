package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tributa/internal/domain"
	"tributa/internal/handler"
	"tributa/internal/money"
	"tributa/internal/service"
	"tributa/internal/tax"
	"tributa/mocks"
)

const taxBody = `{
	"date": "2026-02-02T00:00:00Z",
	"origin_uf": "SP",
	"destination_uf": "RJ",
	"taxes": {"icms": {"base": "1000", "code": "00", "regime": "normal"}}
}`

func newTaxHandler() (*handler.TaxHandler, *mocks.MockTaxService) {
	mockSvc := new(mocks.MockTaxService)
	return handler.NewTaxHandler(mockSvc), mockSvc
}

func TestTaxHandler_Calculate_Success(t *testing.T) {
	h, mockSvc := newTaxHandler()

	result := &tax.AggregateResult{
		Results: []tax.Result{{Tax: tax.KindICMS, Amount: money.MustParse("120")}},
		Total:   money.MustParse("120"),
	}
	mockSvc.On("Calculate", mock.Anything, mock.MatchedBy(func(req service.TaxRequest) bool {
		return req.OriginUF == "SP" && req.DestinationUF == "RJ" &&
			req.Taxes.ICMS != nil && req.Taxes.ICMS.Base.String() == "1000.00"
	})).Return(result, nil)

	c, w := newContext(http.MethodPost, "/api/v1/taxes/calculate", taxBody)
	h.Calculate(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)

	var data struct {
		Total struct {
			Amount string `json:"amount"`
		} `json:"total"`
	}
	raw, _ := json.Marshal(resp.Data)
	require.NoError(t, json.Unmarshal(raw, &data))
	assert.Equal(t, "120.00", data.Total.Amount)
	mockSvc.AssertExpectations(t)
}

func TestTaxHandler_Calculate_InvalidBody(t *testing.T) {
	h, mockSvc := newTaxHandler()

	c, w := newContext(http.MethodPost, "/api/v1/taxes/calculate", `{"taxes": `)
	h.Calculate(c)

	assertErrorCode(t, w, http.StatusBadRequest, "INVALID_REQUEST")
	mockSvc.AssertNotCalled(t, "Calculate", mock.Anything, mock.Anything)
}

func TestTaxHandler_Calculate_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"rate not found", domain.ErrRateNotFound, http.StatusNotFound, "RATE_NOT_FOUND"},
		{"unsupported combo", &tax.StepError{Step: tax.KindICMS, Err: domain.ErrUnsupportedCombo}, http.StatusUnprocessableEntity, "UNSUPPORTED_COMBINATION"},
		{"data source", domain.ErrDataSource, http.StatusBadGateway, "DATA_SOURCE_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mockSvc := newTaxHandler()
			mockSvc.On("Calculate", mock.Anything, mock.Anything).Return(nil, tt.err)

			c, w := newContext(http.MethodPost, "/api/v1/taxes/calculate", taxBody)
			h.Calculate(c)

			assertErrorCode(t, w, tt.status, tt.code)
		})
	}
}
