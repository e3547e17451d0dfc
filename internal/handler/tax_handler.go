package handler

import (
	"github.com/gin-gonic/gin"

	"tributa/internal/service"
)

// TaxHandler handles current-regime tax endpoints.
type TaxHandler struct {
	taxService service.TaxService
}

// NewTaxHandler creates a new TaxHandler.
func NewTaxHandler(taxService service.TaxService) *TaxHandler {
	return &TaxHandler{taxService: taxService}
}

// Calculate handles POST /api/v1/taxes/calculate
// @Summary Calculate current-regime taxes
// @Description Run any subset of ICMS, IPI, PIS and COFINS over one line. An ICMS entry
// @Description without a rate is resolved from the tax matrix when origin_uf is given.
// @Tags taxes
// @Accept json
// @Produce json
// @Param request body service.TaxRequest true "Line and requested taxes"
// @Success 200 {object} Response{data=tax.AggregateResult}
// @Failure 400 {object} ErrorResponseBody "Invalid code, rate or amount"
// @Failure 404 {object} ErrorResponseBody "No matrix rate in force"
// @Failure 422 {object} ErrorResponseBody "Code not applicable to the regime"
// @Router /taxes/calculate [post]
func (h *TaxHandler) Calculate(c *gin.Context) {
	var req service.TaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.taxService.Calculate(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, res)
}
