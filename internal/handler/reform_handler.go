package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"tributa/internal/csvexport"
	"tributa/internal/reform"
	"tributa/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReformHandler handles IBS/CBS transition endpoints.
type ReformHandler struct {
	reformService service.ReformService
}

// NewReformHandler creates a new ReformHandler.
func NewReformHandler(reformService service.ReformService) *ReformHandler {
	return &ReformHandler{reformService: reformService}
}

// Calculate handles POST /api/v1/reform/calculate
// @Summary Calculate IBS and CBS
// @Description Apply the transition rates in force at the operation date to every line.
// @Tags reform
// @Accept json
// @Produce json
// @Param request body reform.Input true "Operation date and lines"
// @Success 200 {object} Response{data=reform.Result}
// @Failure 400 {object} ErrorResponseBody "Invalid line"
// @Failure 422 {object} ErrorResponseBody "Date outside the transition schedule"
// @Failure 502 {object} ErrorResponseBody "Rate source unavailable"
// @Router /reform/calculate [post]
func (h *ReformHandler) Calculate(c *gin.Context) {
	var in reform.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.reformService.Calculate(c.Request.Context(), in)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, res)
}

// Compare handles POST /api/v1/reform/compare
// @Summary Compare current and new regime
// @Description Run both regimes over the same bases. format=csv or format=xlsx returns a
// @Description downloadable file instead of JSON.
// @Tags reform
// @Accept json
// @Produce json,text/csv,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "json (default), csv or xlsx"
// @Param request body reform.CompareInput true "Operation date and lines with current-regime taxes"
// @Success 200 {object} Response{data=reform.Comparison}
// @Failure 400 {object} ErrorResponseBody "Invalid line or format"
// @Failure 422 {object} ErrorResponseBody "Current-regime total is zero"
// @Router /reform/compare [post]
func (h *ReformHandler) Compare(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "csv" && format != "xlsx" {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "format must be one of json, csv, xlsx")
		return
	}

	var in reform.CompareInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	cmp, err := h.reformService.Compare(c.Request.Context(), in)
	if err != nil {
		HandleError(c, err)
		return
	}

	var (
		buf         bytes.Buffer
		contentType string
	)
	switch format {
	case "csv":
		err = csvexport.WriteCSV(&buf, cmp)
		contentType = "text/csv; charset=utf-8"
	case "xlsx":
		err = csvexport.WriteXLSX(&buf, cmp)
		contentType = xlsxContentType
	default:
		RespondOK(c, cmp)
		return
	}
	if err != nil {
		HandleError(c, err)
		return
	}
	filename := csvexport.BuildFilename("reform_comparison", cmp.Date, format)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
