package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tributa/internal/service"
	"tributa/internal/sped"
)

// spedContentType is the charset every SPED file is encoded in.
const spedContentType = "text/plain; charset=ISO-8859-1"

// SpedHandler handles bookkeeping file endpoints.
type SpedHandler struct {
	spedService service.SpedService
}

// NewSpedHandler creates a new SpedHandler.
func NewSpedHandler(spedService service.SpedService) *SpedHandler {
	return &SpedHandler{spedService: spedService}
}

// Generate handles POST /api/v1/sped/:variant
// @Summary Generate a SPED file
// @Description Build the EFD ICMS/IPI, EFD Contribuições or ECD file for one period. The
// @Description file is returned as an attachment with its SHA-256 in X-Content-Hash;
// @Description format=json returns the register counts and hash only.
// @Tags sped
// @Accept json
// @Produce plain,json
// @Param variant path string true "icms_ipi, contribuicoes or ecd"
// @Param format query string false "file (default) or json"
// @Param request body sped.Period true "Organization, branch and period"
// @Success 200 {object} Response{data=sped.Result}
// @Failure 400 {object} ErrorResponseBody "Unknown variant or invalid period"
// @Failure 502 {object} ErrorResponseBody "Bookkeeping data unavailable"
// @Failure 504 {object} ErrorResponseBody "Generation timed out"
// @Router /sped/{variant} [post]
func (h *SpedHandler) Generate(c *gin.Context) {
	variant, err := sped.ParseVariant(c.Param("variant"))
	if err != nil {
		HandleError(c, err)
		return
	}
	format := c.DefaultQuery("format", "file")
	if format != "file" && format != "json" {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "format must be file or json")
		return
	}

	var p sped.Period
	if err := c.ShouldBindJSON(&p); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.spedService.Generate(c.Request.Context(), variant, p)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("X-Content-Hash", res.Hash)
	if format == "json" {
		RespondOK(c, res)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+res.FileName+`"`)
	c.Data(http.StatusOK, spedContentType, res.Data)
}

// Layouts handles GET /api/v1/sped/layouts
// @Summary List layout versions
// @Description Layout version each variant is generated with for the given year.
// @Tags sped
// @Produce json
// @Param year query int false "Calendar year (defaults to the current year)"
// @Success 200 {object} Response{data=[]service.Layout}
// @Failure 400 {object} ErrorResponseBody "Invalid year"
// @Router /sped/layouts [get]
func (h *SpedHandler) Layouts(c *gin.Context) {
	year := time.Now().Year()
	if s := c.Query("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 2000 || y > 9999 {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "year must be a four-digit number")
			return
		}
		year = y
	}
	RespondOK(c, h.spedService.Layouts(year))
}
