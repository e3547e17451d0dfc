package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tributa/internal/service"
)

// maxDocumentSize bounds the XML accepted by Validate.
const maxDocumentSize = 5 << 20

// DocumentHandler handles fiscal XML document endpoints.
type DocumentHandler struct {
	documentService service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// Issue handles POST /api/v1/documents
// @Summary Issue a fiscal document
// @Description Compute item taxes, build and serialize an NF-e, CT-e, NFS-e or MDF-e, then
// @Description run the structural validation rules over the generated XML.
// @Tags documents
// @Accept json
// @Produce json
// @Param request body service.IssueRequest true "Document data"
// @Success 201 {object} Response{data=service.IssueResult} "Document serialized"
// @Failure 400 {object} ErrorResponseBody "Invalid document"
// @Failure 422 {object} ErrorResponseBody "Totals do not match the items"
// @Router /documents [post]
func (h *DocumentHandler) Issue(c *gin.Context) {
	var req service.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.documentService.Issue(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, res)
}

// Validate handles POST /api/v1/documents/validate
// @Summary Validate a fiscal document
// @Description Parse a serialized document and report every rule result. Rule failures are
// @Description part of the report; only unparseable payloads are errors.
// @Tags documents
// @Accept xml
// @Produce json
// @Param request body string true "Document XML"
// @Success 200 {object} Response{data=validator.Report}
// @Failure 400 {object} ErrorResponseBody "Malformed XML or unknown document"
// @Failure 413 {object} ErrorResponseBody "Payload too large"
// @Router /documents/validate [post]
func (h *DocumentHandler) Validate(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxDocumentSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondError(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "document exceeds maximum allowed size")
			return
		}
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "could not read request body")
		return
	}
	if len(payload) == 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body is empty")
		return
	}

	report, err := h.documentService.Validate(c.Request.Context(), payload)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, report)
}
