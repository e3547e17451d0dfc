package handler_test

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"tributa/internal/domain"
	"tributa/internal/fiscaldoc"
	"tributa/internal/handler"
	"tributa/internal/service"
	"tributa/internal/validator"
	"tributa/mocks"
)

func newDocumentHandler() (*handler.DocumentHandler, *mocks.MockDocumentService) {
	mockSvc := new(mocks.MockDocumentService)
	return handler.NewDocumentHandler(mockSvc), mockSvc
}

const issueBody = `{
	"kind": "NFE",
	"number": 88,
	"series": 2,
	"issue_date": "2026-05-04T09:00:00Z",
	"environment": "2",
	"key_code": 4242,
	"issuer": {"name": "Emitente SA", "cnpj": "12345678000195", "uf": "MG", "municipality_code": "3106200"},
	"items": [{
		"code": "A1", "description": "Cafe torrado", "ncm": "09012100", "cfop": "5102",
		"quantity": "100", "unit_price": "10", "total": "1000",
		"codes": {"icms": "00"},
		"tax_input": {"icms": {"code": "00", "regime": "normal", "rate": "18"}}
	}]
}`

func TestDocumentHandler_Issue_Success(t *testing.T) {
	h, mockSvc := newDocumentHandler()
	mockSvc.On("Issue", mock.Anything, mock.MatchedBy(func(req service.IssueRequest) bool {
		return req.Kind == fiscaldoc.KindNFe && req.KeyCode == 4242 &&
			len(req.Items) == 1 && req.Items[0].TaxInput != nil && req.Items[0].Code == "A1"
	})).Return(&service.IssueResult{Kind: fiscaldoc.KindNFe, AccessKey: "3126051234567800019555002000000088100004242"}, nil)

	c, w := newContext(http.MethodPost, "/api/v1/documents", issueBody)
	h.Issue(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decode(t, w).Success)
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_Issue_FieldError(t *testing.T) {
	h, mockSvc := newDocumentHandler()
	mockSvc.On("Issue", mock.Anything, mock.Anything).
		Return(nil, &fiscaldoc.FieldError{Field: "items[0].ncm", Err: domain.ErrMissingField})

	c, w := newContext(http.MethodPost, "/api/v1/documents", issueBody)
	h.Issue(c)

	assertErrorCode(t, w, http.StatusBadRequest, "MISSING_FIELD")
	assert.Contains(t, w.Body.String(), "items[0].ncm")
}

func TestDocumentHandler_Issue_TotalsMismatch(t *testing.T) {
	h, mockSvc := newDocumentHandler()
	mockSvc.On("Issue", mock.Anything, mock.Anything).Return(nil, domain.ErrTotalsMismatch)

	c, w := newContext(http.MethodPost, "/api/v1/documents", issueBody)
	h.Issue(c)

	assertErrorCode(t, w, http.StatusUnprocessableEntity, "TOTALS_MISMATCH")
}

func TestDocumentHandler_Validate_Success(t *testing.T) {
	h, mockSvc := newDocumentHandler()
	payload := `<NFe xmlns="http://www.portalfiscal.inf.br/nfe"><infNFe/></NFe>`
	mockSvc.On("Validate", mock.Anything, []byte(payload)).
		Return(&validator.Report{Kind: "NFE", ValidationStatus: domain.ValidationStatusInvalid}, nil)

	c, w := newContext(http.MethodPost, "/api/v1/documents/validate", payload)
	h.Validate(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_Validate_Malformed(t *testing.T) {
	h, mockSvc := newDocumentHandler()
	mockSvc.On("Validate", mock.Anything, mock.Anything).Return(nil, domain.ErrMalformedXML)

	c, w := newContext(http.MethodPost, "/api/v1/documents/validate", "<NFe>")
	h.Validate(c)

	assertErrorCode(t, w, http.StatusBadRequest, "MALFORMED_XML")
}

func TestDocumentHandler_Validate_EmptyBody(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	c, w := newContext(http.MethodPost, "/api/v1/documents/validate", "")
	h.Validate(c)

	assertErrorCode(t, w, http.StatusBadRequest, "INVALID_REQUEST")
	mockSvc.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything)
}

func TestDocumentHandler_Validate_TooLarge(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	big := string(bytes.Repeat([]byte("a"), 5<<20+1))
	c, w := newContext(http.MethodPost, "/api/v1/documents/validate", big)
	h.Validate(c)

	assertErrorCode(t, w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE")
	mockSvc.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything)
}
