package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"tributa/internal/handler"
	"tributa/internal/router"
	"tributa/internal/service"
	"tributa/internal/sped"
	"tributa/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newEngine() (*gin.Engine, *mocks.MockSpedService) {
	spedSvc := new(mocks.MockSpedService)
	r := router.Setup(
		zap.NewNop(),
		[]string{"http://localhost:3000"},
		handler.NewTaxHandler(new(mocks.MockTaxService)),
		handler.NewReformHandler(new(mocks.MockReformService)),
		handler.NewDocumentHandler(new(mocks.MockDocumentService)),
		handler.NewSpedHandler(spedSvc),
		handler.NewHealthHandler(okPinger{}),
	)
	return r, spedSvc
}

func TestSetup_Routes(t *testing.T) {
	r, _ := newEngine()

	want := map[string]bool{
		"GET /healthz":                    true,
		"GET /readyz":                     true,
		"POST /api/v1/taxes/calculate":    true,
		"POST /api/v1/reform/calculate":   true,
		"POST /api/v1/reform/compare":     true,
		"POST /api/v1/documents":          true,
		"POST /api/v1/documents/validate": true,
		"GET /api/v1/sped/layouts":        true,
		"POST /api/v1/sped/:variant":      true,
	}
	got := map[string]bool{}
	for _, ri := range r.Routes() {
		got[ri.Method+" "+ri.Path] = true
	}
	assert.Equal(t, want, got)
}

func TestSetup_RequestFlow(t *testing.T) {
	r, spedSvc := newEngine()
	spedSvc.On("Layouts", 2025).Return([]service.Layout{{Variant: sped.VariantCorporate, Version: "9.00"}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sped/layouts?year=2025", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(w.Body.String(), `"version":"9.00"`))
	spedSvc.AssertExpectations(t)
}

func TestSetup_UnknownVariantThroughRouter(t *testing.T) {
	r, spedSvc := newEngine()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sped/ecf", strings.NewReader(`{}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	spedSvc.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}
