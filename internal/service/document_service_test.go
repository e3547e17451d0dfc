package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tributa/internal/domain"
	"tributa/internal/fiscaldoc"
	"tributa/internal/money"
	"tributa/internal/service"
	"tributa/internal/tax"
	"tributa/internal/validator"
)

func newDocumentService() service.DocumentService {
	engine := validator.NewEngine(validator.NewBuiltinRegistry(), zap.NewNop())
	return service.NewDocumentService(tax.NewDefaultCalculator(), engine, zap.NewNop())
}

func issueRequest() service.IssueRequest {
	return service.IssueRequest{
		Params: fiscaldoc.Params{
			Kind:        fiscaldoc.KindNFe,
			Number:      88,
			Series:      2,
			IssueDate:   time.Date(2026, time.May, 4, 9, 0, 0, 0, time.UTC),
			Environment: domain.EnvironmentHomologation,
			Issuer: fiscaldoc.Party{
				Name: "Emitente SA", CNPJ: "12345678000195", StateRegistration: "0623079040081",
				MunicipalityCode: "3106200", UF: "MG",
			},
			Recipient: &fiscaldoc.Party{Name: "Destinatario", CNPJ: "98765432000198", UF: "MG"},
		},
		KeyCode: 4242,
		Items: []service.IssueItem{{
			Item: fiscaldoc.Item{
				Code: "A1", Description: "Cafe torrado", NCM: "09012100", CFOP: "5102", Unit: "KG",
				Quantity: decimal.NewFromInt(100), UnitPrice: money.MustParse("10"), Total: money.MustParse("1000"),
				Codes: fiscaldoc.TaxCodes{ICMS: "00", PIS: "01", COFINS: "01"},
			},
			TaxInput: &tax.AggregateInput{
				ICMS:   &tax.ICMSInput{Code: "00", Regime: domain.RegimeNormal, Rate: money.MustPercent("18")},
				PIS:    &tax.ContributionInput{Code: "01", Regime: domain.ContributionCumulative},
				COFINS: &tax.ContributionInput{Code: "01", Regime: domain.ContributionCumulative},
			},
		}},
	}
}

func TestDocumentService_IssueComposesKey(t *testing.T) {
	svc := newDocumentService()

	res, err := svc.Issue(context.Background(), issueRequest())
	require.NoError(t, err)

	want, err := fiscaldoc.NewAccessKey(fiscaldoc.KindNFe, fiscaldoc.KeyParts{
		UF: "MG", IssuedAt: time.Date(2026, time.May, 4, 9, 0, 0, 0, time.UTC),
		CNPJ: "12345678000195", Series: 2, Number: 88, Code: 4242,
	})
	require.NoError(t, err)

	assert.Equal(t, fiscaldoc.KindNFe, res.Kind)
	assert.Equal(t, want.String(), res.AccessKey)
	assert.Equal(t, "180.00", res.Totals.ICMS.String())
	assert.Contains(t, res.XML, "NFe"+want.String())
	assert.Len(t, res.Hash, 64)
	require.NotNil(t, res.Validation)
	assert.Equal(t, domain.ValidationStatusValid, res.Validation.ValidationStatus, "failures: %+v", res.Validation.Failures())
}

func TestDocumentService_IssueKeepsSuppliedKey(t *testing.T) {
	svc := newDocumentService()
	req := issueRequest()
	key, err := fiscaldoc.NewAccessKey(fiscaldoc.KindNFe, fiscaldoc.KeyParts{
		UF: "MG", IssuedAt: req.IssueDate, CNPJ: "12345678000195", Series: 2, Number: 88, Code: 1,
	})
	require.NoError(t, err)
	req.AccessKey = key.String()

	res, err := svc.Issue(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, key.String(), res.AccessKey)
}

func TestDocumentService_IssueTaxFailureNamesItem(t *testing.T) {
	svc := newDocumentService()
	req := issueRequest()
	req.Items[0].TaxInput.ICMS.Code = "77"

	_, err := svc.Issue(context.Background(), req)
	require.Error(t, err)

	var fe *fiscaldoc.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "items[0].tax_input", fe.Field)
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestDocumentService_IssueFillsCodesFromTaxInput(t *testing.T) {
	svc := newDocumentService()
	req := issueRequest()
	req.Items[0].Codes = fiscaldoc.TaxCodes{}

	res, err := svc.Issue(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, res.XML, "<ICMS><CST>00</CST>")
	assert.Contains(t, res.XML, "<PIS><CST>01</CST>")
	assert.Contains(t, res.XML, "<COFINS><CST>01</CST>")
	assert.Equal(t, domain.ValidationStatusValid, res.Validation.ValidationStatus, "failures: %+v", res.Validation.Failures())
}

func TestDocumentService_IssueRejectsCodeMismatch(t *testing.T) {
	svc := newDocumentService()
	req := issueRequest()
	req.Items[0].TaxInput.ICMS.Code = "40"

	_, err := svc.Issue(context.Background(), req)
	require.Error(t, err)

	var fe *fiscaldoc.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "items[0].codes", fe.Field)
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestDocumentService_IssueRejectsUnknownItemCode(t *testing.T) {
	svc := newDocumentService()
	req := issueRequest()
	req.Items[0].TaxInput = nil
	req.Items[0].Codes = fiscaldoc.TaxCodes{ICMS: "ZZ"}

	_, err := svc.Issue(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestDocumentService_IssueNumberTooLarge(t *testing.T) {
	svc := newDocumentService()
	req := issueRequest()
	req.Number = 1_000_000_000

	_, err := svc.Issue(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidAccessKey)
}

func TestDocumentService_Validate(t *testing.T) {
	svc := newDocumentService()
	issued, err := svc.Issue(context.Background(), issueRequest())
	require.NoError(t, err)

	report, err := svc.Validate(context.Background(), []byte(issued.XML))
	require.NoError(t, err)
	assert.True(t, report.Valid())

	broken := strings.Replace(issued.XML, "<dest>", "<dest><bogus>", 1)
	_, err = svc.Validate(context.Background(), []byte(broken))
	assert.ErrorIs(t, err, domain.ErrMalformedXML)
}
