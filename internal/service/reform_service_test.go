package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tributa/internal/domain"
	"tributa/internal/money"
	"tributa/internal/port"
	"tributa/internal/reform"
	"tributa/internal/service"
	"tributa/internal/tax"
	"tributa/mocks"
)

func reformLine(base string) reform.Line {
	return reform.Line{
		Base: money.MustParse(base), CFOP: "5102", NCM: "84713012",
		OriginUF: "SP", DestinationUF: "SP", DestinationCity: "3550308",
	}
}

func newReformService(rates port.ReformRateReader) service.ReformService {
	return service.NewReformService(reform.NewCalculator(rates, tax.NewDefaultCalculator()), zap.NewNop())
}

func TestReformService_Calculate(t *testing.T) {
	svc := newReformService(reform.DefaultTable())
	res, err := svc.Calculate(context.Background(), reform.Input{
		Date:  time.Date(2033, time.July, 1, 0, 0, 0, 0, time.UTC),
		Lines: []reform.Line{reformLine("1000")},
	})
	require.NoError(t, err)
	assert.Equal(t, "265.00", res.Total.String())
}

func TestReformService_Compare(t *testing.T) {
	svc := newReformService(reform.DefaultTable())
	cmp, err := svc.Compare(context.Background(), reform.CompareInput{
		Date: time.Date(2033, time.July, 1, 0, 0, 0, 0, time.UTC),
		Lines: []reform.CompareLine{{
			Line: reformLine("1000"),
			Current: tax.AggregateInput{
				ICMS: &tax.ICMSInput{Code: "00", Regime: domain.RegimeNormal, Rate: money.MustPercent("18")},
			},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "180.00", cmp.CurrentTotal.String())
	assert.Equal(t, "265.00", cmp.NewTotal.String())
	assert.Equal(t, "85.00", cmp.Difference.String())
	assert.Equal(t, reform.RecommendationSignificantIncrease, cmp.Recommendation)
}

func TestReformService_RateSourceFailure(t *testing.T) {
	rates := new(mocks.MockReformRateReader)
	rates.On("PhaseAt", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
	rates.On("ClassificationReductions", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Maybe()

	svc := newReformService(rates)
	_, err := svc.Calculate(context.Background(), reform.Input{
		Date:  time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC),
		Lines: []reform.Line{reformLine("100")},
	})
	assert.ErrorIs(t, err, domain.ErrDataSource)
}
