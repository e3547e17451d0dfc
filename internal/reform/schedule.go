package reform

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tributa/internal/domain"
)

// The transition runs from the 2026 test year until IBS is fully in force in 2033.
var (
	WindowStart = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	WindowEnd   = time.Date(2033, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// InWindow reports whether the calendar day of t lies inside the transition window.
func InWindow(t time.Time) bool {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(WindowStart) && !d.After(WindowEnd)
}

// Estimated reference rates (percent) used by the built-in table.
var (
	referenceCBS      = decimal.RequireFromString("8.8")
	referenceIBSState = decimal.RequireFromString("12.5")
	referenceIBSCity  = decimal.RequireFromString("5.2")
)

func year(y int) (time.Time, time.Time) {
	return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC)
}

func rampPhase(y int, share int64) domain.ReformPhase {
	from, to := year(y)
	ratio := decimal.NewFromInt(share).Div(decimal.NewFromInt(100))
	return domain.ReformPhase{
		ValidFrom:    from,
		ValidTo:      to,
		CBSRate:      referenceCBS,
		IBSStateRate: referenceIBSState.Mul(ratio),
		IBSCityRate:  referenceIBSCity.Mul(ratio),
	}
}

// DefaultPhases is the built-in schedule: 2026 test rates (CBS 0.9%, IBS 0.1%), CBS in full
// from 2027 with IBS at 0.1%, the IBS ramp 10/20/30/40% from 2029 to 2032 and full rates
// in 2033.
func DefaultPhases() []domain.ReformPhase {
	from2026, to2026 := year(2026)
	from2027, _ := year(2027)
	_, to2028 := year(2028)
	return []domain.ReformPhase{
		{
			ValidFrom:    from2026,
			ValidTo:      to2026,
			CBSRate:      decimal.RequireFromString("0.9"),
			IBSStateRate: decimal.RequireFromString("0.1"),
			IBSCityRate:  decimal.Zero,
		},
		{
			ValidFrom:    from2027,
			ValidTo:      to2028,
			CBSRate:      referenceCBS,
			IBSStateRate: decimal.RequireFromString("0.05"),
			IBSCityRate:  decimal.RequireFromString("0.05"),
		},
		rampPhase(2029, 10),
		rampPhase(2030, 20),
		rampPhase(2031, 30),
		rampPhase(2032, 40),
		rampPhase(2033, 100),
	}
}

// DefaultReductions are the reduced-rate classifications of the built-in table:
// the national basic food basket (zero rate) and the 60% reduction group.
func DefaultReductions() []domain.ClassificationReduction {
	return []domain.ClassificationReduction{
		{NCMPrefix: "1006", Reduction: decimal.NewFromInt(100), ValidFrom: WindowStart}, // rice
		{NCMPrefix: "0713", Reduction: decimal.NewFromInt(100), ValidFrom: WindowStart}, // beans
		{NCMPrefix: "0401", Reduction: decimal.NewFromInt(100), ValidFrom: WindowStart}, // milk
		{NCMPrefix: "1101", Reduction: decimal.NewFromInt(100), ValidFrom: WindowStart}, // wheat flour
		{NCMPrefix: "3004", Reduction: decimal.NewFromInt(60), ValidFrom: WindowStart},  // medicines
		{NCMPrefix: "9018", Reduction: decimal.NewFromInt(60), ValidFrom: WindowStart},  // medical devices
		{NCMPrefix: "4901", Reduction: decimal.NewFromInt(60), ValidFrom: WindowStart},  // books
		{NCMPrefix: "0201", Reduction: decimal.NewFromInt(60), ValidFrom: WindowStart},  // beef
	}
}

// Table is an in-memory port.ReformRateReader.
type Table struct {
	phases     []domain.ReformPhase
	reductions []domain.ClassificationReduction
}

// NewTable builds a table from explicit phases and reductions.
func NewTable(phases []domain.ReformPhase, reductions []domain.ClassificationReduction) *Table {
	sorted := append([]domain.ReformPhase(nil), phases...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ValidFrom.Before(sorted[j].ValidFrom) })
	return &Table{phases: sorted, reductions: append([]domain.ClassificationReduction(nil), reductions...)}
}

// DefaultTable serves DefaultPhases and DefaultReductions.
func DefaultTable() *Table {
	return NewTable(DefaultPhases(), DefaultReductions())
}

// PhaseAt implements port.ReformRateReader.
func (t *Table) PhaseAt(_ context.Context, at time.Time) (*domain.ReformPhase, error) {
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	for i := range t.phases {
		p := t.phases[i]
		if !day.Before(p.ValidFrom) && !day.After(p.ValidTo) {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: reform phase at %s", domain.ErrRateNotFound, day.Format(time.DateOnly))
}

// ClassificationReductions implements port.ReformRateReader.
func (t *Table) ClassificationReductions(_ context.Context, at time.Time) ([]domain.ClassificationReduction, error) {
	out := make([]domain.ClassificationReduction, 0, len(t.reductions))
	for _, r := range t.reductions {
		if !at.Before(r.ValidFrom) {
			out = append(out, r)
		}
	}
	return out, nil
}

// reductionFor returns the reduction of the longest prefix that matches ncm.
func reductionFor(ncm string, reductions []domain.ClassificationReduction) decimal.Decimal {
	best, bestLen := decimal.Zero, 0
	for _, r := range reductions {
		if len(r.NCMPrefix) > bestLen && strings.HasPrefix(ncm, r.NCMPrefix) {
			best, bestLen = r.Reduction, len(r.NCMPrefix)
		}
	}
	return best
}
