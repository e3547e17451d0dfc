package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"tributa/internal/domain"
)

// Workbook sheet names. Each sheet has a header row followed by data rows.
const (
	sheetICMS       = "ICMS"
	sheetPhases     = "Reform"
	sheetReductions = "Reductions"
)

// rateSet is everything read from a rates workbook.
type rateSet struct {
	matrix     []domain.ICMSMatrixEntry
	phases     []domain.ReformPhase
	reductions []domain.ClassificationReduction
}

// readWorkbook parses the rate sheets. Missing sheets are skipped.
// ICMS columns: origin UF, destination UF, rate, valid from, valid to (optional).
// Reform columns: valid from, valid to, CBS, IBS state, IBS city.
// Reductions columns: NCM prefix, reduction, valid from.
func readWorkbook(f *excelize.File) (*rateSet, error) {
	var set rateSet
	present := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		present[name] = true
	}

	if present[sheetICMS] {
		err := eachRow(f, sheetICMS, 5, func(row []string) error {
			e, err := parseMatrixRow(row)
			if err == nil {
				set.matrix = append(set.matrix, e)
			}
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	if present[sheetPhases] {
		err := eachRow(f, sheetPhases, 5, func(row []string) error {
			p, err := parsePhaseRow(row)
			if err == nil {
				set.phases = append(set.phases, p)
			}
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	if present[sheetReductions] {
		err := eachRow(f, sheetReductions, 3, func(row []string) error {
			r, err := parseReductionRow(row)
			if err == nil {
				set.reductions = append(set.reductions, r)
			}
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	return &set, nil
}

// eachRow calls fn for every non-blank data row, padding rows to width columns.
func eachRow(f *excelize.File, sheet string, width int, fn func([]string) error) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		for len(row) < width {
			row = append(row, "")
		}
		if err := fn(row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func parseMatrixRow(row []string) (domain.ICMSMatrixEntry, error) {
	var e domain.ICMSMatrixEntry
	e.OriginUF = strings.ToUpper(strings.TrimSpace(row[0]))
	e.DestinationUF = strings.ToUpper(strings.TrimSpace(row[1]))
	if err := domain.ValidateUF(e.OriginUF); err != nil {
		return e, err
	}
	if err := domain.ValidateUF(e.DestinationUF); err != nil {
		return e, err
	}
	var err error
	if e.Rate, err = parseRate(row[2]); err != nil {
		return e, err
	}
	if e.ValidFrom, err = parseDate(row[3]); err != nil {
		return e, err
	}
	if strings.TrimSpace(row[4]) != "" {
		to, err := parseDate(row[4])
		if err != nil {
			return e, err
		}
		e.ValidTo = &to
	}
	return e, nil
}

func parsePhaseRow(row []string) (domain.ReformPhase, error) {
	var (
		p   domain.ReformPhase
		err error
	)
	if p.ValidFrom, err = parseDate(row[0]); err != nil {
		return p, err
	}
	if p.ValidTo, err = parseDate(row[1]); err != nil {
		return p, err
	}
	if p.ValidTo.Before(p.ValidFrom) {
		return p, fmt.Errorf("%w: phase ends before it starts", domain.ErrInvalidPeriod)
	}
	if p.CBSRate, err = parseRate(row[2]); err != nil {
		return p, err
	}
	if p.IBSStateRate, err = parseRate(row[3]); err != nil {
		return p, err
	}
	if p.IBSCityRate, err = parseRate(row[4]); err != nil {
		return p, err
	}
	return p, nil
}

func parseReductionRow(row []string) (domain.ClassificationReduction, error) {
	var (
		r   domain.ClassificationReduction
		err error
	)
	r.NCMPrefix = strings.TrimSpace(strings.ReplaceAll(row[0], ".", ""))
	for _, c := range r.NCMPrefix {
		if c < '0' || c > '9' {
			return r, fmt.Errorf("%w: NCM prefix %q", domain.ErrInvalidCode, row[0])
		}
	}
	if r.Reduction, err = parseRate(row[1]); err != nil {
		return r, err
	}
	if r.ValidFrom, err = parseDate(row[2]); err != nil {
		return r, err
	}
	return r, nil
}

// parseRate accepts "12", "12.5", "12,5" and "12%".
func parseRate(s string) (decimal.Decimal, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: rate %q", domain.ErrInvalidAmount, s)
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, fmt.Errorf("%w: rate %s", domain.ErrRateOutOfRange, s)
	}
	return d, nil
}

var dateLayouts = []string{time.DateOnly, "02/01/2006", "01-02-06"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q", domain.ErrInvalidPeriod, s)
}
