// Package csvexport renders regime comparisons as CSV and XLSX downloads.
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tributa/internal/money"
	"tributa/internal/reform"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the header row shared by the CSV and XLSX exports.
var columns = []string{
	"Line",
	"CFOP",
	"NCM",
	"Base",
	"Current Regime",
	"New Regime",
	"Difference",
}

// totalLabel marks the summary row written after the lines.
const totalLabel = "TOTAL"

// Writer wraps csv.Writer for exporting comparisons as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteComparison writes one row per line followed by the totals row.
func (w *Writer) WriteComparison(cmp *reform.Comparison) error {
	for i, l := range cmp.Lines {
		if err := w.csv.Write(lineRow(i, l)); err != nil {
			return err
		}
	}
	return w.csv.Write(totalRow(cmp))
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// WriteCSV writes the BOM, header, lines and totals to out.
func WriteCSV(out io.Writer, cmp *reform.Comparison) error {
	if _, err := out.Write(BOM); err != nil {
		return err
	}
	w := NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if err := w.WriteComparison(cmp); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func lineRow(i int, l reform.ComparisonLine) []string {
	return []string{
		strconv.Itoa(i + 1),
		l.CFOP,
		l.NCM,
		l.Base.String(),
		l.Current.String(),
		l.New.String(),
		difference(l.Current, l.New),
	}
}

func totalRow(cmp *reform.Comparison) []string {
	return []string{
		totalLabel, "", "", "",
		cmp.CurrentTotal.String(),
		cmp.NewTotal.String(),
		cmp.Difference.String(),
	}
}

func difference(current, next money.Money) string {
	return next.Amount().Sub(current.Amount()).StringFixed(2)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns {sanitized_name}_{YYYY-MM-DD}.{ext}.
func BuildFilename(name string, date time.Time, ext string) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(name), date.Format("2006-01-02"), ext)
}
