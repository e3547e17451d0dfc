package sped

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"tributa/internal/domain"
)

const lineBreak = "\r\n"

type record struct {
	reg    string
	fields []string
}

// recordWriter buffers records and tallies them per register. Records stay mutable until
// render so totals known only at the end (line counts) can be patched in.
type recordWriter struct {
	records    []record
	counts     map[string]int
	order      []string
	blockStart int
}

func newRecordWriter() *recordWriter {
	return &recordWriter{counts: make(map[string]int)}
}

// declare registers types that must appear in the closing block even when nothing is emitted.
func (w *recordWriter) declare(regs ...string) {
	for _, reg := range regs {
		w.track(reg)
	}
}

func (w *recordWriter) track(reg string) {
	if _, ok := w.counts[reg]; !ok {
		w.counts[reg] = 0
		w.order = append(w.order, reg)
	}
}

// add appends a record and returns its index.
func (w *recordWriter) add(reg string, fields ...string) int {
	w.track(reg)
	w.counts[reg]++
	clean := make([]string, len(fields))
	for i, f := range fields {
		clean[i] = sanitize(f)
	}
	w.records = append(w.records, record{reg: reg, fields: clean})
	return len(w.records) - 1
}

// set overwrites field i (0-based, after the register name) of record idx.
func (w *recordWriter) set(idx, i int, value string) {
	w.records[idx].fields[i] = sanitize(value)
}

// begin marks the first record of a block.
func (w *recordWriter) begin() { w.blockStart = len(w.records) }

// open begins block and writes its X001 opening record.
func (w *recordWriter) open(block string, hasData bool) {
	w.begin()
	w.add(block+"001", flag(!hasData))
}

// close writes the X990 record counting every line of the block, itself included.
func (w *recordWriter) close(block string) {
	n := len(w.records) - w.blockStart + 1
	w.add(block+"990", strconv.Itoa(n))
}

// emptyBlock writes a block with no data.
func (w *recordWriter) emptyBlock(block string) {
	w.open(block, false)
	w.close(block)
}

func (w *recordWriter) lines() int { return len(w.records) }

func (w *recordWriter) count(reg string) int { return w.counts[reg] }

// registers returns every tallied register in first-seen order.
func (w *recordWriter) registers() []string {
	return append([]string(nil), w.order...)
}

func (w *recordWriter) render() string {
	var b strings.Builder
	for _, r := range w.records {
		b.WriteByte('|')
		b.WriteString(r.reg)
		for _, f := range r.fields {
			b.WriteByte('|')
			b.WriteString(f)
		}
		b.WriteByte('|')
		b.WriteString(lineBreak)
	}
	return b.String()
}

// stripMarks is built per use; chained transformers carry state.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}), norm.NFC)
}

// sanitize removes the field delimiter and line breaks and folds characters outside
// ISO-8859-1 to their unaccented form, or '?' when none exists.
func sanitize(s string) string {
	if s == "" {
		return s
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '|', '\r', '\n', '\t':
			return ' '
		}
		return r
	}, s)
	s = strings.TrimSpace(s)

	var b strings.Builder
	for _, r := range s {
		if _, ok := charmap.ISO8859_1.EncodeRune(r); ok {
			b.WriteRune(r)
			continue
		}
		folded, _, err := transform.String(stripMarks(), string(r))
		if err == nil && folded != "" {
			if _, ok := charmap.ISO8859_1.EncodeRune([]rune(folded)[0]); ok {
				b.WriteString(folded)
				continue
			}
		}
		b.WriteByte('?')
	}
	return b.String()
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func yesNo(b bool) string {
	if b {
		return "S"
	}
	return "N"
}

// amount formats a monetary value with two places and a decimal comma.
func amount(d decimal.Decimal) string {
	return strings.Replace(d.StringFixedBank(2), ".", ",", 1)
}

// optAmount leaves zero values blank.
func optAmount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return amount(d)
}

// rate formats a percentage with two places and a decimal comma.
func rate(d decimal.Decimal) string { return amount(d) }

func quantity(d decimal.Decimal) string {
	return strings.Replace(d.RoundBank(5).String(), ".", ",", 1)
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02012006")
}

// side maps a balance to its SPED debit/credit indicator.
func side(s domain.BalanceSide) string {
	if s == "" {
		return string(domain.SideDebit)
	}
	return string(s)
}
