package sped

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"a|b", "a b"},
		{" line\r\nbreak\t", "line  break"},
		{"Ação Comércio", "Ação Comércio"},
		{"Ŝão", "São"},
		{"preço €", "preço ?"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitize(tt.in), "sanitize(%q)", tt.in)
	}
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "1234,56", amount(decimal.RequireFromString("1234.565")))
	assert.Equal(t, "1234,58", amount(decimal.RequireFromString("1234.575")))
	assert.Equal(t, "0,00", amount(decimal.Zero))
	assert.Equal(t, "", optAmount(decimal.Zero))
	assert.Equal(t, "18,00", rate(decimal.NewFromInt(18)))
	assert.Equal(t, "2,12346", quantity(decimal.RequireFromString("2.123456")))
	assert.Equal(t, "10", quantity(decimal.NewFromInt(10)))
	assert.Equal(t, "05032025", date(time.Date(2025, time.March, 5, 13, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", date(time.Time{}))
	assert.Equal(t, "S", yesNo(true))
	assert.Equal(t, "0", flag(false))
}

func TestRecordWriter_Blocks(t *testing.T) {
	w := newRecordWriter()
	w.declare("X001", "X100", "X200", "X990")
	w.open("X", true)
	w.add("X100", "a", "b|c")
	w.add("X100", "d")
	w.close("X")

	assert.Equal(t, "|X001|0|\r\n|X100|a|b c|\r\n|X100|d|\r\n|X990|4|\r\n", w.render())
	assert.Equal(t, 2, w.count("X100"))
	assert.Equal(t, 0, w.count("X200"))

	counts, err := closeFile(w)
	require.NoError(t, err)
	assert.Equal(t, []RegisterCount{
		{"X001", 1}, {"X100", 2}, {"X200", 0}, {"X990", 1},
		{"9001", 1}, {"9900", 8}, {"9990", 1}, {"9999", 1},
	}, counts)

	last := w.records[len(w.records)-1]
	assert.Equal(t, "9999", last.reg)
	assert.Equal(t, []string{"15"}, last.fields)

	var closing record
	for _, r := range w.records {
		if r.reg == "9990" {
			closing = r
		}
	}
	assert.Equal(t, []string{"11"}, closing.fields)
}

func TestEmptyBlock(t *testing.T) {
	w := newRecordWriter()
	w.emptyBlock("K")
	assert.Equal(t, "|K001|1|\r\n|K990|2|\r\n", w.render())
}
