package postgres

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tributa/internal/domain"
)

func TestGroupBy_KeepsOrderWithinKey(t *testing.T) {
	rows := []string{"a1", "b1", "a2", "c1", "b2"}
	got := groupBy(rows, func(s string) byte { return s[0] })

	assert.Equal(t, []string{"a1", "a2"}, got['a'])
	assert.Equal(t, []string{"b1", "b2"}, got['b'])
	assert.Equal(t, []string{"c1"}, got['c'])
	assert.Nil(t, got['z'])
}

func TestGroupBy_Empty(t *testing.T) {
	got := groupBy([]int(nil), func(i int) int { return i })
	assert.Empty(t, got)
}

func TestSplitStatements(t *testing.T) {
	rows := []statementRow{
		{Statement: statementBalanceSheet, StatementLine: domain.StatementLine{Code: "1", Amount: decimal.NewFromInt(100)}},
		{Statement: statementIncome, StatementLine: domain.StatementLine{Code: "3"}},
		{Statement: statementBalanceSheet, StatementLine: domain.StatementLine{Code: "2"}},
	}
	st := splitStatements(rows)

	require.Len(t, st.BalanceSheet, 2)
	assert.Equal(t, "1", st.BalanceSheet[0].Code)
	assert.Equal(t, "2", st.BalanceSheet[1].Code)
	require.Len(t, st.IncomeStatement, 1)
	assert.Equal(t, "3", st.IncomeStatement[0].Code)
}

func TestSplitStatements_NoRows(t *testing.T) {
	st := splitStatements(nil)
	assert.NotNil(t, st.BalanceSheet)
	assert.Empty(t, st.BalanceSheet)
	assert.Empty(t, st.IncomeStatement)
}
