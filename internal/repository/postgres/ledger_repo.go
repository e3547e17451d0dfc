package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tributa/internal/domain"
	"tributa/internal/port"
)

const (
	statementBalanceSheet = "balance_sheet"
	statementIncome       = "income_statement"
)

type ledgerRepo struct {
	db *sqlx.DB
}

// NewLedgerRepo creates a new PostgreSQL-backed LedgerReader.
func NewLedgerRepo(db *sqlx.DB) port.LedgerReader {
	return &ledgerRepo{db: db}
}

func (r *ledgerRepo) ListAccounts(ctx context.Context, orgID uuid.UUID) ([]domain.Account, error) {
	var accounts []domain.Account
	err := r.db.SelectContext(ctx, &accounts,
		`SELECT code, parent_code, name, level, kind, nature, referential_code,
		        COALESCE(created_on, DATE '0001-01-01') AS created_on
		 FROM accounts WHERE organization_id = $1
		 ORDER BY code`,
		orgID)
	if err != nil {
		return nil, fmt.Errorf("ledgerRepo.ListAccounts: %w", err)
	}
	return accounts, nil
}

func (r *ledgerRepo) ListBalances(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.AccountBalance, error) {
	var balances []domain.AccountBalance
	err := r.db.SelectContext(ctx, &balances,
		`SELECT period_start, period_end, account_code, opening, opening_side, debits, credits,
		        closing, closing_side, result_closed
		 FROM account_balances
		 WHERE organization_id = $1 AND period_start >= $2 AND period_end <= $3
		 ORDER BY period_start, account_code`,
		orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ledgerRepo.ListBalances: %w", err)
	}
	return balances, nil
}

func (r *ledgerRepo) ListJournalEntries(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.JournalEntry, error) {
	var entries []domain.JournalEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT id, number, entry_date, amount, kind
		 FROM journal_entries
		 WHERE organization_id = $1 AND entry_date BETWEEN $2 AND $3
		 ORDER BY entry_date, number`,
		orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ledgerRepo.ListJournalEntries: %w", err)
	}
	if len(entries) == 0 {
		return entries, nil
	}

	var lines []domain.JournalLine
	err = r.db.SelectContext(ctx, &lines,
		`SELECT jl.entry_id, jl.account_code, jl.amount, jl.side, jl.document_ref, jl.history,
		        jl.partner_code
		 FROM journal_lines jl
		 JOIN journal_entries je ON je.id = jl.entry_id
		 WHERE je.organization_id = $1 AND je.entry_date BETWEEN $2 AND $3
		 ORDER BY jl.entry_id, jl.position`,
		orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ledgerRepo.ListJournalEntries lines: %w", err)
	}
	byEntry := groupBy(lines, func(l domain.JournalLine) uuid.UUID { return l.EntryID })
	for i := range entries {
		entries[i].Lines = byEntry[entries[i].ID]
	}
	return entries, nil
}

type statementRow struct {
	Statement string `db:"statement"`
	domain.StatementLine
}

func (r *ledgerRepo) GetStatements(ctx context.Context, orgID uuid.UUID, fiscalYear int) (*domain.FinancialStatements, error) {
	var rows []statementRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT statement, code, level, line_group, description, amount, side, kind
		 FROM statement_lines
		 WHERE organization_id = $1 AND fiscal_year = $2
		 ORDER BY statement, position`,
		orgID, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("ledgerRepo.GetStatements: %w", err)
	}
	return splitStatements(rows), nil
}

func splitStatements(rows []statementRow) *domain.FinancialStatements {
	byStatement := groupBy(rows, func(r statementRow) string { return r.Statement })
	lines := func(name string) []domain.StatementLine {
		out := make([]domain.StatementLine, 0, len(byStatement[name]))
		for _, r := range byStatement[name] {
			out = append(out, r.StatementLine)
		}
		return out
	}
	return &domain.FinancialStatements{
		BalanceSheet:    lines(statementBalanceSheet),
		IncomeStatement: lines(statementIncome),
	}
}
