package sped_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tributa/internal/domain"
)

// fakeReader serves a fixed dataset. Setting an entry in errs makes that fetch fail.
type fakeReader struct {
	org        *domain.Organization
	invoices   []domain.FiscalInvoice
	partners   []domain.Partner
	products   []domain.Product
	inventory  *domain.Inventory
	carryover  *domain.TaxCarryover
	accounts   []domain.Account
	balances   []domain.AccountBalance
	entries    []domain.JournalEntry
	statements *domain.FinancialStatements
	errs       map[string]error
}

func (f *fakeReader) GetBranch(_ context.Context, _, _ uuid.UUID) (*domain.Organization, error) {
	return f.org, f.errs["org"]
}

func (f *fakeReader) ListInvoices(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.FiscalInvoice, error) {
	return f.invoices, f.errs["invoices"]
}

func (f *fakeReader) ListPartners(_ context.Context, _ uuid.UUID) ([]domain.Partner, error) {
	return f.partners, f.errs["partners"]
}

func (f *fakeReader) ListProducts(_ context.Context, _ uuid.UUID) ([]domain.Product, error) {
	return f.products, f.errs["products"]
}

func (f *fakeReader) GetInventory(_ context.Context, _ uuid.UUID, _ time.Time) (*domain.Inventory, error) {
	return f.inventory, f.errs["inventory"]
}

func (f *fakeReader) GetTaxCarryover(_ context.Context, _ uuid.UUID, _ time.Time) (*domain.TaxCarryover, error) {
	return f.carryover, f.errs["carryover"]
}

func (f *fakeReader) ListAccounts(_ context.Context, _ uuid.UUID) ([]domain.Account, error) {
	return f.accounts, f.errs["accounts"]
}

func (f *fakeReader) ListBalances(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.AccountBalance, error) {
	return f.balances, f.errs["balances"]
}

func (f *fakeReader) ListJournalEntries(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.JournalEntry, error) {
	return f.entries, f.errs["entries"]
}

func (f *fakeReader) GetStatements(_ context.Context, _ uuid.UUID, _ int) (*domain.FinancialStatements, error) {
	return f.statements, f.errs["statements"]
}

var (
	orgID    = uuid.MustParse("6f1c2b1e-5d3a-4c1e-9a4b-0c8d7e6f5a41")
	branchID = uuid.MustParse("0b7e8f9a-1c2d-4e3f-8a9b-7c6d5e4f3a21")
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func testOrg() *domain.Organization {
	return &domain.Organization{
		ID:                 orgID,
		BranchID:           branchID,
		LegalName:          "Comércio Mineiro Ltda",
		TradeName:          "Mineiro",
		CNPJ:               "11222333000181",
		UF:                 "MG",
		StateRegistration:  "0623079040081",
		MunicipalityCode:   "3106200",
		NIRE:               "31200000001",
		TaxRegime:          domain.RegimeNormal,
		ContributionRegime: domain.ContributionNonCumulative,
		AccountantName:     "Maria Contadora",
		AccountantCPF:      "12345678909",
		AccountantCRC:      "MG-012345/O",
	}
}

// goodsReader holds one own-issued sale, one third-party purchase and one cancelled sale.
func goodsReader() *fakeReader {
	return &fakeReader{
		org: testOrg(),
		partners: []domain.Partner{
			{Code: "C001", Name: "Cliente Um", CNPJ: "33444555000172", MunicipalityCode: "3550308"},
			{Code: "S001", Name: "Fornecedor Um", CNPJ: "44555666000130", MunicipalityCode: "3304557"},
			{Code: "X999", Name: "Sem movimento"},
		},
		products: []domain.Product{
			{Code: "P001", Description: "Parafuso", Unit: "UN", UnitDescription: "Unidade", ItemType: "00", NCM: "73181500"},
			{Code: "P002", Description: "Chapa de aço", Unit: "KG", ItemType: "01", NCM: "72085100"},
		},
		invoices: []domain.FiscalInvoice{
			{
				Direction: domain.DirectionOutbound, Issuer: domain.IssuerOwn, PartnerCode: "C001",
				Model: "55", Status: "00", Series: "1", Number: "101",
				IssueDate: day(2025, time.January, 10), EntryDate: day(2025, time.January, 10),
				Total: dec("1000"), GoodsTotal: dec("1000"), ICMSBase: dec("1000"), ICMSAmount: dec("180"),
				PISAmount: dec("16.50"), COFINSAmount: dec("76"),
				Items: []domain.InvoiceItem{{
					Number: 1, ProductCode: "P001", Description: "Parafuso", Quantity: dec("100"), Unit: "UN",
					Amount: dec("1000"), CFOP: "5102", CSTICMS: "000",
					ICMSBase: dec("1000"), ICMSRate: dec("18"), ICMSAmount: dec("180"),
					CSTPIS: "01", PISBase: dec("1000"), PISRate: dec("1.65"), PISAmount: dec("16.50"),
					CSTCOFINS: "01", COFINSBase: dec("1000"), COFINSRate: dec("7.6"), COFINSAmount: dec("76"),
				}},
			},
			{
				Direction: domain.DirectionInbound, Issuer: domain.IssuerThirdParty, PartnerCode: "S001",
				Model: "55", Status: "00", Series: "3", Number: "7788",
				IssueDate: day(2025, time.January, 12), EntryDate: day(2025, time.January, 13),
				Total: dec("500"), GoodsTotal: dec("500"), ICMSBase: dec("500"), ICMSAmount: dec("90"),
				PISAmount: dec("8.25"), COFINSAmount: dec("38"),
				Items: []domain.InvoiceItem{{
					Number: 1, ProductCode: "P002", Description: "Chapa de aço", Quantity: dec("250"), Unit: "KG",
					Amount: dec("500"), CFOP: "1102", CSTICMS: "000",
					ICMSBase: dec("500"), ICMSRate: dec("18"), ICMSAmount: dec("90"),
					CSTPIS: "50", PISBase: dec("500"), PISRate: dec("1.65"), PISAmount: dec("8.25"),
					CSTCOFINS: "50", COFINSBase: dec("500"), COFINSRate: dec("7.6"), COFINSAmount: dec("38"),
				}},
			},
			{
				Direction: domain.DirectionOutbound, Issuer: domain.IssuerOwn, PartnerCode: "GONE",
				Model: "55", Status: "02", Series: "1", Number: "102",
				Items: []domain.InvoiceItem{{Number: 1, ProductCode: "GONE", Amount: dec("50")}},
			},
		},
		carryover: &domain.TaxCarryover{ICMSCredit: dec("10")},
	}
}

// ledgerReader holds a minimal year of corporate bookkeeping.
func ledgerReader() *fakeReader {
	jan, janEnd := day(2025, time.January, 1), day(2025, time.January, 31)
	return &fakeReader{
		org: testOrg(),
		accounts: []domain.Account{
			{Code: "3", Name: "Resultado", Level: 1, Kind: "S", Nature: "04"},
			{Code: "1", Name: "Ativo", Level: 1, Kind: "S", Nature: "01"},
			{Code: "1.01", ParentCode: "1", Name: "Caixa", Level: 2, Kind: "A", Nature: "01", ReferentialCode: "1.01.01.01.01"},
			{Code: "3.01", ParentCode: "3", Name: "Receita de vendas", Level: 2, Kind: "A", Nature: "04"},
		},
		balances: []domain.AccountBalance{
			{PeriodStart: jan, PeriodEnd: janEnd, AccountCode: "3.01", Credits: dec("100"), Closing: dec("100"), ClosingSide: domain.SideCredit, ResultClosed: true},
			{PeriodStart: jan, PeriodEnd: janEnd, AccountCode: "1.01", Debits: dec("100"), Closing: dec("100"), ClosingSide: domain.SideDebit},
		},
		entries: []domain.JournalEntry{{
			Number: "1", Date: day(2025, time.January, 15), Amount: dec("100"),
			Lines: []domain.JournalLine{
				{AccountCode: "1.01", Amount: dec("100"), Side: domain.SideDebit, History: "Venda à vista"},
				{AccountCode: "3.01", Amount: dec("100"), Side: domain.SideCredit, History: "Venda à vista"},
			},
		}},
		statements: &domain.FinancialStatements{
			BalanceSheet:    []domain.StatementLine{{Code: "1", Level: 1, Group: "1", Description: "Ativo", Amount: dec("100"), Side: domain.SideDebit, Kind: "T"}},
			IncomeStatement: []domain.StatementLine{{Code: "3", Level: 1, Group: "R", Description: "Receita", Amount: dec("100"), Side: domain.SideCredit}},
		},
	}
}
