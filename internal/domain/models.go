package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Organization is the taxpayer identity of one branch, supplied by the platform.
type Organization struct {
	ID                    uuid.UUID          `db:"id" json:"id"`
	BranchID              uuid.UUID          `db:"branch_id" json:"branch_id"`
	LegalName             string             `db:"legal_name" json:"legal_name"`
	TradeName             string             `db:"trade_name" json:"trade_name"`
	CNPJ                  string             `db:"cnpj" json:"cnpj"`
	UF                    string             `db:"uf" json:"uf"`
	StateRegistration     string             `db:"state_registration" json:"state_registration"`
	MunicipalityCode      string             `db:"municipality_code" json:"municipality_code"`
	MunicipalRegistration string             `db:"municipal_registration" json:"municipal_registration"`
	Suframa               string             `db:"suframa" json:"suframa"`
	NIRE                  string             `db:"nire" json:"nire"`
	Profile               string             `db:"efd_profile" json:"efd_profile"`
	ActivityType          string             `db:"activity_type" json:"activity_type"`
	TaxRegime             TaxRegime          `db:"tax_regime" json:"tax_regime"`
	ContributionRegime    ContributionRegime `db:"contribution_regime" json:"contribution_regime"`
	Address               string             `db:"address" json:"address"`
	Phone                 string             `db:"phone" json:"phone"`
	Email                 string             `db:"email" json:"email"`
	AccountantName        string             `db:"accountant_name" json:"accountant_name"`
	AccountantCPF         string             `db:"accountant_cpf" json:"accountant_cpf"`
	AccountantCRC         string             `db:"accountant_crc" json:"accountant_crc"`
}

// Partner is a counterparty (customer/supplier) referenced by invoices.
type Partner struct {
	Code              string `db:"code" json:"code"`
	Name              string `db:"name" json:"name"`
	CountryCode       string `db:"country_code" json:"country_code"`
	CNPJ              string `db:"cnpj" json:"cnpj"`
	CPF               string `db:"cpf" json:"cpf"`
	StateRegistration string `db:"state_registration" json:"state_registration"`
	MunicipalityCode  string `db:"municipality_code" json:"municipality_code"`
	Suframa           string `db:"suframa" json:"suframa"`
	Street            string `db:"street" json:"street"`
	Number            string `db:"number" json:"number"`
	Complement        string `db:"complement" json:"complement"`
	District          string `db:"district" json:"district"`
}

// Product is an item master record.
type Product struct {
	Code            string          `db:"code" json:"code"`
	Description     string          `db:"description" json:"description"`
	Barcode         string          `db:"barcode" json:"barcode"`
	Unit            string          `db:"unit" json:"unit"`
	UnitDescription string          `db:"unit_description" json:"unit_description"`
	ItemType        string          `db:"item_type" json:"item_type"`
	NCM             string          `db:"ncm" json:"ncm"`
	ExTIPI          string          `db:"ex_tipi" json:"ex_tipi"`
	ServiceCode     string          `db:"service_code" json:"service_code"`
	ICMSRate        decimal.Decimal `db:"icms_rate" json:"icms_rate"`
}

// FiscalInvoice is a materialized goods invoice with its per-item tax figures.
type FiscalInvoice struct {
	ID           uuid.UUID          `db:"id" json:"id"`
	Direction    OperationDirection `db:"direction" json:"direction"`
	Issuer       IssuerKind         `db:"issuer" json:"issuer"`
	PartnerCode  string             `db:"partner_code" json:"partner_code"`
	Model        string             `db:"model" json:"model"`
	Status       string             `db:"status" json:"status"`
	Series       string             `db:"series" json:"series"`
	Number       string             `db:"number" json:"number"`
	AccessKey    string             `db:"access_key" json:"access_key"`
	IssueDate    time.Time          `db:"issue_date" json:"issue_date"`
	EntryDate    time.Time          `db:"entry_date" json:"entry_date"`
	PaymentKind  string             `db:"payment_kind" json:"payment_kind"`
	FreightKind  string             `db:"freight_kind" json:"freight_kind"`
	Total        decimal.Decimal    `db:"total" json:"total"`
	Discount     decimal.Decimal    `db:"discount" json:"discount"`
	GoodsTotal   decimal.Decimal    `db:"goods_total" json:"goods_total"`
	Freight      decimal.Decimal    `db:"freight" json:"freight"`
	Insurance    decimal.Decimal    `db:"insurance" json:"insurance"`
	OtherCharges decimal.Decimal    `db:"other_charges" json:"other_charges"`
	ICMSBase     decimal.Decimal    `db:"icms_base" json:"icms_base"`
	ICMSAmount   decimal.Decimal    `db:"icms_amount" json:"icms_amount"`
	STBase       decimal.Decimal    `db:"st_base" json:"st_base"`
	STAmount     decimal.Decimal    `db:"st_amount" json:"st_amount"`
	IPIAmount    decimal.Decimal    `db:"ipi_amount" json:"ipi_amount"`
	PISAmount    decimal.Decimal    `db:"pis_amount" json:"pis_amount"`
	COFINSAmount decimal.Decimal    `db:"cofins_amount" json:"cofins_amount"`
	Items        []InvoiceItem      `db:"-" json:"items"`
}

// InvoiceItem is one line of a FiscalInvoice.
type InvoiceItem struct {
	InvoiceID    uuid.UUID       `db:"invoice_id" json:"-"`
	Number       int             `db:"number" json:"number"`
	ProductCode  string          `db:"product_code" json:"product_code"`
	Description  string          `db:"description" json:"description"`
	Quantity     decimal.Decimal `db:"quantity" json:"quantity"`
	Unit         string          `db:"unit" json:"unit"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	Discount     decimal.Decimal `db:"discount" json:"discount"`
	CFOP         string          `db:"cfop" json:"cfop"`
	CSTICMS      string          `db:"cst_icms" json:"cst_icms"`
	ICMSBase     decimal.Decimal `db:"icms_base" json:"icms_base"`
	ICMSRate     decimal.Decimal `db:"icms_rate" json:"icms_rate"`
	ICMSAmount   decimal.Decimal `db:"icms_amount" json:"icms_amount"`
	STBase       decimal.Decimal `db:"st_base" json:"st_base"`
	STRate       decimal.Decimal `db:"st_rate" json:"st_rate"`
	STAmount     decimal.Decimal `db:"st_amount" json:"st_amount"`
	CSTIPI       string          `db:"cst_ipi" json:"cst_ipi"`
	IPIBase      decimal.Decimal `db:"ipi_base" json:"ipi_base"`
	IPIRate      decimal.Decimal `db:"ipi_rate" json:"ipi_rate"`
	IPIAmount    decimal.Decimal `db:"ipi_amount" json:"ipi_amount"`
	CSTPIS       string          `db:"cst_pis" json:"cst_pis"`
	PISBase      decimal.Decimal `db:"pis_base" json:"pis_base"`
	PISRate      decimal.Decimal `db:"pis_rate" json:"pis_rate"`
	PISAmount    decimal.Decimal `db:"pis_amount" json:"pis_amount"`
	CSTCOFINS    string          `db:"cst_cofins" json:"cst_cofins"`
	COFINSBase   decimal.Decimal `db:"cofins_base" json:"cofins_base"`
	COFINSRate   decimal.Decimal `db:"cofins_rate" json:"cofins_rate"`
	COFINSAmount decimal.Decimal `db:"cofins_amount" json:"cofins_amount"`
	AccountCode  string          `db:"account_code" json:"account_code"`
}

// InventoryItem is one position of the period-end inventory count.
type InventoryItem struct {
	ProductCode string          `db:"product_code" json:"product_code"`
	Unit        string          `db:"unit" json:"unit"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitCost    decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	Total       decimal.Decimal `db:"total" json:"total"`
	Ownership   string          `db:"ownership" json:"ownership"`
	PartnerCode string          `db:"partner_code" json:"partner_code"`
	AccountCode string          `db:"account_code" json:"account_code"`
}

// Inventory is the period-end inventory snapshot.
type Inventory struct {
	Date   time.Time       `db:"inventory_date" json:"inventory_date"`
	Reason string          `db:"reason" json:"reason"`
	Items  []InventoryItem `db:"-" json:"items"`
}

// TaxCarryover holds balances carried from the previous bookkeeping period.
type TaxCarryover struct {
	ICMSCredit decimal.Decimal `db:"icms_credit" json:"icms_credit"`
	IPICredit  decimal.Decimal `db:"ipi_credit" json:"ipi_credit"`
}

// Account is one entry of the chart of accounts.
type Account struct {
	Code            string    `db:"code" json:"code"`
	ParentCode      string    `db:"parent_code" json:"parent_code"`
	Name            string    `db:"name" json:"name"`
	Level           int       `db:"level" json:"level"`
	Kind            string    `db:"kind" json:"kind"`
	Nature          string    `db:"nature" json:"nature"`
	ReferentialCode string    `db:"referential_code" json:"referential_code"`
	CreatedOn       time.Time `db:"created_on" json:"created_on"`
}

// AccountBalance is a monthly trial balance line for one analytic account.
type AccountBalance struct {
	PeriodStart  time.Time       `db:"period_start" json:"period_start"`
	PeriodEnd    time.Time       `db:"period_end" json:"period_end"`
	AccountCode  string          `db:"account_code" json:"account_code"`
	Opening      decimal.Decimal `db:"opening" json:"opening"`
	OpeningSide  BalanceSide     `db:"opening_side" json:"opening_side"`
	Debits       decimal.Decimal `db:"debits" json:"debits"`
	Credits      decimal.Decimal `db:"credits" json:"credits"`
	Closing      decimal.Decimal `db:"closing" json:"closing"`
	ClosingSide  BalanceSide     `db:"closing_side" json:"closing_side"`
	ResultClosed bool            `db:"result_closed" json:"result_closed"`
}

// JournalEntry is an accounting entry with its debit/credit lines.
type JournalEntry struct {
	ID     uuid.UUID       `db:"id" json:"id"`
	Number string          `db:"number" json:"number"`
	Date   time.Time       `db:"entry_date" json:"entry_date"`
	Amount decimal.Decimal `db:"amount" json:"amount"`
	Kind   string          `db:"kind" json:"kind"`
	Lines  []JournalLine   `db:"-" json:"lines"`
}

// JournalLine is one debit or credit of a JournalEntry.
type JournalLine struct {
	EntryID     uuid.UUID       `db:"entry_id" json:"-"`
	AccountCode string          `db:"account_code" json:"account_code"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Side        BalanceSide     `db:"side" json:"side"`
	DocumentRef string          `db:"document_ref" json:"document_ref"`
	History     string          `db:"history" json:"history"`
	PartnerCode string          `db:"partner_code" json:"partner_code"`
}

// StatementLine is one line of the balance sheet or income statement.
type StatementLine struct {
	Code        string          `db:"code" json:"code"`
	Level       int             `db:"level" json:"level"`
	Group       string          `db:"line_group" json:"line_group"`
	Description string          `db:"description" json:"description"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Side        BalanceSide     `db:"side" json:"side"`
	Kind        string          `db:"kind" json:"kind"`
}

// FinancialStatements holds the extracts written into the corporate bookkeeping.
type FinancialStatements struct {
	BalanceSheet    []StatementLine `json:"balance_sheet"`
	IncomeStatement []StatementLine `json:"income_statement"`
}

// ICMSMatrixEntry is a rate from the interstate/intrastate ICMS matrix.
type ICMSMatrixEntry struct {
	OriginUF      string          `db:"origin_uf" json:"origin_uf"`
	DestinationUF string          `db:"destination_uf" json:"destination_uf"`
	Rate          decimal.Decimal `db:"rate" json:"rate"`
	ValidFrom     time.Time       `db:"valid_from" json:"valid_from"`
	ValidTo       *time.Time      `db:"valid_to" json:"valid_to"`
}

// ReformPhase holds the IBS/CBS rates in force for one schedule phase.
type ReformPhase struct {
	ValidFrom    time.Time       `db:"valid_from" json:"valid_from"`
	ValidTo      time.Time       `db:"valid_to" json:"valid_to"`
	CBSRate      decimal.Decimal `db:"cbs_rate" json:"cbs_rate"`
	IBSStateRate decimal.Decimal `db:"ibs_state_rate" json:"ibs_state_rate"`
	IBSCityRate  decimal.Decimal `db:"ibs_city_rate" json:"ibs_city_rate"`
}

// ClassificationReduction is a rate reduction granted to a product-classification prefix.
type ClassificationReduction struct {
	NCMPrefix string          `db:"ncm_prefix" json:"ncm_prefix"`
	Reduction decimal.Decimal `db:"reduction" json:"reduction"`
	ValidFrom time.Time       `db:"valid_from" json:"valid_from"`
}
