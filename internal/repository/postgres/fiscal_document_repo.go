package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tributa/internal/domain"
	"tributa/internal/port"
)

// Inbound documents belong to the period of their entry date, outbound ones to their issue date.
const invoicePeriodFilter = `fi.branch_id = $1
	AND (CASE WHEN fi.direction = '0' THEN fi.entry_date ELSE fi.issue_date END) BETWEEN $2 AND $3`

type fiscalDocumentRepo struct {
	db *sqlx.DB
}

// NewFiscalDocumentRepo creates a new PostgreSQL-backed FiscalDocumentReader.
func NewFiscalDocumentRepo(db *sqlx.DB) port.FiscalDocumentReader {
	return &fiscalDocumentRepo{db: db}
}

func (r *fiscalDocumentRepo) ListInvoices(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]domain.FiscalInvoice, error) {
	var invoices []domain.FiscalInvoice
	err := r.db.SelectContext(ctx, &invoices,
		`SELECT fi.id, fi.direction, fi.issuer, fi.partner_code, fi.model, fi.status, fi.series,
		        fi.number, fi.access_key, fi.issue_date, fi.entry_date, fi.payment_kind,
		        fi.freight_kind, fi.total, fi.discount, fi.goods_total, fi.freight, fi.insurance,
		        fi.other_charges, fi.icms_base, fi.icms_amount, fi.st_base, fi.st_amount,
		        fi.ipi_amount, fi.pis_amount, fi.cofins_amount
		 FROM fiscal_invoices fi
		 WHERE `+invoicePeriodFilter+`
		 ORDER BY fi.issue_date, fi.model, fi.series, fi.number`,
		branchID, from, to)
	if err != nil {
		return nil, fmt.Errorf("fiscalDocumentRepo.ListInvoices: %w", err)
	}
	if len(invoices) == 0 {
		return invoices, nil
	}

	var items []domain.InvoiceItem
	err = r.db.SelectContext(ctx, &items,
		`SELECT it.invoice_id, it.number, it.product_code, it.description, it.quantity, it.unit,
		        it.amount, it.discount, it.cfop, it.cst_icms, it.icms_base, it.icms_rate,
		        it.icms_amount, it.st_base, it.st_rate, it.st_amount, it.cst_ipi, it.ipi_base,
		        it.ipi_rate, it.ipi_amount, it.cst_pis, it.pis_base, it.pis_rate, it.pis_amount,
		        it.cst_cofins, it.cofins_base, it.cofins_rate, it.cofins_amount, it.account_code
		 FROM fiscal_invoice_items it
		 JOIN fiscal_invoices fi ON fi.id = it.invoice_id
		 WHERE `+invoicePeriodFilter+`
		 ORDER BY it.invoice_id, it.number`,
		branchID, from, to)
	if err != nil {
		return nil, fmt.Errorf("fiscalDocumentRepo.ListInvoices items: %w", err)
	}
	byInvoice := groupBy(items, func(it domain.InvoiceItem) uuid.UUID { return it.InvoiceID })
	for i := range invoices {
		invoices[i].Items = byInvoice[invoices[i].ID]
	}
	return invoices, nil
}

func (r *fiscalDocumentRepo) ListPartners(ctx context.Context, branchID uuid.UUID) ([]domain.Partner, error) {
	var partners []domain.Partner
	err := r.db.SelectContext(ctx, &partners,
		`SELECT code, name, country_code, cnpj, cpf, state_registration, municipality_code,
		        suframa, street, number, complement, district
		 FROM partners WHERE branch_id = $1
		 ORDER BY code`,
		branchID)
	if err != nil {
		return nil, fmt.Errorf("fiscalDocumentRepo.ListPartners: %w", err)
	}
	return partners, nil
}

func (r *fiscalDocumentRepo) ListProducts(ctx context.Context, branchID uuid.UUID) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.SelectContext(ctx, &products,
		`SELECT code, description, barcode, unit, unit_description, item_type, ncm, ex_tipi,
		        service_code, icms_rate
		 FROM products WHERE branch_id = $1
		 ORDER BY code`,
		branchID)
	if err != nil {
		return nil, fmt.Errorf("fiscalDocumentRepo.ListProducts: %w", err)
	}
	return products, nil
}

func (r *fiscalDocumentRepo) GetInventory(ctx context.Context, branchID uuid.UUID, at time.Time) (*domain.Inventory, error) {
	var head struct {
		ID uuid.UUID `db:"id"`
		domain.Inventory
	}
	err := r.db.GetContext(ctx, &head,
		`SELECT id, inventory_date, reason
		 FROM inventories WHERE branch_id = $1 AND inventory_date = $2`,
		branchID, at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fiscalDocumentRepo.GetInventory: %w", err)
	}
	err = r.db.SelectContext(ctx, &head.Items,
		`SELECT product_code, unit, quantity, unit_cost, total, ownership, partner_code, account_code
		 FROM inventory_items WHERE inventory_id = $1
		 ORDER BY product_code, ownership`,
		head.ID)
	if err != nil {
		return nil, fmt.Errorf("fiscalDocumentRepo.GetInventory items: %w", err)
	}
	inv := head.Inventory
	return &inv, nil
}

// GetTaxCarryover returns nil when nothing was carried into the period.
func (r *fiscalDocumentRepo) GetTaxCarryover(ctx context.Context, branchID uuid.UUID, periodStart time.Time) (*domain.TaxCarryover, error) {
	var c domain.TaxCarryover
	err := r.db.GetContext(ctx, &c,
		`SELECT icms_credit, ipi_credit
		 FROM tax_carryovers WHERE branch_id = $1 AND period_start = $2`,
		branchID, periodStart)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fiscalDocumentRepo.GetTaxCarryover: %w", err)
	}
	return &c, nil
}
