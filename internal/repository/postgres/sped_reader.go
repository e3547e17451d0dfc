package postgres

import (
	"github.com/jmoiron/sqlx"

	"tributa/internal/port"
)

type spedReader struct {
	port.OrganizationReader
	port.FiscalDocumentReader
	port.LedgerReader
}

// NewSpedDataReader composes the organization, fiscal document and ledger readers.
func NewSpedDataReader(db *sqlx.DB) port.SpedDataReader {
	return &spedReader{
		OrganizationReader:   NewOrganizationRepo(db),
		FiscalDocumentReader: NewFiscalDocumentRepo(db),
		LedgerReader:         NewLedgerRepo(db),
	}
}
