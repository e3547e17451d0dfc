package sped

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"tributa/internal/domain"
	"tributa/internal/port"
)

// Stage names a step of the generation pipeline.
type Stage string

const (
	StageValidate Stage = "validate"
	StageCollect  Stage = "collect"
	StageHeader   Stage = "header"
	StageBlocks   Stage = "blocks"
	StageClosing  Stage = "closing"
	StageEncode   Stage = "encode"
)

// StageError reports the pipeline step that failed.
type StageError struct {
	Variant Variant
	Stage   Stage
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("sped %s: %s: %v", e.Variant, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// RegisterCount is one row of the closing block.
type RegisterCount struct {
	Register string `json:"register"`
	Count    int    `json:"count"`
}

// Result is a generated bookkeeping file.
type Result struct {
	Variant         Variant         `json:"variant"`
	Period          Period          `json:"period"`
	FileName        string          `json:"file_name"`
	Version         string          `json:"version"`
	Content         string          `json:"-"`
	Data            []byte          `json:"-"`
	Hash            string          `json:"hash"`
	Lines           int             `json:"lines"`
	Counts          []RegisterCount `json:"counts"`
	PredecessorHash string          `json:"predecessor_hash,omitempty"`
}

// Count returns the closing-block count for reg.
func (r *Result) Count(reg string) (int, bool) {
	for _, c := range r.Counts {
		if c.Register == reg {
			return c.Count, true
		}
	}
	return 0, false
}

type need uint16

const (
	needInvoices need = 1 << iota
	needPartners
	needProducts
	needInventory
	needCarryover
	needAccounts
	needBalances
	needEntries
	needStatements
)

// dataset is everything a run reads, fetched once during collect.
type dataset struct {
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
}

// run carries the per-generation state handed to a layout.
type run struct {
	period  Period
	variant Variant
	version string
	start   time.Time
	end     time.Time
	data    *dataset
}

// layout is one bookkeeping variant.
type layout interface {
	needs() need
	registers() []string
	header(w *recordWriter, r *run) error
	blocks(w *recordWriter, r *run) error
	// finish patches fields that depend on the final line count.
	finish(w *recordWriter) error
}

// Generator builds bookkeeping files. It holds no per-run state and is safe for
// concurrent use.
type Generator struct {
	data     port.SpedDataReader
	logger   *zap.Logger
	versions map[Variant]string
}

// Option customizes a Generator.
type Option func(*Generator)

// WithVersion pins the layout version written for variant instead of the year-based default.
func WithVersion(v Variant, version string) Option {
	return func(g *Generator) {
		if version != "" {
			g.versions[v] = version
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGenerator creates a Generator reading through data.
func NewGenerator(data port.SpedDataReader, opts ...Option) *Generator {
	g := &Generator{data: data, logger: zap.NewNop(), versions: make(map[Variant]string)}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Version returns the layout version written for variant in year.
func (g *Generator) Version(v Variant, year int) string {
	if version := g.versions[v]; version != "" {
		return version
	}
	return LayoutVersion(v, year)
}

func layoutFor(v Variant) (layout, error) {
	switch v {
	case VariantICMSIPI:
		return icmsIPILayout{}, nil
	case VariantContributions:
		return contributionsLayout{}, nil
	case VariantCorporate:
		return corporateLayout{}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownVariant, v)
}

// Generate runs collect, header, blocks, closing and encode for variant over p. Any
// failure aborts the run; no partial content is returned.
func (g *Generator) Generate(ctx context.Context, v Variant, p Period) (*Result, error) {
	lay, err := layoutFor(v)
	if err != nil {
		return nil, err
	}
	fail := func(stage Stage, err error) (*Result, error) {
		g.logger.Warn("sped generation failed",
			zap.String("variant", string(v)),
			zap.String("stage", string(stage)),
			zap.Error(err),
		)
		return nil, &StageError{Variant: v, Stage: stage, Err: err}
	}

	if err := p.Validate(v); err != nil {
		return fail(StageValidate, err)
	}

	start, end := p.Range(v)
	version := g.Version(v, p.Year)
	r := &run{period: p, variant: v, version: version, start: start, end: end}

	r.data, err = g.collect(ctx, r, lay.needs())
	if err != nil {
		return fail(StageCollect, err)
	}

	w := newRecordWriter()
	w.declare(lay.registers()...)
	if err := lay.header(w, r); err != nil {
		return fail(StageHeader, err)
	}
	if err := lay.blocks(w, r); err != nil {
		return fail(StageBlocks, err)
	}
	counts, err := closeFile(w)
	if err != nil {
		return fail(StageClosing, err)
	}
	if err := lay.finish(w); err != nil {
		return fail(StageClosing, err)
	}

	content := w.render()
	data, err := encodeLatin1(content)
	if err != nil {
		return fail(StageEncode, err)
	}
	sum := sha256.Sum256(data)

	res := &Result{
		Variant:         v,
		Period:          p,
		FileName:        p.FileName(v),
		Version:         version,
		Content:         content,
		Data:            data,
		Hash:            hex.EncodeToString(sum[:]),
		Lines:           w.lines(),
		Counts:          counts,
		PredecessorHash: p.PredecessorHash,
	}
	g.logger.Info("sped generated",
		zap.String("variant", string(v)),
		zap.String("file", res.FileName),
		zap.Int("lines", res.Lines),
		zap.String("hash", res.Hash),
	)
	return res, nil
}

// collect fetches every dataset the layout needs in parallel. The first failure cancels
// the remaining fetches.
func (g *Generator) collect(ctx context.Context, r *run, n need) (*dataset, error) {
	ds := &dataset{}
	p := r.period
	eg, ctx := errgroup.WithContext(ctx)

	fetch := func(name string, fn func(ctx context.Context) error) {
		eg.Go(func() error {
			if err := fn(ctx); err != nil {
				return fmt.Errorf("%w: %s: %w", domain.ErrDataSource, name, err)
			}
			return nil
		})
	}

	fetch("organization", func(ctx context.Context) (err error) {
		ds.org, err = g.data.GetBranch(ctx, p.OrganizationID, p.BranchID)
		return err
	})
	if n&needInvoices != 0 {
		fetch("invoices", func(ctx context.Context) (err error) {
			ds.invoices, err = g.data.ListInvoices(ctx, p.BranchID, r.start, r.end)
			return err
		})
	}
	if n&needPartners != 0 {
		fetch("partners", func(ctx context.Context) (err error) {
			ds.partners, err = g.data.ListPartners(ctx, p.BranchID)
			return err
		})
	}
	if n&needProducts != 0 {
		fetch("products", func(ctx context.Context) (err error) {
			ds.products, err = g.data.ListProducts(ctx, p.BranchID)
			return err
		})
	}
	if n&needInventory != 0 {
		fetch("inventory", func(ctx context.Context) (err error) {
			ds.inventory, err = g.data.GetInventory(ctx, p.BranchID, r.end)
			return err
		})
	}
	if n&needCarryover != 0 {
		fetch("tax carryover", func(ctx context.Context) (err error) {
			ds.carryover, err = g.data.GetTaxCarryover(ctx, p.BranchID, r.start)
			return err
		})
	}
	if n&needAccounts != 0 {
		fetch("chart of accounts", func(ctx context.Context) (err error) {
			ds.accounts, err = g.data.ListAccounts(ctx, p.OrganizationID)
			return err
		})
	}
	if n&needBalances != 0 {
		fetch("balances", func(ctx context.Context) (err error) {
			ds.balances, err = g.data.ListBalances(ctx, p.OrganizationID, r.start, r.end)
			return err
		})
	}
	if n&needEntries != 0 {
		fetch("journal entries", func(ctx context.Context) (err error) {
			ds.entries, err = g.data.ListJournalEntries(ctx, p.OrganizationID, r.start, r.end)
			return err
		})
	}
	if n&needStatements != 0 {
		fetch("statements", func(ctx context.Context) (err error) {
			ds.statements, err = g.data.GetStatements(ctx, p.OrganizationID, p.Year)
			return err
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if ds.org == nil {
		return nil, fmt.Errorf("%w: organization %s branch %s not found",
			domain.ErrDataSource, p.OrganizationID, p.BranchID)
	}
	if ds.carryover == nil {
		ds.carryover = &domain.TaxCarryover{}
	}
	if ds.statements == nil {
		ds.statements = &domain.FinancialStatements{}
	}
	return ds, nil
}

// closeFile writes block 9 from the writer's tally and checks every 9900 count against
// the records actually emitted.
func closeFile(w *recordWriter) ([]RegisterCount, error) {
	w.begin()
	w.add("9001", "0")
	w.declare("9900", "9990", "9999")

	regs := w.registers()
	rows := make([]int, len(regs))
	for i, reg := range regs {
		rows[i] = w.add("9900", reg, "")
	}
	// 9990 counts the block lines including itself and 9999.
	w.add("9990", strconv.Itoa(w.lines()-w.blockStart+2))
	w.add("9999", strconv.Itoa(w.lines()+1))

	counts := make([]RegisterCount, len(regs))
	for i, reg := range regs {
		n := w.count(reg)
		w.set(rows[i], 1, strconv.Itoa(n))
		counts[i] = RegisterCount{Register: reg, Count: n}
	}
	if got := w.count("9900"); got != len(regs) {
		return nil, fmt.Errorf("closing block lists %d registers but emitted %d 9900 records", len(regs), got)
	}
	return counts, nil
}

func encodeLatin1(content string) ([]byte, error) {
	var buf bytes.Buffer
	tw := transform.NewWriter(&buf, charmap.ISO8859_1.NewEncoder())
	if _, err := tw.Write([]byte(content)); err != nil {
		return nil, fmt.Errorf("encoding ISO-8859-1: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("encoding ISO-8859-1: %w", err)
	}
	return buf.Bytes(), nil
}
