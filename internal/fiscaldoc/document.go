// Package fiscaldoc models the fiscal document family (NF-e, CT-e, NFS-e, MDF-e) and
// serializes it to schema-shaped XML.
package fiscaldoc

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tributa/internal/domain"
	"tributa/internal/money"
	"tributa/internal/tax"
)

var lineTolerance = decimal.RequireFromString("0.01")

// FieldError names the field that failed construction.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %v", e.Field, e.Err) }

func (e *FieldError) Unwrap() error { return e.Err }

// Party is an issuer, recipient, sender or receiver.
type Party struct {
	Name              string `json:"name"`
	CNPJ              string `json:"cnpj,omitempty"`
	CPF               string `json:"cpf,omitempty"`
	StateRegistration string `json:"state_registration,omitempty"`
	Street            string `json:"street,omitempty"`
	Number            string `json:"number,omitempty"`
	District          string `json:"district,omitempty"`
	MunicipalityCode  string `json:"municipality_code,omitempty"`
	Municipality      string `json:"municipality,omitempty"`
	UF                string `json:"uf,omitempty"`
	ZipCode           string `json:"zip_code,omitempty"`
}

// TaxCodes are the classification codes written into an item's tax block.
type TaxCodes struct {
	ICMS   domain.ICMSCode         `json:"icms,omitempty"`
	IPI    domain.IPICode          `json:"ipi,omitempty"`
	PIS    domain.ContributionCode `json:"pis,omitempty"`
	COFINS domain.ContributionCode `json:"cofins,omitempty"`
}

// Item is one line of goods or services.
type Item struct {
	Number      int                 `json:"number"`
	Code        string              `json:"code"`
	Description string              `json:"description"`
	NCM         string              `json:"ncm,omitempty"`
	CFOP        string              `json:"cfop,omitempty"`
	Unit        string              `json:"unit,omitempty"`
	Quantity    decimal.Decimal     `json:"quantity"`
	UnitPrice   money.Money         `json:"unit_price"`
	Total       money.Money         `json:"total"`
	Codes       TaxCodes            `json:"codes"`
	Taxes       tax.AggregateResult `json:"taxes"`
}

// itemCodeErrors checks each code parses and that every computed tax carries one.
func itemCodeErrors(i int, it Item) []error {
	var errs []error
	check := func(kind tax.Kind, code string, parse func(string) error) {
		field := fmt.Sprintf("items[%d].codes.%s", i, strings.ToLower(string(kind)))
		if code == "" {
			if _, ok := it.Taxes.Get(kind); ok {
				errs = append(errs, &FieldError{Field: field, Err: fmt.Errorf("%w: %s code", domain.ErrMissingField, kind)})
			}
			return
		}
		if err := parse(code); err != nil {
			errs = append(errs, &FieldError{Field: field, Err: err})
		}
	}
	check(tax.KindICMS, string(it.Codes.ICMS), func(s string) error {
		_, err := domain.ParseICMSCode(s)
		return err
	})
	check(tax.KindIPI, string(it.Codes.IPI), func(s string) error {
		_, err := domain.ParseIPICode(s)
		return err
	})
	parseContribution := func(s string) error {
		_, err := domain.ParseContributionCode(s)
		return err
	}
	check(tax.KindPIS, string(it.Codes.PIS), parseContribution)
	check(tax.KindCOFINS, string(it.Codes.COFINS), parseContribution)
	return errs
}

func (it Item) taxAmount(kind tax.Kind) money.Money {
	if r, ok := it.Taxes.Get(kind); ok {
		return r.Amount
	}
	return money.Zero(it.Total.Currency())
}

// Totals are the document-level sums.
type Totals struct {
	Products money.Money `json:"products"`
	ICMSBase money.Money `json:"icms_base"`
	ICMS     money.Money `json:"icms"`
	STBase   money.Money `json:"st_base"`
	ICMSST   money.Money `json:"icms_st"`
	IPI      money.Money `json:"ipi"`
	PIS      money.Money `json:"pis"`
	COFINS   money.Money `json:"cofins"`
	Document money.Money `json:"document"`
}

// ComputeTotals sums item values and tax results. The document total is products plus
// withheld ICMS and IPI.
func ComputeTotals(items []Item, currency string) (Totals, error) {
	zero := money.Zero(currency)
	t := Totals{Products: zero, ICMSBase: zero, ICMS: zero, STBase: zero, ICMSST: zero, IPI: zero, PIS: zero, COFINS: zero}

	type term struct {
		dst *money.Money
		v   money.Money
	}
	for i, it := range items {
		terms := []term{
			{&t.Products, it.Total},
			{&t.ICMS, it.taxAmount(tax.KindICMS)},
			{&t.IPI, it.taxAmount(tax.KindIPI)},
			{&t.PIS, it.taxAmount(tax.KindPIS)},
			{&t.COFINS, it.taxAmount(tax.KindCOFINS)},
		}
		if r, ok := it.Taxes.Get(tax.KindICMS); ok {
			terms = append(terms, term{&t.ICMSBase, r.Base}, term{&t.STBase, r.WithheldBase}, term{&t.ICMSST, r.Withheld})
		}
		for _, tm := range terms {
			sum, err := tm.dst.Add(tm.v)
			if err != nil {
				return Totals{}, &FieldError{Field: fmt.Sprintf("items[%d]", i), Err: err}
			}
			*tm.dst = sum
		}
	}
	doc, err := money.Sum(t.Products, t.ICMSST, t.IPI)
	if err != nil {
		return Totals{}, err
	}
	t.Document = doc
	return t.rounded(), nil
}

func (t Totals) rounded() Totals {
	return Totals{
		Products: t.Products.Round(),
		ICMSBase: t.ICMSBase.Round(),
		ICMS:     t.ICMS.Round(),
		STBase:   t.STBase.Round(),
		ICMSST:   t.ICMSST.Round(),
		IPI:      t.IPI.Round(),
		PIS:      t.PIS.Round(),
		COFINS:   t.COFINS.Round(),
		Document: t.Document.Round(),
	}
}

// Matches returns the fields of t that differ from other by more than 0.01 per line.
func (t Totals) Matches(other Totals, lines int) []string {
	if lines < 1 {
		lines = 1
	}
	tol := lineTolerance.Mul(decimal.NewFromInt(int64(lines)))
	pairs := []struct {
		name string
		a, b money.Money
	}{
		{"products", t.Products, other.Products},
		{"icms_base", t.ICMSBase, other.ICMSBase},
		{"icms", t.ICMS, other.ICMS},
		{"st_base", t.STBase, other.STBase},
		{"icms_st", t.ICMSST, other.ICMSST},
		{"ipi", t.IPI, other.IPI},
		{"pis", t.PIS, other.PIS},
		{"cofins", t.COFINS, other.COFINS},
		{"document", t.Document, other.Document},
	}
	var mismatched []string
	for _, p := range pairs {
		if !p.a.WithinTolerance(p.b, tol) {
			mismatched = append(mismatched, p.name)
		}
	}
	return mismatched
}

// Route is the loading and unloading state of a manifest.
type Route struct {
	LoadingUF   string `json:"loading_uf"`
	UnloadingUF string `json:"unloading_uf"`
}

// Params are the construction inputs of a Document.
type Params struct {
	Kind        Kind               `json:"kind"`
	AccessKey   string             `json:"access_key"`
	Number      int64              `json:"number"`
	Series      int                `json:"series"`
	IssueDate   time.Time          `json:"issue_date"`
	Environment domain.Environment `json:"environment"`
	Currency    string             `json:"currency,omitempty"`

	Issuer    Party  `json:"issuer"`
	Recipient *Party `json:"recipient,omitempty"`
	Sender    *Party `json:"sender,omitempty"`
	Receiver  *Party `json:"receiver,omitempty"`

	Items []Item `json:"items"`

	// Totals, when supplied, must match the item sums.
	Totals *Totals `json:"totals,omitempty"`

	GovPurchase *GovPurchase `json:"gov_purchase,omitempty"`

	// Manifest-only fields.
	Route       *Route      `json:"route,omitempty"`
	CarriedKeys []string    `json:"carried_keys,omitempty"`
	CargoValue  money.Money `json:"cargo_value"`
}

// Document is a validated fiscal document. The access key cannot change after New.
type Document struct {
	kind      Kind
	accessKey AccessKey

	Number      int64
	Series      int
	IssueDate   time.Time
	Environment domain.Environment
	Issuer      Party
	Recipient   *Party
	Sender      *Party
	Receiver    *Party
	Items       []Item
	Totals      Totals
	GovPurchase *GovPurchase
	Route       *Route
	CarriedKeys []AccessKey

	payload *Payload
}

// Kind returns the document variant.
func (d *Document) Kind() Kind { return d.kind }

// AccessKey returns the document key.
func (d *Document) AccessKey() AccessKey { return d.accessKey }

// IdentityKey is the uniqueness key (kind, environment, access key) callers persist.
func (d *Document) IdentityKey() string {
	return fmt.Sprintf("%s:%s:%s", d.kind, d.Environment, d.accessKey)
}

// Payload returns the last serialization, or nil before Serialize.
func (d *Document) Payload() *Payload { return d.payload }

// New validates p and builds a Document. Every violated rule is reported, each wrapped in
// a *FieldError; no partial document is returned.
func New(p Params) (*Document, error) {
	if _, ok := kinds[p.Kind]; !ok {
		return nil, fmt.Errorf("%w: document kind %q", domain.ErrInvalidDocument, p.Kind)
	}
	currency := p.Currency
	if currency == "" {
		currency = money.BRL
	}

	var errs []error
	fail := func(field string, err error) { errs = append(errs, &FieldError{Field: field, Err: err}) }

	key, err := ParseAccessKey(p.Kind, p.AccessKey)
	if err != nil {
		fail("access_key", err)
	} else if p.Kind != KindNFSe && key.String()[22:25] != fmt.Sprintf("%03d", p.Series) {
		fail("series", fmt.Errorf("%w: series %d does not match access key", domain.ErrInvalidAccessKey, p.Series))
	}
	if p.Number <= 0 {
		fail("number", domain.ErrMissingField)
	}
	if p.IssueDate.IsZero() {
		fail("issue_date", domain.ErrMissingField)
	}
	if !p.Environment.Valid() {
		fail("environment", fmt.Errorf("%w: environment %q", domain.ErrInvalidCode, p.Environment))
	}

	errs = append(errs, partyErrors(p)...)

	switch p.Kind {
	case KindMDFe:
		errs = append(errs, manifestErrors(p)...)
	default:
		if len(p.Items) == 0 {
			fail("items", domain.ErrMissingField)
		}
		for i, it := range p.Items {
			if it.Description == "" {
				fail(fmt.Sprintf("items[%d].description", i), domain.ErrMissingField)
			}
			if it.Total.IsNegative() {
				fail(fmt.Sprintf("items[%d].total", i), domain.ErrInvalidAmount)
			}
			errs = append(errs, itemCodeErrors(i, it)...)
		}
	}

	if p.GovPurchase != nil {
		if p.Kind != KindNFe {
			fail("gov_purchase", fmt.Errorf("%w: only goods invoices carry it", domain.ErrInvalidGovPurchase))
		} else if err := p.GovPurchase.Validate(); err != nil {
			fail("gov_purchase", err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}

	totals, err := ComputeTotals(p.Items, currency)
	if err != nil {
		return nil, err
	}
	if p.Kind == KindMDFe {
		totals.Products = p.CargoValue.Round()
		totals.Document = totals.Products
	}
	if p.Totals != nil {
		if bad := totals.Matches(*p.Totals, len(p.Items)); len(bad) > 0 {
			return nil, fmt.Errorf("%w: %v", domain.ErrTotalsMismatch, bad)
		}
	}

	items := make([]Item, len(p.Items))
	copy(items, p.Items)
	for i := range items {
		if items[i].Number == 0 {
			items[i].Number = i + 1
		}
	}
	carried := make([]AccessKey, 0, len(p.CarriedKeys))
	for _, k := range p.CarriedKeys {
		carried = append(carried, AccessKey(k))
	}

	return &Document{
		kind:        p.Kind,
		accessKey:   key,
		Number:      p.Number,
		Series:      p.Series,
		IssueDate:   p.IssueDate,
		Environment: p.Environment,
		Issuer:      p.Issuer,
		Recipient:   p.Recipient,
		Sender:      p.Sender,
		Receiver:    p.Receiver,
		Items:       items,
		Totals:      totals,
		GovPurchase: p.GovPurchase,
		Route:       p.Route,
		CarriedKeys: carried,
	}, nil
}

type partyRule struct {
	role     string
	party    func(Params) *Party
	needsIE  bool
	needsUF  bool
	needsMun bool
	cnpjOnly bool
}

var partyRules = map[Kind][]partyRule{
	KindNFe: {
		{role: "issuer", party: issuer, needsIE: true, needsUF: true, needsMun: true, cnpjOnly: true},
		{role: "recipient", party: func(p Params) *Party { return p.Recipient }, needsUF: true},
	},
	KindCTe: {
		{role: "issuer", party: issuer, needsIE: true, needsUF: true, needsMun: true, cnpjOnly: true},
		{role: "sender", party: func(p Params) *Party { return p.Sender }, needsUF: true},
		{role: "receiver", party: func(p Params) *Party { return p.Receiver }, needsUF: true},
	},
	KindNFSe: {
		{role: "issuer", party: issuer, needsMun: true, cnpjOnly: true},
		{role: "recipient", party: func(p Params) *Party { return p.Recipient }},
	},
	KindMDFe: {
		{role: "issuer", party: issuer, needsIE: true, needsUF: true, cnpjOnly: true},
	},
}

func issuer(p Params) *Party { return &p.Issuer }

func partyErrors(p Params) []error {
	var errs []error
	fail := func(field string, err error) { errs = append(errs, &FieldError{Field: field, Err: err}) }
	for _, rule := range partyRules[p.Kind] {
		party := rule.party(p)
		if party == nil {
			fail(rule.role, domain.ErrMissingField)
			continue
		}
		if party.Name == "" {
			fail(rule.role+".name", domain.ErrMissingField)
		}
		switch {
		case party.CNPJ != "":
			if !cnpjPattern.MatchString(party.CNPJ) {
				fail(rule.role+".cnpj", domain.ErrInvalidCode)
			}
		case party.CPF != "" && !rule.cnpjOnly:
			if len(party.CPF) != 11 || !digitsPattern.MatchString(party.CPF) {
				fail(rule.role+".cpf", domain.ErrInvalidCode)
			}
		default:
			fail(rule.role+".cnpj", domain.ErrMissingField)
		}
		if rule.needsIE && party.StateRegistration == "" {
			fail(rule.role+".state_registration", domain.ErrMissingField)
		}
		if rule.needsUF {
			if party.UF == "" {
				fail(rule.role+".uf", domain.ErrMissingField)
			} else if err := domain.ValidateUF(party.UF); err != nil {
				fail(rule.role+".uf", err)
			}
		}
		if rule.needsMun {
			if err := domain.ValidateMunicipality(party.MunicipalityCode); err != nil {
				fail(rule.role+".municipality_code", err)
			}
		}
	}
	return errs
}

func manifestErrors(p Params) []error {
	var errs []error
	fail := func(field string, err error) { errs = append(errs, &FieldError{Field: field, Err: err}) }
	if p.Route == nil {
		fail("route", domain.ErrMissingField)
	} else {
		if err := domain.ValidateUF(p.Route.LoadingUF); err != nil {
			fail("route.loading_uf", err)
		}
		if err := domain.ValidateUF(p.Route.UnloadingUF); err != nil {
			fail("route.unloading_uf", err)
		}
	}
	if len(p.CarriedKeys) == 0 {
		fail("carried_keys", domain.ErrMissingField)
	}
	for i, k := range p.CarriedKeys {
		_, errNFe := ParseAccessKey(KindNFe, k)
		_, errCTe := ParseAccessKey(KindCTe, k)
		if errNFe != nil && errCTe != nil {
			fail(fmt.Sprintf("carried_keys[%d]", i), errNFe)
		}
	}
	if p.CargoValue.IsNegative() || p.CargoValue.IsZero() {
		fail("cargo_value", domain.ErrInvalidAmount)
	}
	return errs
}
