package sped

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"tributa/internal/domain"
)

// cancelled situations (COD_SIT) carry only identification fields.
var cancelledSituations = map[string]bool{"02": true, "03": true, "04": true, "05": true}

func situation(inv domain.FiscalInvoice) string {
	if inv.Status == "" {
		return "00"
	}
	return inv.Status
}

func isCancelled(inv domain.FiscalInvoice) bool { return cancelledSituations[situation(inv)] }

// references resolves the partners, products and units the invoices and inventory use,
// in code order. Unknown codes are reported as missing data.
type references struct {
	partners []domain.Partner
	products []domain.Product
	units    []string
}

func resolveReferences(ds *dataset) (*references, error) {
	partners := make(map[string]domain.Partner, len(ds.partners))
	for _, p := range ds.partners {
		partners[p.Code] = p
	}
	products := make(map[string]domain.Product, len(ds.products))
	for _, p := range ds.products {
		products[p.Code] = p
	}

	usedPartners := make(map[string]bool)
	usedProducts := make(map[string]bool)
	usedUnits := make(map[string]bool)

	usePartner := func(code, owner string) error {
		if code == "" {
			return nil
		}
		if _, ok := partners[code]; !ok {
			return fmt.Errorf("%w: partner %q referenced by %s", domain.ErrMissingField, code, owner)
		}
		usedPartners[code] = true
		return nil
	}
	useProduct := func(code, unit, owner string) error {
		p, ok := products[code]
		if !ok {
			return fmt.Errorf("%w: product %q referenced by %s", domain.ErrMissingField, code, owner)
		}
		usedProducts[code] = true
		if p.Unit != "" {
			usedUnits[p.Unit] = true
		}
		if unit != "" {
			usedUnits[unit] = true
		}
		return nil
	}

	for _, inv := range ds.invoices {
		if isCancelled(inv) {
			continue
		}
		owner := "invoice " + inv.Number
		if err := usePartner(inv.PartnerCode, owner); err != nil {
			return nil, err
		}
		for _, it := range inv.Items {
			if err := useProduct(it.ProductCode, it.Unit, owner); err != nil {
				return nil, err
			}
		}
	}
	if ds.inventory != nil {
		for _, it := range ds.inventory.Items {
			if err := useProduct(it.ProductCode, it.Unit, "inventory"); err != nil {
				return nil, err
			}
			if err := usePartner(it.PartnerCode, "inventory"); err != nil {
				return nil, err
			}
		}
	}

	refs := &references{}
	for code := range usedPartners {
		refs.partners = append(refs.partners, partners[code])
	}
	sort.Slice(refs.partners, func(i, j int) bool { return refs.partners[i].Code < refs.partners[j].Code })
	for code := range usedProducts {
		refs.products = append(refs.products, products[code])
	}
	sort.Slice(refs.products, func(i, j int) bool { return refs.products[i].Code < refs.products[j].Code })
	for u := range usedUnits {
		refs.units = append(refs.units, u)
	}
	sort.Strings(refs.units)
	return refs, nil
}

func writePartner(w *recordWriter, p domain.Partner) {
	country := p.CountryCode
	if country == "" {
		country = "01058"
	}
	w.add("0150", p.Code, p.Name, country, p.CNPJ, p.CPF, p.StateRegistration,
		p.MunicipalityCode, p.Suframa, p.Street, p.Number, p.Complement, p.District)
}

func unitDescription(unit string, products []domain.Product) string {
	for _, p := range products {
		if p.Unit == unit && p.UnitDescription != "" {
			return p.UnitDescription
		}
	}
	return unit
}

func writeAccountant(w *recordWriter, org *domain.Organization) {
	if org.AccountantName == "" {
		return
	}
	w.add("0100", org.AccountantName, org.AccountantCPF, org.AccountantCRC, "",
		"", "", "", "", "", "", "", "", "")
}

// writeC100 writes the document record; cancelled documents keep identification only.
func writeC100(w *recordWriter, inv domain.FiscalInvoice) {
	if isCancelled(inv) {
		w.add("C100", string(inv.Direction), string(inv.Issuer), "", inv.Model, situation(inv),
			inv.Series, inv.Number, inv.AccessKey,
			"", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "")
		return
	}
	w.add("C100",
		string(inv.Direction), string(inv.Issuer), inv.PartnerCode, inv.Model, situation(inv),
		inv.Series, inv.Number, inv.AccessKey, date(inv.IssueDate), date(inv.EntryDate),
		amount(inv.Total), inv.PaymentKind, amount(inv.Discount), "", amount(inv.GoodsTotal),
		inv.FreightKind, amount(inv.Freight), amount(inv.Insurance), amount(inv.OtherCharges),
		amount(inv.ICMSBase), amount(inv.ICMSAmount), amount(inv.STBase), amount(inv.STAmount),
		amount(inv.IPIAmount), amount(inv.PISAmount), amount(inv.COFINSAmount), "", "")
}

func writeC170(w *recordWriter, it domain.InvoiceItem) {
	w.add("C170",
		fmt.Sprint(it.Number), it.ProductCode, it.Description, quantity(it.Quantity), it.Unit,
		amount(it.Amount), amount(it.Discount), "0", it.CSTICMS, it.CFOP, "",
		amount(it.ICMSBase), rate(it.ICMSRate), amount(it.ICMSAmount),
		amount(it.STBase), rate(it.STRate), amount(it.STAmount),
		"0", it.CSTIPI, "", amount(it.IPIBase), rate(it.IPIRate), amount(it.IPIAmount),
		it.CSTPIS, amount(it.PISBase), rate(it.PISRate), "", "", amount(it.PISAmount),
		it.CSTCOFINS, amount(it.COFINSBase), rate(it.COFINSRate), "", "", amount(it.COFINSAmount),
		it.AccountCode, "")
}

func sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
