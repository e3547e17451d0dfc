package sped

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"tributa/internal/domain"
)

// icmsIPILayout is the EFD ICMS/IPI: blocks 0, B, C, D, E, G, H, K, 1 and 9.
type icmsIPILayout struct{}

func (icmsIPILayout) needs() need {
	return needInvoices | needPartners | needProducts | needInventory | needCarryover
}

func (icmsIPILayout) registers() []string {
	return []string{
		"0000", "0001", "0005", "0100", "0150", "0190", "0200", "0990",
		"B001", "B990",
		"C001", "C100", "C170", "C190", "C990",
		"D001", "D990",
		"E001", "E100", "E110", "E500", "E510", "E520", "E990",
		"G001", "G990",
		"H001", "H005", "H010", "H990",
		"K001", "K990",
		"1001", "1010", "1990",
	}
}

func (icmsIPILayout) header(w *recordWriter, r *run) error {
	org := r.data.org
	if org.CNPJ == "" || org.UF == "" {
		return fmt.Errorf("%w: organization CNPJ and UF", domain.ErrMissingField)
	}
	w.begin()
	w.add("0000",
		r.version, string(r.period.Finality), date(r.start), date(r.end),
		org.LegalName, org.CNPJ, "", org.UF, org.StateRegistration, org.MunicipalityCode,
		org.MunicipalRegistration, org.Suframa, profile(org), activity(org))
	w.add("0001", "0")
	w.add("0005", org.TradeName, "", org.Address, "", "", "", org.Phone, "", org.Email)
	writeAccountant(w, org)

	refs, err := resolveReferences(r.data)
	if err != nil {
		return err
	}
	for _, p := range refs.partners {
		writePartner(w, p)
	}
	for _, u := range refs.units {
		w.add("0190", u, unitDescription(u, refs.products))
	}
	for _, p := range refs.products {
		w.add("0200", p.Code, p.Description, p.Barcode, "", p.Unit, p.ItemType, p.NCM,
			p.ExTIPI, genre(p.NCM), p.ServiceCode, optAmount(p.ICMSRate), "")
	}
	w.close("0")
	return nil
}

func profile(org *domain.Organization) string {
	if org.Profile == "" {
		return "A"
	}
	return org.Profile
}

func activity(org *domain.Organization) string {
	if org.ActivityType == "" {
		return "1"
	}
	return org.ActivityType
}

// genre is the NCM chapter (COD_GEN).
func genre(ncm string) string {
	if len(ncm) < 2 {
		return ""
	}
	return ncm[:2]
}

func (icmsIPILayout) blocks(w *recordWriter, r *run) error {
	w.emptyBlock("B")
	writeGoodsMovement(w, r.data.invoices)
	w.emptyBlock("D")
	writeApuration(w, r)
	w.emptyBlock("G")
	writeInventory(w, r.data.inventory)
	w.emptyBlock("K")

	w.open("1", true)
	exports := false
	for _, inv := range r.data.invoices {
		for _, it := range inv.Items {
			if strings.HasPrefix(it.CFOP, "7") {
				exports = true
			}
		}
	}
	w.add("1010", yesNo(exports), "N", "N", "N", "N", "N", "N", "N", "N", "N", "N", "N", "N")
	w.close("1")
	return nil
}

func (icmsIPILayout) finish(*recordWriter) error { return nil }

type analyticKey struct {
	cst, cfop, rate string
}

type analyticTotals struct {
	operation, base, icms, stBase, st, ipi decimal.Decimal
}

// writeGoodsMovement writes block C: C100 per invoice, C170 per item, C190 per
// CST/CFOP/rate combination.
func writeGoodsMovement(w *recordWriter, invoices []domain.FiscalInvoice) {
	w.open("C", len(invoices) > 0)
	for _, inv := range invoices {
		writeC100(w, inv)
		if isCancelled(inv) {
			continue
		}
		// own-issued outbound documents are itemized only in the authorized XML
		if inv.Issuer == domain.IssuerThirdParty || inv.Direction == domain.DirectionInbound {
			for _, it := range inv.Items {
				writeC170(w, it)
			}
		}

		groups := make(map[analyticKey]*analyticTotals)
		var keys []analyticKey
		for _, it := range inv.Items {
			k := analyticKey{it.CSTICMS, it.CFOP, rate(it.ICMSRate)}
			g, ok := groups[k]
			if !ok {
				g = &analyticTotals{}
				groups[k] = g
				keys = append(keys, k)
			}
			g.operation = sum(g.operation, it.Amount, it.STAmount, it.IPIAmount).Sub(it.Discount)
			g.base = g.base.Add(it.ICMSBase)
			g.icms = g.icms.Add(it.ICMSAmount)
			g.stBase = g.stBase.Add(it.STBase)
			g.st = g.st.Add(it.STAmount)
			g.ipi = g.ipi.Add(it.IPIAmount)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].cst != keys[j].cst {
				return keys[i].cst < keys[j].cst
			}
			if keys[i].cfop != keys[j].cfop {
				return keys[i].cfop < keys[j].cfop
			}
			return keys[i].rate < keys[j].rate
		})
		for _, k := range keys {
			g := groups[k]
			w.add("C190", k.cst, k.cfop, k.rate, amount(g.operation), amount(g.base), amount(g.icms),
				amount(g.stBase), amount(g.st), "0,00", amount(g.ipi), "")
		}
	}
	w.close("C")
}

// icmsSummary is the period apuration of ICMS.
type icmsSummary struct {
	debits, credits, previousCredit, payable, carryForward decimal.Decimal
}

func summarizeICMS(invoices []domain.FiscalInvoice, carry *domain.TaxCarryover) icmsSummary {
	var s icmsSummary
	for _, inv := range invoices {
		if isCancelled(inv) {
			continue
		}
		if inv.Direction == domain.DirectionOutbound {
			s.debits = s.debits.Add(inv.ICMSAmount)
		} else {
			s.credits = s.credits.Add(inv.ICMSAmount)
		}
	}
	s.previousCredit = carry.ICMSCredit
	balance := s.debits.Sub(s.credits).Sub(s.previousCredit)
	if balance.IsPositive() {
		s.payable = balance
	} else {
		s.carryForward = balance.Neg()
	}
	return s
}

type ipiKey struct{ cfop, cst string }

// writeApuration writes block E: ICMS (E100/E110) and, for IPI taxpayers, E500/E510/E520.
func writeApuration(w *recordWriter, r *run) {
	w.open("E", true)
	w.add("E100", date(r.start), date(r.end))
	s := summarizeICMS(r.data.invoices, r.data.carryover)
	zero := amount(decimal.Zero)
	w.add("E110",
		amount(s.debits), zero, zero, zero, amount(s.credits), zero, zero, zero,
		amount(s.previousCredit), amount(s.payable), zero, amount(s.payable),
		amount(s.carryForward), zero)

	groups := make(map[ipiKey]*analyticTotals)
	var keys []ipiKey
	var ipiDebit, ipiCredit decimal.Decimal
	for _, inv := range r.data.invoices {
		if isCancelled(inv) {
			continue
		}
		for _, it := range inv.Items {
			if it.CSTIPI == "" {
				continue
			}
			k := ipiKey{it.CFOP, it.CSTIPI}
			g, ok := groups[k]
			if !ok {
				g = &analyticTotals{}
				groups[k] = g
				keys = append(keys, k)
			}
			g.operation = g.operation.Add(it.Amount).Add(it.IPIAmount)
			g.base = g.base.Add(it.IPIBase)
			g.ipi = g.ipi.Add(it.IPIAmount)
			if inv.Direction == domain.DirectionOutbound {
				ipiDebit = ipiDebit.Add(it.IPIAmount)
			} else {
				ipiCredit = ipiCredit.Add(it.IPIAmount)
			}
		}
	}
	if len(keys) > 0 || r.data.org.ActivityType == "0" {
		w.add("E500", "0", date(r.start), date(r.end))
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].cfop != keys[j].cfop {
				return keys[i].cfop < keys[j].cfop
			}
			return keys[i].cst < keys[j].cst
		})
		for _, k := range keys {
			g := groups[k]
			w.add("E510", k.cfop, k.cst, amount(g.operation), amount(g.base), amount(g.ipi))
		}
		prior := r.data.carryover.IPICredit
		balance := ipiDebit.Sub(ipiCredit).Sub(prior)
		payable, creditor := decimal.Zero, decimal.Zero
		if balance.IsPositive() {
			payable = balance
		} else {
			creditor = balance.Neg()
		}
		w.add("E520", amount(prior), amount(ipiDebit), amount(ipiCredit), zero, zero,
			amount(creditor), amount(payable))
	}
	w.close("E")
}

// writeInventory writes block H from the period-end inventory, when there is one.
func writeInventory(w *recordWriter, inv *domain.Inventory) {
	if inv == nil || len(inv.Items) == 0 {
		w.emptyBlock("H")
		return
	}
	w.open("H", true)
	total := decimal.Zero
	for _, it := range inv.Items {
		total = total.Add(it.Total)
	}
	reason := inv.Reason
	if reason == "" {
		reason = "01"
	}
	w.add("H005", date(inv.Date), amount(total), reason)
	for _, it := range inv.Items {
		ownership := it.Ownership
		if ownership == "" {
			ownership = "0"
		}
		w.add("H010", it.ProductCode, it.Unit, quantity(it.Quantity), quantity(it.UnitCost),
			amount(it.Total), ownership, it.PartnerCode, "", it.AccountCode, "")
	}
	w.close("H")
}
