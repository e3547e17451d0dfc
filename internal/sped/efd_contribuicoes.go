package sped

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"tributa/internal/domain"
)

// contributionsLayout is the EFD Contribuições: blocks 0, A, C, D, F, I, M, P, 1 and 9.
type contributionsLayout struct{}

func (contributionsLayout) needs() need {
	return needInvoices | needPartners | needProducts
}

func (contributionsLayout) registers() []string {
	return []string{
		"0000", "0001", "0100", "0110", "0140", "0150", "0190", "0200", "0990",
		"A001", "A990",
		"C001", "C010", "C100", "C170", "C990",
		"D001", "D990",
		"F001", "F990",
		"I001", "I990",
		"M001", "M100", "M200", "M210", "M500", "M600", "M610", "M990",
		"P001", "P990",
		"1001", "1990",
	}
}

// Contribution codes (COD_CONT) for the basic rates.
const (
	contNonCumulative = "01"
	contCumulative    = "51"
	creditBasicRate   = "101"
)

func (contributionsLayout) header(w *recordWriter, r *run) error {
	org := r.data.org
	if org.CNPJ == "" || org.UF == "" {
		return fmt.Errorf("%w: organization CNPJ and UF", domain.ErrMissingField)
	}
	if !org.ContributionRegime.Valid() {
		return fmt.Errorf("%w: contribution regime %q", domain.ErrInvalidCode, org.ContributionRegime)
	}

	w.begin()
	w.add("0000",
		r.version, string(r.period.Finality), "", r.period.PredecessorHash,
		date(r.start), date(r.end), org.LegalName, org.CNPJ, org.UF, org.MunicipalityCode,
		org.Suframa, "00", activity(org))
	w.add("0001", "0")
	writeAccountant(w, org)

	incidence, cumulative := "1", ""
	if org.ContributionRegime == domain.ContributionCumulative {
		incidence, cumulative = "2", "9"
	}
	w.add("0110", incidence, "1", "1", cumulative)
	w.add("0140", "", org.LegalName, org.CNPJ, org.UF, org.StateRegistration,
		org.MunicipalityCode, org.MunicipalRegistration, org.Suframa)

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
			p.ExTIPI, genre(p.NCM), p.ServiceCode, optAmount(p.ICMSRate))
	}
	w.close("0")
	return nil
}

func (contributionsLayout) blocks(w *recordWriter, r *run) error {
	w.emptyBlock("A")

	w.open("C", len(r.data.invoices) > 0)
	if len(r.data.invoices) > 0 {
		w.add("C010", r.data.org.CNPJ, "2")
		for _, inv := range r.data.invoices {
			writeC100(w, inv)
			if isCancelled(inv) {
				continue
			}
			for _, it := range inv.Items {
				writeC170(w, it)
			}
		}
	}
	w.close("C")

	w.emptyBlock("D")
	w.emptyBlock("F")
	w.emptyBlock("I")
	writeContributionApuration(w, r)
	w.emptyBlock("P")
	w.emptyBlock("1")
	return nil
}

func (contributionsLayout) finish(*recordWriter) error { return nil }

type contributionGroup struct {
	code    string
	rate    decimal.Decimal
	revenue decimal.Decimal
	base    decimal.Decimal
	amount  decimal.Decimal
}

// contributionTally groups one tax (PIS or COFINS) by contribution code and rate.
type contributionTally struct {
	groups       map[string]*contributionGroup
	credits      map[string]*contributionGroup
	nonCumTotal  decimal.Decimal
	cumTotal     decimal.Decimal
	creditsTotal decimal.Decimal
}

type contributionLine struct {
	base   decimal.Decimal
	rate   decimal.Decimal
	amount decimal.Decimal
}

func tallyContribution(r *run, pick func(domain.InvoiceItem) contributionLine) *contributionTally {
	t := &contributionTally{
		groups:  make(map[string]*contributionGroup),
		credits: make(map[string]*contributionGroup),
	}
	code := contNonCumulative
	if r.data.org.ContributionRegime == domain.ContributionCumulative {
		code = contCumulative
	}
	add := func(m map[string]*contributionGroup, code string, line contributionLine, revenue decimal.Decimal) {
		key := code + "|" + line.rate.String()
		g, ok := m[key]
		if !ok {
			g = &contributionGroup{code: code, rate: line.rate}
			m[key] = g
		}
		g.revenue = g.revenue.Add(revenue)
		g.base = g.base.Add(line.base)
		g.amount = g.amount.Add(line.amount)
	}

	for _, inv := range r.data.invoices {
		if isCancelled(inv) {
			continue
		}
		for _, it := range inv.Items {
			line := pick(it)
			if line.amount.IsZero() {
				continue
			}
			switch {
			case inv.Direction == domain.DirectionOutbound:
				add(t.groups, code, line, it.Amount)
				if code == contCumulative {
					t.cumTotal = t.cumTotal.Add(line.amount)
				} else {
					t.nonCumTotal = t.nonCumTotal.Add(line.amount)
				}
			case code == contNonCumulative:
				add(t.credits, creditBasicRate, line, it.Amount)
				t.creditsTotal = t.creditsTotal.Add(line.amount)
			}
		}
	}
	return t
}

func sortedGroups(m map[string]*contributionGroup) []*contributionGroup {
	out := make([]*contributionGroup, 0, len(m))
	for _, g := range m {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].code != out[j].code {
			return out[i].code < out[j].code
		}
		return out[i].rate.LessThan(out[j].rate)
	})
	return out
}

// writeContributionApuration writes block M: credits (M100/M500), the period totals
// (M200/M600) and their per-code detail (M210/M610).
func writeContributionApuration(w *recordWriter, r *run) {
	pis := tallyContribution(r, func(it domain.InvoiceItem) contributionLine {
		return contributionLine{it.PISBase, it.PISRate, it.PISAmount}
	})
	cofins := tallyContribution(r, func(it domain.InvoiceItem) contributionLine {
		return contributionLine{it.COFINSBase, it.COFINSRate, it.COFINSAmount}
	})

	w.open("M", true)
	writeContributionTax(w, "M100", "M200", "M210", pis)
	writeContributionTax(w, "M500", "M600", "M610", cofins)
	w.close("M")
}

func writeContributionTax(w *recordWriter, creditReg, totalReg, detailReg string, t *contributionTally) {
	zero := amount(decimal.Zero)
	deducted := decimal.Min(t.creditsTotal, t.nonCumTotal)

	// credits are consumed in code/rate order until the contribution is covered
	remaining := deducted
	for _, g := range sortedGroups(t.credits) {
		used := decimal.Min(g.amount, remaining)
		remaining = remaining.Sub(used)
		partial := "0"
		if used.LessThan(g.amount) {
			partial = "1"
		}
		w.add(creditReg, g.code, "0", amount(g.base), rate(g.rate), "", "", amount(g.amount),
			zero, zero, zero, amount(g.amount), partial, amount(used), amount(g.amount.Sub(used)))
	}

	nonCumDue := t.nonCumTotal.Sub(deducted)
	w.add(totalReg,
		amount(t.nonCumTotal), amount(deducted), zero, amount(nonCumDue), zero, zero,
		amount(nonCumDue), amount(t.cumTotal), zero, zero, amount(t.cumTotal),
		amount(nonCumDue.Add(t.cumTotal)))

	for _, g := range sortedGroups(t.groups) {
		w.add(detailReg, g.code, amount(g.revenue), amount(g.base), zero, zero, amount(g.base),
			rate(g.rate), "", "", amount(g.amount), zero, zero, zero, zero, amount(g.amount))
	}
}
