package sped

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"tributa/internal/domain"
)

// corporateLayout is the ECD: blocks 0, I, J and 9.
type corporateLayout struct{}

func (corporateLayout) needs() need {
	return needAccounts | needBalances | needEntries | needStatements
}

func (corporateLayout) registers() []string {
	return []string{
		"0000", "0001", "0990",
		"I001", "I010", "I030", "I050", "I051", "I150", "I155", "I200", "I250", "I350", "I355", "I990",
		"J001", "J005", "J100", "J150", "J900", "J930", "J990",
	}
}

// Record/field positions patched with the final line count (QTD_LIN).
const (
	i030LineField = 3
	j900LineField = 4
)

func (corporateLayout) header(w *recordWriter, r *run) error {
	org := r.data.org
	if org.CNPJ == "" || org.UF == "" {
		return fmt.Errorf("%w: organization CNPJ and UF", domain.ErrMissingField)
	}
	nire := "0"
	if org.NIRE != "" {
		nire = "1"
	}
	w.begin()
	w.add("0000",
		"LECD", date(r.start), date(r.end), org.LegalName, org.CNPJ, org.UF,
		org.StateRegistration, org.MunicipalityCode, org.MunicipalRegistration, "", "0", nire,
		string(r.period.Finality), r.period.PredecessorHash, "0", "0", "", "N", "N", "0", "0", "1")
	w.add("0001", "0")
	w.close("0")
	return nil
}

func (corporateLayout) blocks(w *recordWriter, r *run) error {
	if err := writeLedger(w, r); err != nil {
		return err
	}
	writeStatements(w, r)
	return nil
}

// finish fills QTD_LIN of the opening (I030) and closing (J900) terms.
func (corporateLayout) finish(w *recordWriter) error {
	total := strconv.Itoa(w.lines())
	var patched int
	for i, rec := range w.records {
		switch rec.reg {
		case "I030":
			w.set(i, i030LineField, total)
			patched++
		case "J900":
			w.set(i, j900LineField, total)
			patched++
		}
	}
	if patched != 2 {
		return fmt.Errorf("expected opening and closing terms, found %d", patched)
	}
	return nil
}

// writeLedger writes block I: terms, chart of accounts, monthly balances, journal and
// result-closing balances.
func writeLedger(w *recordWriter, r *run) error {
	org := r.data.org
	w.open("I", true)
	w.add("I010", "G", r.version)
	w.add("I030", "TERMO DE ABERTURA", "1", "DIARIO GERAL", "", org.LegalName, org.NIRE,
		org.CNPJ, "", "", "", date(r.end))

	known := make(map[string]domain.Account, len(r.data.accounts))
	accounts := append([]domain.Account(nil), r.data.accounts...)
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })
	for _, a := range accounts {
		known[a.Code] = a
		created := a.CreatedOn
		if created.IsZero() {
			created = r.start
		}
		w.add("I050", date(created), a.Nature, a.Kind, strconv.Itoa(a.Level), a.Code, a.ParentCode, a.Name)
		if a.Kind == "A" && a.ReferentialCode != "" {
			w.add("I051", "", a.ReferentialCode)
		}
	}

	if err := writeBalances(w, r.data.balances, known); err != nil {
		return err
	}
	if err := writeJournal(w, r.data.entries, known); err != nil {
		return err
	}
	writeResultClosing(w, r)
	w.close("I")
	return nil
}

func writeBalances(w *recordWriter, balances []domain.AccountBalance, known map[string]domain.Account) error {
	type month struct{ start, end time.Time }
	byMonth := make(map[month][]domain.AccountBalance)
	var months []month
	for _, b := range balances {
		if _, ok := known[b.AccountCode]; !ok {
			return fmt.Errorf("%w: account %q referenced by balance", domain.ErrMissingField, b.AccountCode)
		}
		m := month{b.PeriodStart, b.PeriodEnd}
		if _, ok := byMonth[m]; !ok {
			months = append(months, m)
		}
		byMonth[m] = append(byMonth[m], b)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].start.Before(months[j].start) })
	for _, m := range months {
		w.add("I150", date(m.start), date(m.end))
		lines := byMonth[m]
		sort.Slice(lines, func(i, j int) bool { return lines[i].AccountCode < lines[j].AccountCode })
		for _, b := range lines {
			w.add("I155", b.AccountCode, "", amount(b.Opening), side(b.OpeningSide),
				amount(b.Debits), amount(b.Credits), amount(b.Closing), side(b.ClosingSide))
		}
	}
	return nil
}

func writeJournal(w *recordWriter, entries []domain.JournalEntry, known map[string]domain.Account) error {
	sorted := append([]domain.JournalEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	for _, e := range sorted {
		kind := e.Kind
		if kind == "" {
			kind = "N"
		}
		w.add("I200", e.Number, date(e.Date), amount(e.Amount), kind, "")
		for _, l := range e.Lines {
			if _, ok := known[l.AccountCode]; !ok {
				return fmt.Errorf("%w: account %q referenced by entry %s", domain.ErrMissingField, l.AccountCode, e.Number)
			}
			w.add("I250", l.AccountCode, "", amount(l.Amount), side(l.Side), l.DocumentRef, "", l.History, l.PartnerCode)
		}
	}
	return nil
}

// writeResultClosing writes I350/I355 with the result accounts balances before closing.
func writeResultClosing(w *recordWriter, r *run) {
	var closing []domain.AccountBalance
	for _, b := range r.data.balances {
		if b.ResultClosed {
			closing = append(closing, b)
		}
	}
	if len(closing) == 0 {
		return
	}
	sort.Slice(closing, func(i, j int) bool { return closing[i].AccountCode < closing[j].AccountCode })
	w.add("I350", date(r.end))
	for _, b := range closing {
		w.add("I355", b.AccountCode, "", amount(b.Closing), side(b.ClosingSide))
	}
}

// writeStatements writes block J: balance sheet, income statement and the closing term.
func writeStatements(w *recordWriter, r *run) {
	org := r.data.org
	st := r.data.statements
	w.open("J", true)
	w.add("J005", date(r.start), date(r.end), "1", "")
	for _, l := range st.BalanceSheet {
		w.add("J100", l.Code, statementKind(l.Kind), strconv.Itoa(l.Level), "", l.Group,
			l.Description, "", "", amount(l.Amount), side(l.Side), "")
	}
	for i, l := range st.IncomeStatement {
		w.add("J150", strconv.Itoa(i+1), l.Code, statementKind(l.Kind), strconv.Itoa(l.Level), "",
			l.Description, "", "", amount(l.Amount), side(l.Side), l.Group, "")
	}
	w.add("J900", "TERMO DE ENCERRAMENTO", "1", "DIARIO GERAL", org.LegalName, "",
		date(r.start), date(r.end))
	if org.AccountantName != "" {
		w.add("J930", org.AccountantName, org.AccountantCPF, "Contador", "900", org.AccountantCRC,
			org.Email, org.Phone, org.UF, "", "", "N")
	}
	w.close("J")
}

func statementKind(k string) string {
	if k == "" {
		return "D"
	}
	return k
}
