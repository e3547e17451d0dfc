package fiscaldoc

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"tributa/internal/money"
	"tributa/internal/tax"
)

// Declaration prefixes every serialized document.
const Declaration = `<?xml version="1.0" encoding="UTF-8"?>`

const layoutVersion = "4.00"

// Payload is a serialized document and the SHA-256 of its bytes.
type Payload struct {
	XML  string `json:"xml"`
	Hash string `json:"hash"`
}

// attr is one attribute of an element.
type attr struct{ name, value string }

// xmlWriter emits markup with every text node and attribute value passed through Escape.
type xmlWriter struct {
	b strings.Builder
}

func (w *xmlWriter) open(name string, attrs ...attr) {
	w.b.WriteByte('<')
	w.b.WriteString(name)
	for _, a := range attrs {
		w.b.WriteByte(' ')
		w.b.WriteString(a.name)
		w.b.WriteString(`="`)
		w.b.WriteString(Escape(a.value))
		w.b.WriteByte('"')
	}
	w.b.WriteByte('>')
}

func (w *xmlWriter) close(name string) {
	w.b.WriteString("</")
	w.b.WriteString(name)
	w.b.WriteByte('>')
}

func (w *xmlWriter) leaf(name, text string) {
	w.open(name)
	w.b.WriteString(Escape(text))
	w.close(name)
}

// optional writes the element only when text is not empty.
func (w *xmlWriter) optional(name, text string) {
	if text != "" {
		w.leaf(name, text)
	}
}

func amount(m money.Money) string { return m.Round().String() }

func rate(p money.Percentage) string { return p.Value().StringFixed(4) }

func timestamp(t time.Time) string { return t.Format("2006-01-02T15:04:05-07:00") }

// Serialize renders the document, stores the payload on it and returns it.
func (d *Document) Serialize() (*Payload, error) {
	w := &xmlWriter{}
	w.b.WriteString(Declaration)
	switch d.kind {
	case KindNFe:
		d.writeNFe(w)
	case KindCTe:
		d.writeCTe(w)
	case KindNFSe:
		d.writeNFSe(w)
	case KindMDFe:
		d.writeMDFe(w)
	default:
		return nil, fmt.Errorf("serialize: unsupported kind %q", d.kind)
	}
	xml := w.b.String()
	sum := sha256.Sum256([]byte(xml))
	d.payload = &Payload{XML: xml, Hash: hex.EncodeToString(sum[:])}
	return d.payload, nil
}

func (d *Document) openRoot(w *xmlWriter) {
	w.open(d.kind.Root(), attr{"xmlns", d.kind.Namespace()})
	w.open(d.kind.InfoElement(),
		attr{"versao", layoutVersion},
		attr{"Id", d.kind.IDPrefix() + d.accessKey.String()})
}

func (d *Document) closeRoot(w *xmlWriter) {
	w.close(d.kind.InfoElement())
	w.close(d.kind.Root())
}

func (d *Document) writeIde(w *xmlWriter, numberTag string) {
	w.open("ide")
	if d.kind != KindNFSe {
		w.leaf("cUF", d.accessKey.String()[:2])
		w.leaf("mod", d.kind.Model())
	}
	w.leaf("serie", fmt.Sprint(d.Series))
	w.leaf(numberTag, fmt.Sprint(d.Number))
	w.leaf("dhEmi", timestamp(d.IssueDate))
	w.leaf("tpAmb", string(d.Environment))
	if d.GovPurchase != nil {
		d.GovPurchase.write(w)
	}
	w.close("ide")
}

func writeAddress(w *xmlWriter, tag string, p Party) {
	w.open(tag)
	w.optional("xLgr", p.Street)
	w.optional("nro", p.Number)
	w.optional("xBairro", p.District)
	w.optional("cMun", p.MunicipalityCode)
	w.optional("xMun", p.Municipality)
	w.optional("UF", p.UF)
	w.optional("CEP", p.ZipCode)
	w.close(tag)
}

func writeParty(w *xmlWriter, tag, addressTag string, p Party) {
	w.open(tag)
	if p.CNPJ != "" {
		w.leaf("CNPJ", p.CNPJ)
	} else {
		w.leaf("CPF", p.CPF)
	}
	w.leaf("xNome", p.Name)
	writeAddress(w, addressTag, p)
	w.optional("IE", p.StateRegistration)
	w.close(tag)
}

func (d *Document) writeNFe(w *xmlWriter) {
	d.openRoot(w)
	d.writeIde(w, "nNF")
	writeParty(w, "emit", "enderEmit", d.Issuer)
	writeParty(w, "dest", "enderDest", *d.Recipient)
	for _, it := range d.Items {
		w.open("det", attr{"nItem", fmt.Sprint(it.Number)})
		w.open("prod")
		w.leaf("cProd", it.Code)
		w.leaf("xProd", it.Description)
		w.optional("NCM", it.NCM)
		w.optional("CFOP", it.CFOP)
		w.optional("uCom", it.Unit)
		w.leaf("qCom", it.Quantity.StringFixed(4))
		w.leaf("vUnCom", it.UnitPrice.Amount().StringFixed(10))
		w.leaf("vProd", amount(it.Total))
		w.close("prod")
		writeItemTaxes(w, it)
		w.close("det")
	}
	t := d.Totals
	w.open("total")
	w.open("ICMSTot")
	w.leaf("vBC", amount(t.ICMSBase))
	w.leaf("vICMS", amount(t.ICMS))
	w.leaf("vBCST", amount(t.STBase))
	w.leaf("vST", amount(t.ICMSST))
	w.leaf("vProd", amount(t.Products))
	w.leaf("vIPI", amount(t.IPI))
	w.leaf("vPIS", amount(t.PIS))
	w.leaf("vCOFINS", amount(t.COFINS))
	w.leaf("vNF", amount(t.Document))
	w.close("ICMSTot")
	w.close("total")
	d.closeRoot(w)
}

func writeItemTaxes(w *xmlWriter, it Item) {
	w.open("imposto")
	if r, ok := it.Taxes.Get(tax.KindICMS); ok {
		w.open("ICMS")
		w.leaf("CST", string(it.Codes.ICMS))
		w.leaf("vBC", amount(r.Base))
		w.leaf("pICMS", rate(r.Rate))
		w.leaf("vICMS", amount(r.Amount))
		if !r.Withheld.IsZero() {
			w.leaf("vBCST", amount(r.WithheldBase))
			w.leaf("vICMSST", amount(r.Withheld))
		}
		w.close("ICMS")
	}
	if r, ok := it.Taxes.Get(tax.KindIPI); ok {
		w.open("IPI")
		w.leaf("CST", string(it.Codes.IPI))
		w.leaf("vBC", amount(r.Base))
		w.leaf("pIPI", rate(r.Rate))
		w.leaf("vIPI", amount(r.Amount))
		w.close("IPI")
	}
	if r, ok := it.Taxes.Get(tax.KindPIS); ok {
		w.open("PIS")
		w.leaf("CST", string(it.Codes.PIS))
		w.leaf("vBC", amount(r.Base))
		w.leaf("pPIS", rate(r.Rate))
		w.leaf("vPIS", amount(r.Amount))
		w.close("PIS")
	}
	if r, ok := it.Taxes.Get(tax.KindCOFINS); ok {
		w.open("COFINS")
		w.leaf("CST", string(it.Codes.COFINS))
		w.leaf("vBC", amount(r.Base))
		w.leaf("pCOFINS", rate(r.Rate))
		w.leaf("vCOFINS", amount(r.Amount))
		w.close("COFINS")
	}
	w.close("imposto")
}

func (d *Document) writeCTe(w *xmlWriter) {
	d.openRoot(w)
	d.writeIde(w, "nCT")
	writeParty(w, "emit", "enderEmit", d.Issuer)
	writeParty(w, "rem", "enderReme", *d.Sender)
	writeParty(w, "dest", "enderDest", *d.Receiver)

	t := d.Totals
	w.open("vPrest")
	w.leaf("vTPrest", amount(t.Products))
	w.leaf("vRec", amount(t.Products))
	for _, it := range d.Items {
		w.open("Comp")
		w.leaf("xNome", it.Description)
		w.leaf("vComp", amount(it.Total))
		w.close("Comp")
	}
	w.close("vPrest")

	w.open("imp")
	w.open("ICMS")
	cst := ""
	if len(d.Items) > 0 {
		cst = string(d.Items[0].Codes.ICMS)
	}
	w.leaf("CST", cst)
	w.leaf("vBC", amount(t.ICMSBase))
	w.leaf("vICMS", amount(t.ICMS))
	w.close("ICMS")
	w.leaf("vTotTrib", amount(sumOrZero(t.ICMS, t.PIS, t.COFINS)))
	w.close("imp")
	d.closeRoot(w)
}

func (d *Document) writeNFSe(w *xmlWriter) {
	d.openRoot(w)
	w.leaf("nNFSe", fmt.Sprint(d.Number))
	writeParty(w, "emit", "enderNac", d.Issuer)
	w.open("valores")
	w.leaf("vLiq", amount(d.Totals.Document))
	w.close("valores")

	w.open("DPS")
	w.open("infDPS")
	d.writeIde(w, "nDPS")
	writeParty(w, "prest", "end", d.Issuer)
	writeParty(w, "toma", "end", *d.Recipient)
	w.open("serv")
	for _, it := range d.Items {
		w.open("cServ")
		w.leaf("cTribNac", it.Code)
		w.leaf("xDescServ", it.Description)
		w.close("cServ")
	}
	w.close("serv")

	t := d.Totals
	w.open("valores")
	w.open("vServPrest")
	w.leaf("vServ", amount(t.Products))
	w.close("vServPrest")
	w.open("trib")
	w.open("tribFed")
	w.open("piscofins")
	cst := ""
	if len(d.Items) > 0 {
		cst = string(d.Items[0].Codes.PIS)
	}
	w.leaf("CST", cst)
	w.leaf("vPis", amount(t.PIS))
	w.leaf("vCofins", amount(t.COFINS))
	w.close("piscofins")
	w.close("tribFed")
	w.close("trib")
	w.close("valores")
	w.close("infDPS")
	w.close("DPS")
	d.closeRoot(w)
}

func (d *Document) writeMDFe(w *xmlWriter) {
	d.openRoot(w)
	w.open("ide")
	w.leaf("cUF", d.accessKey.String()[:2])
	w.leaf("mod", d.kind.Model())
	w.leaf("serie", fmt.Sprint(d.Series))
	w.leaf("nMDF", fmt.Sprint(d.Number))
	w.leaf("dhEmi", timestamp(d.IssueDate))
	w.leaf("tpAmb", string(d.Environment))
	w.leaf("UFIni", d.Route.LoadingUF)
	w.leaf("UFFim", d.Route.UnloadingUF)
	w.close("ide")
	writeParty(w, "emit", "enderEmit", d.Issuer)

	var nfe, cte int
	w.open("infDoc")
	for _, k := range d.CarriedKeys {
		if k.String()[20:22] == KindCTe.Model() {
			cte++
			w.open("infCTe")
			w.leaf("chCTe", k.String())
			w.close("infCTe")
			continue
		}
		nfe++
		w.open("infNFe")
		w.leaf("chNFe", k.String())
		w.close("infNFe")
	}
	w.close("infDoc")

	w.open("tot")
	if cte > 0 {
		w.leaf("qCTe", fmt.Sprint(cte))
	}
	if nfe > 0 {
		w.leaf("qNFe", fmt.Sprint(nfe))
	}
	w.leaf("vCarga", amount(d.Totals.Document))
	w.close("tot")
	d.closeRoot(w)
}

func sumOrZero(values ...money.Money) money.Money {
	sum, err := money.Sum(values...)
	if err != nil {
		return money.Zero(values[0].Currency())
	}
	return sum
}
