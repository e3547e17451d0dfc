package fiscaldoc

import (
	"fmt"
	"strings"

	"tributa/internal/domain"
)

// Kind tags a fiscal document variant.
type Kind string

const (
	KindNFe  Kind = "NFE"  // goods invoice, model 55
	KindCTe  Kind = "CTE"  // transport note, model 57
	KindNFSe Kind = "NFSE" // service invoice, national layout
	KindMDFe Kind = "MDFE" // cargo manifest, model 58
)

type kindInfo struct {
	model     string
	root      string
	info      string
	namespace string
	idPrefix  string
	keyLength int
}

var kinds = map[Kind]kindInfo{
	KindNFe:  {"55", "NFe", "infNFe", "http://www.portalfiscal.inf.br/nfe", "NFe", 44},
	KindCTe:  {"57", "CTe", "infCte", "http://www.portalfiscal.inf.br/cte", "CTe", 44},
	KindNFSe: {"", "NFSe", "infNFSe", "http://www.sped.fazenda.gov.br/nfse", "NFS", 50},
	KindMDFe: {"58", "MDFe", "infMDFe", "http://www.portalfiscal.inf.br/mdfe", "MDFe", 44},
}

// Kinds lists every supported variant.
func Kinds() []Kind { return []Kind{KindNFe, KindCTe, KindNFSe, KindMDFe} }

// ParseKind accepts the kind name in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := kinds[k]; !ok {
		return "", fmt.Errorf("%w: document kind %q", domain.ErrInvalidDocument, s)
	}
	return k, nil
}

// KindFromRoot maps an XML root element name to its kind.
func KindFromRoot(root string) (Kind, bool) {
	for k, info := range kinds {
		if info.root == root {
			return k, true
		}
	}
	return "", false
}

func (k Kind) Model() string       { return kinds[k].model }
func (k Kind) Root() string        { return kinds[k].root }
func (k Kind) InfoElement() string { return kinds[k].info }
func (k Kind) Namespace() string   { return kinds[k].namespace }
func (k Kind) IDPrefix() string    { return kinds[k].idPrefix }
func (k Kind) KeyLength() int      { return kinds[k].keyLength }

// HasTaxBlock reports whether the kind carries per-document tax figures.
func (k Kind) HasTaxBlock() bool { return k != KindMDFe }
