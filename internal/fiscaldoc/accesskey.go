package fiscaldoc

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"tributa/internal/domain"
)

var (
	digitsPattern = regexp.MustCompile(`^\d+$`)
	cnpjPattern   = regexp.MustCompile(`^\d{14}$`)
)

// AccessKey identifies an authorized fiscal document.
type AccessKey string

func (k AccessKey) String() string { return string(k) }

// CheckDigit computes the modulo-11 digit over body with weights 2..9 applied from the
// right. Remainders yielding 10 or 11 map to 0.
func CheckDigit(body string) int {
	sum, weight := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	dv := 11 - sum%11
	if dv >= 10 {
		return 0
	}
	return dv
}

// KeyParts are the fields of a 44-digit NF-e, CT-e or MDF-e key.
type KeyParts struct {
	UF       string
	IssuedAt time.Time
	CNPJ     string
	Series   int
	Number   int
	Emission int // tpEmis, 1 = normal
	Code     int // cNF, random 8-digit code chosen by the issuer
}

// NFSeKeyParts are the fields of a 50-digit national NFS-e key.
type NFSeKeyParts struct {
	Municipality string
	Environment  domain.Environment
	// Inscription is a CNPJ (14 digits) or CPF (11 digits, left-padded with zeros).
	Inscription string
	Number      int64
	IssuedAt    time.Time
	Code        int
}

// NewAccessKey composes and check-digits a key for kind.
func NewAccessKey(kind Kind, p KeyParts) (AccessKey, error) {
	if kind == KindNFSe || kind.Model() == "" {
		return "", fmt.Errorf("%w: %s keys are not composed from KeyParts", domain.ErrInvalidAccessKey, kind)
	}
	uf, err := domain.UFNumericCode(p.UF)
	if err != nil {
		return "", err
	}
	if !cnpjPattern.MatchString(p.CNPJ) {
		return "", fmt.Errorf("%w: issuer CNPJ %q", domain.ErrInvalidAccessKey, p.CNPJ)
	}
	if p.Series < 0 || p.Series > 999 || p.Number <= 0 || p.Number > 999999999 || p.Code < 0 || p.Code > 99999999 {
		return "", fmt.Errorf("%w: series/number/code out of range", domain.ErrInvalidAccessKey)
	}
	emission := p.Emission
	if emission == 0 {
		emission = 1
	}
	body := fmt.Sprintf("%s%s%s%s%03d%09d%d%08d",
		uf, p.IssuedAt.Format("0601"), p.CNPJ, kind.Model(), p.Series, p.Number, emission, p.Code)
	return AccessKey(body + strconv.Itoa(CheckDigit(body))), nil
}

// NewNFSeAccessKey composes and check-digits a national NFS-e key.
func NewNFSeAccessKey(p NFSeKeyParts) (AccessKey, error) {
	if err := domain.ValidateMunicipality(p.Municipality); err != nil {
		return "", err
	}
	if !p.Environment.Valid() {
		return "", fmt.Errorf("%w: environment %q", domain.ErrInvalidAccessKey, p.Environment)
	}
	inscriptionType := "2"
	inscription := p.Inscription
	switch len(inscription) {
	case 14:
	case 11:
		inscriptionType = "1"
		inscription = "000" + inscription
	default:
		return "", fmt.Errorf("%w: inscription %q", domain.ErrInvalidAccessKey, p.Inscription)
	}
	if !digitsPattern.MatchString(inscription) || p.Number <= 0 || p.Number > 9999999999999 || p.Code < 0 || p.Code > 999999999 {
		return "", fmt.Errorf("%w: inscription/number/code out of range", domain.ErrInvalidAccessKey)
	}
	body := fmt.Sprintf("%s%s%s%s%013d%s%09d",
		p.Municipality, p.Environment, inscriptionType, inscription, p.Number, p.IssuedAt.Format("0601"), p.Code)
	return AccessKey(body + strconv.Itoa(CheckDigit(body))), nil
}

// ParseAccessKey validates the shape of a key for kind: length, digits only, check digit,
// and for 44-digit keys a known state code and the model matching the kind.
func ParseAccessKey(kind Kind, s string) (AccessKey, error) {
	if _, ok := kinds[kind]; !ok {
		return "", fmt.Errorf("%w: document kind %q", domain.ErrInvalidDocument, kind)
	}
	if len(s) != kind.KeyLength() || !digitsPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %s key must have %d digits", domain.ErrInvalidAccessKey, kind, kind.KeyLength())
	}
	body, dv := s[:len(s)-1], int(s[len(s)-1]-'0')
	if CheckDigit(body) != dv {
		return "", fmt.Errorf("%w: check digit mismatch", domain.ErrInvalidAccessKey)
	}
	if kind == KindNFSe {
		return AccessKey(s), nil
	}
	if _, ok := domain.UFFromNumericCode(s[:2]); !ok {
		return "", fmt.Errorf("%w: unknown state code %s", domain.ErrInvalidAccessKey, s[:2])
	}
	if model := s[20:22]; model != kind.Model() {
		return "", fmt.Errorf("%w: model %s does not match %s", domain.ErrInvalidAccessKey, model, kind)
	}
	return AccessKey(s), nil
}
