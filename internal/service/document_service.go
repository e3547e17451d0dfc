package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tributa/internal/domain"
	"tributa/internal/fiscaldoc"
	"tributa/internal/tax"
	"tributa/internal/validator"
)

// IssueItem is a document line plus the taxes to compute over its total. Items without
// TaxInput keep the tax results they carry.
type IssueItem struct {
	fiscaldoc.Item
	TaxInput *tax.AggregateInput `json:"tax_input,omitempty"`
}

// IssueRequest builds one fiscal document. When AccessKey is empty it is composed from the
// issuer, number, series, issue date and KeyCode.
type IssueRequest struct {
	fiscaldoc.Params
	Items   []IssueItem `json:"items"`
	KeyCode int         `json:"key_code"`
}

// IssueResult is a serialized document and its structural validation.
type IssueResult struct {
	Kind        fiscaldoc.Kind    `json:"kind"`
	AccessKey   string            `json:"access_key"`
	IdentityKey string            `json:"identity_key"`
	Totals      fiscaldoc.Totals  `json:"totals"`
	XML         string            `json:"xml"`
	Hash        string            `json:"hash"`
	Validation  *validator.Report `json:"validation"`
}

// DocumentService issues and validates fiscal XML documents.
type DocumentService interface {
	Issue(ctx context.Context, req IssueRequest) (*IssueResult, error)
	Validate(ctx context.Context, payload []byte) (*validator.Report, error)
}

type documentService struct {
	calc   *tax.Calculator
	engine *validator.Engine
	logger *zap.Logger
}

// NewDocumentService creates a new DocumentService implementation.
func NewDocumentService(calc *tax.Calculator, engine *validator.Engine, logger *zap.Logger) DocumentService {
	return &documentService{calc: calc, engine: engine, logger: logger}
}

func (s *documentService) Issue(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	params := req.Params
	params.Items = make([]fiscaldoc.Item, len(req.Items))
	for i, it := range req.Items {
		item := it.Item
		if it.TaxInput != nil {
			res, err := s.calc.Aggregate(it.TaxInput.WithBase(item.Total))
			if err != nil {
				return nil, &fiscaldoc.FieldError{Field: fmt.Sprintf("items[%d].tax_input", i), Err: err}
			}
			codes, err := reconcileCodes(item.Codes, it.TaxInput)
			if err != nil {
				return nil, &fiscaldoc.FieldError{Field: fmt.Sprintf("items[%d].codes", i), Err: err}
			}
			item.Codes = codes
			item.Taxes = res
		}
		params.Items[i] = item
	}

	if params.AccessKey == "" {
		key, err := composeKey(params, req.KeyCode)
		if err != nil {
			return nil, &fiscaldoc.FieldError{Field: "access_key", Err: err}
		}
		params.AccessKey = key.String()
	}

	doc, err := fiscaldoc.New(params)
	if err != nil {
		return nil, err
	}
	payload, err := doc.Serialize()
	if err != nil {
		return nil, err
	}
	report, err := s.engine.Validate(ctx, []byte(payload.XML))
	if err != nil {
		return nil, err
	}

	s.logger.Info("fiscal document issued",
		zap.String("kind", string(doc.Kind())),
		zap.String("access_key", doc.AccessKey().String()),
		zap.String("hash", payload.Hash),
		zap.String("validation", string(report.ValidationStatus)),
	)
	return &IssueResult{
		Kind:        doc.Kind(),
		AccessKey:   doc.AccessKey().String(),
		IdentityKey: doc.IdentityKey(),
		Totals:      doc.Totals,
		XML:         payload.XML,
		Hash:        payload.Hash,
		Validation:  report,
	}, nil
}

// reconcileCodes fills the item's codes from the computed taxes. A code the caller set
// must equal the one the tax was computed under.
func reconcileCodes(codes fiscaldoc.TaxCodes, in *tax.AggregateInput) (fiscaldoc.TaxCodes, error) {
	pick := func(kind tax.Kind, have, computed string) (string, error) {
		if have != "" && strings.TrimSpace(have) != strings.TrimSpace(computed) {
			return "", fmt.Errorf("%w: %s code %q does not match computed code %q", domain.ErrInvalidCode, kind, have, computed)
		}
		return strings.TrimSpace(computed), nil
	}
	var err error
	var c string
	if in.ICMS != nil {
		if c, err = pick(tax.KindICMS, string(codes.ICMS), string(in.ICMS.Code)); err != nil {
			return codes, err
		}
		codes.ICMS = domain.ICMSCode(c)
	}
	if in.IPI != nil {
		if c, err = pick(tax.KindIPI, string(codes.IPI), string(in.IPI.Code)); err != nil {
			return codes, err
		}
		codes.IPI = domain.IPICode(c)
	}
	if in.PIS != nil {
		if c, err = pick(tax.KindPIS, string(codes.PIS), string(in.PIS.Code)); err != nil {
			return codes, err
		}
		codes.PIS = domain.ContributionCode(c)
	}
	if in.COFINS != nil {
		if c, err = pick(tax.KindCOFINS, string(codes.COFINS), string(in.COFINS.Code)); err != nil {
			return codes, err
		}
		codes.COFINS = domain.ContributionCode(c)
	}
	return codes, nil
}

func composeKey(p fiscaldoc.Params, code int) (fiscaldoc.AccessKey, error) {
	if p.Kind == fiscaldoc.KindNFSe {
		inscription := p.Issuer.CNPJ
		if inscription == "" {
			inscription = p.Issuer.CPF
		}
		return fiscaldoc.NewNFSeAccessKey(fiscaldoc.NFSeKeyParts{
			Municipality: p.Issuer.MunicipalityCode,
			Environment:  p.Environment,
			Inscription:  inscription,
			Number:       p.Number,
			IssuedAt:     p.IssueDate,
			Code:         code,
		})
	}
	if _, err := fiscaldoc.ParseKind(string(p.Kind)); err != nil {
		return "", err
	}
	if p.Number > 999999999 {
		return "", fmt.Errorf("%w: number %d", domain.ErrInvalidAccessKey, p.Number)
	}
	return fiscaldoc.NewAccessKey(p.Kind, fiscaldoc.KeyParts{
		UF:       p.Issuer.UF,
		IssuedAt: p.IssueDate,
		CNPJ:     p.Issuer.CNPJ,
		Series:   p.Series,
		Number:   int(p.Number),
		Code:     code,
	})
}

func (s *documentService) Validate(ctx context.Context, payload []byte) (*validator.Report, error) {
	return s.engine.Validate(ctx, payload)
}
