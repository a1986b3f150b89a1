package slips

import (
	"context"
	"iter"

	"github.com/mitlibraries/ccslips/pkg/models/domain"
	"github.com/rs/zerolog"
)

// CreditCardAcquisitionMethod is the Alma acquisition method of PO lines
// paid by credit card.
const CreditCardAcquisitionMethod = "PURCHASE_NOLETTER"

type POLineSource interface {
	FundLookup
	GetFullPOLines(ctx context.Context, acquisitionMethod string, date string) iter.Seq2[domain.Record, error]
}

// ProcessPOLines yields one slip per credit card PO line created on date
// (YYYY-MM-DD), in the order Alma lists them. The first error ends the
// sequence.
func ProcessPOLines(ctx context.Context, source POLineSource, date string) iter.Seq2[domain.Slip, error] {
	extractor := NewExtractor(source)

	return func(yield func(domain.Slip, error) bool) {
		logger := zerolog.Ctx(ctx)

		for record, err := range source.GetFullPOLines(ctx, CreditCardAcquisitionMethod, date) {
			if err != nil {
				yield(domain.Slip{}, err)
				return
			}

			slip, err := extractor.Extract(ctx, record)
			if err != nil {
				yield(domain.Slip{}, err)
				return
			}

			number, _ := slip.Get(domain.FieldPOLineNumber)
			logger.Debug().Str("po_line", number).Msg("credit card slip extracted")

			if !yield(slip, nil) {
				return
			}
		}
	}
}
