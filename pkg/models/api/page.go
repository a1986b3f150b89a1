package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mitlibraries/ccslips/pkg/models/domain"
)

const TotalRecordCountField = "total_record_count"

var ErrMissingTotalRecordCount = errors.New("response has no total_record_count")

// Page is one response of a paged Alma endpoint. Alma answers with
// {"total_record_count": 0} and no record list when nothing matches.
type Page struct {
	TotalRecordCount int
	Records          []domain.Record
}

// DecodePage decodes a paged response whose records are listed under
// recordField, e.g. "po_line" for acq/po-lines.
func DecodePage(r io.Reader, recordField string) (*Page, error) {
	var envelope map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}

	rawTotal, ok := envelope[TotalRecordCountField]
	if !ok {
		return nil, ErrMissingTotalRecordCount
	}
	var total json.Number
	if err := newDecoder(rawTotal).Decode(&total); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", TotalRecordCountField, err)
	}
	count, err := total.Int64()
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", TotalRecordCountField, total, err)
	}

	page := &Page{TotalRecordCount: int(count)}
	rawRecords, ok := envelope[recordField]
	if !ok {
		return page, nil
	}
	if err := newDecoder(rawRecords).Decode(&page.Records); err != nil {
		return nil, fmt.Errorf("failed to decode %s records: %w", recordField, err)
	}
	return page, nil
}

func newDecoder(raw json.RawMessage) *json.Decoder {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec
}
