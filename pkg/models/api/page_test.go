package api

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		total   int
		records int
		wantErr error
	}{
		{
			name:    "records present",
			body:    `{"po_line": [{"number": "POL-1"}, {"number": "POL-2"}], "total_record_count": 5}`,
			total:   5,
			records: 2,
		},
		{
			name:  "no record list when nothing matches",
			body:  `{"total_record_count": 0}`,
			total: 0,
		},
		{
			name:    "missing total",
			body:    `{"po_line": []}`,
			wantErr: ErrMissingTotalRecordCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := DecodePage(strings.NewReader(tt.body), "po_line")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.total, page.TotalRecordCount)
			assert.Len(t, page.Records, tt.records)
		})
	}
}

func TestDecodePage_NumbersStayExact(t *testing.T) {
	page, err := DecodePage(strings.NewReader(
		`{"fund": [{"amount": 0.10}], "total_record_count": 1}`), "fund")
	require.NoError(t, err)
	require.Len(t, page.Records, 1)

	n, ok := page.Records[0].Number("amount")
	require.True(t, ok)
	assert.Equal(t, json.Number("0.10"), n)
}

func TestDecodePage_InvalidBody(t *testing.T) {
	_, err := DecodePage(strings.NewReader(`[]`), "po_line")
	assert.Error(t, err)

	_, err = DecodePage(strings.NewReader(`{"total_record_count": "many"}`), "po_line")
	assert.Error(t, err)
}
