package export

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/mitlibraries/ccslips/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTemplate(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../../../config/credit_card_slip_template.xml")
	require.NoError(t, err)
	return data
}

func allFieldsSlip(number string) domain.Slip {
	return domain.NewSlip(
		domain.Field{Name: domain.FieldCardholder, Value: "cardholder name"},
		domain.Field{Name: domain.FieldInvoiceNumber, Value: "Invoice #: 230102BOO"},
		domain.Field{Name: domain.FieldPODate, Value: "230102"},
		domain.Field{Name: domain.FieldPOLineNumber, Value: number},
		domain.Field{Name: domain.FieldPrice, Value: "$12.00"},
		domain.Field{Name: domain.FieldQuantity, Value: "3"},
		domain.Field{Name: domain.FieldItemTitle, Value: "Book title"},
		domain.Field{Name: domain.FieldTotalPrice, Value: "$12.00"},
		domain.Field{Name: domain.FieldVendorCode, Value: "CORP"},
		domain.Field{Name: domain.FieldVendorName, Value: "Corporation"},
		domain.Field{Name: domain.FieldAccount1, Value: "account-abc"},
		domain.Field{Name: domain.FieldAccount2, Value: "account-def"},
	)
}

func cellText(t *testing.T, el *etree.Element, class string) string {
	t.Helper()
	cell := el.FindElement(".//td[@class='" + class + "']")
	require.NotNil(t, cell, class)
	return cell.Text()
}

func TestRenderSlips_NoSlips(t *testing.T) {
	r, err := NewRenderer(loadTemplate(t))
	require.NoError(t, err)

	out, err := r.RenderSlips(nil)
	require.NoError(t, err)
	assert.Equal(t, "<html><p>No credit card orders on this date</p></html>", out)
}

func TestRenderSlips_PopulatesAllFields(t *testing.T) {
	r, err := NewRenderer(loadTemplate(t))
	require.NoError(t, err)

	out, err := r.RenderSlips([]domain.Slip{allFieldsSlip("POL-all-fields")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<html><ccslip>"))
	assert.True(t, strings.HasSuffix(out, "</ccslip></html>"))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(out))
	slips := doc.Root().SelectElements("ccslip")
	require.Len(t, slips, 1)

	for _, f := range allFieldsSlip("POL-all-fields").Fields() {
		assert.Equal(t, f.Value, cellText(t, slips[0], f.Name), f.Name)
	}

	// Cells without a matching field keep their template text.
	assert.Equal(t,
		`For Credit Memo #, use Invoice # + CRE (YYMMDD"XXX"CRE)`,
		cellText(t, slips[0], "credit_memo_num"))
}

func TestRender_OneFragmentPerSlipInOrder(t *testing.T) {
	r, err := NewRenderer(loadTemplate(t))
	require.NoError(t, err)

	numbers := []string{"POL-1", "POL-2", "POL-3"}
	var slips []domain.Slip
	for _, n := range numbers {
		slips = append(slips, allFieldsSlip(n))
	}

	out, err := r.RenderSlips(slips)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(out))
	fragments := doc.Root().SelectElements("ccslip")
	require.Len(t, fragments, len(numbers))
	for i, n := range numbers {
		assert.Equal(t, n, cellText(t, fragments[i], domain.FieldPOLineNumber))
	}
}

func TestRender_MissingFieldLeavesCellEmpty(t *testing.T) {
	r, err := NewRenderer(loadTemplate(t))
	require.NoError(t, err)

	slip := domain.NewSlip(
		domain.Field{Name: domain.FieldPOLineNumber, Value: "POL-1"},
		domain.Field{Name: domain.FieldAccount1, Value: domain.DefaultAccount},
	)
	out, count, err := r.Render(func(yield func(domain.Slip, error) bool) {
		yield(slip, nil)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(out))
	fragment := doc.Root().SelectElement("ccslip")
	assert.Equal(t, domain.DefaultAccount, cellText(t, fragment, domain.FieldAccount1))
	assert.Empty(t, cellText(t, fragment, domain.FieldAccount2))
}

func TestRender_EscapesValues(t *testing.T) {
	r, err := NewRenderer([]byte(`<slip><td class="item_title"/></slip>`))
	require.NoError(t, err)

	out, err := r.RenderSlips([]domain.Slip{domain.NewSlip(
		domain.Field{Name: domain.FieldItemTitle, Value: "Fish & <Chips>"},
	)})
	require.NoError(t, err)
	assert.NotContains(t, out, "<Chips>")

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(out))
	assert.Equal(t, "Fish & <Chips>", cellText(t, doc.Root(), domain.FieldItemTitle))
}

func TestRender_DoesNotMutateTemplate(t *testing.T) {
	r, err := NewRenderer(loadTemplate(t))
	require.NoError(t, err)

	_, err = r.RenderSlips([]domain.Slip{allFieldsSlip("POL-1")})
	require.NoError(t, err)

	out, err := r.RenderSlips([]domain.Slip{domain.NewSlip(
		domain.Field{Name: domain.FieldPOLineNumber, Value: "POL-2"},
	)})
	require.NoError(t, err)
	assert.NotContains(t, out, "POL-1")
	assert.NotContains(t, out, "Corporation")
}

func TestRender_SequenceError(t *testing.T) {
	r, err := NewRenderer(loadTemplate(t))
	require.NoError(t, err)

	boom := errors.New("boom")
	_, count, err := r.Render(func(yield func(domain.Slip, error) bool) {
		if !yield(allFieldsSlip("POL-1"), nil) {
			return
		}
		yield(domain.Slip{}, boom)
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, count)
}

func TestNewRenderer_InvalidTemplate(t *testing.T) {
	_, err := NewRenderer([]byte("<ccslip><td>"))
	assert.Error(t, err)

	_, err = NewRenderer([]byte("   "))
	assert.Error(t, err)
}
