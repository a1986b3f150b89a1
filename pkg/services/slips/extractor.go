package slips

import (
	"context"
	"strings"
	"time"

	"github.com/mitlibraries/ccslips/pkg/models/api"
	"github.com/mitlibraries/ccslips/pkg/models/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	CardholderNoteMarker = "CC-"
	InvoicePrefix        = "Invoice #: "

	createdDateLayout = "2006-01-02Z"
	slipDateLayout    = "060102"

	// Only the first two fund distributions are mapped to accounts.
	maxAccounts = 2
)

// FundLookup resolves a fund code to the matching fund records.
type FundLookup interface {
	GetFundByCode(ctx context.Context, code string) (*api.Page, error)
}

// Extractor maps full PO line records to credit card slips.
type Extractor struct {
	funds FundLookup
}

func NewExtractor(funds FundLookup) *Extractor {
	return &Extractor{funds: funds}
}

// poLine carries the values several slip fields are derived from.
type poLine struct {
	record    domain.Record
	date      string
	title     string
	unitPrice decimal.Decimal
	funds     []domain.Record
}

type fieldResolver struct {
	name    string
	resolve func(line poLine) (string, error)
}

var fieldResolvers = []fieldResolver{
	{domain.FieldCardholder, cardholder},
	{domain.FieldInvoiceNumber, invoiceNumber},
	{domain.FieldPODate, poDate},
	{domain.FieldPOLineNumber, poLineNumber},
	{domain.FieldPrice, price},
	{domain.FieldQuantity, quantity},
	{domain.FieldItemTitle, itemTitle},
	{domain.FieldTotalPrice, totalPrice},
	{domain.FieldVendorCode, vendorCode},
	{domain.FieldVendorName, vendorName},
}

// Extract builds the slip for one full PO line record. Missing optional
// attributes fall back to their default text; a missing or malformed
// required attribute yields a *FormatError. Fund lookups are the only calls
// made and their transport errors are returned unchanged.
func (e *Extractor) Extract(ctx context.Context, record domain.Record) (domain.Slip, error) {
	line, err := newPOLine(record)
	if err != nil {
		return domain.Slip{}, err
	}

	fields := make([]domain.Field, 0, len(fieldResolvers)+maxAccounts)
	for _, r := range fieldResolvers {
		value, err := r.resolve(line)
		if err != nil {
			return domain.Slip{}, err
		}
		fields = append(fields, domain.Field{Name: r.name, Value: value})
	}

	accounts, err := e.accounts(ctx, line.funds)
	if err != nil {
		return domain.Slip{}, err
	}
	return domain.NewSlip(append(fields, accounts...)...), nil
}

func newPOLine(record domain.Record) (poLine, error) {
	created, ok := record.String("created_date")
	if !ok {
		return poLine{}, missingField("created_date")
	}
	date, err := time.Parse(createdDateLayout, created)
	if err != nil {
		return poLine{}, &FormatError{Field: "created_date", Value: created, Err: err}
	}

	title, ok := record.Object("resource_metadata").String("title")
	if !ok {
		title = domain.DefaultTitle
	}

	unitPrice, err := decimalAttr(record.Object("price"), "sum", "price.sum")
	if err != nil {
		return poLine{}, err
	}

	funds, _ := record.Records("fund_distribution")

	return poLine{
		record:    record,
		date:      date.Format(slipDateLayout),
		title:     title,
		unitPrice: unitPrice,
		funds:     funds,
	}, nil
}

func cardholder(line poLine) (string, error) {
	notes, _ := line.record.Records("note")
	for _, note := range notes {
		text, _ := note.String("note_text")
		if strings.HasPrefix(text, CardholderNoteMarker) {
			return strings.TrimPrefix(text, CardholderNoteMarker), nil
		}
	}
	return domain.DefaultCardholder, nil
}

func invoiceNumber(line poLine) (string, error) {
	letters := []rune(strings.ReplaceAll(line.title, " ", ""))
	if len(letters) > 3 {
		letters = letters[:3]
	}
	return InvoicePrefix + line.date + strings.ToUpper(string(letters)), nil
}

func poDate(line poLine) (string, error) {
	return line.date, nil
}

func poLineNumber(line poLine) (string, error) {
	number, ok := line.record.String("number")
	if !ok {
		return "", missingField("number")
	}
	return number, nil
}

func price(line poLine) (string, error) {
	return formatAmount(line.unitPrice), nil
}

// quantity sums the location quantities. Items without a location are not
// counted, so this can differ from the quantity shown in the Alma UI.
func quantity(line poLine) (string, error) {
	locations, ok := line.record.Records("location")
	if !ok {
		return domain.DefaultQuantity, nil
	}

	total := decimal.Zero
	for _, location := range locations {
		n, ok := location.Number("quantity")
		if !ok {
			continue
		}
		q, err := decimal.NewFromString(n.String())
		if err != nil {
			return "", &FormatError{Field: "location.quantity", Value: n.String(), Err: err}
		}
		total = total.Add(q)
	}
	return total.String(), nil
}

func itemTitle(line poLine) (string, error) {
	return line.title, nil
}

// totalPrice sums the fund distribution amounts and falls back to the unit
// price when that sum is zero.
func totalPrice(line poLine) (string, error) {
	total := decimal.Zero
	for _, fund := range line.funds {
		amount, err := decimalAttr(fund.Object("amount"), "sum", "fund_distribution.amount.sum")
		if err != nil {
			return "", err
		}
		total = total.Add(amount)
	}
	if total.IsZero() {
		total = line.unitPrice
	}
	return formatAmount(total), nil
}

func vendorCode(line poLine) (string, error) {
	if code, ok := line.record.String("vendor_account"); ok {
		return code, nil
	}
	return domain.DefaultVendor, nil
}

func vendorName(line poLine) (string, error) {
	if name, ok := line.record.Object("vendor").String("desc"); ok {
		return name, nil
	}
	return domain.DefaultVendor, nil
}

// accounts maps the first two fund distributions to account_1 and account_2
// by list position. A distribution that cannot be resolved leaves its slot
// out; account_1 is never left out and keeps the default text instead.
func (e *Extractor) accounts(ctx context.Context, funds []domain.Record) ([]domain.Field, error) {
	account1 := domain.Field{Name: domain.FieldAccount1, Value: domain.DefaultAccount}
	if len(funds) == 0 {
		return []domain.Field{account1}, nil
	}

	var resolved []domain.Field
	for i, fund := range funds {
		if i == maxAccounts {
			break
		}
		account, ok, err := e.accountNumber(ctx, fund)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		resolved = append(resolved, domain.Field{Name: accountFieldName(i), Value: account})
	}

	if len(resolved) == 0 || resolved[0].Name != domain.FieldAccount1 {
		resolved = append([]domain.Field{account1}, resolved...)
	}
	return resolved, nil
}

// accountNumber resolves a fund distribution to the external id of its fund.
// ok is false when the distribution has no fund code, no fund matches the
// code, or the fund has no external id.
func (e *Extractor) accountNumber(ctx context.Context, fund domain.Record) (string, bool, error) {
	code, ok := fund.Object("fund_code").String("value")
	if !ok || code == "" {
		return "", false, nil
	}

	page, err := e.funds.GetFundByCode(ctx, code)
	if err != nil {
		return "", false, err
	}
	if len(page.Records) == 0 {
		return "", false, nil
	}
	if len(page.Records) > 1 {
		zerolog.Ctx(ctx).Debug().
			Str("fund_code", code).
			Int("matches", len(page.Records)).
			Msg("multiple funds match code, using the first")
	}

	externalID, ok := page.Records[0].String("external_id")
	if !ok || externalID == "" {
		return "", false, nil
	}
	return externalID, true, nil
}

func accountFieldName(index int) string {
	if index == 0 {
		return domain.FieldAccount1
	}
	return domain.FieldAccount2
}

// decimalAttr reads a monetary amount given either as a string or a JSON
// number. An absent amount is zero.
func decimalAttr(r domain.Record, key, field string) (decimal.Decimal, error) {
	var raw string
	if s, ok := r.String(key); ok {
		raw = s
	} else if n, ok := r.Number(key); ok {
		raw = n.String()
	} else {
		raw = domain.DefaultPrice
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &FormatError{Field: field, Value: raw, Err: err}
	}
	return d, nil
}

func formatAmount(d decimal.Decimal) string {
	return "$" + d.StringFixedBank(2)
}
