package almatest

import "github.com/mitlibraries/ccslips/pkg/models/domain"

const (
	CreditCardMethod = "PURCHASE_NOLETTER"
	FixtureDate      = "2023-01-02"
)

// Fixture records are decoded on every call so tests can modify them freely.

func POLineAllFields() domain.Record {
	return domain.MustDecodeRecord(`{
		"number": "POL-all-fields",
		"status": {"value": "ACTIVE"},
		"acquisition_method": {"value": "PURCHASE_NOLETTER"},
		"created_date": "2023-01-02Z",
		"resource_metadata": {"title": "Book title"},
		"price": {"sum": "12.00", "currency": {"value": "USD"}},
		"vendor": {"value": "CORP", "desc": "Corporation"},
		"vendor_account": "CORP",
		"note": [
			{"note_text": "Not a cardholder note"},
			{"note_text": "CC-cardholder name"}
		],
		"location": [{"quantity": 1}, {"quantity": 2}],
		"fund_distribution": [
			{"fund_code": {"value": "FUND-abc"}, "amount": {"sum": "6.00"}},
			{"fund_code": {"value": "FUND-def"}, "amount": {"sum": "6.00"}}
		]
	}`)
}

func POLineMissingFields() domain.Record {
	return domain.MustDecodeRecord(`{
		"number": "POL-missing-fields",
		"status": {"value": "ACTIVE"},
		"acquisition_method": {"value": "PURCHASE_NOLETTER"},
		"created_date": "2023-01-02Z"
	}`)
}

func POLineWrongDate() domain.Record {
	return domain.MustDecodeRecord(`{
		"number": "POL-wrong-date",
		"status": {"value": "ACTIVE"},
		"acquisition_method": {"value": "PURCHASE_NOLETTER"},
		"created_date": "2023-01-01Z",
		"resource_metadata": {"title": "Another book"},
		"price": {"sum": "5.00"}
	}`)
}

func POLineOtherAcqMethod() domain.Record {
	return domain.MustDecodeRecord(`{
		"number": "POL-other-acq-method",
		"status": {"value": "ACTIVE"},
		"acquisition_method": {"value": "PURCHASE"},
		"created_date": "2023-01-02Z",
		"resource_metadata": {"title": "Not a credit card order"}
	}`)
}

func DefaultPOLines() []domain.Record {
	return []domain.Record{
		POLineAllFields(),
		POLineMissingFields(),
		POLineWrongDate(),
		POLineOtherAcqMethod(),
	}
}

// DefaultFunds holds funds for FUND-abc, FUND-def and FUND-no-external-id,
// plus two funds sharing the code FUND-multi. No fund has the code
// FUND-nothing-here.
func DefaultFunds() []domain.Record {
	return []domain.Record{
		domain.MustDecodeRecord(`{"code": "FUND-abc", "name": "Fund abc", "external_id": "account-abc"}`),
		domain.MustDecodeRecord(`{"code": "FUND-def", "name": "Fund def", "external_id": "account-def"}`),
		domain.MustDecodeRecord(`{"code": "FUND-no-external-id", "name": "No external id"}`),
		domain.MustDecodeRecord(`{"code": "FUND-multi", "name": "Multi one", "external_id": "account-multi-1"}`),
		domain.MustDecodeRecord(`{"code": "FUND-multi", "name": "Multi two", "external_id": "account-multi-2"}`),
	}
}
