package domain

// Slip field names. Each one matches the class attribute of the template
// cell the value is written into.
const (
	FieldCardholder    = "cardholder"
	FieldInvoiceNumber = "invoice_number"
	FieldPODate        = "po_date"
	FieldPOLineNumber  = "po_line_number"
	FieldPrice         = "price"
	FieldQuantity      = "quantity"
	FieldItemTitle     = "item_title"
	FieldTotalPrice    = "total_price"
	FieldVendorCode    = "vendor_code"
	FieldVendorName    = "vendor_name"
	FieldAccount1      = "account_1"
	FieldAccount2      = "account_2"
)

// Default values used when the upstream record lacks the source attribute.
const (
	DefaultCardholder = "No cardholder note found"
	DefaultTitle      = "Unknown title"
	DefaultPrice      = "0.00"
	DefaultQuantity   = "0"
	DefaultVendor     = "No vendor found"
	DefaultAccount    = "No fund code found"
)

type Field struct {
	Name  string
	Value string
}

// Slip holds the credit card slip values extracted from one PO line, in
// extraction order.
type Slip struct {
	fields []Field
}

func NewSlip(fields ...Field) Slip {
	return Slip{fields: append([]Field(nil), fields...)}
}

// Fields returns a copy of the slip's fields.
func (s Slip) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

func (s Slip) Get(name string) (string, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

func (s Slip) Len() int {
	return len(s.fields)
}

// Map returns the slip as a name to value map.
func (s Slip) Map() map[string]string {
	m := make(map[string]string, len(s.fields))
	for _, f := range s.fields {
		m[f.Name] = f.Value
	}
	return m
}
