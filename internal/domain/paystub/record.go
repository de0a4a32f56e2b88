package paystub

import (
	"strings"

	"github.com/evmosdao/paystub/internal/domain/shared"
	"golang.org/x/text/cases"
)

// Field identifies one of the eight paystub record fields.
// The string value is the wire name used by input collaborators.
type Field string

const (
	FieldName            Field = "name"
	FieldPayPeriodStart  Field = "payPeriodStart"
	FieldPayPeriodEnd    Field = "payPeriodEnd"
	FieldPayDate         Field = "payDate"
	FieldGrossPay        Field = "grossPay"
	FieldYTDGross        Field = "ytdGross"
	FieldTransactionHash Field = "transactionHash"
	FieldSafeURL         Field = "safeUrl"
)

// AllFields returns the record fields in display order
func AllFields() []Field {
	return []Field{
		FieldName,
		FieldPayPeriodStart,
		FieldPayPeriodEnd,
		FieldPayDate,
		FieldGrossPay,
		FieldYTDGross,
		FieldTransactionHash,
		FieldSafeURL,
	}
}

// IsValid checks if the Field is one of the record fields
func (f Field) IsValid() bool {
	switch f {
	case FieldName, FieldPayPeriodStart, FieldPayPeriodEnd, FieldPayDate,
		FieldGrossPay, FieldYTDGross, FieldTransactionHash, FieldSafeURL:
		return true
	}
	return false
}

// String returns the wire name of the field
func (f Field) String() string {
	return string(f)
}

// IsDate returns true for the date-only fields
func (f Field) IsDate() bool {
	return f == FieldPayPeriodStart || f == FieldPayPeriodEnd || f == FieldPayDate
}

// IsAmount returns true for the currency amount fields
func (f Field) IsAmount() bool {
	return f == FieldGrossPay || f == FieldYTDGross
}

var foldedFields = func() map[string]Field {
	m := make(map[string]Field, len(AllFields()))
	for _, f := range AllFields() {
		m[foldFieldName(string(f))] = f
	}
	return m
}()

// foldFieldName folds a field name so "PayDate", "paydate" and "pay_date"
// all resolve to the same field. Casers are stateful, hence one per call.
func foldFieldName(name string) string {
	name = strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(name))
	return cases.Fold().String(name)
}

// ParseField resolves a field name as sent by an input collaborator.
// Matching ignores case and the separators '_', '-' and ' '.
func ParseField(name string) (Field, error) {
	if f, ok := foldedFields[foldFieldName(name)]; ok {
		return f, nil
	}
	return "", shared.NewDomainError(ErrCodeUnknownField, "Unknown paystub field: "+name)
}

// FieldUpdate is the "apply field update" command produced by an input
// collaborator. Value is stored as typed; dates and amounts are interpreted
// by the formatters at display time.
type FieldUpdate struct {
	Field Field
	Value string
}

// Record is one paystub's editable fields. All fields are optional and blank
// by default. It is a flat value object with no identity of its own.
type Record struct {
	Name            string `json:"name" yaml:"name"`
	PayPeriodStart  string `json:"payPeriodStart" yaml:"payPeriodStart"`
	PayPeriodEnd    string `json:"payPeriodEnd" yaml:"payPeriodEnd"`
	PayDate         string `json:"payDate" yaml:"payDate"`
	GrossPay        string `json:"grossPay" yaml:"grossPay"`
	YTDGross        string `json:"ytdGross" yaml:"ytdGross"`
	TransactionHash string `json:"transactionHash" yaml:"transactionHash"`
	SafeURL         string `json:"safeUrl" yaml:"safeUrl"`
}

// NewRecord returns a record with every field blank
func NewRecord() Record {
	return Record{}
}

// Apply replaces exactly one field with the update's value.
// Applying the same update twice yields the same record.
func (r *Record) Apply(u FieldUpdate) error {
	p := r.slot(u.Field)
	if p == nil {
		return shared.NewDomainError(ErrCodeUnknownField, "Unknown paystub field: "+string(u.Field))
	}
	*p = u.Value
	return nil
}

// Get returns the raw value of a field. Unknown fields read as blank.
func (r Record) Get(f Field) string {
	if p := r.slot(f); p != nil {
		return *p
	}
	return ""
}

// Fields returns the raw values keyed by wire name
func (r Record) Fields() map[string]string {
	out := make(map[string]string, len(AllFields()))
	for _, f := range AllFields() {
		out[string(f)] = r.Get(f)
	}
	return out
}

// Updates returns the commands that rebuild this record from a blank one,
// in display order.
func (r Record) Updates() []FieldUpdate {
	updates := make([]FieldUpdate, 0, len(AllFields()))
	for _, f := range AllFields() {
		updates = append(updates, FieldUpdate{Field: f, Value: r.Get(f)})
	}
	return updates
}

// IsBlank returns true if no field carries any text
func (r Record) IsBlank() bool {
	for _, f := range AllFields() {
		if strings.TrimSpace(r.Get(f)) != "" {
			return false
		}
	}
	return true
}

func (r *Record) slot(f Field) *string {
	switch f {
	case FieldName:
		return &r.Name
	case FieldPayPeriodStart:
		return &r.PayPeriodStart
	case FieldPayPeriodEnd:
		return &r.PayPeriodEnd
	case FieldPayDate:
		return &r.PayDate
	case FieldGrossPay:
		return &r.GrossPay
	case FieldYTDGross:
		return &r.YTDGross
	case FieldTransactionHash:
		return &r.TransactionHash
	case FieldSafeURL:
		return &r.SafeURL
	}
	return nil
}
