package models

type Intent string

const (
	IntentPayrollQuery Intent = "payroll_query"
	IntentGeneralChat  Intent = "general_chat"
)

func (i Intent) Valid() bool {
	return i == IntentPayrollQuery || i == IntentGeneralChat
}

// DataType names the payroll field a question asks about. Values outside the
// predefined set are kept verbatim.
type DataType string

const (
	DataTypeNone          DataType = ""
	DataTypeNetPay        DataType = ColumnNetPay
	DataTypeBonus         DataType = ColumnBonus
	DataTypePaymentDate   DataType = ColumnPaymentDate
	DataTypeINSSDeduction DataType = ColumnDeductionsINSS
	DataTypeIRRFDeduction DataType = ColumnDeductionsIRRF
)

// Column reports the payroll column the data type reads, if it is one.
func (d DataType) Column() (string, bool) {
	if d == DataTypeNone || !IsColumn(string(d)) {
		return "", false
	}
	return string(d), true
}

// QueryParameters is the structured form of one user question. Every field
// but Intent is optional.
type QueryParameters struct {
	Intent      Intent   `json:"intent"`
	Name        string   `json:"name,omitempty"`
	Competency  string   `json:"competency,omitempty"`
	DataType    DataType `json:"data_type,omitempty"`
	PeriodStart string   `json:"period_start,omitempty"`
	PeriodEnd   string   `json:"period_end,omitempty"`
}

func (p QueryParameters) HasPeriod() bool {
	return p.PeriodStart != "" && p.PeriodEnd != ""
}

func (p QueryParameters) IsPayrollQuery() bool {
	return p.Intent == IntentPayrollQuery
}
