package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Monetary columns are persisted as integers of ten-thousandths.
const amountScale = 4

// Amount is an exact monetary value. An Amount that is not Valid is a
// missing value and is stored as NULL.
type Amount struct {
	decimal.Decimal
	Valid bool
}

func NewAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount{Decimal: d, Valid: true}, nil
}

func MustAmount(s string) Amount {
	a, err := NewAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AmountFromUnits converts a stored integer back into an Amount.
func AmountFromUnits(units int64) Amount {
	return Amount{Decimal: decimal.New(units, -amountScale), Valid: true}
}

// Null returns the amount as a decimal.NullDecimal.
func (a Amount) Null() decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: a.Decimal, Valid: a.Valid}
}

func (a Amount) Units() int64 {
	return a.Decimal.Shift(amountScale).Round(0).IntPart()
}

func (a Amount) Value() (driver.Value, error) {
	if !a.Valid {
		return nil, nil
	}
	return a.Units(), nil
}

func (a *Amount) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*a = Amount{}
	case int64:
		*a = AmountFromUnits(v)
	case float64:
		*a = AmountFromUnits(int64(v))
	case []byte:
		return a.scanText(string(v))
	case string:
		return a.scanText(v)
	default:
		return fmt.Errorf("cannot scan %T into Amount", value)
	}
	return nil
}

func (a *Amount) scanText(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	*a = AmountFromUnits(d.IntPart())
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return a.Decimal.MarshalJSON()
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Amount{}
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*a = Amount{Decimal: d, Valid: true}
	return nil
}

func (Amount) GormDataType() string {
	return "integer"
}

// PayrollRecord is one payroll row for an employee in a competency (YYYY-MM).
type PayrollRecord struct {
	Seq            int    `gorm:"primaryKey;autoIncrement:false" json:"-"`
	EmployeeID     string `gorm:"not null;uniqueIndex:idx_employee_competency" json:"employee_id"`
	Name           string `gorm:"not null;index" json:"name"`
	Competency     string `gorm:"not null;uniqueIndex:idx_employee_competency;index" json:"competency"`
	BaseSalary     Amount `json:"base_salary"`
	Bonus          Amount `json:"bonus"`
	NetPay         Amount `json:"net_pay"`
	DeductionsINSS Amount `gorm:"column:deductions_inss" json:"deductions_inss"`
	DeductionsIRRF Amount `gorm:"column:deductions_irrf" json:"deductions_irrf"`
	PaymentDate    string `json:"payment_date"` // YYYY-MM-DD
}

func (PayrollRecord) TableName() string {
	return "payroll"
}

// Column names of the payroll table, in load order.
const (
	ColumnEmployeeID     = "employee_id"
	ColumnName           = "name"
	ColumnCompetency     = "competency"
	ColumnBaseSalary     = "base_salary"
	ColumnBonus          = "bonus"
	ColumnNetPay         = "net_pay"
	ColumnDeductionsINSS = "deductions_inss"
	ColumnDeductionsIRRF = "deductions_irrf"
	ColumnPaymentDate    = "payment_date"
)

var Columns = []string{
	ColumnEmployeeID,
	ColumnName,
	ColumnCompetency,
	ColumnBaseSalary,
	ColumnBonus,
	ColumnNetPay,
	ColumnDeductionsINSS,
	ColumnDeductionsIRRF,
	ColumnPaymentDate,
}

func IsColumn(name string) bool {
	for _, c := range Columns {
		if c == name {
			return true
		}
	}
	return false
}

func IsMonetaryColumn(name string) bool {
	switch name {
	case ColumnBaseSalary, ColumnBonus, ColumnNetPay, ColumnDeductionsINSS, ColumnDeductionsIRRF:
		return true
	}
	return false
}

// ColumnValue returns the typed value of a column: Amount for monetary
// columns, string otherwise.
func (r PayrollRecord) ColumnValue(column string) (interface{}, bool) {
	switch column {
	case ColumnEmployeeID:
		return r.EmployeeID, true
	case ColumnName:
		return r.Name, true
	case ColumnCompetency:
		return r.Competency, true
	case ColumnBaseSalary:
		return r.BaseSalary, true
	case ColumnBonus:
		return r.Bonus, true
	case ColumnNetPay:
		return r.NetPay, true
	case ColumnDeductionsINSS:
		return r.DeductionsINSS, true
	case ColumnDeductionsIRRF:
		return r.DeductionsIRRF, true
	case ColumnPaymentDate:
		return r.PaymentDate, true
	}
	return nil, false
}

// Citation identifies the row an answer was computed from.
type Citation struct {
	EmployeeID string `json:"employee_id"`
	Competency string `json:"competency"`
}

func (c Citation) String() string {
	return c.EmployeeID + ", " + c.Competency
}

// Evidence lists the rows backing a computed answer.
type Evidence []Citation

func CiteRecord(r PayrollRecord) Citation {
	return Citation{EmployeeID: r.EmployeeID, Competency: r.Competency}
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
