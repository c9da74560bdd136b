package dto

import (
	"fmt"

	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// MoneyFormatter renders amounts for display, e.g. "KES 1,234.50".
// The canonical value stays the 2-place decimal string in the amount field;
// display strings are for presentation only.
type MoneyFormatter struct {
	unit    currency.Unit
	printer *message.Printer
	symbol  string
}

// NewMoneyFormatter creates a formatter for an ISO 4217 code and a display language
func NewMoneyFormatter(code string, tag language.Tag) (*MoneyFormatter, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("invalid currency %q: %w", code, err)
	}
	printer := message.NewPrinter(tag)
	return &MoneyFormatter{
		unit:    unit,
		printer: printer,
		symbol:  printer.Sprint(currency.Symbol(unit)),
	}, nil
}

// MustMoneyFormatter is NewMoneyFormatter for known-good codes
func MustMoneyFormatter(code string, tag language.Tag) *MoneyFormatter {
	f, err := NewMoneyFormatter(code, tag)
	if err != nil {
		panic(err)
	}
	return f
}

// Currency returns the ISO code
func (f *MoneyFormatter) Currency() string {
	return f.unit.String()
}

// Format renders d with the currency symbol, grouping and two decimals
func (f *MoneyFormatter) Format(d decimal.Decimal) string {
	value, _ := shared.RoundMoney(d).Float64()
	return f.symbol + " " + f.printer.Sprint(number.Decimal(value, number.Scale(int(shared.MoneyScale))))
}

// FormatAmount is Format for a serialised amount
func (f *MoneyFormatter) FormatAmount(a shared.Amount) string {
	return f.Format(a.Decimal)
}
