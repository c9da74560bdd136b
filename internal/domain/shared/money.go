package shared

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places every stored amount carries.
const MoneyScale int32 = 2

// RoundMoney rounds an amount half away from zero to MoneyScale places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// MinDecimal returns the smaller of a and b.
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// MaxDecimal returns the larger of a and b.
func MaxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Amount is a money value that serialises as a JSON string with MoneyScale places, e.g. "1000.00"
type Amount struct {
	decimal.Decimal
}

// AmountOf wraps d rounded to MoneyScale
func AmountOf(d decimal.Decimal) Amount {
	return Amount{RoundMoney(d)}
}

// MarshalJSON implements json.Marshaler
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.StringFixed(MoneyScale) + `"`), nil
}

// UnmarshalJSON accepts both quoted strings and bare numbers
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}
