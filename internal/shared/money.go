package shared

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brl = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL renders a monetary value using Brazilian conventions,
// e.g. 1234.5 -> "R$ 1.234,50".
func FormatBRL(value float64) string {
	return brl.Sprintf("R$ %.2f", value)
}
