// Package money formata valores em won para exibição
package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Korean)

// FormatWon formata 1000 como "1,000원"
func FormatWon(amount int64) string {
	return printer.Sprintf("%d원", amount)
}
