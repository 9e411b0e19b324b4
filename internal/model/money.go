// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// The storefront prices everything in GBP.
var gbp = message.NewPrinter(language.BritishEnglish)

// FormatAmount renders an amount the way the storefront displays it:
// "Free" for zero, a symbol-prefixed GBP amount otherwise.
func FormatAmount(amount float64) string {
	if amount == 0 {
		return "Free"
	}
	return gbp.Sprint(currency.Symbol(currency.GBP.Amount(amount)))
}

// FormatPrice renders a product's effective price for the catalog.
func FormatPrice(p *Product) string {
	return FormatAmount(p.EffectivePrice())
}
