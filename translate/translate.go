// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package translate formats user visible messages for the current locale.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Fallback is the language used when the locale cannot be determined.
var Fallback = language.AmericanEnglish

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("bpfsim: locale: %v", err)
	}

	SetLocales(locales...)
}

// SetLocales selects the best matching message catalog for the locales.
func SetLocales(locales ...string) {
	if len(locales) == 0 {
		printer = message.NewPrinter(Fallback)
		return
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
