// Package translate formats user-facing messages for the current locale.
package translate

import (
	"log"
	"sync/atomic"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

//go:generate go tool gotext -srclang=en-US update -out=catalog.go -lang=en-US github.com/ezrec/mumips/cmd/mumips

const DEFAULT_LANGUAGE = "en-US"

var printer atomic.Pointer[message.Printer]

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("mumips: locale: %v", err)
	}

	SetLanguage(locales...)
}

// SetLanguage selects the best match among the language tags for all
// subsequent messages. No tags selects DEFAULT_LANGUAGE.
func SetLanguage(tags ...string) {
	if len(tags) == 0 {
		tags = []string{DEFAULT_LANGUAGE}
	}

	printer.Store(message.NewPrinter(message.MatchLanguage(tags...)))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Load().Sprintf(key, args...)
}
