package dashboard

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders amounts and counts for display in one locale.
type Formatter struct {
	unit    currency.Unit
	scale   int
	printer *message.Printer
}

// NewFormatter builds a formatter for an ISO 4217 code and a BCP 47 tag.
func NewFormatter(code, locale string) (*Formatter, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("dashboard currency %q: %w", code, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("dashboard locale %q: %w", locale, err)
	}
	return newFormatter(unit, tag), nil
}

// DefaultFormatter formats US dollars in English.
func DefaultFormatter() *Formatter {
	return newFormatter(currency.USD, language.English)
}

func newFormatter(unit currency.Unit, tag language.Tag) *Formatter {
	scale, _ := currency.Standard.Rounding(unit)
	return &Formatter{unit: unit, scale: scale, printer: message.NewPrinter(tag)}
}

// Amount renders v as "<ISO code> <grouped amount>", e.g. "USD 1,234.50".
func (f *Formatter) Amount(v float64) string {
	return f.printer.Sprintf("%s %v", f.unit.String(), number.Decimal(v, number.Scale(f.scale)))
}

// Count renders n with locale digit grouping.
func (f *Formatter) Count(n int) string {
	return f.printer.Sprintf("%d", n)
}
