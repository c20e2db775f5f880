package format

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"souqly/internal/model"
)

// millionUnit is the domain scaling: 10,000 stored units display as
// "1 million". This is the app's own convention, not a currency
// conversion.
const millionUnit = 10000

var pricePrinter = message.NewPrinter(language.English)

// FormatPrice renders a stored price for display.
//
// Exchange listings always render as the literal "Exchange". Rent
// listings carry a "/mo" suffix. At or above the million threshold the
// value is scaled: whole results show as integers, results of ten or
// more round to an integer, smaller results keep one decimal.
func FormatPrice(price int64, listingType string) string {
	if listingType == model.ListingTypeExchange {
		return "Exchange"
	}

	suffix := ""
	if listingType == model.ListingTypeRent {
		suffix = "/mo"
	}

	if price >= millionUnit {
		m := float64(price) / millionUnit
		switch {
		case m == math.Trunc(m):
			return fmt.Sprintf("%d million DA%s", int64(m), suffix)
		case m >= 10:
			return fmt.Sprintf("%.0f million DA%s", m, suffix)
		default:
			return fmt.Sprintf("%.1f million DA%s", m, suffix)
		}
	}

	return pricePrinter.Sprintf("%d DA%s", price, suffix)
}
