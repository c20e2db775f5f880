package format

import (
	"testing"

	"souqly/internal/model"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		name        string
		price       int64
		listingType string
		want        string
	}{
		{"below threshold", 5000, model.ListingTypeSell, "5,000 DA"},
		{"small amount", 250, model.ListingTypeSell, "250 DA"},
		{"exactly one million", 10000, model.ListingTypeSell, "1 million DA"},
		{"fractional millions", 25000, model.ListingTypeSell, "2.5 million DA"},
		{"ten millions rent", 100000, model.ListingTypeRent, "10 million DA/mo"},
		{"large rounded", 123000, model.ListingTypeSell, "12 million DA"},
		{"rent below threshold", 8000, model.ListingTypeRent, "8,000 DA/mo"},
		{"exchange ignores price", 999999, model.ListingTypeExchange, "Exchange"},
		{"exchange zero price", 0, model.ListingTypeExchange, "Exchange"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatPrice(tt.price, tt.listingType)
			if got != tt.want {
				t.Errorf("FormatPrice(%d, %q) = %q, want %q", tt.price, tt.listingType, got, tt.want)
			}
		})
	}
}
