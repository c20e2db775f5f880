package model

import (
	"errors"
	"time"
)

// Listing types supported by the marketplace.
const (
	ListingTypeSell     = "sell"
	ListingTypeRent     = "rent"
	ListingTypeExchange = "exchange"
)

// Feed type filters. FilterAll is the identity filter.
const (
	FilterAll      = "All"
	FilterSell     = "Sell"
	FilterRent     = "Rent"
	FilterExchange = "Exchange"
)

// Product represents a marketplace listing. Prices are stored in the
// smallest currency unit; see format.FormatPrice for display scaling.
type Product struct {
	ID          int64     `db:"id" json:"id"`
	OwnerID     int64     `db:"owner_id" json:"owner_id"`
	Name        string    `db:"name" json:"name"`
	Price       int64     `db:"price" json:"price"`
	ListingType string    `db:"listing_type" json:"listing_type"`
	ImageURL    *string   `db:"image_url" json:"image_url"`
	Latitude    *float64  `db:"latitude" json:"latitude"`
	Longitude   *float64  `db:"longitude" json:"longitude"`
	CategoryID  int64     `db:"category_id" json:"category_id"`
	LikeCount   int       `db:"like_count" json:"like_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	// Joined fields (not in products table)
	Owner   *UserSummary `json:"owner,omitempty"`
	IsLiked bool         `json:"is_liked"`
}

// ProductPage is one page of a paginated, newest-first listing.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	HasMore  bool      `json:"has_more"`
}

// SearchResult holds unpaginated search matches plus per-category match
// counts. Categories with a zero count are hidden in search mode.
type SearchResult struct {
	Products        []Product     `json:"products"`
	CategoryMatches map[int64]int `json:"category_matches"`
}

// CreateProductRequest is the request body for publishing a listing.
type CreateProductRequest struct {
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	ListingType string   `json:"listing_type"`
	ImageURL    *string  `json:"image_url"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	CategoryID  int64    `json:"category_id"`
}

const (
	MaxProductNameLength = 120
	ProductImageFolder   = "listings"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrNotProductOwner    = errors.New("not the owner of this product")
	ErrInvalidListingType = errors.New("invalid listing type")
	ErrProductNameEmpty   = errors.New("product name is required")
	ErrProductNameTooLong = errors.New("product name too long")
	ErrNegativePrice      = errors.New("price cannot be negative")
	ErrAlreadyLiked       = errors.New("product already liked")
	ErrNotLiked           = errors.New("product not liked")
)

// IsValidListingType reports if t is one of the supported listing types.
func IsValidListingType(t string) bool {
	switch t {
	case ListingTypeSell, ListingTypeRent, ListingTypeExchange:
		return true
	}
	return false
}
