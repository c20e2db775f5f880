package model

import "errors"

// Category is static reference data, fetched once per screen session.
// Delivery marks categories whose listings can be delivered.
type Category struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Delivery bool   `db:"delivery" json:"delivery"`
}

// CategoryListResponse is the category reference payload.
type CategoryListResponse struct {
	Categories []Category `json:"categories"`
}

var ErrCategoryNotFound = errors.New("category not found")
