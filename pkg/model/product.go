package model

import (
	"time"
)

type Product struct {
	ID             string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OwnerID        string     `json:"owner_id" bson:"owner_id" validate:"required,min=1,max=64"`
	Name           string     `json:"name" bson:"name" validate:"required,min=2,max=120"`
	CategoryID     string     `json:"category_id" bson:"category_id" validate:"required,min=1,max=64"`
	Location       string     `json:"location" bson:"location" validate:"required,min=2,max=120"`
	Quantity       int        `json:"quantity" bson:"quantity" validate:"min=0"`
	Active         bool       `json:"active" bson:"active"`
	AvailableFrom  *time.Time `json:"available_from,omitempty" bson:"available_from,omitempty"`
	AvailableUntil *time.Time `json:"available_until,omitempty" bson:"available_until,omitempty"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt      time.Time  `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

type ProductUpdate struct {
	Name           string     `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	CategoryID     string     `json:"category_id,omitempty" validate:"omitempty,min=1,max=64"`
	Location       string     `json:"location,omitempty" validate:"omitempty,min=2,max=120"`
	Quantity       *int       `json:"quantity,omitempty" validate:"omitempty,min=0"`
	Active         *bool      `json:"active,omitempty"`
	AvailableFrom  *time.Time `json:"available_from,omitempty"`
	AvailableUntil *time.Time `json:"available_until,omitempty"`
}

// Bookable reports whether the product can accept new bookings at all.
// A quantity of zero makes the product unbookable regardless of dates.
func (p *Product) Bookable() bool {
	return p.Active && p.Quantity > 0
}

// WithinWindow reports whether [start, end) falls inside the product's
// optional availability window. A nil bound is open-ended.
func (p *Product) WithinWindow(start, end time.Time) bool {
	if p.AvailableFrom != nil && start.Before(*p.AvailableFrom) {
		return false
	}
	if p.AvailableUntil != nil && end.After(*p.AvailableUntil) {
		return false
	}
	return true
}
