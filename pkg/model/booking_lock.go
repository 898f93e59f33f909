package model

import "time"

// BookingLock is an advisory lock keyed on slot coordinates, used to keep two
// concurrent requests from passing the availability check for the same slot.
// A TTL index on expires_at reaps locks abandoned by crashed requests.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
