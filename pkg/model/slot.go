package model

import (
	"fmt"
	"time"
)

// Slot is one bookable (doctor, calendar day, HH:MM) opportunity.
type Slot struct {
	DoctorID string
	Date     time.Time
	Time     string
}

// Key is stable for every instant within the same UTC calendar day.
func (s Slot) Key() string {
	return fmt.Sprintf("%s|%s|%s", s.DoctorID, StartOfDay(s.Date).Format("2006-01-02"), s.Time)
}

// StartOfDay truncates t to midnight UTC of its calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SlotLock is an advisory lock document held while a slot is being written.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	Token     string    `bson:"token" json:"token"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
