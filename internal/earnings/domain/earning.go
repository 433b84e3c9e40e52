package domain

import (
	"errors"
	"time"
)

// Earning is one rider's earnings for one day.
type Earning struct {
	ID        string
	UserID    string
	Date      time.Time // day granularity, UTC midnight
	Amount    float64
	Trips     int
	Hours     float64
	CreatedAt time.Time
}

// RiderEarning is an earning joined with the rider's display fields, used on
// the admin surface.
type RiderEarning struct {
	Earning
	RiderName  string
	RiderEmail string
}

// Summary aggregates a set of earnings.
type Summary struct {
	Days        int
	TotalAmount float64
	TotalTrips  int
	TotalHours  float64
}

// Validate checks an earning before insert.
func (e *Earning) Validate() error {
	if e.UserID == "" {
		return errors.New("user id is required")
	}
	if e.Date.IsZero() {
		return errors.New("date is required")
	}
	if e.Amount < 0 {
		return errors.New("amount cannot be negative")
	}
	if e.Trips < 0 {
		return errors.New("trips cannot be negative")
	}
	if e.Hours < 0 {
		return errors.New("hours cannot be negative")
	}
	return nil
}
