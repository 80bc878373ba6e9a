package model

import (
	"fmt"
	"time"
)

// Status is the walk lifecycle state carried on the wire as a 4-letter code.
type Status string

const (
	StatusCreated  Status = "CRTD" // booked, awaiting a decision
	StatusAccepted Status = "ACSS" // a walker took the walk
	StatusRejected Status = "RJCT" // declined; frees the slot
)

// WalkDuration is fixed: every walk ends exactly 30 minutes after it starts.
const WalkDuration = 30 * time.Minute

// SlotCapacity is the maximum number of non-rejected walks sharing one start
// timestamp.
const SlotCapacity = 2

// TimeLayout is the canonical wire format for timestamps.
const TimeLayout = "2006-01-02 15:04"

// DateLayout is the canonical wire format for bare dates.
const DateLayout = "2006-01-02"

// HourMinuteLayout keys the rate table by half-hour of day.
const HourMinuteLayout = "15:04"

func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusCreated, StatusAccepted, StatusRejected:
		return Status(raw), true
	}
	return "", false
}

// CanTransition is the explicit transition table. A walk is decided exactly
// once: CRTD may move to ACSS or RJCT, decided walks stay put.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusCreated:
		return to == StatusAccepted || to == StatusRejected
	}
	return false
}

type Customer struct {
	ID         int64
	Name       string
	Phone      string
	FlatNumber int
	CreatedAt  time.Time
}

type Dog struct {
	ID          int64
	CustomerID  int64
	Name        string
	Description string
	CreatedAt   time.Time
}

type Walk struct {
	ID         int64
	DogID      int64
	StartDate  time.Time
	EndDate    time.Time
	Status     Status
	Price      float64
	WhoWalking string
	CreatedAt  time.Time
}

// WalkView is one row of the walk listing, joined with dog and customer data.
type WalkView struct {
	WalkID         int64   `json:"walk_id"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	CreatedAt      string  `json:"created_at"`
	Status         Status  `json:"status"`
	Price          float64 `json:"price"`
	DogName        string  `json:"dog_name"`
	DogDescription string  `json:"dog_description"`
	UserName       string  `json:"user_name"`
	Phone          string  `json:"phone"`
	WhoWalking     string  `json:"who_walking"`
}

// Business hours: walks start between 07:00 and 23:00 inclusive, so the last
// rate key is 23:00 (a walk starting there ends 23:30) and 23:30 never exists.
const (
	OpeningHour = 7
	ClosingHour = 23
)

// RateSlotKeys returns every bookable half-hour key, "07:00" through "23:00".
func RateSlotKeys() []string {
	keys := make([]string, 0, (ClosingHour-OpeningHour)*2+1)
	for h := OpeningHour; h <= ClosingHour; h++ {
		keys = append(keys, fmt.Sprintf("%02d:00", h))
		if h != ClosingHour {
			keys = append(keys, fmt.Sprintf("%02d:30", h))
		}
	}
	return keys
}

// HourMinuteOf returns the rate-table key for a walk start.
func HourMinuteOf(t time.Time) string {
	return t.Format(HourMinuteLayout)
}
