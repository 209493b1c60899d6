package domain

import "time"

// AlertStatusActive is assigned to every newly published alert.
const AlertStatusActive = "Active"

// Alert is a published disaster alert shown in the public feed.
type Alert struct {
	ID           int64
	DisasterType string
	Location     string
	Latitude     *float64
	Longitude    *float64
	AlertMessage string
	ShelterInfo  string
	Status       string
	Timestamp    time.Time
}

// Report is a disaster observation submitted by a user.
type Report struct {
	ID           int64
	UserID       int64
	Location     string
	DisasterType string
	Description  string
	CreatedAt    time.Time
}

// SMSAlert is a broadcast request recorded before fan-out to registered phones.
type SMSAlert struct {
	ID           int64
	DisasterType string
	Message      string
	ShelterInfo  string
	SentToAll    bool
	Timestamp    time.Time
	// DispatchedAt is set once the fan-out has reached at least one recipient.
	DispatchedAt *time.Time
}
