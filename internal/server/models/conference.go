package models

import (
	"slices"
	"time"
)

// Conference statuses.
const (
	StatusUpcoming  = "upcoming"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const DefaultMaxAttendees = 100

// ValidConferenceStatus reports whether s is one of the known statuses.
func ValidConferenceStatus(s string) bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Conference struct {
	ID              string    `bson:"_id" json:"id"`
	Name            string    `bson:"name" json:"name"`
	Description     string    `bson:"description" json:"description"`
	Field           string    `bson:"field" json:"field"`
	Location        string    `bson:"location" json:"location"`
	City            string    `bson:"city" json:"city"`
	Country         string    `bson:"country" json:"country"`
	StartDate       time.Time `bson:"start_date" json:"start_date"`
	EndDate         time.Time `bson:"end_date" json:"end_date"`
	OrganizerID     string    `bson:"organizer_id" json:"organizer_id"`
	MaxAttendees    int       `bson:"max_attendees" json:"max_attendees"`
	RegistrationFee float64   `bson:"registration_fee" json:"registration_fee"`
	Status          string    `bson:"status" json:"status"`
	Logo            string    `bson:"logo" json:"logo"`
	Banner          string    `bson:"banner" json:"banner"`
	Website         string    `bson:"website" json:"website"`
	Attendees       []string  `bson:"attendees" json:"attendees"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

func (c *Conference) HasAttendee(userID string) bool {
	return slices.Contains(c.Attendees, userID)
}
