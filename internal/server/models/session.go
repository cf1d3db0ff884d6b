package models

import (
	"slices"
	"time"
)

const DefaultSessionCapacity = 50

type Session struct {
	ID           string    `bson:"_id" json:"id"`
	Title        string    `bson:"title" json:"title"`
	Description  string    `bson:"description" json:"description"`
	Speaker      string    `bson:"speaker" json:"speaker"`
	StartTime    time.Time `bson:"start_time" json:"start_time"`
	EndTime      time.Time `bson:"end_time" json:"end_time"`
	Location     string    `bson:"location" json:"location"`
	Capacity     int       `bson:"capacity" json:"capacity"`
	Attendees    []string  `bson:"attendees" json:"attendees"`
	ConferenceID string    `bson:"conference_id" json:"conference_id"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

func (s *Session) HasAttendee(id string) bool {
	return slices.Contains(s.Attendees, id)
}

// AvailableSeats never goes negative.
func (s *Session) AvailableSeats() int {
	return max(s.Capacity-len(s.Attendees), 0)
}
