package models

import "time"

type Attendee struct {
	ID                 string    `bson:"_id" json:"id"`
	Name               string    `bson:"name" json:"name"`
	Email              string    `bson:"email" json:"email"`
	Phone              string    `bson:"phone" json:"phone"`
	Company            string    `bson:"company" json:"company"`
	RegisteredSessions []string  `bson:"registered_sessions" json:"registered_sessions"`
	RegistrationDate   time.Time `bson:"registration_date" json:"registration_date"`
	UpdatedAt          time.Time `bson:"updated_at" json:"updated_at"`
}
