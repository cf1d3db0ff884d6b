package models

import "time"

// LoginSession is the server-side half of an authenticated browser session.
// The cookie only carries a signed reference to ID.
type LoginSession struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Username  string    `bson:"username"`
	Email     string    `bson:"email"`
	FullName  string    `bson:"full_name"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

func (s *LoginSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func (s *LoginSession) Identity() Identity {
	return Identity{
		SessionID: s.ID,
		UserID:    s.UserID,
		Username:  s.Username,
		Email:     s.Email,
		FullName:  s.FullName,
	}
}
