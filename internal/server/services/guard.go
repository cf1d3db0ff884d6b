package services

import (
	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/server/models"
)

var errNotOrganizer = common.NewError(common.ErrForbidden, "You are not the organizer of this conference")

// IsOwner reports whether userID organizes c.
func IsOwner(userID string, c *models.Conference) bool {
	return c != nil && userID != "" && userID == c.OrganizerID
}

// RequireOwner is the single authorization check for mutations: no
// identity is an auth error, anyone but the organizer is forbidden.
func RequireOwner(actor *models.Identity, c *models.Conference) error {
	if actor == nil {
		return errLoginRequired
	}
	if !IsOwner(actor.UserID, c) {
		return errNotOrganizer
	}
	return nil
}
