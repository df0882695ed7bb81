package service

import "inkwell/internal/models"

// ensureOwner rejects actors acting on resources they did not author.
// Callers look the resource up first, so a missing resource is a 404 before it is a 403.
func ensureOwner(actorID, ownerID uint, message string) error {
	if actorID == 0 || actorID != ownerID {
		return models.NewForbiddenError(message)
	}
	return nil
}
