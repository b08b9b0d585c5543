package services

import (
	"fmt"

	"campuslearn_server/models"
)

// Access-guard predicates. Pure functions over data already loaded; every
// role and ownership decision in the services funnels through here.

// IsMember reports whether userID may read/write the group: members and the
// creator both qualify.
func IsMember(group *models.Group, userID string) bool {
	return userID == group.CreatedBy || group.HasMember(userID)
}

// RequireRole fails with PermissionDenied unless the principal holds role.
func RequireRole(p models.Principal, role string) error {
	if p.Role != role {
		return fmt.Errorf("%w: only %ss can perform this action", models.ErrPermissionDenied, role)
	}
	return nil
}

// RequireAccess fails with AccessDenied unless userID is a member or the
// creator of the group.
func RequireAccess(group *models.Group, userID string) error {
	if !IsMember(group, userID) {
		return fmt.Errorf("%w: not a member of this group", models.ErrAccessDenied)
	}
	return nil
}

// RequireCreator fails with PermissionDenied unless userID created the group.
func RequireCreator(group *models.Group, userID string) error {
	if group.CreatedBy != userID {
		return fmt.Errorf("%w: only the group creator can perform this action", models.ErrPermissionDenied)
	}
	return nil
}
