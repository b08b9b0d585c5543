package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"campuslearn_server/middleware"
	"campuslearn_server/models"
	"campuslearn_server/services"

	"github.com/gorilla/mux"
)

// GroupController handles group lifecycle endpoints.
type GroupController struct {
	GroupService *services.GroupService
}

// NewGroupController initializes the group controller
func NewGroupController(service *services.GroupService) *GroupController {
	return &GroupController{GroupService: service}
}

// HandleCreateGroup - teacher creates a group; membership is snapshotted
// from currently matching students (zero matches still succeeds).
func (c *GroupController) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var input services.CreateGroupInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", models.ErrValidation))
		return
	}

	group, err := c.GroupService.Create(r.Context(), principal, input)
	if err != nil {
		writeError(w, err)
		return
	}

	message := "Group created successfully"
	if len(group.Members) == 0 {
		message = "Group created. No students match criteria yet."
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     message,
		"group":       group,
		"memberCount": len(group.Members),
	})
}

// HandleMyGroups - groups created by the requesting teacher, newest first.
func (c *GroupController) HandleMyGroups(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	groups, err := c.GroupService.ListForTeacher(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	writeJSON(w, http.StatusOK, groups)
}

// HandleEnrolledGroups - active groups the requesting student belongs to.
func (c *GroupController) HandleEnrolledGroups(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	groups, err := c.GroupService.ListForStudent(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	writeJSON(w, http.StatusOK, groups)
}

// HandleGetGroup - single group with resolved member info, access-guarded.
func (c *GroupController) HandleGetGroup(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	view, err := c.GroupService.Get(r.Context(), mux.Vars(r)["id"], principal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleRefreshMembers - creator recomputes the membership snapshot.
func (c *GroupController) HandleRefreshMembers(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	count, err := c.GroupService.Refresh(r.Context(), mux.Vars(r)["id"], principal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Members refreshed",
		"memberCount": count,
	})
}

// HandleDeleteGroup - creator deletes the group; messages and attachments
// cascade.
func (c *GroupController) HandleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	if err := c.GroupService.Delete(r.Context(), mux.Vars(r)["id"], principal); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Group deleted successfully"})
}

func writeUnauthenticated(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "No token provided"})
}
