package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"campuslearn_server/models"
	"campuslearn_server/services"
)

// UserController handles registration. Login/token issuance belongs to the
// external account service.
type UserController struct {
	UserService *services.UserService
}

// NewUserController initializes the user controller
func NewUserController(service *services.UserService) *UserController {
	return &UserController{UserService: service}
}

// HandleRegister creates a user profile; matching students are auto-added
// to every active group for their cohort.
func (c *UserController) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", models.ErrValidation))
		return
	}

	profile, err := c.UserService.Register(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully",
		"user":    profile,
	})
}
