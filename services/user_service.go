package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"campuslearn_server/models"

	"github.com/google/uuid"
)

// UserService is the registration collaborator and the cohort directory.
// Credential and token handling live outside this service; registration
// here records the profile and wires the student into matching groups.
type UserService struct {
	Users  UserStore
	Groups *GroupService
}

// RegisterInput is the request body for user registration.
type RegisterInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	PassingYear int    `json:"passingYear,omitempty"`
	Department  string `json:"department,omitempty"`
	Section     string `json:"section,omitempty"`
	School      string `json:"school,omitempty"`
}

// Register creates a user profile and, for students, auto-enrolls the new
// account into every active group whose cohort key matches.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.UserProfile, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)

	if input.Name == "" || input.Email == "" || input.Role == "" {
		return nil, fmt.Errorf("%w: name, email, and role are required", models.ErrValidation)
	}
	if input.Role != models.RoleStudent && input.Role != models.RoleTeacher {
		return nil, fmt.Errorf("%w: role must be student or teacher", models.ErrValidation)
	}

	profile := models.UserProfile{
		UserID:    uuid.New().String(),
		Name:      input.Name,
		Email:     input.Email,
		Role:      input.Role,
		CreatedAt: time.Now().UTC().Format(models.TimeLayout),
	}

	if input.Role == models.RoleStudent {
		key := models.CohortKey{
			PassingYear: input.PassingYear,
			Department:  input.Department,
			Section:     input.Section,
			School:      input.School,
		}
		if !key.Complete() {
			return nil, fmt.Errorf("%w: students must provide passing year, department, section, and school", models.ErrValidation)
		}
		profile.PassingYear = key.PassingYear
		profile.Department = key.Department
		profile.Section = key.Section
		profile.School = key.School
	}

	existing, err := s.Users.FindByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already registered", models.ErrValidation)
	}

	if err := s.Users.Insert(ctx, profile); err != nil {
		return nil, err
	}

	if profile.Role == models.RoleStudent {
		enrolled, err := s.Groups.AutoEnroll(ctx, profile)
		if err != nil {
			return nil, err
		}
		if enrolled > 0 {
			log.Printf("✅ Auto-added student %s to %d groups", profile.UserID, enrolled)
		}
	}

	return &profile, nil
}

// MatchingStudents exposes the cohort directory lookup.
func (s *UserService) MatchingStudents(ctx context.Context, key models.CohortKey) ([]models.UserProfile, error) {
	return s.Users.MatchingStudents(ctx, key)
}
