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

// GroupService owns group lifecycle: creation with a membership snapshot,
// wholesale refresh, incremental auto-enroll, listings, and deletion.
type GroupService struct {
	Users    UserStore
	Groups   GroupStore
	Messages *MessageService
}

// CreateGroupInput is the request body for group creation.
type CreateGroupInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PassingYear int    `json:"passingYear"`
	Department  string `json:"department"`
	Section     string `json:"section"`
	School      string `json:"school"`
}

// Create builds a group from the cohort key and snapshots its membership
// from the directory. Zero matching students is a success: the group is
// created empty and fills up as students register.
func (s *GroupService) Create(ctx context.Context, principal models.Principal, input CreateGroupInput) (*models.Group, error) {
	if err := RequireRole(principal, models.RoleTeacher); err != nil {
		return nil, fmt.Errorf("%w: only teachers can create groups", models.ErrPermissionDenied)
	}

	key := models.CohortKey{
		PassingYear: input.PassingYear,
		Department:  input.Department,
		Section:     input.Section,
		School:      input.School,
	}
	if strings.TrimSpace(input.Name) == "" || !key.Complete() {
		return nil, fmt.Errorf("%w: all fields are required", models.ErrValidation)
	}

	students, err := s.Users.MatchingStudents(ctx, key)
	if err != nil {
		return nil, err
	}
	log.Printf("Found %d matching students for group criteria: %+v", len(students), key)

	now := time.Now().UTC().Format(models.TimeLayout)
	group := models.Group{
		GroupID:     uuid.New().String(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		PassingYear: key.PassingYear,
		Department:  key.Department,
		Section:     key.Section,
		School:      key.School,
		CreatedBy:   principal.UserID,
		Members:     studentIDs(students),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.Groups.Insert(ctx, group); err != nil {
		return nil, err
	}
	return &group, nil
}

// Refresh recomputes the membership snapshot wholesale from the directory.
// Members who no longer match the cohort key are dropped.
func (s *GroupService) Refresh(ctx context.Context, groupID string, principal models.Principal) (int, error) {
	group, err := s.Groups.Get(ctx, groupID)
	if err != nil {
		return 0, err
	}
	if err := RequireCreator(group, principal.UserID); err != nil {
		return 0, err
	}

	students, err := s.Users.MatchingStudents(ctx, group.Cohort())
	if err != nil {
		return 0, err
	}

	if err := s.Groups.ReplaceMembers(ctx, groupID, studentIDs(students)); err != nil {
		return 0, err
	}
	return len(students), nil
}

// AutoEnroll adds a newly registered student to every active group whose
// cohort key matches. Each add is a set union, so replays and concurrent
// registrations never drop members.
func (s *GroupService) AutoEnroll(ctx context.Context, student models.UserProfile) (int, error) {
	groups, err := s.Groups.FindActiveByCohort(ctx, student.Cohort())
	if err != nil {
		return 0, err
	}

	for _, group := range groups {
		if err := s.Groups.AddMember(ctx, group.GroupID, student.UserID); err != nil {
			return 0, err
		}
	}
	return len(groups), nil
}

// Get returns the group with creator and member display info resolved.
func (s *GroupService) Get(ctx context.Context, groupID string, principal models.Principal) (*models.GroupView, error) {
	group, err := s.Groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := RequireAccess(group, principal.UserID); err != nil {
		return nil, err
	}

	view := models.GroupView{Group: *group}
	if creator, err := s.Users.Get(ctx, group.CreatedBy); err == nil {
		view.CreatorName = creator.Name
	}
	for _, memberID := range group.Members {
		member, err := s.Users.Get(ctx, memberID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return nil, err
		}
		view.MemberInfo = append(view.MemberInfo, models.MemberInfo{
			UserID: member.UserID,
			Name:   member.Name,
			Email:  member.Email,
		})
	}
	return &view, nil
}

// ListForTeacher returns groups created by the teacher, newest first.
func (s *GroupService) ListForTeacher(ctx context.Context, principal models.Principal) ([]models.Group, error) {
	if err := RequireRole(principal, models.RoleTeacher); err != nil {
		return nil, err
	}
	return s.Groups.ListByCreator(ctx, principal.UserID)
}

// ListForStudent returns active groups the student belongs to, newest first.
func (s *GroupService) ListForStudent(ctx context.Context, principal models.Principal) ([]models.Group, error) {
	if err := RequireRole(principal, models.RoleStudent); err != nil {
		return nil, err
	}
	return s.Groups.ListActiveByMember(ctx, principal.UserID)
}

// Delete removes the group. Messages and their attachment blobs are
// cascade-deleted so nothing is ever orphaned.
func (s *GroupService) Delete(ctx context.Context, groupID string, principal models.Principal) error {
	group, err := s.Groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if err := RequireCreator(group, principal.UserID); err != nil {
		return err
	}

	if _, err := s.Messages.PurgeGroup(ctx, groupID); err != nil {
		return err
	}
	return s.Groups.Delete(ctx, groupID)
}

func studentIDs(students []models.UserProfile) []string {
	ids := make([]string, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.UserID)
	}
	return ids
}
