package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"campuslearn_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoUserStore persists user profiles in the UserProfiles table.
type DynamoUserStore struct {
	Dynamo *DynamoService
}

func (s *DynamoUserStore) Insert(ctx context.Context, user models.UserProfile) error {
	if err := s.Dynamo.PutItem(ctx, models.UserProfilesTable, user); err != nil {
		return fmt.Errorf("failed to store user profile: %w", err)
	}
	return nil
}

func (s *DynamoUserStore) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}

	item, err := s.Dynamo.GetItem(ctx, models.UserProfilesTable, key)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}

	var user models.UserProfile
	if err := attributevalue.UnmarshalMap(item, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user profile: %w", err)
	}
	return &user, nil
}

func (s *DynamoUserStore) FindByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	var users []models.UserProfile
	err := s.Dynamo.ScanItems(ctx, models.UserProfilesTable,
		"email = :email",
		map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
		nil,
		&users,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: user with email %s", models.ErrNotFound, email)
	}
	return &users[0], nil
}

// MatchingStudents scans for students whose cohort attributes exactly equal
// the key. "role" and "section" go through expression names to stay clear
// of DynamoDB reserved words.
func (s *DynamoUserStore) MatchingStudents(ctx context.Context, key models.CohortKey) ([]models.UserProfile, error) {
	var students []models.UserProfile
	err := s.Dynamo.ScanItems(ctx, models.UserProfilesTable,
		"#role = :role AND passingYear = :year AND department = :dept AND #section = :section AND school = :school",
		map[string]types.AttributeValue{
			":role":    &types.AttributeValueMemberS{Value: models.RoleStudent},
			":year":    &types.AttributeValueMemberN{Value: strconv.Itoa(key.PassingYear)},
			":dept":    &types.AttributeValueMemberS{Value: key.Department},
			":section": &types.AttributeValueMemberS{Value: key.Section},
			":school":  &types.AttributeValueMemberS{Value: key.School},
		},
		map[string]string{
			"#role":    "role",
			"#section": "section",
		},
		&students,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find matching students: %w", err)
	}
	return students, nil
}
