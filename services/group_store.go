package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"campuslearn_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoGroupStore persists groups in the Groups table. Membership is a
// string set so single-member adds go through DynamoDB's ADD action (a
// native set union) and never lose updates under concurrent registrations.
type DynamoGroupStore struct {
	Dynamo *DynamoService
}

func (s *DynamoGroupStore) Insert(ctx context.Context, group models.Group) error {
	if err := s.Dynamo.PutItem(ctx, models.GroupsTable, group); err != nil {
		return fmt.Errorf("failed to store group: %w", err)
	}
	return nil
}

func (s *DynamoGroupStore) Get(ctx context.Context, groupID string) (*models.Group, error) {
	key := map[string]types.AttributeValue{
		"groupId": &types.AttributeValueMemberS{Value: groupID},
	}

	item, err := s.Dynamo.GetItem(ctx, models.GroupsTable, key)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, fmt.Errorf("%w: group %s", models.ErrNotFound, groupID)
		}
		return nil, fmt.Errorf("failed to fetch group: %w", err)
	}

	var group models.Group
	if err := attributevalue.UnmarshalMap(item, &group); err != nil {
		return nil, fmt.Errorf("failed to parse group: %w", err)
	}
	return &group, nil
}

func (s *DynamoGroupStore) ListByCreator(ctx context.Context, creatorID string) ([]models.Group, error) {
	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.GroupsTable, models.CreatorIndex,
		"createdBy = :creator",
		map[string]types.AttributeValue{
			":creator": &types.AttributeValueMemberS{Value: creatorID},
		},
		nil, 0,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch groups by creator: %w", err)
	}

	var groups []models.Group
	if err := attributevalue.UnmarshalListOfMaps(items, &groups); err != nil {
		return nil, fmt.Errorf("failed to parse groups: %w", err)
	}

	sortGroupsNewestFirst(groups)
	return groups, nil
}

func (s *DynamoGroupStore) ListActiveByMember(ctx context.Context, userID string) ([]models.Group, error) {
	var groups []models.Group
	err := s.Dynamo.ScanItems(ctx, models.GroupsTable,
		"contains(members, :user) AND isActive = :active",
		map[string]types.AttributeValue{
			":user":   &types.AttributeValueMemberS{Value: userID},
			":active": &types.AttributeValueMemberBOOL{Value: true},
		},
		nil,
		&groups,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch groups by member: %w", err)
	}

	sortGroupsNewestFirst(groups)
	return groups, nil
}

func (s *DynamoGroupStore) FindActiveByCohort(ctx context.Context, key models.CohortKey) ([]models.Group, error) {
	var groups []models.Group
	err := s.Dynamo.ScanItems(ctx, models.GroupsTable,
		"passingYear = :year AND department = :dept AND #section = :section AND school = :school AND isActive = :active",
		map[string]types.AttributeValue{
			":year":    &types.AttributeValueMemberN{Value: strconv.Itoa(key.PassingYear)},
			":dept":    &types.AttributeValueMemberS{Value: key.Department},
			":section": &types.AttributeValueMemberS{Value: key.Section},
			":school":  &types.AttributeValueMemberS{Value: key.School},
			":active":  &types.AttributeValueMemberBOOL{Value: true},
		},
		map[string]string{"#section": "section"},
		&groups,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find groups by cohort: %w", err)
	}
	return groups, nil
}

// ReplaceMembers swaps the whole membership snapshot. An empty snapshot
// removes the attribute: DynamoDB string sets cannot be empty.
func (s *DynamoGroupStore) ReplaceMembers(ctx context.Context, groupID string, members []string) error {
	key := map[string]types.AttributeValue{
		"groupId": &types.AttributeValueMemberS{Value: groupID},
	}

	updateExpression := "SET members = :members, updatedAt = :now"
	expressionValues := map[string]types.AttributeValue{
		":members": &types.AttributeValueMemberSS{Value: members},
		":now":     &types.AttributeValueMemberS{Value: time.Now().UTC().Format(models.TimeLayout)},
	}
	if len(members) == 0 {
		updateExpression = "REMOVE members SET updatedAt = :now"
		delete(expressionValues, ":members")
	}

	if _, err := s.Dynamo.UpdateItem(ctx, models.GroupsTable, updateExpression, key, expressionValues, nil); err != nil {
		return fmt.Errorf("failed to replace group members: %w", err)
	}
	return nil
}

func (s *DynamoGroupStore) AddMember(ctx context.Context, groupID, userID string) error {
	key := map[string]types.AttributeValue{
		"groupId": &types.AttributeValueMemberS{Value: groupID},
	}

	updateExpression := "ADD members :user SET updatedAt = :now"
	expressionValues := map[string]types.AttributeValue{
		":user": &types.AttributeValueMemberSS{Value: []string{userID}},
		":now":  &types.AttributeValueMemberS{Value: time.Now().UTC().Format(models.TimeLayout)},
	}

	if _, err := s.Dynamo.UpdateItem(ctx, models.GroupsTable, updateExpression, key, expressionValues, nil); err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

func (s *DynamoGroupStore) Delete(ctx context.Context, groupID string) error {
	key := map[string]types.AttributeValue{
		"groupId": &types.AttributeValueMemberS{Value: groupID},
	}
	if err := s.Dynamo.DeleteItem(ctx, models.GroupsTable, key); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

func sortGroupsNewestFirst(groups []models.Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].CreatedAt > groups[j].CreatedAt
	})
}
