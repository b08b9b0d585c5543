package services

import (
	"context"
	"fmt"

	"campuslearn_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoMessageStore persists messages in the Messages table, keyed by
// groupId (partition) and createdAt (sort). A GSI on messageId resolves
// delete-by-id lookups.
type DynamoMessageStore struct {
	Dynamo *DynamoService
}

func (s *DynamoMessageStore) Insert(ctx context.Context, msg models.Message) error {
	if err := s.Dynamo.PutItem(ctx, models.MessagesTable, msg); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

func (s *DynamoMessageStore) GetByID(ctx context.Context, messageID string) (*models.Message, error) {
	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.MessagesTable, models.MessageIDIndex,
		"messageId = :messageId",
		map[string]types.AttributeValue{
			":messageId": &types.AttributeValueMemberS{Value: messageID},
		},
		nil, 1,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: message %s", models.ErrNotFound, messageID)
	}

	var msg models.Message
	if err := attributevalue.UnmarshalMap(items[0], &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// ListLatest pages backwards through the group's history until limit
// messages visible to excludeDeletedFor are collected, then reverses so the
// latest message lands at the bottom in the UI.
func (s *DynamoMessageStore) ListLatest(ctx context.Context, groupID string, limit int, excludeDeletedFor string) ([]models.Message, error) {
	keyCondition := "groupId = :groupId"
	expressionValues := map[string]types.AttributeValue{
		":groupId": &types.AttributeValueMemberS{Value: groupID},
	}

	filter := ""
	if excludeDeletedFor != "" {
		filter = "attribute_not_exists(deletedFor) OR NOT contains(deletedFor, :user)"
		expressionValues[":user"] = &types.AttributeValueMemberS{Value: excludeDeletedFor}
	}

	var collected []models.Message
	var startKey map[string]types.AttributeValue
	for len(collected) < limit {
		items, lastKey, err := s.Dynamo.QueryPage(ctx, models.MessagesTable,
			keyCondition, filter, expressionValues, nil,
			int32(limit-len(collected)), true, startKey)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch messages: %w", err)
		}

		var page []models.Message
		if err := attributevalue.UnmarshalListOfMaps(items, &page); err != nil {
			return nil, fmt.Errorf("failed to parse messages: %w", err)
		}
		collected = append(collected, page...)

		if lastKey == nil {
			break
		}
		startKey = lastKey
	}
	if len(collected) > limit {
		collected = collected[:limit]
	}

	// Pages arrive newest first; reverse into ascending order.
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return collected, nil
}

func (s *DynamoMessageStore) ListAll(ctx context.Context, groupID string) ([]models.Message, error) {
	keyCondition := "groupId = :groupId"
	expressionValues := map[string]types.AttributeValue{
		":groupId": &types.AttributeValueMemberS{Value: groupID},
	}

	var messages []models.Message
	var startKey map[string]types.AttributeValue
	for {
		items, lastKey, err := s.Dynamo.QueryPage(ctx, models.MessagesTable,
			keyCondition, "", expressionValues, nil, 0, false, startKey)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch messages: %w", err)
		}

		var page []models.Message
		if err := attributevalue.UnmarshalListOfMaps(items, &page); err != nil {
			return nil, fmt.Errorf("failed to parse messages: %w", err)
		}
		messages = append(messages, page...)

		if lastKey == nil {
			return messages, nil
		}
		startKey = lastKey
	}
}

func (s *DynamoMessageStore) Delete(ctx context.Context, groupID, createdAt string) error {
	key := map[string]types.AttributeValue{
		"groupId":   &types.AttributeValueMemberS{Value: groupID},
		"createdAt": &types.AttributeValueMemberS{Value: createdAt},
	}
	if err := s.Dynamo.DeleteItem(ctx, models.MessagesTable, key); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// DeleteAll removes every message in the group with batched delete requests.
func (s *DynamoMessageStore) DeleteAll(ctx context.Context, groupID string) (int, error) {
	messages, err := s.ListAll(ctx, groupID)
	if err != nil {
		return 0, err
	}
	if len(messages) == 0 {
		return 0, nil
	}

	writeRequests := make([]types.WriteRequest, 0, len(messages))
	for _, msg := range messages {
		writeRequests = append(writeRequests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: map[string]types.AttributeValue{
					"groupId":   &types.AttributeValueMemberS{Value: msg.GroupID},
					"createdAt": &types.AttributeValueMemberS{Value: msg.CreatedAt},
				},
			},
		})
	}

	if err := s.Dynamo.BatchWriteItems(ctx, models.MessagesTable, writeRequests); err != nil {
		return 0, fmt.Errorf("failed to clear group messages: %w", err)
	}
	return len(messages), nil
}

func (s *DynamoMessageStore) AddDeletedFor(ctx context.Context, groupID, createdAt, userID string) error {
	return s.addToSet(ctx, groupID, createdAt, "deletedFor", userID)
}

func (s *DynamoMessageStore) AddReadBy(ctx context.Context, groupID, createdAt, userID string) error {
	return s.addToSet(ctx, groupID, createdAt, "readBy", userID)
}

// addToSet unions userID into a string-set attribute. ADD on a missing
// attribute creates the set, so the operation is idempotent from empty.
func (s *DynamoMessageStore) addToSet(ctx context.Context, groupID, createdAt, attr, userID string) error {
	key := map[string]types.AttributeValue{
		"groupId":   &types.AttributeValueMemberS{Value: groupID},
		"createdAt": &types.AttributeValueMemberS{Value: createdAt},
	}

	updateExpression := fmt.Sprintf("ADD %s :user", attr)
	expressionValues := map[string]types.AttributeValue{
		":user": &types.AttributeValueMemberSS{Value: []string{userID}},
	}

	if _, err := s.Dynamo.UpdateItem(ctx, models.MessagesTable, updateExpression, key, expressionValues, nil); err != nil {
		return fmt.Errorf("failed to update message %s set: %w", attr, err)
	}
	return nil
}
