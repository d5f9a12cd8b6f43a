package dynamo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"expensetracker/internal/core"
)

// maxUnprocessedRounds bounds resubmission of keys DynamoDB returns as unprocessed.
const maxUnprocessedRounds = 5

type UserTable struct {
	api        API
	table      string
	emailIndex string
}

func NewUserTable(api API, cfg Config) *UserTable {
	cfg = cfg.withDefaults()
	return &UserTable{api: api, table: cfg.UsersTable, emailIndex: cfg.UsersEmailIndex}
}

func userKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"userId": &types.AttributeValueMemberS{Value: userID}}
}

func (t *UserTable) GetUser(ctx context.Context, userID string) (*core.UserProfile, error) {
	out, err := t.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.table),
		Key:       userKey(userID),
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var p core.UserProfile
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &p, nil
}

func (t *UserTable) PutUser(ctx context.Context, p core.UserProfile) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if _, err := t.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	slog.InfoContext(ctx, "User profile saved to DynamoDB", "table", t.table, "user_id", p.UserID)
	return nil
}

// BatchGetUsers issues one BatchGetItem for up to 100 keys and resubmits
// unprocessed keys a bounded number of times.
func (t *UserTable) BatchGetUsers(ctx context.Context, userIDs []string) ([]core.UserProfile, error) {
	out := make([]core.UserProfile, 0, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	keys := make([]map[string]types.AttributeValue, len(userIDs))
	for i, id := range userIDs {
		keys[i] = userKey(id)
	}
	request := map[string]types.KeysAndAttributes{t.table: {Keys: keys}}

	for round := 0; len(request) > 0; round++ {
		if round == maxUnprocessedRounds {
			return nil, fmt.Errorf("batch get users: %d keys still unprocessed", len(request[t.table].Keys))
		}
		resp, err := t.api.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
		if err != nil {
			return nil, fmt.Errorf("batch get users: %w", err)
		}
		var batch []core.UserProfile
		if err := attributevalue.UnmarshalListOfMaps(resp.Responses[t.table], &batch); err != nil {
			return nil, fmt.Errorf("unmarshal users: %w", err)
		}
		out = append(out, batch...)
		request = resp.UnprocessedKeys
	}
	return out, nil
}

func (t *UserTable) FindUserByEmail(ctx context.Context, email string) (*core.UserProfile, error) {
	out, err := t.api.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(t.table),
		IndexName:                 aws.String(t.emailIndex),
		KeyConditionExpression:    aws.String("email = :e"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":e": &types.AttributeValueMemberS{Value: email}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	var p core.UserProfile
	if err := attributevalue.UnmarshalMap(out.Items[0], &p); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &p, nil
}
