package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"expensetracker/internal/core"
)

type ExpenseTable struct {
	api   API
	table string
	index string
}

func NewExpenseTable(api API, cfg Config) *ExpenseTable {
	cfg = cfg.withDefaults()
	return &ExpenseTable{api: api, table: cfg.ExpensesTable, index: cfg.ExpensesIndex}
}

func expenseKey(userID, expenseID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId":    &types.AttributeValueMemberS{Value: userID},
		"expenseId": &types.AttributeValueMemberS{Value: expenseID},
	}
}

func (t *ExpenseTable) PutExpense(ctx context.Context, e core.Expense) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal expense: %w", err)
	}
	if _, err := t.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to DynamoDB",
		"table", t.table,
		"user_id", e.UserID,
		"expense_id", e.ExpenseID,
		"month_key", e.MonthKey)
	return nil
}

func (t *ExpenseTable) GetExpense(ctx context.Context, userID, expenseID string) (*core.Expense, error) {
	out, err := t.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.table),
		Key:       expenseKey(userID, expenseID),
	})
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var e core.Expense
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, fmt.Errorf("unmarshal expense: %w", err)
	}
	return &e, nil
}

// updateExpression renders the SET clause of a patch. Index keys are written
// in the same request as occurredAt.
func updateExpression(patch core.ExpensePatch) (string, map[string]string, map[string]types.AttributeValue) {
	var sets []string
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	set := func(attr string, v types.AttributeValue) {
		sets = append(sets, fmt.Sprintf("#%s = :%s", attr, attr))
		names["#"+attr] = attr
		values[":"+attr] = v
	}
	str := func(s string) types.AttributeValue { return &types.AttributeValueMemberS{Value: s} }

	if patch.AmountMinor != nil {
		set("amountMinor", &types.AttributeValueMemberN{Value: strconv.FormatInt(*patch.AmountMinor, 10)})
	}
	if patch.Currency != nil {
		set("currency", str(*patch.Currency))
	}
	if patch.Category != nil {
		set("category", str(*patch.Category))
	}
	if patch.Note != nil {
		set("note", str(*patch.Note))
	}
	if patch.OccurredAt != nil {
		set("occurredAt", str(*patch.OccurredAt))
	}
	if patch.Keys != nil {
		set("monthKey", str(patch.Keys.MonthKey))
		set("GSI1PK", str(patch.Keys.GSI1PK))
		set("GSI1SK", str(patch.Keys.GSI1SK))
	}
	if len(sets) == 0 {
		return "", nil, nil
	}
	return "SET " + strings.Join(sets, ", "), names, values
}

func (t *ExpenseTable) UpdateExpense(ctx context.Context, userID, expenseID string, patch core.ExpensePatch) (core.Expense, error) {
	expr, names, values := updateExpression(patch)
	if expr == "" {
		return core.Expense{}, core.ErrNoFieldsToUpdate
	}
	names["#pk"] = "userId"
	names["#sk"] = "expenseId"

	out, err := t.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(t.table),
		Key:                       expenseKey(userID, expenseID),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(#pk) AND attribute_exists(#sk)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return core.Expense{}, core.ErrExpenseNotFound
		}
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	var e core.Expense
	if err := attributevalue.UnmarshalMap(out.Attributes, &e); err != nil {
		return core.Expense{}, fmt.Errorf("unmarshal expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense updated in DynamoDB",
		"table", t.table,
		"user_id", userID,
		"expense_id", expenseID)
	return e, nil
}

func (t *ExpenseTable) DeleteExpense(ctx context.Context, userID, expenseID string) (*core.Expense, error) {
	out, err := t.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(t.table),
		Key:          expenseKey(userID, expenseID),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, fmt.Errorf("delete expense: %w", err)
	}
	if len(out.Attributes) == 0 {
		return nil, nil
	}
	var e core.Expense
	if err := attributevalue.UnmarshalMap(out.Attributes, &e); err != nil {
		return nil, fmt.Errorf("unmarshal expense: %w", err)
	}
	return &e, nil
}

func (t *ExpenseTable) query(ctx context.Context, in *dynamodb.QueryInput) ([]core.Expense, error) {
	out := make([]core.Expense, 0)
	p := dynamodb.NewQueryPaginator(t.api, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []core.Expense
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal expenses: %w", err)
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (t *ExpenseTable) QueryIndex(ctx context.Context, partitionKey string) ([]core.Expense, error) {
	out, err := t.query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(t.table),
		IndexName:                 aws.String(t.index),
		KeyConditionExpression:    aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":pk": &types.AttributeValueMemberS{Value: partitionKey}},
		ScanIndexForward:          aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query index %s: %w", partitionKey, err)
	}
	return out, nil
}

func (t *ExpenseTable) QueryIDPrefix(ctx context.Context, userID, prefix string) ([]core.Expense, error) {
	out, err := t.query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(t.table),
		KeyConditionExpression: aws.String("userId = :u AND begins_with(expenseId, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u":      &types.AttributeValueMemberS{Value: userID},
			":prefix": &types.AttributeValueMemberS{Value: prefix},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query expense id prefix %s: %w", prefix, err)
	}
	return out, nil
}

func (t *ExpenseTable) scan(ctx context.Context, in *dynamodb.ScanInput, fn func(core.Expense) error) error {
	p := dynamodb.NewScanPaginator(t.api, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return err
		}
		var batch []core.Expense
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return fmt.Errorf("unmarshal expenses: %w", err)
		}
		for _, e := range batch {
			if err := fn(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// ScanMonth reads the whole table and filters on monthKey server side.
func (t *ExpenseTable) ScanMonth(ctx context.Context, monthKey string) ([]core.Expense, error) {
	out := make([]core.Expense, 0)
	err := t.scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(t.table),
		FilterExpression:          aws.String("monthKey = :m"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":m": &types.AttributeValueMemberS{Value: monthKey}},
	}, func(e core.Expense) error {
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan month %s: %w", monthKey, err)
	}
	return out, nil
}

func (t *ExpenseTable) ScanExpenses(ctx context.Context, fn func(core.Expense) error) error {
	return t.scan(ctx, &dynamodb.ScanInput{TableName: aws.String(t.table)}, fn)
}

func (t *ExpenseTable) Ping(ctx context.Context) error {
	if _, err := t.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(t.table)}); err != nil {
		return fmt.Errorf("describe %s: %w", t.table, err)
	}
	return nil
}
