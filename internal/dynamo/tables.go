package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func attr(name string) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
}

func keySchema(hash, rangeKey string) []types.KeySchemaElement {
	ks := []types.KeySchemaElement{{AttributeName: aws.String(hash), KeyType: types.KeyTypeHash}}
	if rangeKey != "" {
		ks = append(ks, types.KeySchemaElement{AttributeName: aws.String(rangeKey), KeyType: types.KeyTypeRange})
	}
	return ks
}

// TableDefinitions returns the CreateTable inputs for both keyspaces.
func TableDefinitions(cfg Config) []*dynamodb.CreateTableInput {
	cfg = cfg.withDefaults()
	allProjection := &types.Projection{ProjectionType: types.ProjectionTypeAll}
	return []*dynamodb.CreateTableInput{
		{
			TableName:            aws.String(cfg.ExpensesTable),
			BillingMode:          types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{attr("userId"), attr("expenseId"), attr("GSI1PK"), attr("GSI1SK")},
			KeySchema:            keySchema("userId", "expenseId"),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{{
				IndexName:  aws.String(cfg.ExpensesIndex),
				KeySchema:  keySchema("GSI1PK", "GSI1SK"),
				Projection: allProjection,
			}},
		},
		{
			TableName:            aws.String(cfg.UsersTable),
			BillingMode:          types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{attr("userId"), attr("email")},
			KeySchema:            keySchema("userId", ""),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{{
				IndexName:  aws.String(cfg.UsersEmailIndex),
				KeySchema:  keySchema("email", ""),
				Projection: allProjection,
			}},
		},
	}
}

// EnsureTables creates missing tables and waits until they are active.
// Meant for DynamoDB Local and development accounts.
func EnsureTables(ctx context.Context, api API, cfg Config) error {
	waiter := dynamodb.NewTableExistsWaiter(api)
	for _, def := range TableDefinitions(cfg) {
		_, err := api.CreateTable(ctx, def)
		var inUse *types.ResourceInUseException
		switch {
		case errors.As(err, &inUse):
			slog.DebugContext(ctx, "DynamoDB table already exists", "table", aws.ToString(def.TableName))
		case err != nil:
			return fmt.Errorf("create table %s: %w", aws.ToString(def.TableName), err)
		default:
			slog.InfoContext(ctx, "DynamoDB table created", "table", aws.ToString(def.TableName))
		}
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: def.TableName}, 2*time.Minute); err != nil {
			return fmt.Errorf("wait for table %s: %w", aws.ToString(def.TableName), err)
		}
	}
	return nil
}
