package graphql

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

func TestToAPIErrorLogsWithRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	root := log.New(log.Config{Component: log.ComponentHTTP, Handler: log.NewHandler(&buf, slog.LevelInfo, "text")})
	ctx := context.WithValue(context.Background(), log.LoggerContextKey, root.With(log.FieldRequestID, "req-42"))

	err := toAPIError(ctx, "createExpense", fmt.Errorf("put expense: %w", errors.New("disk full")))

	var ae *apiError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, CodeInternal, ae.Extensions()["code"])
	assert.Equal(t, "internal error", ae.Error())

	line := buf.String()
	assert.Contains(t, line, "request_id=req-42")
	assert.Contains(t, line, "graphql_operation=createExpense")
	assert.Contains(t, line, `error="put expense: disk full"`)
	assert.Equal(t, 1, strings.Count(line, "component="), line)
	assert.Contains(t, line, "component=graphql")
}

func TestToAPIErrorKnownErrorsAreNotLogged(t *testing.T) {
	var buf bytes.Buffer
	root := log.New(log.Config{Handler: log.NewHandler(&buf, slog.LevelInfo, "text")})
	ctx := context.WithValue(context.Background(), log.LoggerContextKey, root)

	err := toAPIError(ctx, "updateExpense", core.ErrExpenseNotFound)

	var ae *apiError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, CodeNotFound, ae.Extensions()["code"])
	assert.Empty(t, buf.String())
}
