package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	"expensetracker/internal/memory"
)

// countingUsers records the size of every batch request.
type countingUsers struct {
	*memory.UserTable
	mu      sync.Mutex
	batches []int
}

func (c *countingUsers) BatchGetUsers(ctx context.Context, ids []string) ([]core.UserProfile, error) {
	c.mu.Lock()
	c.batches = append(c.batches, len(ids))
	c.mu.Unlock()
	return c.UserTable.BatchGetUsers(ctx, ids)
}

func TestGetOrCreateUnknownUser(t *testing.T) {
	users := memory.NewUserTable()
	svc := NewProfileService(users, nil)

	p, err := svc.GetOrCreate(context.Background(), "u1", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.NotEmpty(t, p.CreatedAt)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)

	stored, err := users.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, stored, "synthesized profile must not be persisted")
}

func TestGetOrCreateExistingUser(t *testing.T) {
	users := memory.NewUserTable()
	existing := core.UserProfile{UserID: "u1", Email: "old@example.com", LastName: ptr("Lovelace"), CreatedAt: "2024-01-01T00:00:00Z"}
	require.NoError(t, users.PutUser(context.Background(), existing))

	p, err := NewProfileService(users, nil).GetOrCreate(context.Background(), "u1", "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, existing, p)
}

func TestUpsert(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserTable()
	svc := NewProfileService(users, nil)

	first, err := svc.Upsert(ctx, core.UpdateProfileInput{UserID: "u1", FirstName: ptr("Ada"), Phone: ptr("555")}, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", first.Email)
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)

	second, err := svc.Upsert(ctx, core.UpdateProfileInput{UserID: "u1", LastName: ptr("Lovelace")}, "other@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", second.Email, "stored email wins over identity email")
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Nil(t, second.FirstName, "omitted fields are cleared")
	assert.Nil(t, second.Phone)
	require.NotNil(t, second.LastName)
	assert.Equal(t, "Lovelace", *second.LastName)

	stored, err := users.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, second, *stored)

	_, err = svc.Upsert(ctx, core.UpdateProfileInput{}, "x@example.com")
	assert.True(t, core.IsValidationError(err))
}

func TestUpsertInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserTable()
	profiles := cache.NewLocalProfileCache(10, time.Minute)
	svc := NewProfileService(users, profiles)

	_, err := svc.Upsert(ctx, core.UpdateProfileInput{UserID: "u1", FirstName: ptr("Ada")}, "ada@example.com")
	require.NoError(t, err)
	got, err := svc.BatchGet(ctx, []string{"u1"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", *got["u1"].FirstName)

	_, err = svc.Upsert(ctx, core.UpdateProfileInput{UserID: "u1", FirstName: ptr("Grace")}, "ada@example.com")
	require.NoError(t, err)
	got, err = svc.BatchGet(ctx, []string{"u1"})
	require.NoError(t, err)
	assert.Equal(t, "Grace", *got["u1"].FirstName)
}

func TestBatchGetChunksDistinctIDs(t *testing.T) {
	ctx := context.Background()
	users := &countingUsers{UserTable: memory.NewUserTable()}
	var ids []string
	for i := 0; i < 250; i++ {
		id := fmt.Sprintf("user-%03d", i)
		require.NoError(t, users.PutUser(ctx, core.UserProfile{UserID: id, Email: id + "@example.com"}))
		ids = append(ids, id, id)
	}
	ids = append(ids, "ghost", "")

	got, err := NewProfileService(users, nil).BatchGet(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, got, 250)
	assert.NotContains(t, got, "ghost")

	assert.ElementsMatch(t, []int{100, 100, 51}, users.batches)
}

func TestBatchGetUsesCache(t *testing.T) {
	ctx := context.Background()
	users := &countingUsers{UserTable: memory.NewUserTable()}
	require.NoError(t, users.PutUser(ctx, core.UserProfile{UserID: "u1", Email: "u1@example.com"}))
	svc := NewProfileService(users, cache.NewLocalProfileCache(10, time.Minute))

	for i := 0; i < 3; i++ {
		got, err := svc.BatchGet(ctx, []string{"u1"})
		require.NoError(t, err)
		assert.Contains(t, got, "u1")
	}
	assert.Equal(t, []int{1}, users.batches)
}

func TestFindByEmail(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserTable()
	require.NoError(t, users.PutUser(ctx, core.UserProfile{UserID: "u1", Email: "ada@example.com"}))
	svc := NewProfileService(users, nil)

	p, err := svc.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "u1", p.UserID)

	p, err = svc.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = svc.FindByEmail(ctx, "not-an-email")
	assert.True(t, core.IsValidationError(err))
}
