// Package graphql exposes the expense and profile stores over GraphQL.
package graphql

import (
	"context"
	_ "embed"
	"net/http"

	gql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"

	"expensetracker/internal/auth"
	"expensetracker/internal/core"
	"expensetracker/internal/services"
)

//go:embed schema.graphql
var schemaSDL string

// ExpenseStore is the subset of the expense service the API needs.
type ExpenseStore interface {
	Create(ctx context.Context, in core.CreateExpenseInput) (core.Expense, error)
	Get(ctx context.Context, userID, expenseID string) (*core.Expense, error)
	Update(ctx context.Context, in core.UpdateExpenseInput) (core.Expense, error)
	Delete(ctx context.Context, userID, expenseID string) (bool, error)
	ListByUserMonth(ctx context.Context, userID, month string) ([]core.Expense, error)
	ListAllByMonth(ctx context.Context, month string) ([]core.Expense, error)
	FindByUserDate(ctx context.Context, userID, date string) ([]core.Expense, error)
}

type ProfileStore interface {
	GetOrCreate(ctx context.Context, userID, email string) (core.UserProfile, error)
	Upsert(ctx context.Context, in core.UpdateProfileInput, email string) (core.UserProfile, error)
}

var (
	_ ExpenseStore = (*services.ExpenseService)(nil)
	_ ProfileStore = (*services.ProfileService)(nil)
)

// Resolver is the root resolver. Every operation taking a userId requires
// the caller to be that user; allExpensesByMonth only requires a caller.
type Resolver struct {
	expenses ExpenseStore
	profiles ProfileStore
}

func NewResolver(expenses ExpenseStore, profiles ProfileStore) *Resolver {
	return &Resolver{expenses: expenses, profiles: profiles}
}

// NewSchema parses the embedded schema against r.
func NewSchema(r *Resolver) *gql.Schema {
	return gql.MustParseSchema(schemaSDL, r, gql.MaxDepth(8))
}

// NewHandler serves GraphQL over HTTP POST. Identity must already be in the
// request context.
func NewHandler(r *Resolver) http.Handler {
	return &relay.Handler{Schema: NewSchema(r)}
}

func (r *Resolver) GetExpense(ctx context.Context, args struct {
	UserID    gql.ID
	ExpenseID gql.ID
}) (*expenseResolver, error) {
	const op = "getExpense"
	if _, err := auth.RequireSubject(ctx, string(args.UserID)); err != nil {
		return nil, toAPIError(ctx, op, err)
	}
	e, err := r.expenses.Get(ctx, string(args.UserID), string(args.ExpenseID))
	if err != nil {
		return nil, toAPIError(ctx, op, err)
	}
	if e == nil {
		return nil, nil
	}
	return &expenseResolver{e: *e}, nil
}

func (r *Resolver) ExpensesByMonth(ctx context.Context, args struct {
	UserID gql.ID
	Month  string
}) ([]*expenseResolver, error) {
	const op = "expensesByMonth"
	if _, err := auth.RequireSubject(ctx, string(args.UserID)); err != nil {
		return nil, toAPIError(ctx, op, err)
	}
	items, err := r.expenses.ListByUserMonth(ctx, string(args.UserID), args.Month)
	if err != nil {
		return nil, toAPIError(ctx, op, err)
	}
	return newExpenseResolvers(items), nil
}

func (r *Resolver) AllExpensesByMonth(ctx context.Context, args struct{ Month string }) ([]*expenseResolver, error) {
	const op = "allExpensesByMonth"
	if _, err := auth.FromContext(ctx); err != nil {
		return nil, toAPIError(ctx, op, err)
	}
	items, err := r.expenses.ListAllByMonth(ctx, args.Month)
	if err != nil {
		return nil, toAPIError(ctx, op, err)
	}
	return newExpenseResolvers(items), nil
}

func (r *Resolver) FindExpensesByDate(ctx context.Context, args struct {
	UserID gql.ID
	Date   string
}) ([]*expenseResolver, error) {
	const op = "findExpensesByDate"
	if _, err := auth.RequireSubject(ctx, string(args.UserID)); err != nil {
		return nil, toAPIError(ctx, op, err)
	}
	items, err := r.expenses.FindByUserDate(ctx, string(args.UserID), args.Date)
	if err != nil {
		return nil, toAPIError(ctx, op, err)
	}
	return newExpenseResolvers(items), nil
}

func (r *Resolver) GetUserProfile(ctx context.Context, args struct{ UserID gql.ID }) (*userResolver, error) {
	const op = "getUserProfile"
	id, err := auth.RequireSubject(ctx, string(args.UserID))
	if err != nil {
		return nil, toAPIError(ctx, op, err)
	}
	p, err := r.profiles.GetOrCreate(ctx, id.Subject, id.Email)
	if err != nil {
		return nil, toAPIError(ctx, op, err)
	}
	return &userResolver{p: p}, nil
}

func (r *Resolver) CreateExpense(ctx context.Context, args struct{ Input createExpenseInput }) (*expenseResolver, error) {
	const op = "createExpense"
	if _, err := auth.RequireSubject(ctx, string(args.Input.UserID)); err != nil {
		return nil, toAPIError(ctx, op, err)
	}
	e, err := r.expenses.Create(ctx, args.Input.toCore())
	if err != nil {
		return nil, toAPIError(ctx, op, err)
	}
	return &expenseResolver{e: e}, nil
}

func (r *Resolver) UpdateExpense(ctx context.Context, args struct{ Input updateExpenseInput }) (*expenseResolver, error) {
	const op = "updateExpense"
	if _, err := auth.RequireSubject(ctx, string(args.Input.UserID)); err != nil {
		return nil, toAPIError(ctx, op, err)
	}
	e, err := r.expenses.Update(ctx, args.Input.toCore())
	if err != nil {
		return nil, toAPIError(ctx, op, err)
	}
	return &expenseResolver{e: e}, nil
}

func (r *Resolver) DeleteExpense(ctx context.Context, args struct{ Input deleteExpenseInput }) (bool, error) {
	const op = "deleteExpense"
	if _, err := auth.RequireSubject(ctx, string(args.Input.UserID)); err != nil {
		return false, toAPIError(ctx, op, err)
	}
	ok, err := r.expenses.Delete(ctx, string(args.Input.UserID), string(args.Input.ExpenseID))
	if err != nil {
		return false, toAPIError(ctx, op, err)
	}
	return ok, nil
}

func (r *Resolver) UpdateUserProfile(ctx context.Context, args struct{ Input updateUserProfileInput }) (*userResolver, error) {
	const op = "updateUserProfile"
	id, err := auth.RequireSubject(ctx, string(args.Input.UserID))
	if err != nil {
		return nil, toAPIError(ctx, op, err)
	}
	p, err := r.profiles.Upsert(ctx, args.Input.toCore(), id.Email)
	if err != nil {
		return nil, toAPIError(ctx, op, err)
	}
	return &userResolver{p: p}, nil
}
