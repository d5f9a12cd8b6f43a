package graphql

import (
	gql "github.com/graph-gophers/graphql-go"

	"expensetracker/internal/core"
)

type expenseResolver struct {
	e core.Expense
}

func newExpenseResolvers(items []core.Expense) []*expenseResolver {
	out := make([]*expenseResolver, 0, len(items))
	for _, e := range items {
		out = append(out, &expenseResolver{e: e})
	}
	return out
}

func (r *expenseResolver) UserID() gql.ID { return gql.ID(r.e.UserID) }
func (r *expenseResolver) ExpenseID() gql.ID { return gql.ID(r.e.ExpenseID) }
func (r *expenseResolver) AmountMinor() int32 { return int32(r.e.AmountMinor) }
func (r *expenseResolver) Amount() string { return core.FormatMinor(r.e.AmountMinor, r.e.Currency) }
func (r *expenseResolver) Currency() string { return r.e.Currency }
func (r *expenseResolver) Category() string { return r.e.Category }
func (r *expenseResolver) Note() *string { return r.e.Note }
func (r *expenseResolver) OccurredAt() string { return r.e.OccurredAt }
func (r *expenseResolver) MonthKey() string { return r.e.MonthKey }
func (r *expenseResolver) CreatedAt() string { return r.e.CreatedAt }

func (r *expenseResolver) User() *userResolver {
	if r.e.User == nil {
		return nil
	}
	return &userResolver{p: *r.e.User}
}

type userResolver struct {
	p core.UserProfile
}

func (r *userResolver) UserID() gql.ID { return gql.ID(r.p.UserID) }
func (r *userResolver) Email() string { return r.p.Email }
func (r *userResolver) FirstName() *string { return r.p.FirstName }
func (r *userResolver) LastName() *string { return r.p.LastName }
func (r *userResolver) DateOfBirth() *string { return r.p.DateOfBirth }
func (r *userResolver) Address() *string { return r.p.Address }
func (r *userResolver) Phone() *string { return r.p.Phone }
func (r *userResolver) DisplayName() string { return r.p.DisplayName() }
func (r *userResolver) CreatedAt() string { return r.p.CreatedAt }
func (r *userResolver) UpdatedAt() string { return r.p.UpdatedAt }

type createExpenseInput struct {
	UserID      gql.ID
	AmountMinor int32
	Currency    string
	Category    string
	Note        *string
	OccurredAt  string
}

func (in createExpenseInput) toCore() core.CreateExpenseInput {
	return core.CreateExpenseInput{
		UserID:      string(in.UserID),
		AmountMinor: int64(in.AmountMinor),
		Currency:    in.Currency,
		Category:    in.Category,
		Note:        in.Note,
		OccurredAt:  in.OccurredAt,
	}
}

type updateExpenseInput struct {
	UserID      gql.ID
	ExpenseID   gql.ID
	AmountMinor *int32
	Currency    *string
	Category    *string
	Note        *string
	OccurredAt  *string
}

func (in updateExpenseInput) toCore() core.UpdateExpenseInput {
	out := core.UpdateExpenseInput{
		UserID:     string(in.UserID),
		ExpenseID:  string(in.ExpenseID),
		Currency:   in.Currency,
		Category:   in.Category,
		Note:       in.Note,
		OccurredAt: in.OccurredAt,
	}
	if in.AmountMinor != nil {
		amount := int64(*in.AmountMinor)
		out.AmountMinor = &amount
	}
	return out
}

type deleteExpenseInput struct {
	UserID    gql.ID
	ExpenseID gql.ID
}

type updateUserProfileInput struct {
	UserID      gql.ID
	FirstName   *string
	LastName    *string
	DateOfBirth *string
	Address     *string
	Phone       *string
}

func (in updateUserProfileInput) toCore() core.UpdateProfileInput {
	return core.UpdateProfileInput{
		UserID:      string(in.UserID),
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		DateOfBirth: in.DateOfBirth,
		Address:     in.Address,
		Phone:       in.Phone,
	}
}
