package services

import (
	"context"
	"errors"
	"fmt"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

// ExpenseService implements the expense store operations on top of an
// ExpenseTable, decorating read results with user profiles.
type ExpenseService struct {
	expenses ExpenseTable
	profiles *ProfileService
	events   EventPublisher
	logger   *log.Logger
}

// NewExpenseService wires the service. events may be nil, in which case
// change events are skipped.
func NewExpenseService(expenses ExpenseTable, profiles *ProfileService, events EventPublisher) *ExpenseService {
	return &ExpenseService{
		expenses: expenses,
		profiles: profiles,
		events:   events,
		logger:   log.New(log.DefaultConfig()).WithComponent(log.ComponentExpense),
	}
}

// WithLogger replaces the component logger.
func (s *ExpenseService) WithLogger(l *log.Logger) *ExpenseService {
	s.logger = l.WithComponent(log.ComponentExpense)
	return s
}

func (s *ExpenseService) Create(ctx context.Context, in core.CreateExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	keys, err := core.DeriveIndexKeys(in.UserID, in.OccurredAt)
	if err != nil {
		return core.Expense{}, err
	}
	id, err := core.NewExpenseID(in.OccurredAt)
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		UserID:      in.UserID,
		ExpenseID:   id,
		AmountMinor: in.AmountMinor,
		Currency:    in.Currency,
		Category:    in.Category,
		Note:        in.Note,
		OccurredAt:  in.OccurredAt,
		MonthKey:    keys.MonthKey,
		CreatedAt:   core.Now(),
		GSI1PK:      keys.GSI1PK,
		GSI1SK:      keys.GSI1SK,
	}
	if err := s.expenses.PutExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("put expense: %w", err)
	}

	s.logger.For(ctx).InfoContext(ctx, "Expense created", log.NewFields().
		WithOperation(log.OpCreate).
		WithExpense(e.UserID, e.ExpenseID, e.MonthKey, e.AmountMinor, e.Currency, e.Category).
		ToSlice()...)
	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseCreated, e))
	return e, nil
}

// Get returns nil, nil when the expense does not exist.
func (s *ExpenseService) Get(ctx context.Context, userID, expenseID string) (*core.Expense, error) {
	if err := core.ValidateExpenseKey(userID, expenseID); err != nil {
		return nil, err
	}
	e, err := s.expenses.GetExpense(ctx, userID, expenseID)
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (s *ExpenseService) Update(ctx context.Context, in core.UpdateExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	if !in.HasChanges() {
		return core.Expense{}, core.ErrNoFieldsToUpdate
	}

	patch := core.ExpensePatch{
		AmountMinor: in.AmountMinor,
		Currency:    in.Currency,
		Category:    in.Category,
		Note:        in.Note,
		OccurredAt:  in.OccurredAt,
	}
	if in.OccurredAt != nil {
		keys, err := core.DeriveIndexKeys(in.UserID, *in.OccurredAt)
		if err != nil {
			return core.Expense{}, err
		}
		patch.Keys = &keys
	}

	// The previous month is only needed to tell consumers which month to
	// refresh when the expense moved.
	var previousMonth string
	if s.events != nil && patch.Keys != nil {
		if old, err := s.expenses.GetExpense(ctx, in.UserID, in.ExpenseID); err == nil && old != nil {
			previousMonth = old.MonthKey
		}
	}

	e, err := s.expenses.UpdateExpense(ctx, in.UserID, in.ExpenseID, patch)
	if err != nil {
		if errors.Is(err, core.ErrExpenseNotFound) {
			return core.Expense{}, err
		}
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.logger.For(ctx).InfoContext(ctx, "Expense updated", log.NewFields().
		WithOperation(log.OpUpdate).
		WithExpense(e.UserID, e.ExpenseID, e.MonthKey, e.AmountMinor, e.Currency, e.Category).
		ToSlice()...)

	ev := amqp.NewExpenseEvent(amqp.EventExpenseUpdated, e)
	if previousMonth != e.MonthKey {
		ev.PreviousMonthKey = previousMonth
	}
	s.publish(ctx, ev)
	return e, nil
}

// Delete is idempotent: deleting a missing expense succeeds.
func (s *ExpenseService) Delete(ctx context.Context, userID, expenseID string) (bool, error) {
	if err := core.ValidateExpenseKey(userID, expenseID); err != nil {
		return false, err
	}
	old, err := s.expenses.DeleteExpense(ctx, userID, expenseID)
	if err != nil {
		return false, fmt.Errorf("delete expense: %w", err)
	}
	if old == nil {
		s.logger.For(ctx).DebugContext(ctx, "Delete of missing expense",
			log.FieldUserID, userID, log.FieldExpenseID, expenseID)
		return true, nil
	}

	s.logger.For(ctx).InfoContext(ctx, "Expense deleted", log.NewFields().
		WithOperation(log.OpDelete).
		WithExpense(old.UserID, old.ExpenseID, old.MonthKey, old.AmountMinor, old.Currency, old.Category).
		ToSlice()...)
	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseDeleted, *old))
	return true, nil
}

// ListByUserMonth returns one user's expenses for month, oldest first.
func (s *ExpenseService) ListByUserMonth(ctx context.Context, userID, month string) ([]core.Expense, error) {
	if err := joinValidation(core.ValidateUserID(userID), core.ValidateMonth(month)); err != nil {
		return nil, err
	}
	items, err := s.expenses.QueryIndex(ctx, core.IndexPartitionKey(userID, month))
	if err != nil {
		return nil, fmt.Errorf("query expenses index: %w", err)
	}
	return s.decorate(ctx, items)
}

// ListAllByMonth returns every user's expenses for month, oldest first.
func (s *ExpenseService) ListAllByMonth(ctx context.Context, month string) ([]core.Expense, error) {
	if err := core.ValidateMonth(month); err != nil {
		return nil, err
	}
	items, err := s.expenses.ScanMonth(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("scan expenses: %w", err)
	}
	core.SortByOccurredAt(items)
	return s.decorate(ctx, items)
}

// FindByUserDate returns the expenses whose id starts with date.
func (s *ExpenseService) FindByUserDate(ctx context.Context, userID, date string) ([]core.Expense, error) {
	if err := joinValidation(core.ValidateUserID(userID), core.ValidateDate(date)); err != nil {
		return nil, err
	}
	items, err := s.expenses.QueryIDPrefix(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("query expenses by date: %w", err)
	}
	return items, nil
}

// BackfillReport summarises one BackfillIndex run.
type BackfillReport struct {
	Scanned int  `json:"scanned"`
	Updated int  `json:"updated"`
	Skipped int  `json:"skipped"`
	Failed  int  `json:"failed"`
	DryRun  bool `json:"dryRun"`
}

// BackfillIndex recomputes the derived index keys of every stored expense
// and rewrites the ones that differ. With dryRun nothing is written.
func (s *ExpenseService) BackfillIndex(ctx context.Context, dryRun bool) (BackfillReport, error) {
	report := BackfillReport{DryRun: dryRun}
	err := s.expenses.ScanExpenses(ctx, func(e core.Expense) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Scanned++

		keys, err := core.DeriveIndexKeys(e.UserID, e.OccurredAt)
		if err != nil {
			report.Failed++
			s.logger.For(ctx).WarnContext(ctx, "Cannot derive index keys",
				log.FieldUserID, e.UserID, log.FieldExpenseID, e.ExpenseID, log.FieldError, err)
			return nil
		}
		if keys.MonthKey == e.MonthKey && keys.GSI1PK == e.GSI1PK && keys.GSI1SK == e.GSI1SK {
			report.Skipped++
			return nil
		}
		if dryRun {
			report.Updated++
			return nil
		}
		if _, err := s.expenses.UpdateExpense(ctx, e.UserID, e.ExpenseID, core.ExpensePatch{Keys: &keys}); err != nil {
			return fmt.Errorf("backfill %s/%s: %w", e.UserID, e.ExpenseID, err)
		}
		report.Updated++
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("scan expenses: %w", err)
	}

	s.logger.For(ctx).InfoContext(ctx, "Index backfill finished",
		log.FieldOperation, log.OpBackfill,
		"scanned", report.Scanned,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"dry_run", dryRun)
	return report, nil
}

// decorate attaches the owner's profile to each expense using one batch
// lookup of the distinct user ids.
func (s *ExpenseService) decorate(ctx context.Context, items []core.Expense) ([]core.Expense, error) {
	if len(items) == 0 || s.profiles == nil {
		return items, nil
	}
	ids := make([]string, 0, len(items))
	for _, e := range items {
		ids = append(ids, e.UserID)
	}
	profiles, err := s.profiles.BatchGet(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if p, ok := profiles[items[i].UserID]; ok {
			items[i].User = &p
		}
	}
	return items, nil
}

func (s *ExpenseService) publish(ctx context.Context, ev *amqp.ExpenseEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishExpenseEvent(ctx, ev); err != nil {
		s.logger.For(ctx).WarnContext(ctx, "Failed to publish expense event",
			log.FieldOperation, log.OpPublish,
			log.FieldEventType, string(ev.Type),
			log.FieldUserID, ev.UserID,
			log.FieldExpenseID, ev.ExpenseID,
			log.FieldError, err)
		return
	}
	s.logger.For(ctx).DebugContext(ctx, "Published expense event",
		log.FieldEventType, string(ev.Type), log.FieldExpenseID, ev.ExpenseID)
}

// joinValidation merges several validation results into one error so that
// every violated constraint is reported together.
func joinValidation(errs ...error) error {
	var out core.ValidationErrors
	for _, err := range errs {
		if err == nil {
			continue
		}
		var ve core.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		out = append(out, ve...)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
