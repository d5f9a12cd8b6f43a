package core

type (
	// Expense is a single monetary transaction owned by UserID.
	//
	// MonthKey, GSI1PK and GSI1SK are derived from OccurredAt by DeriveIndexKeys
	// and must never be written independently of it.
	Expense struct {
		UserID      string       `json:"userId" dynamodbav:"userId"`
		ExpenseID   string       `json:"expenseId" dynamodbav:"expenseId"`
		AmountMinor int64        `json:"amountMinor" dynamodbav:"amountMinor"`
		Currency    string       `json:"currency" dynamodbav:"currency"`
		Category    string       `json:"category" dynamodbav:"category"`
		Note        *string      `json:"note,omitempty" dynamodbav:"note,omitempty"`
		OccurredAt  string       `json:"occurredAt" dynamodbav:"occurredAt"`
		MonthKey    string       `json:"monthKey" dynamodbav:"monthKey"`
		CreatedAt   string       `json:"createdAt" dynamodbav:"createdAt"`
		GSI1PK      string       `json:"GSI1PK" dynamodbav:"GSI1PK"`
		GSI1SK      string       `json:"GSI1SK" dynamodbav:"GSI1SK"`
		User        *UserProfile `json:"user,omitempty" dynamodbav:"-"`
	}

	CreateExpenseInput struct {
		UserID      string  `json:"userId" validate:"required"`
		AmountMinor int64   `json:"amountMinor" validate:"gt=0"`
		Currency    string  `json:"currency" validate:"len=3,alpha"`
		Category    string  `json:"category" validate:"required"`
		Note        *string `json:"note,omitempty"`
		OccurredAt  string  `json:"occurredAt" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	}

	// UpdateExpenseInput carries a partial update. Nil fields are left untouched.
	UpdateExpenseInput struct {
		UserID      string  `json:"userId" validate:"required"`
		ExpenseID   string  `json:"expenseId" validate:"required"`
		AmountMinor *int64  `json:"amountMinor,omitempty" validate:"omitempty,gt=0"`
		Currency    *string `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
		Category    *string `json:"category,omitempty" validate:"omitempty,min=1"`
		Note        *string `json:"note,omitempty"`
		OccurredAt  *string `json:"occurredAt,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	}

	// ExpensePatch is the storage-level form of an update: the supplied fields
	// plus, when OccurredAt changed, the recomputed index keys.
	ExpensePatch struct {
		AmountMinor *int64
		Currency    *string
		Category    *string
		Note        *string
		OccurredAt  *string
		Keys        *IndexKeys
	}
)

func (in CreateExpenseInput) Validate() error {
	return validateStruct(in)
}

func (in UpdateExpenseInput) Validate() error {
	return validateStruct(in)
}

// HasChanges reports whether at least one mutable field was supplied.
func (in UpdateExpenseInput) HasChanges() bool {
	return in.AmountMinor != nil || in.Currency != nil || in.Category != nil ||
		in.Note != nil || in.OccurredAt != nil
}

// Apply returns a copy of e with the patch applied.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.AmountMinor != nil {
		e.AmountMinor = *p.AmountMinor
	}
	if p.Currency != nil {
		e.Currency = *p.Currency
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Note != nil {
		note := *p.Note
		e.Note = &note
	}
	if p.OccurredAt != nil {
		e.OccurredAt = *p.OccurredAt
	}
	if p.Keys != nil {
		e.MonthKey = p.Keys.MonthKey
		e.GSI1PK = p.Keys.GSI1PK
		e.GSI1SK = p.Keys.GSI1SK
	}
	return e
}
