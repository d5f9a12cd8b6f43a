package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MonthLayout = "2006-01"
	DateLayout  = "2006-01-02"

	// SortKeyLayout is fixed width and always UTC so byte order matches
	// chronological order.
	SortKeyLayout = "2006-01-02T15:04:05.000000000Z"
)

// IndexKeys are the fields derived from an expense's occurredAt.
type IndexKeys struct {
	MonthKey string
	GSI1PK   string
	GSI1SK   string
}

// DeriveIndexKeys computes the month bucket and secondary index keys for an
// expense. It is the only place these values are produced.
func DeriveIndexKeys(userID, occurredAt string) (IndexKeys, error) {
	t, err := ParseTimestamp(occurredAt)
	if err != nil {
		return IndexKeys{}, err
	}
	monthKey := t.UTC().Format(MonthLayout)
	return IndexKeys{
		MonthKey: monthKey,
		GSI1PK:   IndexPartitionKey(userID, monthKey),
		GSI1SK:   t.UTC().Format(SortKeyLayout),
	}, nil
}

// OccurrenceSortKey returns the canonical index sort key for occurredAt.
// Unparseable values sort by their raw text.
func OccurrenceSortKey(occurredAt string) string {
	t, err := ParseTimestamp(occurredAt)
	if err != nil {
		return occurredAt
	}
	return t.UTC().Format(SortKeyLayout)
}

// IndexPartitionKey joins a user id and a month key into the index partition.
func IndexPartitionKey(userID, monthKey string) string {
	return userID + "#" + monthKey
}

// NewExpenseID returns "<UTC date of occurredAt>#<uuid>".
func NewExpenseID(occurredAt string) (string, error) {
	t, err := ParseTimestamp(occurredAt)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(DateLayout) + "#" + uuid.NewString(), nil
}

// ExpenseDate returns the date prefix of an expense id.
func ExpenseDate(expenseID string) string {
	date, _, _ := strings.Cut(expenseID, "#")
	return date
}

func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse occurredAt %q: %w", s, err)
	}
	return t, nil
}

// Now returns the current UTC time in the format stored on records.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func ValidateMonth(month string) error {
	return validateVar("month", month, "required,datetime="+MonthLayout)
}

func ValidateDate(date string) error {
	return validateVar("date", date, "required,datetime="+DateLayout)
}

func ValidateUserID(userID string) error {
	return validateVar("userId", userID, "required")
}

// ValidateExpenseKey checks both parts of an expense primary key at once.
func ValidateExpenseKey(userID, expenseID string) error {
	var out ValidationErrors
	for _, err := range []error{ValidateUserID(userID), validateVar("expenseId", expenseID, "required")} {
		var ve ValidationErrors
		if errors.As(err, &ve) {
			out = append(out, ve...)
		} else if err != nil {
			return err
		}
	}
	if len(out) > 0 {
		return out
	}
	return nil
}

func ValidateEmail(email string) error {
	return validateVar("email", email, "required,email")
}
