package core

import "sort"

// CategoryAmount is an amount aggregated by category within one currency.
type CategoryAmount struct {
	Name        string
	Currency    string
	AmountMinor int64
}

// CurrencyAmount is a total for one currency.
type CurrencyAmount struct {
	Currency    string
	AmountMinor int64
}

// MonthOverview is a compact summary of one user's month.
type MonthOverview struct {
	MonthKey   string
	Count      int
	Totals     []CurrencyAmount
	ByCategory []CategoryAmount
}

// Summarize aggregates expenses by currency and by category. Amounts in
// different currencies are never added together.
func Summarize(monthKey string, expenses []Expense) MonthOverview {
	totals := map[string]int64{}
	type catKey struct{ name, currency string }
	cats := map[catKey]int64{}
	for _, e := range expenses {
		totals[e.Currency] += e.AmountMinor
		cats[catKey{e.Category, e.Currency}] += e.AmountMinor
	}

	ov := MonthOverview{MonthKey: monthKey, Count: len(expenses)}
	for cur, amt := range totals {
		ov.Totals = append(ov.Totals, CurrencyAmount{Currency: cur, AmountMinor: amt})
	}
	sort.Slice(ov.Totals, func(i, j int) bool { return ov.Totals[i].Currency < ov.Totals[j].Currency })

	for k, amt := range cats {
		ov.ByCategory = append(ov.ByCategory, CategoryAmount{Name: k.name, Currency: k.currency, AmountMinor: amt})
	}
	sort.Slice(ov.ByCategory, func(i, j int) bool {
		a, b := ov.ByCategory[i], ov.ByCategory[j]
		if a.AmountMinor != b.AmountMinor {
			return a.AmountMinor > b.AmountMinor
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Currency < b.Currency
	})
	return ov
}

// SortByOccurredAt orders expenses ascending by occurrence, then by id.
func SortByOccurredAt(expenses []Expense) {
	keys := make(map[string]string, len(expenses))
	for _, e := range expenses {
		keys[e.OccurredAt] = OccurrenceSortKey(e.OccurredAt)
	}
	sort.SliceStable(expenses, func(i, j int) bool {
		a, b := keys[expenses[i].OccurredAt], keys[expenses[j].OccurredAt]
		if a != b {
			return a < b
		}
		return expenses[i].ExpenseID < expenses[j].ExpenseID
	})
}
