package core

import "sort"

// TrendDays is the width of the spending trend window, today included.
const TrendDays = 7

// WarningThreshold is the budget usage percentage above which spending is flagged.
const WarningThreshold = 70.0

// CategoryShare is one slice of the category breakdown.
type CategoryShare struct {
	Category string  `json:"category"`
	Color    string  `json:"color"`
	Amount   Money   `json:"amount"`
	Percent  float64 `json:"percent"`
}

// DayBucket is one day of accumulated spend in the trend window.
type DayBucket struct {
	Date   Date  `json:"date"`
	Amount Money `json:"amount"`
}

// BudgetLevel classifies budget usage for the progress display.
type BudgetLevel string

const (
	BudgetOK       BudgetLevel = "ok"
	BudgetWarning  BudgetLevel = "warning"
	BudgetExceeded BudgetLevel = "exceeded"
)

// BudgetStatus compares total spend against the budget.
type BudgetStatus struct {
	Budget    Money       `json:"budget"`
	Spent     Money       `json:"spent"`
	Remaining Money       `json:"remaining"`
	Percent   float64     `json:"percent"`
	Progress  float64     `json:"progress"` // Percent capped at 100
	Level     BudgetLevel `json:"level"`
}

// Total sums the amounts of expenses.
func Total(expenses []Expense) Money {
	var cents int64
	for _, e := range expenses {
		cents += e.Amount.Cents
	}
	return Money{Cents: cents}
}

// Breakdown sums spend per category and returns the non-empty categories
// sorted by amount, largest first. Equal amounts keep registry order.
// A zero total yields an empty breakdown.
func Breakdown(expenses []Expense) []CategoryShare {
	sums := make(map[string]int64)
	var total int64
	for _, e := range expenses {
		sums[e.Category] += e.Amount.Cents
		total += e.Amount.Cents
	}
	if total == 0 {
		return []CategoryShare{}
	}

	shares := make([]CategoryShare, 0, len(sums))
	for name, cents := range sums {
		if cents == 0 {
			continue
		}
		color := ""
		if cfg, ok := LookupCategory(name); ok {
			color = cfg.Color
		}
		shares = append(shares, CategoryShare{
			Category: name,
			Color:    color,
			Amount:   Money{Cents: cents},
			Percent:  float64(cents) / float64(total) * 100,
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Amount.Cents != shares[j].Amount.Cents {
			return shares[i].Amount.Cents > shares[j].Amount.Cents
		}
		ri, rj := categoryRank(shares[i].Category), categoryRank(shares[j].Category)
		if ri != rj {
			return ri < rj
		}
		return shares[i].Category < shares[j].Category
	})
	return shares
}

// Trend returns exactly TrendDays buckets from six days before today through
// today, oldest first. Expenses outside the window are ignored.
func Trend(expenses []Expense, today Date) []DayBucket {
	buckets := make([]DayBucket, TrendDays)
	first := today.AddDays(-(TrendDays - 1))
	index := make(map[string]int, TrendDays)
	for i := range buckets {
		d := first.AddDays(i)
		buckets[i] = DayBucket{Date: d}
		index[d.String()] = i
	}
	for _, e := range expenses {
		if i, ok := index[e.Date.String()]; ok {
			buckets[i].Amount.Cents += e.Amount.Cents
		}
	}
	return buckets
}

// NewBudgetStatus computes usage of budget by spent.
//
// With a zero budget any spend counts as fully used.
func NewBudgetStatus(spent, budget Money) BudgetStatus {
	st := BudgetStatus{
		Budget:    budget,
		Spent:     spent,
		Remaining: Money{Cents: budget.Cents - spent.Cents},
	}
	switch {
	case budget.Cents > 0:
		st.Percent = float64(spent.Cents*100) / float64(budget.Cents)
	case spent.Cents > 0:
		st.Percent = 100
	}
	st.Progress = st.Percent
	if st.Progress > 100 {
		st.Progress = 100
	}
	switch {
	case st.Percent > 100:
		st.Level = BudgetExceeded
	case st.Percent > WarningThreshold:
		st.Level = BudgetWarning
	default:
		st.Level = BudgetOK
	}
	return st
}
