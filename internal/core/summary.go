package core

// CategoryTotal is an amount aggregated by category name.
type CategoryTotal struct {
	Name   string
	Amount float64
}

// Summary is the aggregate view of spending, optionally scoped to one date.
// A zero Date means the summary covers all recorded transactions.
type Summary struct {
	Date       Date
	Total      float64
	ByCategory []CategoryTotal
}
