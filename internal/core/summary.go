package core

// PeriodSummary aggregates the transactions of one period window.
type PeriodSummary struct {
	Period           Period  `json:"period"`
	Label            string  `json:"label"`
	TotalSales       float64 `json:"totalSales"`
	TransactionCount int     `json:"transactionCount"`
	TotalItemsSold   int     `json:"totalItemsSold"`
}

// ProductSales is one row of the per-product rollup.
type ProductSales struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Quantity int     `json:"quantity"`
	Total    float64 `json:"total"`
}

// DailyPoint is one bucket of the daily time series.
type DailyPoint struct {
	Day   string  `json:"day"`   // YYYY-MM-DD
	Label string  `json:"label"` // e.g. "Jan 02"
	Sales float64 `json:"sales"`
}

// CategorySales is one row of the per-category rollup.
type CategorySales struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}
