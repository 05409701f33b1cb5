package domain

// Product is a bookable treatment. The duration selects which product a
// booking targets; the catalog is a small closed set of session lengths.
type Product struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	PriceCents      int64  `json:"price_cents"`
	DurationMinutes int    `json:"duration_minutes"`
	IsActive        bool   `json:"is_active"`
}
