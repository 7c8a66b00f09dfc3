package dataset

// PriceTier classifies an article as free or behind a paywall.
type PriceTier string

const (
	TierFree PriceTier = "free"
	TierPaid PriceTier = "paid"
)

// PurchaseStatus describes whether the article body was readable at scrape
// time. Paid articles readable in the current session cannot be told apart
// from free ones, hence the combined value.
type PurchaseStatus string

const (
	StatusFree            PurchaseStatus = "free"
	StatusPurchasedOrFree PurchaseStatus = "purchased-or-free"
	StatusUnpurchased     PurchaseStatus = "unpurchased"
	StatusError           PurchaseStatus = "error"
)

// Record is one extracted article.
type Record struct {
	// Seq is the 1-based row position, assigned densely at save time.
	Seq int

	// PublishDate is an ISO-8601 timestamp, or "" when the page carried none.
	PublishDate string

	Title string
	Body  string

	PriceTier      PriceTier
	PurchaseStatus PurchaseStatus

	// URL is the normalized article URL and the unique key of the record.
	URL string
}
