package domain

// OrderSide is the taker direction of an order, in the venue's wire spelling.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// FulfillmentPolicy is the time-in-force the venue applies to an order.
type FulfillmentPolicy string

const (
	PolicyGTC FulfillmentPolicy = "GTC" // Good-Till-Cancelled
	PolicyFOK FulfillmentPolicy = "FOK" // Fill-Or-Kill
	PolicyFAK FulfillmentPolicy = "FAK" // Fill-And-Kill (immediate-or-cancel)
)

// PolicyFromString maps a caller-supplied policy string to a venue policy.
// The mapping is total: FOK, GTC, and the two spellings of
// immediate-or-cancel (IOC, FAK) map to themselves, and every other string
// falls back to FOK.
func PolicyFromString(s string) FulfillmentPolicy {
	switch s {
	case "GTC":
		return PolicyGTC
	case "FOK":
		return PolicyFOK
	case "IOC", "FAK":
		return PolicyFAK
	default:
		return PolicyFOK
	}
}

// OrderResult is the venue's response to an order submission or cancel,
// passed through with its wire field names.
type OrderResult struct {
	Success      bool     `json:"success"`
	ErrorMsg     string   `json:"errorMsg"`
	OrderID      string   `json:"orderID"`
	Status       string   `json:"status"`
	TakingAmount string   `json:"takingAmount,omitempty"`
	MakingAmount string   `json:"makingAmount,omitempty"`
	OrderHashes  []string `json:"transactionsHashes,omitempty"`
}

// CancelResult is the venue's response to an order cancellation.
type CancelResult struct {
	Canceled    []string          `json:"canceled,omitempty"`
	NotCanceled map[string]string `json:"not_canceled,omitempty"`
}
