package models

// PaymentIntentRecord tracks the upfront authorization created for
// immediate-payment tiers. For negotiated tiers (3-4) no record exists until a
// provider proposal is accepted; that absence is deliberate.
type PaymentIntentRecord struct {
	JobID            string `json:"jobId"`
	IntentID         string `json:"intentId"`
	AmountCents      int64  `json:"amountCents"`
	Currency         string `json:"currency"`
	StripeCustomerID string `json:"stripeCustomerId,omitempty"`
	Status           string `json:"status"`
}
