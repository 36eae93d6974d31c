package entity

// Quote is a single point-in-time price observation for a Symbol.
// Price and ObservedAt are kept exactly as the provider reported them.
type Quote struct {
	Symbol     Symbol `json:"symbol"`
	Price      string `json:"price"`
	ObservedAt string `json:"observed_at"`
}
