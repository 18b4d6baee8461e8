package models

// RawOffer is one streaming option as the availability provider returns it.
type RawOffer struct {
	Link    string        `json:"link"`
	Type    string        `json:"type"`
	Quality string        `json:"quality,omitempty"`
	Price   *OfferPrice   `json:"price,omitempty"`
	Service *OfferService `json:"service,omitempty"`
}

// OfferPrice is the provider's price descriptor.
type OfferPrice struct {
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted"`
}

// OfferService is the provider's own service label. Not used for inference.
type OfferService struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NormalizedOffer is the provider-agnostic offer shape returned to clients.
type NormalizedOffer struct {
	Provider        string `json:"provider"`
	TransactionType string `json:"transactionType"`
	Quality         string `json:"quality"`
	Price           string `json:"price"`
	Link            string `json:"link"`
}

// AvailabilityResponse is the body of the standalone availability lookup.
type AvailabilityResponse struct {
	Services []NormalizedOffer `json:"services"`
}
