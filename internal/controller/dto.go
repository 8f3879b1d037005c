package controller

// CheckoutSessionQuery holds the validated query parameters of a checkout
// request.
type CheckoutSessionQuery struct {
	PriceID  string `validate:"required"`
	Quantity int64  `validate:"required,gt=0"`
}

// CheckoutSessionResponse carries the provider redirect URL.
type CheckoutSessionResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

// StockResponse is the point read of a ticket's available stock.
type StockResponse struct {
	Stock int64 `json:"stock"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
