package models

// Result is the outcome of a mutating operation.
type Result struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Count   int           `json:"count,omitempty"`
	Record  *ResultRecord `json:"result,omitempty"`
}
