package model

import "github.com/google/uuid"

// Payment is a billing line for one patient. Amounts are integral
// currency units under the running-balance schema: Paid accumulates
// toward Cost and may never exceed it.
type Payment struct {
	Base
	PatientID uuid.UUID `json:"patient_id" db:"patient_id"`
	Title     string    `json:"title" db:"title"`
	Cost      int64     `json:"cost" db:"cost"`
	Paid      int64     `json:"paid" db:"paid"`
}

// Outstanding returns the unpaid remainder of this line, never negative.
func (p *Payment) Outstanding() int64 {
	if p.Cost > p.Paid {
		return p.Cost - p.Paid
	}
	return 0
}

// Settled reports whether the line is fully paid.
func (p *Payment) Settled() bool {
	return p.Paid >= p.Cost
}

// CreatePaymentRequest represents billing line parameters
type CreatePaymentRequest struct {
	Title string `json:"title" binding:"required"`
	Cost  int64  `json:"cost" binding:"min=0"`
	Paid  int64  `json:"paid" binding:"min=0"`
}

// UpdatePaymentRequest represents a partial payment update
type UpdatePaymentRequest struct {
	Title *string `json:"title"`
	Cost  *int64  `json:"cost" binding:"omitempty,min=0"`
	Paid  *int64  `json:"paid" binding:"omitempty,min=0"`
}
