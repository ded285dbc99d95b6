package model

import "time"

// InvoiceLine is one payment rendered on the invoice, numbered from 1
// in creation order.
type InvoiceLine struct {
	Seq   int    `json:"seq"`
	Title string `json:"title"`
	Cost  int64  `json:"cost"`
	Paid  int64  `json:"paid"`
}

// Invoice is the data contract of the invoice view: patient identity
// plus the per-line breakdown and grand totals.
type Invoice struct {
	NationalID  string        `json:"national_id"`
	Name        string        `json:"name"`
	Address     string        `json:"address"`
	PhoneNumber string        `json:"phone_number"`
	AdmittedAt  time.Time     `json:"admitted_at"`
	Lines       []InvoiceLine `json:"line_items"`
	TotalPaid   int64         `json:"total_paid"`
	TotalUnpaid int64         `json:"total_unpaid"`
}
