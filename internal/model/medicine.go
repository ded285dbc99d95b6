package model

import "github.com/google/uuid"

// Medicine is a prescription line belonging to exactly one patient.
// Only the patient's assigned doctor or a superuser may create or
// change it.
type Medicine struct {
	Base
	PatientID uuid.UUID `json:"patient_id" db:"patient_id"`
	Name      string    `json:"name" db:"name"`
	Order     string    `json:"order" db:"order_text"`
}

// CreateMedicineRequest represents prescription parameters
type CreateMedicineRequest struct {
	Name  string `json:"name" binding:"required"`
	Order string `json:"order"`
}
