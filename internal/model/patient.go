package model

import (
	"time"

	"github.com/google/uuid"
)

// InsuranceType enumerates the supported insurance categories
type InsuranceType string

const (
	InsuranceNone    InsuranceType = "none"
	InsuranceGeneral InsuranceType = "general"
	InsuranceSocial  InsuranceType = "social"
	InsuranceNomads  InsuranceType = "nomads"
)

var insuranceTypes = map[InsuranceType]bool{
	InsuranceNone:    true,
	InsuranceGeneral: true,
	InsuranceSocial:  true,
	InsuranceNomads:  true,
}

func (t InsuranceType) Valid() bool { return insuranceTypes[t] }

// BloodType is a standard ABO/Rh group
type BloodType string

const (
	BloodAPos  BloodType = "A+"
	BloodANeg  BloodType = "A-"
	BloodBPos  BloodType = "B+"
	BloodBNeg  BloodType = "B-"
	BloodOPos  BloodType = "O+"
	BloodONeg  BloodType = "O-"
	BloodABPos BloodType = "AB+"
	BloodABNeg BloodType = "AB-"
)

var bloodTypes = map[BloodType]bool{
	BloodAPos: true, BloodANeg: true,
	BloodBPos: true, BloodBNeg: true,
	BloodOPos: true, BloodONeg: true,
	BloodABPos: true, BloodABNeg: true,
}

func (t BloodType) Valid() bool { return bloodTypes[t] }

// Patient is an admitted (or historical) ward patient. AdmittedAt is
// stamped once at intake and never changes; DischargedAt is null while
// the patient is hospitalized.
type Patient struct {
	Base
	NationalID     string        `json:"national_id" db:"national_id"`
	FirstName      string        `json:"first_name" db:"first_name"`
	LastName       string        `json:"last_name" db:"last_name"`
	Sickness       string        `json:"sickness" db:"sickness"`
	WatchfulName   string        `json:"watchful_name" db:"watchful_name"`
	Age            int           `json:"age" db:"age"`
	Height         int           `json:"height" db:"height"`
	Weight         int           `json:"weight" db:"weight"`
	PhoneNumber    string        `json:"phone_number" db:"phone_number"`
	InsuranceType  InsuranceType `json:"insurance_type" db:"insurance_type"`
	Address        string        `json:"address" db:"address"`
	BloodType      BloodType     `json:"blood_type" db:"blood_type"`
	DoctorOrder    string        `json:"doctor_order" db:"doctor_order"`
	NurseReport    string        `json:"nurse_report" db:"nurse_report"`
	DoctorID       *uuid.UUID    `json:"doctor" db:"doctor_id"`
	NurseID        *uuid.UUID    `json:"nurse" db:"nurse_id"`
	AdmittedAt     time.Time     `json:"admitted_at" db:"admitted_at"`
	IsHospitalized bool          `json:"is_hospitalized" db:"is_hospitalized"`
	DischargedAt   *time.Time    `json:"discharged_at" db:"discharged_at"`
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// CreatePatientRequest represents intake parameters
type CreatePatientRequest struct {
	NationalID    string        `json:"national_id" binding:"required"`
	FirstName     string        `json:"first_name" binding:"required"`
	LastName      string        `json:"last_name" binding:"required"`
	Sickness      string        `json:"sickness"`
	WatchfulName  string        `json:"watchful_name"`
	Age           int           `json:"age" binding:"min=0"`
	Height        int           `json:"height" binding:"min=0"`
	Weight        int           `json:"weight" binding:"min=0"`
	PhoneNumber   string        `json:"phone_number" binding:"required"`
	InsuranceType InsuranceType `json:"insurance_type" binding:"omitempty,insurance"`
	Address       string        `json:"address"`
	BloodType     BloodType     `json:"blood_type" binding:"required,bloodtype"`
	DoctorID      *uuid.UUID    `json:"doctor"`
	NurseID       *uuid.UUID    `json:"nurse"`
}

// UpdatePatientRequest represents a partial patient update. Every
// field is optional; the policy engine decides which submitted fields
// are accepted.
type UpdatePatientRequest struct {
	NationalID     *string        `json:"national_id"`
	FirstName      *string        `json:"first_name"`
	LastName       *string        `json:"last_name"`
	Sickness       *string        `json:"sickness"`
	WatchfulName   *string        `json:"watchful_name"`
	Age            *int           `json:"age"`
	Height         *int           `json:"height"`
	Weight         *int           `json:"weight"`
	PhoneNumber    *string        `json:"phone_number"`
	InsuranceType  *InsuranceType `json:"insurance_type" binding:"omitempty,insurance"`
	Address        *string        `json:"address"`
	BloodType      *BloodType     `json:"blood_type" binding:"omitempty,bloodtype"`
	DoctorOrder    *string        `json:"doctor_order"`
	NurseReport    *string        `json:"nurse_report"`
	DoctorID       *uuid.UUID     `json:"doctor"`
	NurseID        *uuid.UUID     `json:"nurse"`
	IsHospitalized *bool          `json:"is_hospitalized"`
}

// PatientFilters represents patient list parameters
type PatientFilters struct {
	Search         string `form:"search"`
	IsHospitalized *bool  `form:"is_hospitalized"`
}

// PatientRow is one row of the role-filtered patient list. Columns the
// policy engine hides for the acting role are omitted from the JSON.
type PatientRow struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Sickness       string    `json:"sickness"`
	Doctor         string    `json:"doctor,omitempty"`
	Nurse          string    `json:"nurse,omitempty"`
	Debt           string    `json:"debt,omitempty"`
	Paid           string    `json:"paid,omitempty"`
	AdmittedAt     string    `json:"admitted_at,omitempty"`
	DischargedAt   string    `json:"discharged_at,omitempty"`
	Bed            string    `json:"bed,omitempty"`
	IsHospitalized bool      `json:"is_hospitalized"`
}
