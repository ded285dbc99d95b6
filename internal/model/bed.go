package model

import (
	"fmt"

	"github.com/google/uuid"
)

// ICUFloor is the floor number reserved for intensive care
const ICUFloor = 0

// Bed is a single ward bed. PatientID is an exclusive back-reference:
// the store enforces that no patient occupies two beds.
type Bed struct {
	Base
	Floor     int        `json:"floor" db:"floor"`
	Room      int        `json:"room" db:"room"`
	Number    int        `json:"number" db:"number"`
	PatientID *uuid.UUID `json:"patient,omitempty" db:"patient_id"`
}

func (b *Bed) Occupied() bool {
	return b.PatientID != nil
}

// Label renders the floor/room/bed triple the way ward staff refer to
// a bed, e.g. "2-104-3". The ICU floor is spelled out.
func (b *Bed) Label() string {
	if b.Floor == ICUFloor {
		return fmt.Sprintf("ICU-%d-%d", b.Room, b.Number)
	}
	return fmt.Sprintf("%d-%d-%d", b.Floor, b.Room, b.Number)
}

// CreateBedRequest represents bed registration parameters
type CreateBedRequest struct {
	Floor  int `json:"floor" binding:"min=0"`
	Room   int `json:"room" binding:"required,min=1"`
	Number int `json:"number" binding:"required,min=1"`
}

// BedFilters represents bed list parameters
type BedFilters struct {
	Occupied *bool `form:"occupied"`
}
