// Package policy decides, for a given actor and record, which fields
// are visible and which are editable. Resolution is a pure function of
// the actor's roles, the superuser flag and record ownership: it never
// consults ambient state and never mutates shared configuration, so
// one request's relaxations cannot leak into the next.
package policy

import (
	"github.com/google/uuid"

	"github.com/hospitalward/ward-api/internal/model"
)

// Policy is the resolved field decision for one (actor, record) pair.
// Editable is always a subset of Visible.
type Policy struct {
	Visible  FieldSet
	Editable FieldSet
}

// CanView reports whether the field may be rendered to the actor.
func (p Policy) CanView(field string) bool { return p.Visible.Has(field) }

// CanEdit reports whether a write to the field may be accepted.
func (p Policy) CanEdit(field string) bool { return p.Editable.Has(field) }

// Locked reports whether the record is fully read-only for the actor.
func (p Policy) Locked() bool { return len(p.Editable) == 0 }

// ResolvePatient computes the field policy for a patient record.
//
// Rules, in precedence order:
//  1. superusers see and edit everything;
//  2. everyone else starts from the base read-only set;
//  3. clinical staff (Doctors, Nurses) may edit the vitals
//     (sickness, blood type, height, weight);
//  4. Doctors may additionally edit the doctor's order, but only on
//     their own patients: a doctor who is not the record's assigned
//     doctor loses every relaxation, whatever other roles they hold;
//  5. Nurses mirror rule 4 for the nurse report and assigned nurse;
//  6. Managers may edit the administrative and identity fields but no
//     clinical content;
//  7. clinical staff never see contact/identity data (national id,
//     phone, address).
//
// An actor with no recognized role gets a fully locked record, and a
// discharged patient is read-only for everyone but superusers.
func ResolvePatient(actor model.Actor, patient *model.Patient) Policy {
	visible := patientFields()
	if actor.IsSuperuser {
		return Policy{Visible: visible, Editable: visible.clone()}
	}

	isDoctor := actor.HasRole(model.RoleDoctors)
	isNurse := actor.HasRole(model.RoleNurses)
	isManager := actor.HasRole(model.RoleManagers)
	clinical := isDoctor || isNurse

	if clinical {
		visible.remove(FieldNationalID, FieldPhoneNumber, FieldAddress)
	}

	if !isDoctor && !isNurse && !isManager {
		// Unrecognized role set: fail safe, never fail open.
		return Policy{Visible: visible, Editable: newFieldSet()}
	}

	readOnly := basePatientReadOnly()
	if clinical {
		readOnly.remove(FieldSickness, FieldBloodType, FieldHeight, FieldWeight)
	}
	if isDoctor {
		readOnly.remove(FieldDoctorOrder)
	}
	if isNurse {
		readOnly.remove(FieldNurseReport)
	}
	if isManager {
		readOnly.remove(
			FieldFirstName,
			FieldLastName,
			FieldInsuranceType,
			FieldWatchfulName,
			FieldAge,
			FieldDoctor,
			FieldNurse,
			FieldIsHospitalized,
			FieldDischargedAt,
		)
	}

	// The not-owner lockout overrides every relaxation, including ones
	// granted by an overlapping role.
	if isDoctor && !isAssigned(patient.DoctorID, actor) {
		return Policy{Visible: visible, Editable: newFieldSet()}
	}
	if isNurse && !isAssigned(patient.NurseID, actor) {
		return Policy{Visible: visible, Editable: newFieldSet()}
	}

	// Discharged records are frozen for non-superusers.
	if !patient.IsHospitalized {
		return Policy{Visible: visible, Editable: newFieldSet()}
	}

	editable := newFieldSet()
	for f := range visible {
		if !readOnly.Has(f) {
			editable[f] = struct{}{}
		}
	}
	return Policy{Visible: visible, Editable: editable}
}

func isAssigned(assignee *uuid.UUID, actor model.Actor) bool {
	return assignee != nil && *assignee == actor.UserID
}

// Patient list columns, in display order.
const (
	ColumnName           = "name"
	ColumnSickness       = "sickness"
	ColumnDoctor         = "doctor"
	ColumnNurse          = "nurse"
	ColumnDebt           = "debt"
	ColumnPaid           = "paid"
	ColumnAdmittedAt     = "admitted_at"
	ColumnDischargedAt   = "discharged_at"
	ColumnBed            = "bed"
	ColumnIsHospitalized = "is_hospitalized"
)

// PatientListColumns returns the list-view columns the actor may see.
// Clinical staff never see the billing columns nor the admission and
// discharge timestamps.
func PatientListColumns(actor model.Actor) []string {
	all := []string{
		ColumnName,
		ColumnSickness,
		ColumnDoctor,
		ColumnNurse,
		ColumnDebt,
		ColumnPaid,
		ColumnAdmittedAt,
		ColumnDischargedAt,
		ColumnBed,
		ColumnIsHospitalized,
	}
	if actor.IsSuperuser || (!actor.HasRole(model.RoleDoctors) && !actor.HasRole(model.RoleNurses)) {
		return all
	}
	hidden := newFieldSet(ColumnDebt, ColumnPaid, ColumnAdmittedAt, ColumnDischargedAt)
	out := make([]string, 0, len(all))
	for _, c := range all {
		if !hidden.Has(c) {
			out = append(out, c)
		}
	}
	return out
}
