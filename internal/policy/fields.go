package policy

import "sort"

// Patient form fields. Names match the JSON names of model.Patient so
// the handler layer can filter request and response bodies directly
// against a resolved policy.
const (
	FieldIsHospitalized = "is_hospitalized"
	FieldFirstName      = "first_name"
	FieldLastName       = "last_name"
	FieldSickness       = "sickness"
	FieldAge            = "age"
	FieldHeight         = "height"
	FieldWeight         = "weight"
	FieldBloodType      = "blood_type"
	FieldInsuranceType  = "insurance_type"
	FieldNationalID     = "national_id"
	FieldPhoneNumber    = "phone_number"
	FieldAddress        = "address"
	FieldWatchfulName   = "watchful_name"
	FieldNurse          = "nurse"
	FieldNurseReport    = "nurse_report"
	FieldDoctor         = "doctor"
	FieldDoctorOrder    = "doctor_order"
	FieldDischargedAt   = "discharged_at"
)

// User account fields (self-service console)
const (
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldIsActive    = "is_active"
	FieldIsSuperuser = "is_superuser"
	FieldRoles       = "roles"
	FieldLastLoginAt = "last_login_at"
	FieldDateJoined  = "date_joined"
)

// FieldSet is a set of field names. Policies always derive fresh sets;
// a FieldSet is never shared across resolutions.
type FieldSet map[string]struct{}

func newFieldSet(fields ...string) FieldSet {
	s := make(FieldSet, len(fields))
	for _, f := range fields {
		s[f] = struct{}{}
	}
	return s
}

func (s FieldSet) Has(field string) bool {
	_, ok := s[field]
	return ok
}

func (s FieldSet) clone() FieldSet {
	out := make(FieldSet, len(s))
	for f := range s {
		out[f] = struct{}{}
	}
	return out
}

func (s FieldSet) remove(fields ...string) {
	for _, f := range fields {
		delete(s, f)
	}
}

// Names returns the member fields in a stable order.
func (s FieldSet) Names() []string {
	out := make([]string, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func patientFields() FieldSet {
	return newFieldSet(
		FieldIsHospitalized,
		FieldFirstName,
		FieldLastName,
		FieldSickness,
		FieldAge,
		FieldHeight,
		FieldWeight,
		FieldBloodType,
		FieldInsuranceType,
		FieldNationalID,
		FieldPhoneNumber,
		FieldAddress,
		FieldWatchfulName,
		FieldNurse,
		FieldNurseReport,
		FieldDoctor,
		FieldDoctorOrder,
		FieldDischargedAt,
	)
}

// Fields every non-superuser starts out unable to edit. Role rules
// relax this set; an unrecognized role relaxes nothing.
func basePatientReadOnly() FieldSet {
	return newFieldSet(
		FieldFirstName,
		FieldLastName,
		FieldInsuranceType,
		FieldDoctorOrder,
		FieldNurseReport,
		FieldWatchfulName,
		FieldAge,
		FieldSickness,
		FieldBloodType,
		FieldHeight,
		FieldWeight,
		FieldDoctor,
		FieldNurse,
		FieldIsHospitalized,
		FieldDischargedAt,
	)
}

func userFields() FieldSet {
	return newFieldSet(
		FieldUsername,
		FieldFirstName,
		FieldLastName,
		FieldEmail,
		FieldPassword,
		FieldIsActive,
		FieldIsSuperuser,
		FieldRoles,
		FieldLastLoginAt,
		FieldDateJoined,
	)
}

func baseUserReadOnly() FieldSet {
	return newFieldSet(
		FieldRoles,
		FieldLastLoginAt,
		FieldDateJoined,
		FieldIsSuperuser,
		FieldIsActive,
	)
}
