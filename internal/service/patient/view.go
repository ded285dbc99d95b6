package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/hospitalward/ward-api/internal/model"
	"github.com/hospitalward/ward-api/internal/policy"
	"github.com/hospitalward/ward-api/internal/service/billing"
	apperrors "github.com/hospitalward/ward-api/pkg/errors"
)

const listTimeLayout = "06/01/02 15:04"

// RenderPatient builds the response body for a patient detail view,
// containing exactly the fields the policy makes visible plus the
// sets themselves, so the console knows what it may render and accept.
func RenderPatient(patient *model.Patient, pol policy.Policy) map[string]interface{} {
	fields := map[string]interface{}{
		policy.FieldIsHospitalized: patient.IsHospitalized,
		policy.FieldFirstName:      patient.FirstName,
		policy.FieldLastName:       patient.LastName,
		policy.FieldSickness:       patient.Sickness,
		policy.FieldAge:            patient.Age,
		policy.FieldHeight:         patient.Height,
		policy.FieldWeight:         patient.Weight,
		policy.FieldBloodType:      patient.BloodType,
		policy.FieldInsuranceType:  patient.InsuranceType,
		policy.FieldNationalID:     patient.NationalID,
		policy.FieldPhoneNumber:    patient.PhoneNumber,
		policy.FieldAddress:        patient.Address,
		policy.FieldWatchfulName:   patient.WatchfulName,
		policy.FieldNurse:          patient.NurseID,
		policy.FieldNurseReport:    patient.NurseReport,
		policy.FieldDoctor:         patient.DoctorID,
		policy.FieldDoctorOrder:    patient.DoctorOrder,
		policy.FieldDischargedAt:   patient.DischargedAt,
	}

	out := map[string]interface{}{
		"id":          patient.ID,
		"admitted_at": patient.AdmittedAt,
	}
	for name, value := range fields {
		if pol.CanView(name) {
			out[name] = value
		}
	}
	out["editable_fields"] = pol.Editable.Names()
	out["visible_fields"] = pol.Visible.Names()
	return out
}

// List returns the patient list with only the columns the actor's role
// may see. Billing cells render "-" for zero, matching the console.
func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.PatientFilters) ([]*model.PatientRow, error) {
	patients, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	columns := map[string]bool{}
	for _, c := range policy.PatientListColumns(actor) {
		columns[c] = true
	}

	rows := make([]*model.PatientRow, 0, len(patients))
	for _, p := range patients {
		row := &model.PatientRow{
			ID:             p.ID,
			Name:           p.FullName(),
			Sickness:       p.Sickness,
			IsHospitalized: p.IsHospitalized,
		}
		if columns[policy.ColumnDoctor] && p.DoctorID != nil {
			row.Doctor = s.staffName(ctx, *p.DoctorID)
		}
		if columns[policy.ColumnNurse] && p.NurseID != nil {
			row.Nurse = s.staffName(ctx, *p.NurseID)
		}
		if columns[policy.ColumnDebt] || columns[policy.ColumnPaid] {
			payments, err := s.payments.ListByPatient(ctx, p.ID)
			if err != nil {
				return nil, err
			}
			totals := billing.Aggregate(payments)
			if columns[policy.ColumnDebt] {
				row.Debt = billing.FormatAmount(totals.Debt)
			}
			if columns[policy.ColumnPaid] {
				row.Paid = billing.FormatAmount(totals.Paid)
			}
		}
		if columns[policy.ColumnAdmittedAt] {
			row.AdmittedAt = p.AdmittedAt.Format(listTimeLayout)
		}
		if columns[policy.ColumnDischargedAt] {
			if p.DischargedAt != nil {
				row.DischargedAt = p.DischargedAt.Format(listTimeLayout)
			} else {
				row.DischargedAt = "-"
			}
		}
		if columns[policy.ColumnBed] {
			row.Bed = s.bedLabel(ctx, p)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Service) staffName(ctx context.Context, id uuid.UUID) string {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return ""
	}
	return user.FullName()
}

func (s *Service) bedLabel(ctx context.Context, p *model.Patient) string {
	bed, err := s.bedRepo.GetByPatient(ctx, p.ID)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error(err, "failed to look up bed", "patient_id", p.ID.String())
		}
		return ""
	}
	return bed.Label()
}
