// Package patient implements intake, policy-gated record updates and
// the discharge lifecycle.
package patient

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/hospitalward/ward-api/internal/model"
	"github.com/hospitalward/ward-api/internal/policy"
	"github.com/hospitalward/ward-api/internal/repository"
	"github.com/hospitalward/ward-api/internal/service/billing"
	apperrors "github.com/hospitalward/ward-api/pkg/errors"
	"github.com/hospitalward/ward-api/pkg/logger"
	"github.com/hospitalward/ward-api/pkg/messaging"
)

var (
	// ErrOutstandingBalance blocks discharge while any payment still
	// has an unpaid remainder.
	ErrOutstandingBalance = apperrors.NewValidation("patient has an outstanding balance")

	nationalIDPattern = regexp.MustCompile(`^\d{10}$`)
	phonePattern      = regexp.MustCompile(`^\+989\d{9}$`)
)

// BedReleaser frees whatever bed a patient occupies. Implemented by
// the bed service; called inside the discharge transaction.
type BedReleaser interface {
	ReleaseForPatient(ctx context.Context, patientID uuid.UUID) error
}

// InvoiceBuilder produces the final invoice mailed to the billing
// archive on discharge.
type InvoiceBuilder interface {
	BuildInvoice(ctx context.Context, nationalID string) (*model.Invoice, error)
}

// Mailer delivers the archive invoice copy.
type Mailer interface {
	SendInvoice(ctx context.Context, to, subject, body string) error
}

type Service struct {
	repo         repository.PatientRepository
	payments     repository.PaymentRepository
	bedRepo      repository.BedRepository
	users        repository.UserRepository
	beds         BedReleaser
	tx           repository.Transactor
	invoices     InvoiceBuilder
	mailer       Mailer
	broker       messaging.Broker
	loc          *time.Location
	billingEmail string
	logger       *logger.Logger
}

type Config struct {
	Location     *time.Location
	BillingEmail string
}

func NewService(
	repo repository.PatientRepository,
	payments repository.PaymentRepository,
	bedRepo repository.BedRepository,
	users repository.UserRepository,
	beds BedReleaser,
	tx repository.Transactor,
	invoices InvoiceBuilder,
	mailer Mailer,
	broker messaging.Broker,
	cfg Config,
	log *logger.Logger,
) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:         repo,
		payments:     payments,
		bedRepo:      bedRepo,
		users:        users,
		beds:         beds,
		tx:           tx,
		invoices:     invoices,
		mailer:       mailer,
		broker:       broker,
		loc:          loc,
		billingEmail: cfg.BillingEmail,
		logger:       log.WithComponent("patient"),
	}
}

// Admit creates a patient record. Intake is an administrative act, so
// only Managers and superusers may perform it.
func (s *Service) Admit(ctx context.Context, actor model.Actor, req *model.CreatePatientRequest) (*model.Patient, error) {
	if !actor.IsSuperuser && !actor.HasRole(model.RoleManagers) {
		return nil, apperrors.NewPermissionDenied("only managers may admit patients")
	}

	insurance := req.InsuranceType
	if insurance == "" {
		insurance = model.InsuranceNone
	}

	patient := &model.Patient{
		Base:           model.Base{ID: uuid.New()},
		NationalID:     req.NationalID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Sickness:       req.Sickness,
		WatchfulName:   req.WatchfulName,
		Age:            req.Age,
		Height:         req.Height,
		Weight:         req.Weight,
		PhoneNumber:    req.PhoneNumber,
		InsuranceType:  insurance,
		Address:        req.Address,
		BloodType:      req.BloodType,
		DoctorID:       req.DoctorID,
		NurseID:        req.NurseID,
		AdmittedAt:     time.Now().In(s.loc),
		IsHospitalized: true,
	}
	if err := s.validate(patient); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.EventPatientAdmitted, patient)
	s.logger.Info("patient admitted", "patient_id", patient.ID.String())
	return patient, nil
}

// Get loads a patient together with the actor's resolved field policy.
// The handler renders only the visible fields.
func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Patient, policy.Policy, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, policy.Policy{}, err
	}
	return patient, policy.ResolvePatient(actor, patient), nil
}

// Update applies a partial update after checking every submitted field
// against the actor's policy. A write to any non-editable field is
// rejected whole; the client-submitted field set is never trusted.
// Toggling is_hospitalized runs the discharge or re-admission flow.
func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	pol := policy.ResolvePatient(actor, patient)
	for _, f := range submittedFields(req) {
		if !pol.CanEdit(f) {
			return nil, apperrors.NewPermissionDenied(fmt.Sprintf("field %q is not editable", f))
		}
	}

	wasHospitalized := patient.IsHospitalized
	applyUpdate(patient, req)
	if err := s.validate(patient); err != nil {
		return nil, err
	}

	if req.IsHospitalized != nil && *req.IsHospitalized != wasHospitalized {
		if wasHospitalized {
			if err := s.discharge(ctx, patient); err != nil {
				return nil, err
			}
		} else {
			if err := s.readmit(ctx, patient); err != nil {
				return nil, err
			}
		}
		return patient, nil
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

// Discharge releases the patient if billing allows it. The actor needs
// edit rights on the hospitalization flag.
func (s *Service) Discharge(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !patient.IsHospitalized {
		return nil, apperrors.NewValidation("patient is already discharged")
	}

	pol := policy.ResolvePatient(actor, patient)
	if !pol.CanEdit(policy.FieldIsHospitalized) {
		return nil, apperrors.NewPermissionDenied("not allowed to discharge patients")
	}

	if err := s.discharge(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

// Readmit re-admits a discharged patient under the same national ID.
func (s *Service) Readmit(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patient.IsHospitalized {
		return nil, apperrors.NewValidation("patient is already hospitalized")
	}

	// The policy freezes discharged records, so resolve against the
	// target state: re-admission is the one transition allowed on them.
	pol := policy.ResolvePatient(actor, &model.Patient{
		DoctorID:       patient.DoctorID,
		NurseID:        patient.NurseID,
		IsHospitalized: true,
	})
	if !pol.CanEdit(policy.FieldIsHospitalized) {
		return nil, apperrors.NewPermissionDenied("not allowed to re-admit patients")
	}

	if err := s.readmit(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

// ValidateDischarge checks the billing invariant without mutating
// anything.
func (s *Service) ValidateDischarge(ctx context.Context, patientID uuid.UUID) error {
	outstanding, err := s.payments.HasOutstanding(ctx, patientID)
	if err != nil {
		return fmt.Errorf("failed to check payments: %w", err)
	}
	if outstanding {
		return ErrOutstandingBalance
	}
	return nil
}

// discharge commits the state change and the bed release as one
// transaction; a bed freed with the patient still marked hospitalized
// would be a correctness violation.
func (s *Service) discharge(ctx context.Context, patient *model.Patient) error {
	if err := s.ValidateDischarge(ctx, patient.ID); err != nil {
		return err
	}

	now := time.Now().In(s.loc)
	patient.IsHospitalized = false
	patient.DischargedAt = &now

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, patient); err != nil {
			return err
		}
		return s.beds.ReleaseForPatient(ctx, patient.ID)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, messaging.EventPatientDischarged, patient)
	s.mailInvoice(ctx, patient)
	s.logger.Info("patient discharged", "patient_id", patient.ID.String())
	return nil
}

func (s *Service) readmit(ctx context.Context, patient *model.Patient) error {
	patient.IsHospitalized = true
	patient.DischargedAt = nil

	if err := s.repo.Update(ctx, patient); err != nil {
		return err
	}

	s.publish(ctx, messaging.EventPatientReadmitted, patient)
	s.logger.Info("patient re-admitted", "patient_id", patient.ID.String())
	return nil
}

func (s *Service) mailInvoice(ctx context.Context, patient *model.Patient) {
	if s.mailer == nil || s.invoices == nil || s.billingEmail == "" {
		return
	}
	invoice, err := s.invoices.BuildInvoice(ctx, patient.NationalID)
	if err != nil {
		// A patient without payments has no invoice to archive.
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error(err, "failed to build discharge invoice")
		}
		return
	}
	subject := fmt.Sprintf("Discharge invoice for %s", patient.FullName())
	if err := s.mailer.SendInvoice(ctx, s.billingEmail, subject, billing.RenderText(invoice)); err != nil {
		s.logger.Error(err, "failed to mail discharge invoice")
	}
}

func (s *Service) publish(ctx context.Context, eventType string, patient *model.Patient) {
	if s.broker == nil {
		return
	}
	event := messaging.Event{
		Type: eventType,
		Payload: map[string]interface{}{
			"patient_id":  patient.ID,
			"national_id": patient.NationalID,
		},
	}
	if err := s.broker.Publish(ctx, messaging.WardEventsChannel, event); err != nil {
		s.logger.Error(err, "failed to publish ward event", "type", eventType)
	}
}

func (s *Service) validate(patient *model.Patient) error {
	if !nationalIDPattern.MatchString(patient.NationalID) {
		return apperrors.NewValidation("national ID must be exactly 10 digits")
	}
	if !phonePattern.MatchString(patient.PhoneNumber) {
		return apperrors.NewValidation("phone number must match +989xxxxxxxxx")
	}
	if !patient.InsuranceType.Valid() {
		return apperrors.NewValidation("unknown insurance type")
	}
	if !patient.BloodType.Valid() {
		return apperrors.NewValidation("unknown blood type")
	}
	if patient.Age < 0 || patient.Height < 0 || patient.Weight < 0 {
		return apperrors.NewValidation("age, height and weight must not be negative")
	}
	return nil
}

func submittedFields(req *model.UpdatePatientRequest) []string {
	var fields []string
	add := func(name string, set bool) {
		if set {
			fields = append(fields, name)
		}
	}
	add(policy.FieldNationalID, req.NationalID != nil)
	add(policy.FieldFirstName, req.FirstName != nil)
	add(policy.FieldLastName, req.LastName != nil)
	add(policy.FieldSickness, req.Sickness != nil)
	add(policy.FieldWatchfulName, req.WatchfulName != nil)
	add(policy.FieldAge, req.Age != nil)
	add(policy.FieldHeight, req.Height != nil)
	add(policy.FieldWeight, req.Weight != nil)
	add(policy.FieldPhoneNumber, req.PhoneNumber != nil)
	add(policy.FieldInsuranceType, req.InsuranceType != nil)
	add(policy.FieldAddress, req.Address != nil)
	add(policy.FieldBloodType, req.BloodType != nil)
	add(policy.FieldDoctorOrder, req.DoctorOrder != nil)
	add(policy.FieldNurseReport, req.NurseReport != nil)
	add(policy.FieldDoctor, req.DoctorID != nil)
	add(policy.FieldNurse, req.NurseID != nil)
	add(policy.FieldIsHospitalized, req.IsHospitalized != nil)
	return fields
}

func applyUpdate(patient *model.Patient, req *model.UpdatePatientRequest) {
	if req.NationalID != nil {
		patient.NationalID = *req.NationalID
	}
	if req.FirstName != nil {
		patient.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		patient.LastName = *req.LastName
	}
	if req.Sickness != nil {
		patient.Sickness = *req.Sickness
	}
	if req.WatchfulName != nil {
		patient.WatchfulName = *req.WatchfulName
	}
	if req.Age != nil {
		patient.Age = *req.Age
	}
	if req.Height != nil {
		patient.Height = *req.Height
	}
	if req.Weight != nil {
		patient.Weight = *req.Weight
	}
	if req.PhoneNumber != nil {
		patient.PhoneNumber = *req.PhoneNumber
	}
	if req.InsuranceType != nil {
		patient.InsuranceType = *req.InsuranceType
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}
	if req.BloodType != nil {
		patient.BloodType = *req.BloodType
	}
	if req.DoctorOrder != nil {
		patient.DoctorOrder = *req.DoctorOrder
	}
	if req.NurseReport != nil {
		patient.NurseReport = *req.NurseReport
	}
	if req.DoctorID != nil {
		patient.DoctorID = req.DoctorID
	}
	if req.NurseID != nil {
		patient.NurseID = req.NurseID
	}
}
