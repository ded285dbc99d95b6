// Package billing aggregates a patient's payment records into debt and
// paid totals, guards payment writes against overpayment, and builds
// the invoice view.
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hospitalward/ward-api/internal/model"
	"github.com/hospitalward/ward-api/internal/repository"
	apperrors "github.com/hospitalward/ward-api/pkg/errors"
)

// ErrOverpayment rejects a payment whose paid amount would exceed its
// cost.
var ErrOverpayment = apperrors.NewValidation("paid amount exceeds cost")

// Totals is the aggregated billing state of one patient.
type Totals struct {
	Debt int64 `json:"debt"`
	Paid int64 `json:"paid"`
}

// Aggregate folds payment lines into totals under the running-balance
// schema: debt sums the unpaid remainders, paid sums everything
// received. Both are always non-negative.
func Aggregate(payments []*model.Payment) Totals {
	var t Totals
	for _, p := range payments {
		t.Debt += p.Outstanding()
		t.Paid += p.Paid
	}
	return t
}

// FormatAmount renders a currency amount for list displays. Zero shows
// as a placeholder rather than "0".
func FormatAmount(amount int64) string {
	if amount == 0 {
		return "-"
	}
	return fmt.Sprintf("$%d", amount)
}

type Service struct {
	payments repository.PaymentRepository
	patients repository.PatientRepository
}

func NewService(payments repository.PaymentRepository, patients repository.PatientRepository) *Service {
	return &Service{
		payments: payments,
		patients: patients,
	}
}

func (s *Service) CreatePayment(ctx context.Context, patientID uuid.UUID, req *model.CreatePaymentRequest) (*model.Payment, error) {
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if !patient.IsHospitalized {
		return nil, apperrors.NewValidation("cannot bill a discharged patient")
	}
	if req.Paid > req.Cost {
		return nil, ErrOverpayment
	}

	payment := &model.Payment{
		Base:      model.Base{ID: uuid.New()},
		PatientID: patient.ID,
		Title:     req.Title,
		Cost:      req.Cost,
		Paid:      req.Paid,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return payment, nil
}

func (s *Service) UpdatePayment(ctx context.Context, id uuid.UUID, req *model.UpdatePaymentRequest) (*model.Payment, error) {
	payment, err := s.payments.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		payment.Title = *req.Title
	}
	if req.Cost != nil {
		payment.Cost = *req.Cost
	}
	if req.Paid != nil {
		payment.Paid = *req.Paid
	}
	if payment.Paid > payment.Cost {
		return nil, ErrOverpayment
	}

	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}
	return payment, nil
}

func (s *Service) ListPayments(ctx context.Context, patientID uuid.UUID) ([]*model.Payment, error) {
	return s.payments.ListByPatient(ctx, patientID)
}

// PatientTotals aggregates the billing state for one patient.
func (s *Service) PatientTotals(ctx context.Context, patientID uuid.UUID) (Totals, error) {
	payments, err := s.payments.ListByPatient(ctx, patientID)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to list payments: %w", err)
	}
	return Aggregate(payments), nil
}

// BuildInvoice produces the invoice view for a national ID. It fails
// with not-found when the patient has no payments; the renderer never
// dereferences an absent record.
func (s *Service) BuildInvoice(ctx context.Context, nationalID string) (*model.Invoice, error) {
	patient, err := s.patients.GetByNationalID(ctx, nationalID)
	if err != nil {
		return nil, err
	}

	payments, err := s.payments.ListByPatient(ctx, patient.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	if len(payments) == 0 {
		return nil, apperrors.NewNotFound("invoice", nil)
	}

	invoice := &model.Invoice{
		NationalID:  patient.NationalID,
		Name:        patient.FullName(),
		Address:     patient.Address,
		PhoneNumber: patient.PhoneNumber,
		AdmittedAt:  patient.AdmittedAt,
		Lines:       make([]model.InvoiceLine, 0, len(payments)),
	}
	for i, p := range payments {
		invoice.Lines = append(invoice.Lines, model.InvoiceLine{
			Seq:   i + 1,
			Title: p.Title,
			Cost:  p.Cost,
			Paid:  p.Paid,
		})
	}
	totals := Aggregate(payments)
	invoice.TotalPaid = totals.Paid
	invoice.TotalUnpaid = totals.Debt
	return invoice, nil
}

// RenderText renders a plain-text invoice for the billing archive
// email sent on discharge.
func RenderText(inv *model.Invoice) string {
	out := fmt.Sprintf("Invoice for %s (national ID %s)\n", inv.Name, inv.NationalID)
	out += fmt.Sprintf("Admitted: %s\n\n", inv.AdmittedAt.Format(time.RFC1123))
	for _, line := range inv.Lines {
		out += fmt.Sprintf("%2d. %-30s cost %8d paid %8d\n", line.Seq, line.Title, line.Cost, line.Paid)
	}
	out += fmt.Sprintf("\nTotal paid: %d\nTotal unpaid: %d\n", inv.TotalPaid, inv.TotalUnpaid)
	return out
}
