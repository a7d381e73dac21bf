package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicware/scheduling/internal/slotgrid"
	"github.com/clinicware/scheduling/internal/slotlock"
)

const (
	EventAppointmentCreated = "APPOINTMENT_CREATED"
	EventStatusChanged      = "APPOINTMENT_STATUS_CHANGED"
	EventAttentionRecorded  = "APPOINTMENT_ATTENTION_RECORDED"
	EventAppointmentDeleted = "APPOINTMENT_DELETED"
)

var (
	ErrMissingField      = errors.New("missing required field")
	ErrInvalidSlot       = errors.New("slot is not in the daily grid")
	ErrInvalidStatus     = errors.New("invalid appointment status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidDateRange  = errors.New("invalid date range")
	ErrSlotBeingBooked   = errors.New("slot is currently being booked, please retry")
	ErrNotOwnAppointment = errors.New("appointment belongs to another doctor")
)

type Service struct {
	repo   Repository
	locker slotlock.Locker
	log    zerolog.Logger
}

func NewService(repo Repository, locker slotlock.Locker, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		log:    log,
	}
}

// AvailableSlots returns the grid slots still free for (doctor, date):
// the fixed daily grid minus slots held by non-cancelled appointments.
// Ordering is inherited from the grid.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	if doctorID == uuid.Nil {
		return nil, fmt.Errorf("%w: doctor_id", ErrMissingField)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date", ErrMissingField)
	}

	booked, err := s.repo.BookedSlots(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("load booked slots: %w", err)
	}

	taken := make(map[string]struct{}, len(booked))
	for _, slot := range booked {
		taken[slot] = struct{}{}
	}

	var free []string
	for _, slot := range slotgrid.Generate() {
		if _, ok := taken[slot]; !ok {
			free = append(free, slot)
		}
	}

	return free, nil
}

// Create books a slot for a patient with a doctor. The per-slot lock
// serializes racing creators; the partial unique index backs it up when
// the lock cannot (both surface as ErrSlotTaken or ErrSlotBeingBooked).
func (s *Service) Create(ctx context.Context, patientID, doctorID uuid.UUID, date time.Time, slot string) (*Appointment, error) {
	switch {
	case patientID == uuid.Nil:
		return nil, fmt.Errorf("%w: patient_id", ErrMissingField)
	case doctorID == uuid.Nil:
		return nil, fmt.Errorf("%w: doctor_id", ErrMissingField)
	case date.IsZero():
		return nil, fmt.Errorf("%w: date", ErrMissingField)
	case slot == "":
		return nil, fmt.Errorf("%w: slot", ErrMissingField)
	}

	if !slotgrid.Contains(slot) {
		return nil, ErrInvalidSlot
	}

	var created *Appointment

	key := slotlock.BookingKey(doctorID, date, slot)
	err := s.locker.WithSlotLock(ctx, key, func(lockCtx context.Context) error {
		booked, err := s.repo.BookedSlots(lockCtx, doctorID, date)
		if err != nil {
			return fmt.Errorf("check booked slots: %w", err)
		}
		for _, b := range booked {
			if b == slot {
				return ErrSlotTaken
			}
		}

		appt, err := s.repo.Insert(lockCtx, patientID, doctorID, date, slot)
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}

		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentCreated, map[string]any{
			"patient_id": patientID.String(),
			"doctor_id":  doctorID.String(),
			"date":       date.Format("2006-01-02"),
			"slot":       slot,
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, slotlock.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.log.Info().
		Str("appointment_id", created.ID.String()).
		Str("doctor_id", doctorID.String()).
		Str("slot", slot).
		Msg("appointment created")

	return created, nil
}

// UpdateStatus moves an appointment along the lifecycle graph:
// scheduled -> confirmed -> completed, with cancellation allowed from
// either live state. Terminal states accept no further transition.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, next Status) (*Appointment, error) {
	if !next.Valid() {
		return nil, ErrInvalidStatus
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if !appt.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, next)
	}

	// Compare-and-set so a concurrent transition cannot be overwritten.
	updated, err := s.repo.UpdateStatus(ctx, appt.ID, appt.Status, next)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, fmt.Errorf("%w: appointment changed concurrently", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventStatusChanged, map[string]any{
		"from": string(appt.Status),
		"to":   string(next),
	})

	return updated, nil
}

// RecordAttention attaches the clinical outcome of a visit and forces the
// appointment into completed. Only the assigned doctor may record it.
func (s *Service) RecordAttention(ctx context.Context, appointmentID, recordingDoctorID uuid.UUID, rec ConsultationRecord) (*ConsultationRecord, error) {
	appt, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appt.DoctorID != recordingDoctorID {
		return nil, ErrNotOwnAppointment
	}

	if appt.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, StatusCompleted)
	}

	rec.AppointmentID = appt.ID
	inserted, err := s.repo.InsertRecordCompleting(ctx, rec)
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, appt.ID, EventAttentionRecorded, map[string]any{
		"record_id": inserted.ID.String(),
		"doctor_id": recordingDoctorID.String(),
	})

	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("doctor_id", recordingDoctorID.String()).
		Msg("consultation recorded")

	return inserted, nil
}

// GetDetail retrieves an appointment with both participants joined.
func (s *Service) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	det, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return det, nil
}

// ListByDoctor returns a doctor's appointments for one day, ordered by slot.
func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Detail, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date", ErrMissingField)
	}
	appts, err := s.repo.ListByDoctorDate(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("list by doctor: %w", err)
	}
	return appts, nil
}

// ListCompletedByDoctor returns a doctor's completed appointments over an
// inclusive date range.
func (s *Service) ListCompletedByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Detail, error) {
	if from.IsZero() || to.IsZero() {
		return nil, fmt.Errorf("%w: date range", ErrMissingField)
	}
	if to.Before(from) {
		return nil, ErrInvalidDateRange
	}
	appts, err := s.repo.ListCompletedByDoctorRange(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list completed: %w", err)
	}
	return appts, nil
}

// ListByPatient returns a patient's history, most recent first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Detail, error) {
	appts, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list by patient: %w", err)
	}
	return appts, nil
}

// GetRecord returns the consultation record attached to an appointment.
func (s *Service) GetRecord(ctx context.Context, appointmentID uuid.UUID) (*ConsultationRecord, error) {
	rec, err := s.repo.GetRecordByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes an appointment outright. Administrative escape hatch.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logEvent(ctx, id, EventAppointmentDeleted, map[string]any{
		"status": string(appt.Status),
	})

	s.log.Warn().Str("appointment_id", id.String()).Msg("appointment deleted")
	return nil
}

// logEvent writes an audit row. Failures are logged and swallowed so the
// trail never blocks the operation it describes.
func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event_type", eventType).Msg("marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Error().
			Err(err).
			Str("event_type", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("insert event log")
	}
}

// AttendedReport joins a doctor's completed appointments with their
// consultation records over an inclusive date range.
func (s *Service) AttendedReport(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]AttendedVisit, error) {
	if from.IsZero() || to.IsZero() {
		return nil, fmt.Errorf("%w: date range", ErrMissingField)
	}
	if to.Before(from) {
		return nil, ErrInvalidDateRange
	}
	visits, err := s.repo.ListAttended(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("attended report: %w", err)
	}
	return visits, nil
}

// DiseaseReport lists a doctor's visits whose diagnosis or symptoms match
// the disease term over an inclusive date range.
func (s *Service) DiseaseReport(ctx context.Context, doctorID uuid.UUID, disease string, from, to time.Time) ([]AttendedVisit, error) {
	if disease == "" {
		return nil, fmt.Errorf("%w: disease", ErrMissingField)
	}
	if from.IsZero() || to.IsZero() {
		return nil, fmt.Errorf("%w: date range", ErrMissingField)
	}
	if to.Before(from) {
		return nil, ErrInvalidDateRange
	}
	visits, err := s.repo.ListByDisease(ctx, doctorID, disease, from, to)
	if err != nil {
		return nil, fmt.Errorf("disease report: %w", err)
	}
	return visits, nil
}
