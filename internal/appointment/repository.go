package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrRecordNotFound      = errors.New("consultation record not found")
	ErrRecordExists        = errors.New("appointment already has a consultation record")
	ErrSlotTaken           = errors.New("slot already taken")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// Insert books a slot with status scheduled. It returns ErrSlotTaken
	// when a non-cancelled appointment already holds the (doctor, date,
	// slot) triple, enforced by the partial unique index.
	Insert(ctx context.Context, patientID, doctorID uuid.UUID, date time.Time, slot string) (*Appointment, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error)

	ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Detail, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Detail, error)

	// ListCompletedByDoctorRange returns completed appointments for a doctor
	// over an inclusive date range, patient identity joined.
	ListCompletedByDoctorRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Detail, error)

	// BookedSlots returns the slot values occupied by non-cancelled
	// appointments for (doctor, date).
	BookedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)

	// UpdateStatus is a compare-and-set from one status to another.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// Delete physically removes an appointment (administrative escape
	// hatch, not part of the lifecycle).
	Delete(ctx context.Context, id uuid.UUID) error

	// InsertRecordCompleting inserts the consultation record and moves the
	// appointment to completed in a single transaction.
	InsertRecordCompleting(ctx context.Context, rec ConsultationRecord) (*ConsultationRecord, error)

	GetRecordByAppointment(ctx context.Context, appointmentID uuid.UUID) (*ConsultationRecord, error)

	// Report queries
	ListAttended(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]AttendedVisit, error)
	ListByDisease(ctx context.Context, doctorID uuid.UUID, disease string, from, to time.Time) ([]AttendedVisit, error)

	// Audit trail
	InsertEvent(ctx context.Context, ev EventLog) error
}
