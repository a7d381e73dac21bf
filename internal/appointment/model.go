package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the four defined lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition is defined out of s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether the lifecycle allows moving from s to
// next. Completing via a consultation record is allowed from either live
// state and is checked separately in RecordAttention.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusScheduled:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

type Appointment struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Date      time.Time
	Slot      string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ParticipantSummary carries the minimal identity fields of a counterpart
// participant so callers need no second round trip.
type ParticipantSummary struct {
	ID         uuid.UUID
	Names      string
	Surnames   string
	NationalID string
}

// Detail is an appointment hydrated with whichever participants the query
// joined. Doctor-day listings fill Patient, patient histories fill Doctor,
// lookups by ID fill both.
type Detail struct {
	Appointment
	Patient *ParticipantSummary
	Doctor  *ParticipantSummary
}

// ConsultationRecord is the clinical outcome attached to a completed visit.
// At most one record exists per appointment and it is never updated through
// the lifecycle.
type ConsultationRecord struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	Symptoms      string
	Diagnosis     string
	Treatment     string
	Medication    string
	Observations  string
	CreatedAt     time.Time
}

// EventLog is one audit row. Rows outlive their appointment so the trail
// survives the admin delete escape hatch.
type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// AttendedVisit is one row of a doctor's report: a completed appointment
// joined with its consultation record and patient identity.
type AttendedVisit struct {
	AppointmentID     uuid.UUID
	Date              time.Time
	Slot              string
	PatientNames      string
	PatientSurnames   string
	PatientNationalID string
	Symptoms          string
	Diagnosis         string
	Treatment         string
	Medication        string
}
