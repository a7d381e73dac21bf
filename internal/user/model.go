package user

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID
	Names        string
	Surnames     string
	Email        string
	PasswordHash string
	Phone        *string
	NationalID   string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type EmergencyContact struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Phone     string
	Relation  *string
	CreatedAt time.Time
}

type MedicalHistoryEntry struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Disease     string
	Diagnosis   *string
	DiagnosedOn *time.Time
	CreatedAt   time.Time
}

// Profile is a user with their emergency contacts and medical history
// attached, the shape the profile endpoint returns.
type Profile struct {
	User              User
	EmergencyContacts []EmergencyContact
	MedicalHistory    []MedicalHistoryEntry
}
