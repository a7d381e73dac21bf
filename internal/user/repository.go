package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// Insert stores a new account. Returns ErrUserExists when the email
	// or national id is already registered.
	Insert(ctx context.Context, u User) (*User, error)

	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update changes the mutable profile fields only.
	Update(ctx context.Context, id uuid.UUID, names, surnames string, phone *string) (*User, error)

	List(ctx context.Context) ([]User, error)
	ListByRole(ctx context.Context, role Role) ([]User, error)

	InsertEmergencyContact(ctx context.Context, c EmergencyContact) (*EmergencyContact, error)
	ListEmergencyContacts(ctx context.Context, userID uuid.UUID) ([]EmergencyContact, error)

	InsertMedicalHistory(ctx context.Context, e MedicalHistoryEntry) (*MedicalHistoryEntry, error)
	ListMedicalHistory(ctx context.Context, userID uuid.UUID) ([]MedicalHistoryEntry, error)
}
