package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicware/scheduling/internal/auth"
)

var (
	ErrMissingField       = errors.New("missing required field")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access denied")
)

type Service struct {
	repo      Repository
	jwtSecret []byte
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewService(repo Repository, jwtSecret []byte, tokenTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

type RegisterInput struct {
	Names      string
	Surnames   string
	Email      string
	Password   string
	Phone      *string
	NationalID string
	Role       Role
}

// Register creates an account with a bcrypt-hashed password. The role
// defaults to patient when omitted.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	switch {
	case in.Names == "":
		return nil, fmt.Errorf("%w: names", ErrMissingField)
	case in.Surnames == "":
		return nil, fmt.Errorf("%w: surnames", ErrMissingField)
	case in.Email == "":
		return nil, fmt.Errorf("%w: email", ErrMissingField)
	case in.Password == "":
		return nil, fmt.Errorf("%w: password", ErrMissingField)
	case in.NationalID == "":
		return nil, fmt.Errorf("%w: national_id", ErrMissingField)
	}

	if in.Role == "" {
		in.Role = RolePatient
	}
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.Insert(ctx, User{
		Names:        in.Names,
		Surnames:     in.Surnames,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		NationalID:   in.NationalID,
		Role:         in.Role,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", created.ID.String()).
		Str("role", string(created.Role)).
		Msg("account registered")

	return created, nil
}

// Login verifies credentials and returns a signed token plus the account.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	if email == "" || password == "" {
		return "", nil, fmt.Errorf("%w: email and password", ErrMissingField)
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("load account: %w", err)
	}

	if !auth.CheckPasswordHash(password, u.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(s.jwtSecret, s.tokenTTL, u.ID, string(u.Role))
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	return token, u, nil
}

// GetProfile returns a user with contacts and history attached. Allowed for
// the user themselves, doctors, and admins.
func (s *Service) GetProfile(ctx context.Context, callerID uuid.UUID, callerRole Role, targetID uuid.UUID) (*Profile, error) {
	if callerID != targetID && callerRole != RoleDoctor && callerRole != RoleAdmin {
		return nil, ErrForbidden
	}

	u, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	contacts, err := s.repo.ListEmergencyContacts(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("load emergency contacts: %w", err)
	}

	history, err := s.repo.ListMedicalHistory(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("load medical history: %w", err)
	}

	return &Profile{
		User:              *u,
		EmergencyContacts: contacts,
		MedicalHistory:    history,
	}, nil
}

// UpdateProfile changes the mutable fields of an account. Allowed for the
// user themselves and admins.
func (s *Service) UpdateProfile(ctx context.Context, callerID uuid.UUID, callerRole Role, targetID uuid.UUID, names, surnames string, phone *string) (*User, error) {
	if callerID != targetID && callerRole != RoleAdmin {
		return nil, ErrForbidden
	}
	if names == "" || surnames == "" {
		return nil, fmt.Errorf("%w: names and surnames", ErrMissingField)
	}

	return s.repo.Update(ctx, targetID, names, surnames, phone)
}

// List returns every account. Admin only.
func (s *Service) List(ctx context.Context, callerRole Role) ([]User, error) {
	if callerRole != RoleAdmin {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx)
}

// ListDoctors returns all doctor accounts, for the booking UI.
func (s *Service) ListDoctors(ctx context.Context) ([]User, error) {
	return s.repo.ListByRole(ctx, RoleDoctor)
}

// AddEmergencyContact attaches a contact to the caller's own account.
func (s *Service) AddEmergencyContact(ctx context.Context, callerID, targetID uuid.UUID, name, phone string, relation *string) (*EmergencyContact, error) {
	if callerID != targetID {
		return nil, ErrForbidden
	}
	if name == "" || phone == "" {
		return nil, fmt.Errorf("%w: name and phone", ErrMissingField)
	}

	return s.repo.InsertEmergencyContact(ctx, EmergencyContact{
		UserID:   targetID,
		Name:     name,
		Phone:    phone,
		Relation: relation,
	})
}

// AddMedicalHistory appends a history entry. Allowed for the user
// themselves, doctors, and admins.
func (s *Service) AddMedicalHistory(ctx context.Context, callerID uuid.UUID, callerRole Role, targetID uuid.UUID, disease string, diagnosis *string, diagnosedOn *time.Time) (*MedicalHistoryEntry, error) {
	if callerID != targetID && callerRole != RoleDoctor && callerRole != RoleAdmin {
		return nil, ErrForbidden
	}
	if disease == "" {
		return nil, fmt.Errorf("%w: disease", ErrMissingField)
	}

	return s.repo.InsertMedicalHistory(ctx, MedicalHistoryEntry{
		UserID:      targetID,
		Disease:     disease,
		Diagnosis:   diagnosis,
		DiagnosedOn: diagnosedOn,
	})
}
