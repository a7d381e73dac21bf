package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var phone *string

	err := row.Scan(
		&u.ID,
		&u.Names,
		&u.Surnames,
		&u.Email,
		&u.PasswordHash,
		&phone,
		&u.NationalID,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	u.Phone = phone
	return &u, nil
}

func collectUsers(rows pgx.Rows) ([]User, error) {
	defer rows.Close()

	var result []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

const userColumns = `id, names, surnames, email, password_hash, phone, national_id, role, created_at, updated_at`

// Interface methods

func (r *PgRepository) Insert(ctx context.Context, u User) (*User, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, names, surnames, email, password_hash, phone, national_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+userColumns+`
	`, id, u.Names, u.Surnames, u.Email, u.PasswordHash, u.Phone, u.NationalID, u.Role)

	inserted, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrUserExists
		}
		return nil, err
	}

	return inserted, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *PgRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)
	return scanUser(row)
}

func (r *PgRepository) Update(ctx context.Context, id uuid.UUID, names, surnames string, phone *string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET names = $2,
		    surnames = $3,
		    phone = $4,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns+`
	`, id, names, surnames, phone)
	return scanUser(row)
}

func (r *PgRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY surnames, names
	`)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (r *PgRepository) ListByRole(ctx context.Context, role Role) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE role = $1
		ORDER BY surnames, names
	`, role)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (r *PgRepository) InsertEmergencyContact(ctx context.Context, c EmergencyContact) (*EmergencyContact, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO emergency_contacts (id, user_id, name, phone, relation, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, user_id, name, phone, relation, created_at
	`, id, c.UserID, c.Name, c.Phone, c.Relation)

	var inserted EmergencyContact
	err := row.Scan(&inserted.ID, &inserted.UserID, &inserted.Name, &inserted.Phone, &inserted.Relation, &inserted.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inserted, nil
}

func (r *PgRepository) ListEmergencyContacts(ctx context.Context, userID uuid.UUID) ([]EmergencyContact, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, phone, relation, created_at
		FROM emergency_contacts
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EmergencyContact
	for rows.Next() {
		var c EmergencyContact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.Relation, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) InsertMedicalHistory(ctx context.Context, e MedicalHistoryEntry) (*MedicalHistoryEntry, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO medical_history (id, user_id, disease, diagnosis, diagnosed_on, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, user_id, disease, diagnosis, diagnosed_on, created_at
	`, id, e.UserID, e.Disease, e.Diagnosis, e.DiagnosedOn)

	var inserted MedicalHistoryEntry
	err := row.Scan(&inserted.ID, &inserted.UserID, &inserted.Disease, &inserted.Diagnosis, &inserted.DiagnosedOn, &inserted.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inserted, nil
}

func (r *PgRepository) ListMedicalHistory(ctx context.Context, userID uuid.UUID) ([]MedicalHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, disease, diagnosis, diagnosed_on, created_at
		FROM medical_history
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MedicalHistoryEntry
	for rows.Next() {
		var e MedicalHistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Disease, &e.Diagnosis, &e.DiagnosedOn, &e.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
