package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

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

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.Date,
		&a.Slot,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanRecord(row pgx.Row) (*ConsultationRecord, error) {
	var rec ConsultationRecord

	err := row.Scan(
		&rec.ID,
		&rec.AppointmentID,
		&rec.Symptoms,
		&rec.Diagnosis,
		&rec.Treatment,
		&rec.Medication,
		&rec.Observations,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return &rec, nil
}

func scanVisits(rows pgx.Rows) ([]AttendedVisit, error) {
	defer rows.Close()

	var result []AttendedVisit
	for rows.Next() {
		var v AttendedVisit
		err := rows.Scan(
			&v.AppointmentID,
			&v.Date,
			&v.Slot,
			&v.PatientNames,
			&v.PatientSurnames,
			&v.PatientNationalID,
			&v.Symptoms,
			&v.Diagnosis,
			&v.Treatment,
			&v.Medication,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Interface methods

func (r *PgRepository) Insert(ctx context.Context, patientID, doctorID uuid.UUID, date time.Time, slot string) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, date, slot, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'scheduled', now(), now())
		RETURNING id, patient_id, doctor_id, date, slot, status, created_at, updated_at
	`, id, patientID, doctorID, date, slot)

	appt, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	return appt, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, doctor_id, date, slot, status, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT a.id, a.patient_id, a.doctor_id, a.date, a.slot, a.status, a.created_at, a.updated_at,
		       p.id, p.names, p.surnames, p.national_id,
		       d.id, d.names, d.surnames, d.national_id
		FROM appointments a
		JOIN users p ON a.patient_id = p.id
		JOIN users d ON a.doctor_id = d.id
		WHERE a.id = $1
	`, id)

	var det Detail
	var patient, doctor ParticipantSummary
	err := row.Scan(
		&det.ID, &det.PatientID, &det.DoctorID, &det.Date, &det.Slot, &det.Status, &det.CreatedAt, &det.UpdatedAt,
		&patient.ID, &patient.Names, &patient.Surnames, &patient.NationalID,
		&doctor.ID, &doctor.Names, &doctor.Surnames, &doctor.NationalID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	det.Patient = &patient
	det.Doctor = &doctor
	return &det, nil
}

func (r *PgRepository) ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Detail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.patient_id, a.doctor_id, a.date, a.slot, a.status, a.created_at, a.updated_at,
		       p.id, p.names, p.surnames, p.national_id
		FROM appointments a
		JOIN users p ON a.patient_id = p.id
		WHERE a.doctor_id = $1 AND a.date = $2
		ORDER BY a.slot
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Detail
	for rows.Next() {
		var det Detail
		var patient ParticipantSummary
		err := rows.Scan(
			&det.ID, &det.PatientID, &det.DoctorID, &det.Date, &det.Slot, &det.Status, &det.CreatedAt, &det.UpdatedAt,
			&patient.ID, &patient.Names, &patient.Surnames, &patient.NationalID,
		)
		if err != nil {
			return nil, err
		}
		det.Patient = &patient
		result = append(result, det)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Detail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.patient_id, a.doctor_id, a.date, a.slot, a.status, a.created_at, a.updated_at,
		       d.id, d.names, d.surnames, d.national_id
		FROM appointments a
		JOIN users d ON a.doctor_id = d.id
		WHERE a.patient_id = $1
		ORDER BY a.date DESC, a.slot DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Detail
	for rows.Next() {
		var det Detail
		var doctor ParticipantSummary
		err := rows.Scan(
			&det.ID, &det.PatientID, &det.DoctorID, &det.Date, &det.Slot, &det.Status, &det.CreatedAt, &det.UpdatedAt,
			&doctor.ID, &doctor.Names, &doctor.Surnames, &doctor.NationalID,
		)
		if err != nil {
			return nil, err
		}
		det.Doctor = &doctor
		result = append(result, det)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListCompletedByDoctorRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Detail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.patient_id, a.doctor_id, a.date, a.slot, a.status, a.created_at, a.updated_at,
		       p.id, p.names, p.surnames, p.national_id
		FROM appointments a
		JOIN users p ON a.patient_id = p.id
		WHERE a.doctor_id = $1
		  AND a.status = 'completed'
		  AND a.date BETWEEN $2 AND $3
		ORDER BY a.date, a.slot
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Detail
	for rows.Next() {
		var det Detail
		var patient ParticipantSummary
		err := rows.Scan(
			&det.ID, &det.PatientID, &det.DoctorID, &det.Date, &det.Slot, &det.Status, &det.CreatedAt, &det.UpdatedAt,
			&patient.ID, &patient.Names, &patient.Surnames, &patient.NationalID,
		)
		if err != nil {
			return nil, err
		}
		det.Patient = &patient
		result = append(result, det)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) BookedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT slot
		FROM appointments
		WHERE doctor_id = $1 AND date = $2 AND status <> 'cancelled'
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return slots, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING id, patient_id, doctor_id, date, slot, status, created_at, updated_at
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// InsertRecordCompleting runs the two writes of a consultation as one unit:
// the record insert and the move to completed either both land or neither.
func (r *PgRepository) InsertRecordCompleting(ctx context.Context, rec ConsultationRecord) (*ConsultationRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	id := uuid.New()
	row := tx.QueryRow(ctx, `
		INSERT INTO consultation_records (id, appointment_id, symptoms, diagnosis, treatment, medication, observations, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING id, appointment_id, symptoms, diagnosis, treatment, medication, observations, created_at
	`, id, rec.AppointmentID, rec.Symptoms, rec.Diagnosis, rec.Treatment, rec.Medication, rec.Observations)

	inserted, err := scanRecord(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrRecordExists
		}
		return nil, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = 'completed',
		    updated_at = now()
		WHERE id = $1
	`, rec.AppointmentID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAppointmentNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return inserted, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (r *PgRepository) GetRecordByAppointment(ctx context.Context, appointmentID uuid.UUID) (*ConsultationRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, appointment_id, symptoms, diagnosis, treatment, medication, observations, created_at
		FROM consultation_records
		WHERE appointment_id = $1
	`, appointmentID)
	return scanRecord(row)
}

func (r *PgRepository) ListAttended(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]AttendedVisit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.date, a.slot,
		       p.names, p.surnames, p.national_id,
		       rc.symptoms, rc.diagnosis, rc.treatment, rc.medication
		FROM appointments a
		JOIN users p ON a.patient_id = p.id
		JOIN consultation_records rc ON rc.appointment_id = a.id
		WHERE a.doctor_id = $1
		  AND a.status = 'completed'
		  AND a.date BETWEEN $2 AND $3
		ORDER BY a.date, a.slot
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}

	return scanVisits(rows)
}

func (r *PgRepository) ListByDisease(ctx context.Context, doctorID uuid.UUID, disease string, from, to time.Time) ([]AttendedVisit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.date, a.slot,
		       p.names, p.surnames, p.national_id,
		       rc.symptoms, rc.diagnosis, rc.treatment, rc.medication
		FROM appointments a
		JOIN users p ON a.patient_id = p.id
		JOIN consultation_records rc ON rc.appointment_id = a.id
		WHERE a.doctor_id = $1
		  AND a.date BETWEEN $2 AND $3
		  AND (rc.diagnosis ILIKE $4 OR rc.symptoms ILIKE $4)
		ORDER BY a.date, a.slot
	`, doctorID, from, to, "%"+disease+"%")
	if err != nil {
		return nil, err
	}

	return scanVisits(rows)
}
