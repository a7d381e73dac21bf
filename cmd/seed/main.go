package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicware/scheduling/internal/auth"
	"github.com/clinicware/scheduling/internal/db"
	"github.com/clinicware/scheduling/internal/slotgrid"
)

// Every seeded account shares this password so the API can be exercised
// by hand or by the simulator without digging hashes out of the database.
const seedPassword = "changeme123"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(context.Background(), pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		log.Fatalf("hash seed password: %v", err)
	}

	if err := seedAdmin(context.Background(), pool, hash); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	doctorIDs, err := seedUsers(context.Background(), pool, "doctor", 10, hash)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}

	patientIDs, err := seedUsers(context.Background(), pool, "patient", 200, hash)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	if err := seedAppointments(context.Background(), pool, doctorIDs, patientIDs); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, hash string) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, names, surnames, email, password_hash, national_id, role)
		VALUES ($1, 'Admin', 'User', 'admin@clinic.local', $2, '0000000000', 'admin')
		ON CONFLICT (email) DO NOTHING
	`, uuid.New(), hash)
	return err
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, role string, count int, hash string) ([]uuid.UUID, error) {
	log.Printf("seeding %d %ss", count, role)

	const batchSize = 100
	ids := make([]uuid.UUID, 0, count)

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			phone := gofakeit.Phone()

			_, err := tx.Exec(ctx, `
				INSERT INTO users (id, names, surnames, email, password_hash, phone, national_id, role)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, id, gofakeit.FirstName(), gofakeit.LastName(), gofakeit.Email(), hash, phone, gofakeit.Numerify("##########"), role)
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}

			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Printf("%ss seeded: %d/%d", role, end, count)
	}

	return ids, nil
}

// seedAppointments books roughly half of each doctor's grid over the coming
// week, picking random patients. Clashes on the partial unique index are
// impossible here because each (doctor, day, slot) is visited once.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, doctorIDs, patientIDs []uuid.UUID) error {
	log.Println("seeding appointments")

	grid := slotgrid.Generate()
	today := time.Now().Truncate(24 * time.Hour)
	total := 0

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, doctorID := range doctorIDs {
		for day := 0; day < 7; day++ {
			date := today.AddDate(0, 0, day)
			for _, slot := range grid {
				if gofakeit.Bool() {
					continue
				}

				patient := patientIDs[gofakeit.Number(0, len(patientIDs)-1)]
				_, err := tx.Exec(ctx, `
					INSERT INTO appointments (id, patient_id, doctor_id, date, slot, status)
					VALUES ($1, $2, $3, $4, $5, 'scheduled')
				`, uuid.New(), patient, doctorID, date, slot)
				if err != nil {
					return err
				}
				total++
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("appointments seeded: %d", total)
	return nil
}
