package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/hackgods/telehealth-coordination/internal/appointment"
	"github.com/hackgods/telehealth-coordination/internal/db"
	"github.com/hackgods/telehealth-coordination/internal/doctor"
	"github.com/hackgods/telehealth-coordination/internal/events"
	"github.com/hackgods/telehealth-coordination/internal/logging"
)

const (
	doctorCount              = 40
	appointmentsPerDoctorMax = 12
)

var reasons = []string{
	"Follow-up consultation",
	"Persistent headache",
	"Skin rash",
	"Chest discomfort",
	"Annual check-up",
	"Medication review",
	"Back pain",
	"Trouble sleeping",
}

func main() {
	_ = godotenv.Load()
	logger := logging.New(true, "info").With().Str("cmd", "seed").Logger()
	logger.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := db.EnsureSchema(context.Background(), pool); err != nil {
		logger.Fatal().Err(err).Msg("ensure schema")
	}

	gofakeit.Seed(time.Now().UnixNano())

	doctors, err := seedDoctors(context.Background(), pool, logger, doctorCount)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed doctors")
	}
	if err := seedAppointments(context.Background(), pool, logger, doctors); err != nil {
		logger.Fatal().Err(err).Msg("seed appointments")
	}

	logger.Info().Msg("seed complete")
}

// seedDoctors goes through the directory service so every seeded profile gets
// the same defaults and validation as an admin-created one.
func seedDoctors(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger, count int) ([]*doctor.Doctor, error) {
	logger.Info().Int("count", count).Msg("seeding doctors")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	svc := doctor.NewService(doctor.NewPgRepository(tx), nil, events.Nop{}, logger)

	out := make([]*doctor.Doctor, 0, count)
	for i := 0; i < count; i++ {
		name := gofakeit.Name()
		fee := gofakeit.Number(5, 30) * 10

		d, err := svc.Create(ctx, doctor.CreateParams{
			ExternalID:      "seed_" + uuid.NewString(),
			Name:            name,
			Specialty:       doctor.Specialties[gofakeit.Number(0, len(doctor.Specialties)-1)],
			Email:           fmt.Sprintf("%s.%d@clinic.example.com", strings.ToLower(gofakeit.LastName()), i),
			Phone:           gofakeit.Phone(),
			LicenseNumber:   fmt.Sprintf("MD-%06d", gofakeit.Number(1, 999999)),
			Experience:      fmt.Sprintf("%d years", gofakeit.Number(2, 30)),
			Education:       gofakeit.Company() + " School of Medicine",
			ConsultationFee: &fee,
		})
		if err != nil {
			return nil, fmt.Errorf("create doctor %q: %w", name, err)
		}
		out = append(out, d)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Info().Int("count", len(out)).Msg("doctors seeded")
	return out, nil
}

// seedAppointments writes pending requests straight to the store. No
// notifications are sent for seeded rows.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger, doctors []*doctor.Doctor) error {
	total := 0

	for _, d := range doctors {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		repo := appointment.NewPgRepository(tx)

		n := gofakeit.Number(0, appointmentsPerDoctorMax)
		for i := 0; i < n; i++ {
			day := time.Now().AddDate(0, 0, gofakeit.Number(1, 30))
			_, err := repo.CreateAppointment(ctx, &appointment.Appointment{
				ID:              uuid.NewString(),
				PatientID:       "seed_" + uuid.NewString(),
				PatientName:     gofakeit.Name(),
				PatientEmail:    strings.ToLower(gofakeit.Email()),
				PatientPhone:    gofakeit.Phone(),
				DoctorID:        d.ID,
				DoctorName:      d.Name,
				DoctorEmail:     d.Email,
				AppointmentDate: day.Format("2006-01-02"),
				AppointmentTime: fmt.Sprintf("%02d:%02d", gofakeit.Number(8, 17), gofakeit.RandomInt([]int{0, 15, 30, 45})),
				Reason:          reasons[gofakeit.Number(0, len(reasons)-1)],
				ConsultationFee: d.ConsultationFee,
				Status:          appointment.StatusPending,
			})
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}
		total += n
	}

	logger.Info().Int("count", total).Msg("appointments seeded")
	return nil
}
