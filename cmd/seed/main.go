package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/medisync/medisync/internal/appointment"
	"github.com/medisync/medisync/internal/auth"
	"github.com/medisync/medisync/internal/config"
	"github.com/medisync/medisync/internal/db"
)

// Seeds a development database with appointments in every status and prints
// bearer tokens for the generated identities. The directory service is
// external, so the identities here are IDs plus tokens; point DIRECTORY_URL
// at a stub or a running auth service for name enrichment.
func main() {
	patients := flag.Int("patients", 5, "number of patients to generate")
	doctors := flag.Int("doctors", 3, "number of doctors to generate")
	perPatient := flag.Int("appointments", 4, "appointments per patient")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the printed demo tokens")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate schema: %v", err)
	}

	repo := appointment.NewPgRepository(pool)

	patientIDs := identities(cfg.JWTSecret, auth.RolePatient, *patients, *tokenTTL)
	doctorIDs := identities(cfg.JWTSecret, auth.RoleDoctor, *doctors, *tokenTTL)
	_ = identities(cfg.JWTSecret, auth.RoleAdmin, 1, *tokenTTL)

	statuses := []appointment.Status{
		appointment.StatusPending,
		appointment.StatusApproved,
		appointment.StatusCompleted,
		appointment.StatusCancelled,
		appointment.StatusRejected,
	}

	created := 0
	slot := 0
	for _, patient := range patientIDs {
		for i := 0; i < *perPatient; i++ {
			doctor := doctorIDs[slot%len(doctorIDs)]
			target := statuses[slot%len(statuses)]
			slot++

			appt, err := repo.Create(ctx, &appointment.Appointment{
				PatientID: patient.UserID,
				DoctorID:  doctor.UserID,
				Date:      time.Now().AddDate(0, 0, 1+slot),
				Time:      fmt.Sprintf("%02d:%02d", 8+slot%10, 15*(slot%4)),
				Reason:    gofakeit.Sentence(6),
			})
			if err != nil {
				log.Fatalf("seed appointment: %v", err)
			}

			if err := advance(ctx, repo, appt, target, patient, doctor); err != nil {
				log.Fatalf("advance appointment to %s: %v", target, err)
			}
			created++
		}
	}

	log.Printf("seeded %d appointments across %d patients and %d doctors", created, *patients, *doctors)
}

// advance walks a fresh PENDING appointment to the target status through the
// same transitions the API allows.
func advance(ctx context.Context, repo *appointment.PgRepository, appt *appointment.Appointment, target appointment.Status, patient, doctor auth.Identity) error {
	switch target {
	case appointment.StatusPending:
		return nil

	case appointment.StatusApproved:
		_, err := repo.UpdateStatus(ctx, appt.ID, appointment.StatusPending, appointment.StatusUpdate{To: appointment.StatusApproved})
		return err

	case appointment.StatusCompleted:
		if _, err := repo.UpdateStatus(ctx, appt.ID, appointment.StatusPending, appointment.StatusUpdate{To: appointment.StatusApproved}); err != nil {
			return err
		}
		notes := gofakeit.Sentence(8)
		_, err := repo.UpdateStatus(ctx, appt.ID, appointment.StatusApproved, appointment.StatusUpdate{
			To:    appointment.StatusCompleted,
			Notes: &notes,
		})
		return err

	case appointment.StatusCancelled:
		role := auth.RolePatient
		_, err := repo.UpdateStatus(ctx, appt.ID, appointment.StatusPending, appointment.StatusUpdate{
			To:            appointment.StatusCancelled,
			CancelledBy:   &role,
			CancelledByID: &patient.UserID,
		})
		return err

	case appointment.StatusRejected:
		role := auth.RoleDoctor
		reason := gofakeit.Sentence(5)
		_, err := repo.UpdateStatus(ctx, appt.ID, appointment.StatusPending, appointment.StatusUpdate{
			To:            appointment.StatusRejected,
			Notes:         &reason,
			CancelledBy:   &role,
			CancelledByID: &doctor.UserID,
		})
		return err
	}
	return fmt.Errorf("unknown target status %s", target)
}

func identities(secret string, role auth.Role, n int, ttl time.Duration) []auth.Identity {
	out := make([]auth.Identity, 0, n)
	for i := 0; i < n; i++ {
		id := auth.Identity{
			UserID: uuid.New(),
			Email:  gofakeit.Email(),
			Role:   role,
		}
		out = append(out, id)

		token, err := auth.Mint(secret, id, ttl)
		if err != nil {
			log.Fatalf("mint token: %v", err)
		}
		fmt.Printf("%s %s %s\n  token: %s\n", role, id.UserID, id.Email, token)
	}
	return out
}
