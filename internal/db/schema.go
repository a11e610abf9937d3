package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the tables and indexes both services rely on. Statements
// are idempotent so every binary can run this at startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`DO $$ BEGIN
			CREATE TYPE appointment_status AS ENUM ('PENDING', 'APPROVED', 'CANCELLED', 'COMPLETED', 'REJECTED');
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$`,

		`CREATE TABLE IF NOT EXISTS appointments (
			id UUID PRIMARY KEY,
			patient_id UUID NOT NULL,
			doctor_id UUID NOT NULL,
			date DATE NOT NULL,
			time VARCHAR(10) NOT NULL,
			reason TEXT NOT NULL,
			status appointment_status NOT NULL DEFAULT 'PENDING',
			notes TEXT,
			cancelled_by VARCHAR(20),
			cancelled_by_id UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_appointments_patient_id ON appointments (patient_id)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_doctor_id ON appointments (doctor_id)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments (status)`,

		// One live booking per (doctor, date, time). This is what makes the
		// conflict check atomic under concurrent creates: the insert itself
		// fails with a unique violation instead of relying on a prior SELECT.
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_appointments_live_slot
			ON appointments (doctor_id, date, time)
			WHERE status IN ('PENDING', 'APPROVED')`,

		`DO $$ BEGIN
			CREATE TYPE notification_status AS ENUM ('PENDING', 'SENT', 'FAILED');
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			type VARCHAR(20) NOT NULL DEFAULT 'IN_APP',
			title VARCHAR(255) NOT NULL,
			message TEXT NOT NULL,
			status notification_status NOT NULL DEFAULT 'PENDING',
			read BOOLEAN NOT NULL DEFAULT FALSE,
			metadata JSONB,
			sent_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications (created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications (user_id, read) WHERE read = FALSE`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
