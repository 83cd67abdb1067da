// internal/repository/postgres/schema.go
package postgres

import "context"

// The legacy system evolved this schema through dozens of one-off migration
// scripts; this is the single schema-defining source of truth.
//
// Active (name, phone) uniqueness is deliberately not a database constraint:
// every create/update passes the duplicate check under the row lock, while a
// restore must re-activate a row even when a colliding record was created
// after the delete. A partial unique index would reject that restore.
const schema = `
CREATE TABLE IF NOT EXISTS customer_records (
	id                      BIGSERIAL PRIMARY KEY,
	customer_name           TEXT NOT NULL,
	phone                   TEXT NOT NULL,
	address                 TEXT,
	notes                   TEXT,
	tags                    TEXT[],
	module_count            INTEGER,
	capacity                NUMERIC(10,2),
	filing_capacity         NUMERIC(10,2),
	investment_amount       NUMERIC(12,2),
	land_area               NUMERIC(12,2),
	inverter                TEXT,
	distribution_box        TEXT,
	copper_wire             TEXT,
	aluminum_wire           TEXT,
	technical_status        TEXT NOT NULL DEFAULT 'pending',
	technical_reviewed_at   TIMESTAMPTZ,
	technical_rejected_at   TIMESTAMPTZ,
	technical_notes         TEXT,
	acceptance_status       TEXT NOT NULL DEFAULT 'pending',
	acceptance_completed_at TIMESTAMPTZ,
	acceptance_notes        TEXT,
	wait_days               INTEGER,
	wait_started_at         TIMESTAMPTZ,
	construction_team       TEXT,
	construction_team_phone TEXT,
	dispatch_date           TIMESTAMPTZ,
	created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at              TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_customer_records_name_phone
	ON customer_records (customer_name, phone)
	WHERE deleted_at IS NULL;

CREATE INDEX IF NOT EXISTS idx_customer_records_team
	ON customer_records (construction_team)
	WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS deleted_record_snapshots (
	id            TEXT PRIMARY KEY,
	record_id     BIGINT NOT NULL,
	customer_name TEXT NOT NULL,
	phone         TEXT NOT NULL,
	record        JSONB NOT NULL,
	deleted_at    TIMESTAMPTZ NOT NULL,
	restored_at   TIMESTAMPTZ,
	restored_by   TEXT
);

CREATE INDEX IF NOT EXISTS idx_snapshots_record_id
	ON deleted_record_snapshots (record_id);

CREATE TABLE IF NOT EXISTS construction_teams (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	phone      TEXT,
	address    TEXT,
	status     TEXT NOT NULL DEFAULT 'active',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EnsureSchema creates the tables and indexes if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, schema)
	return err
}
