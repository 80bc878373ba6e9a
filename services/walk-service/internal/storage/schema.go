package storage

import (
	"context"

	"github.com/BeeInterest/business-dog-walking/libs/db"
)

// schemaDDL bootstraps the tables on startup. The unique constraints are not
// decoration: customer and dog dedup plus walk idempotency rely on them as
// the last line of defense under concurrent bookings.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS customers (
	customer_id BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	phone       VARCHAR(12) NOT NULL,
	flat_number INT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (phone, flat_number)
);

CREATE TABLE IF NOT EXISTS dogs (
	dog_id          BIGSERIAL PRIMARY KEY,
	customer_id     BIGINT NOT NULL REFERENCES customers (customer_id),
	dog_name        TEXT NOT NULL,
	dog_description TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (customer_id, dog_name)
);

CREATE TABLE IF NOT EXISTS rate_slots (
	hour_minute VARCHAR(5) PRIMARY KEY,
	price       DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS walks (
	walk_id     BIGSERIAL PRIMARY KEY,
	dog_id      BIGINT NOT NULL REFERENCES dogs (dog_id),
	start_date  TIMESTAMPTZ NOT NULL,
	end_date    TIMESTAMPTZ NOT NULL,
	status      VARCHAR(4) NOT NULL,
	price       DOUBLE PRECISION NOT NULL,
	who_walking TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (dog_id, start_date)
);

CREATE INDEX IF NOT EXISTS walks_start_date_idx ON walks (start_date);

CREATE TABLE IF NOT EXISTS outbox_events (
	id             BIGSERIAL PRIMARY KEY,
	event_id       TEXT NOT NULL,
	aggregate_type TEXT NOT NULL,
	aggregate_id   TEXT NOT NULL,
	event_type     TEXT NOT NULL,
	payload        JSONB NOT NULL,
	traceparent    TEXT NOT NULL DEFAULT '',
	tracestate     TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	published_at   TIMESTAMPTZ
);
`

func EnsureSchema(ctx context.Context, pool *db.Pool) error {
	_, err := pool.Exec(ctx, schemaDDL)
	return err
}
