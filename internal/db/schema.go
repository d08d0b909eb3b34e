package db

const schemaSQL = `
CREATE TABLE IF NOT EXISTS crawl_runs (
	id           UUID PRIMARY KEY,
	job          TEXT NOT NULL,
	output_path  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	records      INTEGER NOT NULL DEFAULT 0,
	failed_tasks INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS crawl_runs_job_created_idx ON crawl_runs (job, created_at DESC);

CREATE TABLE IF NOT EXISTS ingredients (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	energy_kcal DOUBLE PRECISION,
	protein_g   DOUBLE PRECISION,
	fat_g       DOUBLE PRECISION,
	carb_g      DOUBLE PRECISION,
	fiber_g     DOUBLE PRECISION,
	calcium_mg  DOUBLE PRECISION,
	sodium_mg   DOUBLE PRECISION,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
