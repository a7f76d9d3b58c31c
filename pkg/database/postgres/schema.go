package postgres

// schema is applied at connect time. Statements are idempotent so repeated
// boots are safe.
const schema = `
CREATE TABLE IF NOT EXISTS package (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at  TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS package_name_live
	ON package (name) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS version (
	id          UUID PRIMARY KEY,
	package_id  UUID NOT NULL REFERENCES package (id),
	version     TEXT NOT NULL,
	license     TEXT NOT NULL DEFAULT '',
	readme      TEXT NOT NULL DEFAULT '',
	checksum    TEXT NOT NULL,
	size        BIGINT NOT NULL DEFAULT 0,
	is_yanked   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (package_id, version)
);

CREATE TABLE IF NOT EXISTS owner (
	id          UUID PRIMARY KEY,
	package_id  UUID NOT NULL REFERENCES package (id),
	email       TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at  TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS owner_email_live
	ON owner (package_id, email) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS api_token (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	token       TEXT NOT NULL UNIQUE,
	user_id     TEXT NOT NULL,
	email       TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at  TIMESTAMPTZ
);
`
