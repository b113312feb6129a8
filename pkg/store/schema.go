package store

// schema contains the gateway's SQL DDL. The users table stores password
// hashes alongside per-provider encrypted token columns: the Credential
// Vault's TokenRecord is conceptually a separate entity (§3) but is laid out
// as column groups on the user row per the persistent state layout.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    last_active INTEGER NOT NULL,
    active BOOLEAN NOT NULL DEFAULT 1,

    strava_access_token TEXT,
    strava_refresh_token TEXT,
    strava_expires_at INTEGER,
    strava_scope TEXT,
    strava_nonce TEXT,

    fitbit_access_token TEXT,
    fitbit_refresh_token TEXT,
    fitbit_expires_at INTEGER,
    fitbit_scope TEXT,
    fitbit_nonce TEXT
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
`
