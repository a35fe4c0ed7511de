package sqlite

// migrations holds the schema DDL in apply order. Every statement is
// idempotent so Migrate can run on every start.
var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS marketplace_products (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    name           TEXT NOT NULL DEFAULT '',
    price_amount   INTEGER NOT NULL DEFAULT 0,
    price_currency TEXT NOT NULL DEFAULT '',
    category       TEXT NOT NULL DEFAULT '',
    owner          TEXT NOT NULL DEFAULT '',
    purchased      INTEGER NOT NULL DEFAULT 0,
    seller         TEXT NOT NULL DEFAULT '',
    acquired_seq   INTEGER NOT NULL DEFAULT 0,
    created_at     TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
);
`,
	`CREATE INDEX IF NOT EXISTS idx_marketplace_products_owner ON marketplace_products (owner, acquired_seq);`,
	`
CREATE TABLE IF NOT EXISTS marketplace_donations (
    id              TEXT PRIMARY KEY,
    donor           TEXT NOT NULL DEFAULT '',
    amount          INTEGER NOT NULL DEFAULT 0,
    amount_currency TEXT NOT NULL DEFAULT '',
    donated_at      TEXT NOT NULL DEFAULT (datetime('now')),
    shares          TEXT NOT NULL DEFAULT '[]',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);
`,
	`CREATE INDEX IF NOT EXISTS idx_marketplace_donations_donor ON marketplace_donations (donor);`,
	`
CREATE TABLE IF NOT EXISTS marketplace_services (
    type           TEXT PRIMARY KEY,
    price_amount   INTEGER NOT NULL DEFAULT 0,
    price_currency TEXT NOT NULL DEFAULT '',
    seq            INTEGER NOT NULL DEFAULT 0,
    created_at     TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
);
`,
	`
CREATE TABLE IF NOT EXISTS marketplace_events (
    id              TEXT PRIMARY KEY,
    kind            TEXT NOT NULL DEFAULT '',
    occurred_at     TEXT NOT NULL DEFAULT (datetime('now')),
    product_id      INTEGER NOT NULL DEFAULT 0,
    name            TEXT NOT NULL DEFAULT '',
    price_amount    INTEGER NOT NULL DEFAULT 0,
    price_currency  TEXT NOT NULL DEFAULT '',
    owner           TEXT NOT NULL DEFAULT '',
    purchased       INTEGER NOT NULL DEFAULT 0,
    category        TEXT NOT NULL DEFAULT '',
    donor           TEXT NOT NULL DEFAULT '',
    amount          INTEGER NOT NULL DEFAULT 0,
    amount_currency TEXT NOT NULL DEFAULT '',
    service_type    TEXT NOT NULL DEFAULT '',
    buyer           TEXT NOT NULL DEFAULT '',
    seq             INTEGER NOT NULL DEFAULT 0
);
`,
	`CREATE INDEX IF NOT EXISTS idx_marketplace_events_kind ON marketplace_events (kind, seq);`,
}
