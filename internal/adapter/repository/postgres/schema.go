package postgres

import (
	"context"
	"fmt"
)

// schema holds the durable state of all wallet instances: one account row
// per deployed instance, its fund map, and its append-only transaction list
// with the per-account id counter on the account row.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id                UUID PRIMARY KEY,
	address           TEXT NOT NULL,
	owner_address     TEXT NOT NULL UNIQUE,
	registry_ref      TEXT NOT NULL,
	asset_ref         TEXT NOT NULL,
	vault_ref         TEXT NOT NULL,
	oracle_ref        TEXT NOT NULL,
	swap_ref          TEXT NOT NULL,
	available_balance NUMERIC NOT NULL DEFAULT 0 CHECK (available_balance >= 0),
	invested_amount   NUMERIC NOT NULL DEFAULT 0 CHECK (invested_amount >= 0),
	vault_shares      NUMERIC NOT NULL DEFAULT 0,
	tx_counter        BIGINT  NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS funds (
	account_id     UUID NOT NULL REFERENCES accounts(id),
	fund_id        TEXT NOT NULL,
	target_amount  NUMERIC NOT NULL CHECK (target_amount > 0),
	current_amount NUMERIC NOT NULL DEFAULT 0 CHECK (current_amount >= 0),
	label          TEXT NOT NULL,
	PRIMARY KEY (account_id, fund_id)
);

CREATE TABLE IF NOT EXISTS transactions (
	account_id  UUID NOT NULL REFERENCES accounts(id),
	id          BIGINT NOT NULL,
	kind        TEXT NOT NULL,
	amount      NUMERIC NOT NULL,
	destination TEXT,
	fund_id     TEXT,
	ts          TIMESTAMPTZ NOT NULL,
	description TEXT NOT NULL,
	PRIMARY KEY (account_id, id)
);
`

// EnsureSchema creates the tables if they do not exist yet
func EnsureSchema(ctx context.Context, db *DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
