package sqlite

const schema = `
-- Purchases table (day allowances)
CREATE TABLE IF NOT EXISTS purchases (
    id TEXT PRIMARY KEY,
    client_id TEXT NOT NULL,
    total_purchased_days INTEGER NOT NULL CHECK(total_purchased_days > 0),
    days_used INTEGER NOT NULL DEFAULT 0 CHECK(days_used >= 0 AND days_used <= total_purchased_days),
    allowed_freeze_days INTEGER NOT NULL DEFAULT 0 CHECK(allowed_freeze_days >= 0),
    expected_start_date TEXT,
    expected_end_date TEXT,
    status TEXT NOT NULL DEFAULT 'active',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_purchases_client ON purchases(client_id);
CREATE INDEX IF NOT EXISTS idx_purchases_status ON purchases(status);

-- Phases table (meal-plan instances)
CREATE TABLE IF NOT EXISTS phases (
    id TEXT PRIMARY KEY,
    purchase_id TEXT NOT NULL,
    parent_purchase_id TEXT,
    client_id TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    original_duration_days INTEGER NOT NULL CHECK(original_duration_days > 0),
    paused_days INTEGER NOT NULL DEFAULT 0 CHECK(paused_days >= 0),
    status TEXT NOT NULL DEFAULT 'active',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (purchase_id) REFERENCES purchases(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_phases_client ON phases(client_id);
CREATE INDEX IF NOT EXISTS idx_phases_purchase ON phases(purchase_id);
CREATE INDEX IF NOT EXISTS idx_phases_status ON phases(status);
CREATE INDEX IF NOT EXISTS idx_phases_start ON phases(start_date);

-- Freeze entries (one row per frozen day)
CREATE TABLE IF NOT EXISTS freeze_entries (
    phase_id TEXT NOT NULL,
    frozen_date TEXT NOT NULL,
    appended_date TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (phase_id, frozen_date),
    FOREIGN KEY (phase_id) REFERENCES phases(id) ON DELETE CASCADE
);

-- Outbound scheduling events (audit trail)
CREATE TABLE IF NOT EXISTS phase_events (
    id TEXT PRIMARY KEY,
    event_type TEXT NOT NULL,
    phase_id TEXT,
    purchase_id TEXT,
    client_id TEXT NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    data TEXT NOT NULL DEFAULT '{}',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_phase_events_phase ON phase_events(phase_id);
CREATE INDEX IF NOT EXISTS idx_phase_events_client ON phase_events(client_id);
CREATE INDEX IF NOT EXISTS idx_phase_events_created_at ON phase_events(created_at);
`
