// Package postgres provides PostgreSQL implementations of the storage
// interfaces.
package postgres

// Schema contains the SQL statements to create the TaskChat schema for
// PostgreSQL. All statements use IF NOT EXISTS so the schema can be applied
// on every open.
const Schema = `
-- Tasks table: one row per todo item, physically deleted on removal.
-- Position is never stored; it is projected from insertion order at read time.
CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    user_id TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, created_at);

-- Conversations table: one active conversation per user (earliest row wins).
CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, created_at);

-- Messages table: append-only chat trail. seq is assigned on insert and is
-- the replay order; timestamps can collide, seq cannot.
CREATE TABLE IF NOT EXISTS messages (
    seq BIGSERIAL PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    conversation_id TEXT NOT NULL REFERENCES conversations(id),
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    timestamp TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq);

-- Tool invocations table: append-only audit log of executed tool calls.
CREATE TABLE IF NOT EXISTS tool_invocations (
    id TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL REFERENCES conversations(id),
    tool_name TEXT NOT NULL,
    parameters TEXT NOT NULL,
    result TEXT,
    executed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_invocations_conversation ON tool_invocations(conversation_id, executed_at);
`
