// Package ingestion is the single write entry point of the service. HTTP
// handlers, the CLI and the Kafka consumer all go through Service, so every
// write is mapped, journaled and counted the same way.
package ingestion

import (
	"encoding/json"
	"time"
)

// Op names a write operation.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpDrop   Op = "drop"
)

// Command is a serialised write, as published to Kafka by async requests.
// Rows and Records are alternatives: a command carries one or the other.
type Command struct {
	ID       string    `json:"id"`
	Op       Op        `json:"op"`
	Index    string    `json:"index"`
	Language string    `json:"language,omitempty"`
	IssuedAt time.Time `json:"issued_at"`

	Rows        [][]string `json:"rows,omitempty"`
	TextColumns []int      `json:"text_columns,omitempty"`
	KeyColumn   int        `json:"key_column,omitempty"`

	Records    json.RawMessage `json:"records,omitempty"`
	TextFields []string        `json:"text_fields,omitempty"`
	KeyField   string          `json:"key_field,omitempty"`

	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
}

// Summary reports what a write did.
type Summary struct {
	Index     string `json:"index"`
	Op        Op     `json:"op"`
	Documents int    `json:"documents"`
	Queued    bool   `json:"queued,omitempty"`
	CommandID string `json:"command_id,omitempty"`
}
