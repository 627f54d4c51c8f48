package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion is written into every persisted payload.
const SchemaVersion = 1

type envelope struct {
	SchemaVersion int             `json:"schema_version"`
	Kind          string          `json:"kind"`
	SavedAt       time.Time       `json:"saved_at"`
	Data          json.RawMessage `json:"data"`
}

func encodeEnvelope(kind string, data any, now time.Time) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	out, err := json.MarshalIndent(envelope{
		SchemaVersion: SchemaVersion,
		Kind:          kind,
		SavedAt:       now.UTC(),
		Data:          raw,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	return out, nil
}

// decodeEnvelope unwraps a versioned payload. Payloads written before
// versioning (a bare array or a bare object) are returned as they are.
func decodeEnvelope(kind string, payload []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '{' {
		return trimmed, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	if _, versioned := fields["schema_version"]; !versioned {
		return trimmed, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	if env.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("decode %s: schema version %d is newer than supported %d", kind, env.SchemaVersion, SchemaVersion)
	}
	if env.Kind != "" && env.Kind != kind {
		return nil, fmt.Errorf("decode %s: payload holds %q", kind, env.Kind)
	}
	return env.Data, nil
}
