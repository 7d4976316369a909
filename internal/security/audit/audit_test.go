package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogActionIncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	al := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx := context.WithValue(context.Background(), chimw.RequestIDKey, "req-42")

	al.LogDeletion(ctx, "u-1", "tour", "t-9")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "audit", entry["channel"])
	assert.Equal(t, ActionDelete, entry["action"])
	assert.Equal(t, "tour", entry["resource"])
	assert.Equal(t, "t-9", entry["resource_id"])
	assert.Equal(t, "req-42", entry["request_id"])
}
