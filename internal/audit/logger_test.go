package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appCtx "github.com/baechuer/eprocure-portal/internal/pkg/context"
)

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"alice@example.com": "al***@example.com",
		"a@example.com":     "a***@example.com",
		"abc":               "***",
		"noatsign":          "no***",
	}
	for in, want := range cases {
		assert.Equal(t, want, MaskEmail(in), in)
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestRecord_MasksEmail(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf))

	l.Record("identity.signin", map[string]string{"user_id": "u1", "email": "alice@example.com"})

	m := decodeLine(t, &buf)
	assert.Equal(t, true, m["audit"])
	assert.Equal(t, "identity.signin", m["action"])
	assert.Equal(t, "u1", m["user_id"])
	assert.Equal(t, "al***@example.com", m["email"])
	assert.Equal(t, "info", m["level"])
}

func TestRecord_FailedIsWarn(t *testing.T) {
	var buf bytes.Buffer
	New(zerolog.New(&buf)).Record("identity.signin_failed", nil)

	assert.Equal(t, "warn", decodeLine(t, &buf)["level"])
}

func TestRoleChanged_CarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	ctx := appCtx.WithRequestID(context.Background(), "req-7")

	New(zerolog.New(&buf)).RoleChanged(ctx, "target", "actor", "supplier", "admin")

	m := decodeLine(t, &buf)
	assert.Equal(t, "role_changed", m["action"])
	assert.Equal(t, "req-7", m["request_id"])
	assert.Equal(t, "admin", m["new_role"])
}
