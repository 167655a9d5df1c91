package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Backends(t *testing.T) {
	for _, backend := range []string{"", BackendSlog, BackendZap} {
		t.Run("backend="+backend, func(t *testing.T) {
			var buf bytes.Buffer
			log, err := New(backend, "info", &buf)
			require.NoError(t, err)

			log.Debug(context.Background(), "hidden")
			log.Info(context.Background(), "visible", "k", "v")
			if z, ok := log.(*ZapLogger); ok {
				_ = z.Sync()
			}

			lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
			require.Len(t, lines, 1, "debug must be filtered at info level")

			var entry map[string]any
			require.NoError(t, json.Unmarshal(lines[0], &entry))
			assert.Equal(t, "v", entry["k"])
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New("logrus", "info", &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New(BackendSlog, "loud", &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New(BackendZap, "loud", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRequestIDFrom(t *testing.T) {
	_, ok := RequestIDFrom(context.Background())
	assert.False(t, ok)

	id, ok := RequestIDFrom(WithRequestID(context.Background(), "r1"))
	assert.True(t, ok)
	assert.Equal(t, "r1", id)

	_, ok = RequestIDFrom(WithRequestID(context.Background(), ""))
	assert.False(t, ok)
}
