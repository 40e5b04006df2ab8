package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/axiomhq/axiom-go/axiom"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "info", Out: &buf}))
	t.Cleanup(Close)

	log.Debug().Msg("hidden")
	log.Info().Str("doc", "a.pdf").Msg("extracted")

	var ev map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &ev))
	assert.Equal(t, "extracted", ev["message"])
	assert.Equal(t, serviceName, ev["service"])
	assert.Equal(t, "a.pdf", ev["doc"])
}

func TestInitBadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "loud", Out: &buf}))
	t.Cleanup(Close)

	log.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
	log.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestInitRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	require.NoError(t, Init(Options{Level: "info", File: path, Out: &bytes.Buffer{}}))
	t.Cleanup(Close)

	log.Info().Msg("to file")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestAxiomWriterSkipsDebug(t *testing.T) {
	c := &axiomClient{ch: make(chan axiom.Event, 4)}
	w := &axiomWriter{client: c}

	_, err := w.Write([]byte(`{"level":"debug","message":"noise"}`))
	require.NoError(t, err)
	_, err = w.Write([]byte(`{"level":"warn","message":"slow provider"}`))
	require.NoError(t, err)
	_, err = w.Write([]byte("not json"))
	require.NoError(t, err)

	require.Len(t, c.ch, 2)
	ev := <-c.ch
	assert.Equal(t, "slow provider", ev["message"])
	assert.Equal(t, serviceName, ev["service"])
	ev = <-c.ch
	assert.Equal(t, "not json", ev["message"])
}
