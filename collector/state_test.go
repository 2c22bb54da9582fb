package collector

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRoundTrip(t *testing.T) {
	dir := t.TempDir()

	want := &State{
		PID:       1234,
		Port:      7777,
		SessionID: "abc-def",
		StartedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, WriteState(dir, want))

	got, err := ReadState(dir)
	require.NoError(t, err)
	assert.Equal(t, want.PID, got.PID)
	assert.Equal(t, want.Port, got.Port)
	assert.Equal(t, want.SessionID, got.SessionID)
	assert.True(t, want.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, "http://127.0.0.1:7777", got.BaseURL())
}

func TestWriteStateCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "runmeter")

	require.NoError(t, WriteState(dir, &State{PID: 1, Port: 1}))

	_, err := ReadState(dir)
	assert.NoError(t, err)
}

func TestReadStateMissing(t *testing.T) {
	_, err := ReadState(t.TempDir())
	assert.Error(t, err)
}

func TestRemoveStateIdempotent(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, WriteState(dir, &State{PID: 1, Port: 1}))
	require.NoError(t, RemoveState(dir))

	_, err := ReadState(dir)
	require.Error(t, err)

	// removing again is fine
	assert.NoError(t, RemoveState(dir))
}
