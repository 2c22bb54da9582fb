package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runmeter.sh/stats"
)

func TestStoreClientFetchesDomains(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/cpu":
			json.NewEncoder(w).Encode([]stats.CPU{{Time: 1000, TotalLoad: 50, UserLoad: 40, SystemLoad: 10}})
		case "/memory":
			json.NewEncoder(w).Encode([]stats.Memory{{Time: 1000, TotalMb: 16000, ActiveMb: 8000, AvailableMb: 8000}})
		case "/network":
			json.NewEncoder(w).Encode([]stats.Network{{Time: 1000, RxMb: 1.5, TxMb: 0.5}})
		case "/disk":
			json.NewEncoder(w).Encode([]stats.Disk{{Time: 1000, ReadMb: 2, WriteMb: 3}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	c := NewStoreClient(ts.URL)
	ctx := context.Background()

	cpu, err := c.CPU(ctx)
	require.NoError(t, err)
	require.Len(t, cpu, 1)
	assert.Equal(t, 40.0, cpu[0].UserLoad)

	memory, err := c.Memory(ctx)
	require.NoError(t, err)
	require.Len(t, memory, 1)
	assert.Equal(t, 8000.0, memory[0].ActiveMb)

	network, err := c.Network(ctx)
	require.NoError(t, err)
	require.Len(t, network, 1)
	assert.Equal(t, 1.5, network[0].RxMb)

	disk, err := c.Disk(ctx)
	require.NoError(t, err)
	require.Len(t, disk, 1)
	assert.Equal(t, 3.0, disk[0].WriteMb)
}

func TestStoreClientTrimsTrailingSlash(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cpu", r.URL.Path)
		json.NewEncoder(w).Encode([]stats.CPU{})
	}))
	defer ts.Close()

	c := NewStoreClient(ts.URL + "/")
	_, err := c.CPU(context.Background())
	assert.NoError(t, err)
}

func TestStoreClientErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := NewStoreClient(ts.URL)

	_, err := c.CPU(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestStoreClientBadPayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer ts.Close()

	c := NewStoreClient(ts.URL)

	_, err := c.Memory(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestStoreClientTriggerCollect(t *testing.T) {
	var gotMethod, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer ts.Close()

	c := NewStoreClient(ts.URL)

	require.NoError(t, c.TriggerCollect(context.Background()))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/collect", gotPath)
}

func TestStoreClientTriggerCollectFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer ts.Close()

	c := NewStoreClient(ts.URL)
	assert.Error(t, c.TriggerCollect(context.Background()))
}
