package collector

import (
	"testing"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCPULoads(t *testing.T) {
	tests := []struct {
		name       string
		prev, cur  cpu.TimesStat
		wantUser   float64
		wantSystem float64
		wantTotal  float64
	}{
		{
			name:       "mixed load",
			prev:       cpu.TimesStat{User: 100, System: 50, Idle: 850},
			cur:        cpu.TimesStat{User: 110, System: 55, Idle: 885},
			wantUser:   20,
			wantSystem: 10,
			wantTotal:  30,
		},
		{
			name:       "fully idle",
			prev:       cpu.TimesStat{User: 100, System: 50, Idle: 850},
			cur:        cpu.TimesStat{User: 100, System: 50, Idle: 900},
			wantUser:   0,
			wantSystem: 0,
			wantTotal:  0,
		},
		{
			name:       "counter reset",
			prev:       cpu.TimesStat{User: 100, System: 50, Idle: 850},
			cur:        cpu.TimesStat{User: 1, System: 1, Idle: 1},
			wantUser:   0,
			wantSystem: 0,
			wantTotal:  0,
		},
		{
			name:       "no elapsed time",
			prev:       cpu.TimesStat{User: 100, System: 50, Idle: 850},
			cur:        cpu.TimesStat{User: 100, System: 50, Idle: 850},
			wantUser:   0,
			wantSystem: 0,
			wantTotal:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, system, total := cpuLoads(tt.prev, tt.cur)
			assert.InDelta(t, tt.wantUser, user, 0.001)
			assert.InDelta(t, tt.wantSystem, system, 0.001)
			assert.InDelta(t, tt.wantTotal, total, 0.001)
		})
	}
}

func TestCounterDelta(t *testing.T) {
	assert.Equal(t, uint64(5), counterDelta(15, 10))
	assert.Equal(t, uint64(0), counterDelta(10, 10))
	// a reset counter reports zero activity, not a wraparound spike
	assert.Equal(t, uint64(0), counterDelta(3, 10))
}

func TestToMb(t *testing.T) {
	assert.Equal(t, 1.0, toMb(1024*1024))
	assert.Equal(t, 0.5, toMb(512*1024))
	assert.Equal(t, 0.0, toMb(0))
}

func TestCPUSamplerPrimesOnFirstRead(t *testing.T) {
	var s cpuSampler

	_, ok, err := s.sample(1000)
	require.NoError(t, err)
	assert.False(t, ok, "first read should only prime the baseline")

	sample, ok, err := s.sample(2000)
	require.NoError(t, err)
	if ok {
		assert.Equal(t, int64(2000), sample.Time)
		assert.GreaterOrEqual(t, sample.TotalLoad, 0.0)
		assert.LessOrEqual(t, sample.TotalLoad, 100.0)
	}
}

func TestMemorySamplerReadsImmediately(t *testing.T) {
	var s memorySampler

	sample, ok, err := s.sample(1000)
	require.NoError(t, err)
	require.True(t, ok, "memory needs no baseline")

	assert.Equal(t, int64(1000), sample.Time)
	assert.Greater(t, sample.TotalMb, 0.0)
	assert.Greater(t, sample.ActiveMb, 0.0)
	assert.LessOrEqual(t, sample.ActiveMb, sample.TotalMb)
}

func TestNetworkSamplerPrimesOnFirstRead(t *testing.T) {
	var s networkSampler

	_, ok, err := s.sample(1000)
	require.NoError(t, err)
	assert.False(t, ok)

	sample, ok, err := s.sample(2000)
	require.NoError(t, err)
	require.True(t, ok)
	assert.GreaterOrEqual(t, sample.RxMb, 0.0)
	assert.GreaterOrEqual(t, sample.TxMb, 0.0)
}
