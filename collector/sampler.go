package collector

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"runmeter.sh/stats"
)

const bytesPerMb = 1024 * 1024

// cpuSampler derives per-interval load percentages from the cumulative
// CPU time counters. The first reading only primes the baseline and
// produces no sample.
type cpuSampler struct {
	prev   cpu.TimesStat
	primed bool
}

func (s *cpuSampler) sample(now int64) (stats.CPU, bool, error) {
	times, err := cpu.Times(false)
	if err != nil {
		return stats.CPU{}, false, fmt.Errorf("failed to read cpu times: %w", err)
	}
	if len(times) == 0 {
		return stats.CPU{}, false, fmt.Errorf("no cpu times reported")
	}

	cur := times[0]
	if !s.primed {
		s.prev = cur
		s.primed = true
		return stats.CPU{}, false, nil
	}

	user, system, total := cpuLoads(s.prev, cur)
	s.prev = cur

	return stats.CPU{
		Time:       now,
		TotalLoad:  total,
		UserLoad:   user,
		SystemLoad: system,
	}, true, nil
}

// cpuLoads computes user, system and total load percentages between two
// cumulative readings. A zero or negative elapsed time (counter reset)
// yields zero loads.
func cpuLoads(prev, cur cpu.TimesStat) (user, system, total float64) {
	elapsed := cpuTotal(cur) - cpuTotal(prev)
	if elapsed <= 0 {
		return 0, 0, 0
	}

	user = clampLoad((cur.User - prev.User) / elapsed * 100)
	system = clampLoad((cur.System - prev.System) / elapsed * 100)
	idle := clampLoad((cur.Idle - prev.Idle) / elapsed * 100)
	total = 100 - idle
	return user, system, total
}

func cpuTotal(t cpu.TimesStat) float64 {
	return t.User + t.System + t.Idle + t.Nice + t.Iowait + t.Irq +
		t.Softirq + t.Steal + t.Guest + t.GuestNice
}

func clampLoad(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// memorySampler reads instantaneous virtual memory usage. No baseline is
// needed, so every tick produces a sample.
type memorySampler struct{}

func (memorySampler) sample(now int64) (stats.Memory, bool, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return stats.Memory{}, false, fmt.Errorf("failed to read virtual memory: %w", err)
	}

	return stats.Memory{
		Time:        now,
		TotalMb:     toMb(vm.Total),
		ActiveMb:    toMb(vm.Used),
		AvailableMb: toMb(vm.Available),
	}, true, nil
}

// networkSampler sums byte counters across all non-loopback interfaces
// and reports per-interval deltas.
type networkSampler struct {
	prevRx, prevTx uint64
	primed         bool
}

func (s *networkSampler) sample(now int64) (stats.Network, bool, error) {
	counters, err := net.IOCounters(true)
	if err != nil {
		return stats.Network{}, false, fmt.Errorf("failed to read network counters: %w", err)
	}

	var rx, tx uint64
	for _, c := range counters {
		if strings.HasPrefix(c.Name, "lo") {
			continue
		}
		rx += c.BytesRecv
		tx += c.BytesSent
	}

	if !s.primed {
		s.prevRx, s.prevTx = rx, tx
		s.primed = true
		return stats.Network{}, false, nil
	}

	out := stats.Network{
		Time: now,
		RxMb: toMb(counterDelta(rx, s.prevRx)),
		TxMb: toMb(counterDelta(tx, s.prevTx)),
	}
	s.prevRx, s.prevTx = rx, tx
	return out, true, nil
}

// diskSampler sums read/write byte counters across all block devices and
// reports per-interval deltas.
type diskSampler struct {
	prevRead, prevWrite uint64
	primed              bool
}

func (s *diskSampler) sample(now int64) (stats.Disk, bool, error) {
	counters, err := disk.IOCounters()
	if err != nil {
		return stats.Disk{}, false, fmt.Errorf("failed to read disk counters: %w", err)
	}

	var read, write uint64
	for _, c := range counters {
		read += c.ReadBytes
		write += c.WriteBytes
	}

	if !s.primed {
		s.prevRead, s.prevWrite = read, write
		s.primed = true
		return stats.Disk{}, false, nil
	}

	out := stats.Disk{
		Time:    now,
		ReadMb:  toMb(counterDelta(read, s.prevRead)),
		WriteMb: toMb(counterDelta(write, s.prevWrite)),
	}
	s.prevRead, s.prevWrite = read, write
	return out, true, nil
}

// counterDelta returns cur-prev, treating a counter reset as zero
// activity rather than a huge spike.
func counterDelta(cur, prev uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}

func toMb(b uint64) float64 {
	return float64(b) / bytesPerMb
}
