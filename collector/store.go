package collector

import (
	"sync"

	"runmeter.sh/stats"
)

// Store buffers samples in memory for the daemon's lifetime. Each domain
// keeps its own append-only slice; once a buffer reaches maxSamples the
// oldest entries are dropped.
type Store struct {
	mu         sync.RWMutex
	maxSamples int

	cpu     []stats.CPU
	memory  []stats.Memory
	network []stats.Network
	disk    []stats.Disk
}

// NewStore returns an empty store capped at maxSamples per domain.
func NewStore(maxSamples int) *Store {
	return &Store{maxSamples: maxSamples}
}

// AppendCPU records a CPU sample and returns the buffer size.
func (s *Store) AppendCPU(v stats.CPU) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cpu = append(s.cpu, v)
	s.cpu = s.cpu[trimOffset(len(s.cpu), s.maxSamples):]
	return len(s.cpu)
}

// AppendMemory records a memory sample and returns the buffer size.
func (s *Store) AppendMemory(v stats.Memory) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory = append(s.memory, v)
	s.memory = s.memory[trimOffset(len(s.memory), s.maxSamples):]
	return len(s.memory)
}

// AppendNetwork records a network sample and returns the buffer size.
func (s *Store) AppendNetwork(v stats.Network) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.network = append(s.network, v)
	s.network = s.network[trimOffset(len(s.network), s.maxSamples):]
	return len(s.network)
}

// AppendDisk records a disk sample and returns the buffer size.
func (s *Store) AppendDisk(v stats.Disk) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disk = append(s.disk, v)
	s.disk = s.disk[trimOffset(len(s.disk), s.maxSamples):]
	return len(s.disk)
}

// CPU returns a copy of the buffered CPU samples in arrival order.
func (s *Store) CPU() []stats.CPU {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]stats.CPU, len(s.cpu))
	copy(out, s.cpu)
	return out
}

// Memory returns a copy of the buffered memory samples in arrival order.
func (s *Store) Memory() []stats.Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]stats.Memory, len(s.memory))
	copy(out, s.memory)
	return out
}

// Network returns a copy of the buffered network samples in arrival order.
func (s *Store) Network() []stats.Network {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]stats.Network, len(s.network))
	copy(out, s.network)
	return out
}

// Disk returns a copy of the buffered disk samples in arrival order.
func (s *Store) Disk() []stats.Disk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]stats.Disk, len(s.disk))
	copy(out, s.disk)
	return out
}

func trimOffset(n, max int) int {
	if max > 0 && n > max {
		return n - max
	}
	return 0
}
