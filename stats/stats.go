// Package stats defines the wire model shared by the collector daemon and
// the telemetry pipeline: one timestamped measurement type per resource
// domain, JSON-encoded on the daemon's query interface. Timestamps are epoch
// milliseconds; all sizes are megabytes.
package stats

import "time"

// Domain identifies one of the sampled resource domains.
type Domain string

const (
	DomainCPU     Domain = "cpu"
	DomainMemory  Domain = "memory"
	DomainNetwork Domain = "network"
	DomainDisk    Domain = "disk"
)

// Title returns the heading form of the domain.
func (d Domain) Title() string {
	switch d {
	case DomainCPU:
		return "CPU"
	case DomainMemory:
		return "Memory"
	case DomainNetwork:
		return "Network"
	case DomainDisk:
		return "Disk"
	default:
		return string(d)
	}
}

// CPU is one CPU load measurement. Loads are percentages of total CPU time
// over the sampling interval.
type CPU struct {
	Time       int64   `json:"time"`
	TotalLoad  float64 `json:"totalLoad"`
	UserLoad   float64 `json:"userLoad"`
	SystemLoad float64 `json:"systemLoad"`
}

// Memory is one memory measurement in megabytes.
type Memory struct {
	Time        int64   `json:"time"`
	TotalMb     float64 `json:"totalMemoryMb"`
	ActiveMb    float64 `json:"activeMemoryMb"`
	AvailableMb float64 `json:"availableMemoryMb"`
}

// Network is the megabytes received and transmitted across all non-loopback
// interfaces during the sampling interval.
type Network struct {
	Time int64   `json:"time"`
	RxMb float64 `json:"rxMb"`
	TxMb float64 `json:"txMb"`
}

// Disk is the megabytes read and written across all block devices during the
// sampling interval.
type Disk struct {
	Time    int64   `json:"time"`
	ReadMb  float64 `json:"readMb"`
	WriteMb float64 `json:"writeMb"`
}

// Millis converts a time to the epoch-millisecond representation used on the
// wire.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts an epoch-millisecond wire timestamp back to a time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
