package monitoring

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/mem"
)

// Health is the service status reported on /health.
type Health struct {
	Status                string   `json:"status"`
	UptimeSeconds         int64    `json:"uptimeSeconds"`
	LogSizeBytes          int64    `json:"logSizeBytes"`
	HostMemoryUsedPercent *float64 `json:"hostMemoryUsedPercent,omitempty"`
	ConnectedClients      int      `json:"connectedClients"`
}

// SizeReporter reports the size of the care log.
type SizeReporter interface {
	Size() (int64, error)
}

// ClientCounter reports how many real-time listeners are connected.
type ClientCounter interface {
	ClientCount() int
}

// HealthChecker gathers process and host figures.
type HealthChecker struct {
	startedAt time.Time
	log       SizeReporter
	clients   ClientCounter
	memory    func() (float64, error)
}

// NewHealthChecker creates a HealthChecker; uptime counts from now.
func NewHealthChecker(logStore SizeReporter, clients ClientCounter) *HealthChecker {
	return &HealthChecker{
		startedAt: time.Now(),
		log:       logStore,
		clients:   clients,
		memory:    hostMemoryUsedPercent,
	}
}

// Check returns the current health. A missing log file makes the service "degraded".
func (h *HealthChecker) Check() Health {
	health := Health{
		Status:           "ok",
		UptimeSeconds:    int64(time.Since(h.startedAt).Seconds()),
		ConnectedClients: h.clients.ClientCount(),
	}

	size, err := h.log.Size()
	if err != nil {
		log.Warn().Err(err).Msg("Health: Could not stat care log")
		health.Status = "degraded"
	}
	health.LogSizeBytes = size

	if used, err := h.memory(); err == nil {
		health.HostMemoryUsedPercent = &used
	} else {
		log.Debug().Err(err).Msg("Health: Host memory figures unavailable")
	}
	return health
}

func hostMemoryUsedPercent() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}
