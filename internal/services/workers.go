package services

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

const (
	defaultMinWorkers = 2
	defaultMaxWorkers = 16
)

// OptimalWorkerCount sizes the simulation worker pool from the host's CPU
// and memory. The base is 2x the CPU cores, damped on low-memory machines
// and clamped to [minWorkers, maxWorkers]. Zero limits select the defaults.
func OptimalWorkerCount(logger *logrus.Logger, minWorkers, maxWorkers int) int {
	if minWorkers <= 0 {
		minWorkers = defaultMinWorkers
	}
	if maxWorkers <= 0 {
		maxWorkers = defaultMaxWorkers
	}
	if maxWorkers < minWorkers {
		maxWorkers = minWorkers
	}

	workers := runtime.NumCPU() * 2

	memoryGB := 8.0
	if memInfo, err := mem.VirtualMemory(); err == nil {
		memoryGB = float64(memInfo.Total) / (1024 * 1024 * 1024)
	} else if logger != nil {
		logger.WithError(err).Warn("Could not read memory info, assuming 8GB")
	}

	if memoryGB < 4.0 {
		workers = workers / 2
	} else if memoryGB < 8.0 {
		workers = workers * 3 / 4
	}

	if workers < minWorkers {
		workers = minWorkers
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"cpu_cores": runtime.NumCPU(),
			"memory_gb": memoryGB,
			"workers":   workers,
		}).Debug("Sized simulation worker pool")
	}
	return workers
}
