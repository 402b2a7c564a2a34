package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/casperlundberg/omegasim/pkg/simcore"
)

// RunConfig is the top-level document omegasim reads to build one
// simulation run: the cell's shape, the schedulers to populate it with,
// and how long to let the run go. Accepted as either JSON or YAML (see
// LoadRunConfig).
type RunConfig struct {
	CellState        simcore.CellStateConfig       `json:"cell_state" yaml:"cell_state"`
	Simulator        simcore.SimulatorConfig        `json:"simulator" yaml:"simulator"`
	OmegaSchedulers  []simcore.OmegaSchedulerConfig `json:"omega_schedulers" yaml:"omega_schedulers"`
	MesosAllocator   *simcore.MesosAllocatorConfig  `json:"mesos_allocator" yaml:"mesos_allocator"`
	MesosSchedulers  []MesosSchedulerConfig         `json:"mesos_schedulers" yaml:"mesos_schedulers"`
	WorkloadPath     string                         `json:"workload_path" yaml:"workload_path"`
	MaxVirtualTime   float64                        `json:"max_virtual_time" yaml:"max_virtual_time"`
	WallClockTimeout float64                        `json:"wall_clock_timeout_seconds" yaml:"wall_clock_timeout_seconds"`
}

// MesosSchedulerConfig configures one MesosScheduler client of the
// allocator; unlike OmegaSchedulerConfig it carries no blacklist, since
// Mesos's offer protocol already scopes each scheduler to what it was
// offered.
type MesosSchedulerConfig struct {
	Name               string             `json:"name" yaml:"name"`
	ConstantThinkTimes map[string]float64 `json:"constant_think_times" yaml:"constant_think_times"`
	PerTaskThinkTimes  map[string]float64 `json:"per_task_think_times" yaml:"per_task_think_times"`
}

// LoadRunConfig reads and parses a RunConfig from path, dispatching on
// its extension: ".yaml"/".yml" go through LoadConfigYAML, everything
// else is parsed as JSON.
func LoadRunConfig(path string) (*RunConfig, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadConfigYAML(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read run config: %w", err)
		}
		var cfg RunConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse run config: %w", err)
		}
		return &cfg, nil
	}
}

// LoadConfigYAML reads and parses a RunConfig from a YAML document at
// path, an alternate format to the default JSON for operators who keep
// their run configs alongside other YAML-based tooling.
func LoadConfigYAML(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run config: %w", err)
	}
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse run config: %w", err)
	}
	return &cfg, nil
}
