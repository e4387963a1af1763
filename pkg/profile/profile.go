// Package profile provides CPU and heap profiling for command invocations.
package profile

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/pkg/errors"

	"github.com/rolldiff/rolldiff/pkg/logging"
	"github.com/rolldiff/rolldiff/pkg/must"
)

// Profile represents an in-progress profiling session. It writes a CPU profile
// to <name>_cpu.prof while active and a heap profile to <name>_heap.prof when
// finalized.
type Profile struct {
	// name is the profile name prefix.
	name string
	// cpuProfile is the CPU profile output.
	cpuProfile *os.File
	// logger is the underlying logger.
	logger *logging.Logger
}

// New starts a new profiling session with the specified name.
func New(name string, logger *logging.Logger) (*Profile, error) {
	// Validate the name.
	if name == "" {
		return nil, errors.New("empty profile name")
	}

	// Open the CPU profile output.
	cpuPath := fmt.Sprintf("%s_cpu.prof", name)
	cpuProfile, err := os.Create(cpuPath)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create CPU profile")
	}

	// Start CPU profiling.
	if err := pprof.StartCPUProfile(cpuProfile); err != nil {
		must.Close(cpuProfile, logger)
		must.OSRemove(cpuPath, logger)
		return nil, errors.Wrap(err, "unable to start CPU profile")
	}
	logger.Debugf("Writing CPU profile to %s", cpuPath)

	// Success.
	return &Profile{
		name:       name,
		cpuProfile: cpuProfile,
		logger:     logger,
	}, nil
}

// Finalize stops CPU profiling and writes a heap profile.
func (p *Profile) Finalize() error {
	// Close out the CPU profile.
	pprof.StopCPUProfile()
	if err := p.cpuProfile.Close(); err != nil {
		return errors.Wrap(err, "unable to close CPU profile")
	}

	// Run a GC cycle to update the heap profile statistics.
	runtime.GC()

	// Write a heap profile.
	heapPath := fmt.Sprintf("%s_heap.prof", p.name)
	heapProfile, err := os.Create(heapPath)
	if err != nil {
		return errors.Wrap(err, "unable to create heap profile")
	}
	if err := pprof.WriteHeapProfile(heapProfile); err != nil {
		must.Close(heapProfile, p.logger)
		return errors.Wrap(err, "unable to write heap profile")
	}
	if err := heapProfile.Close(); err != nil {
		return errors.Wrap(err, "unable to close heap profile")
	}
	p.logger.Debugf("Wrote heap profile to %s", heapPath)

	// Success.
	return nil
}
