// SPDX-License-Identifier: Apache-2.0

package profiling

import (
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
)

type Config struct {
	// Dir where the cpu.prof and mem.prof files are written. Defaults to the
	// working directory.
	Dir string
	// ServerAddress exposes the /debug/pprof endpoints while the run is in
	// progress. Empty disables the server.
	ServerAddress string
}

const (
	cpuProfileFile = "cpu.prof"
	memProfileFile = "mem.prof"
)

// Start begins CPU profiling and returns a stop function that finishes the
// CPU profile and writes a memory profile of the allocations made during the
// run.
func Start(cfg *Config) (func() error, error) {
	if cfg.ServerAddress != "" {
		// the _ "net/http/pprof" import attaches the endpoints to the default
		// mux
		go func() {
			http.ListenAndServe(cfg.ServerAddress, nil) //nolint:gosec
		}()
	}

	stopCPUProfile, err := startCPUProfile(filepath.Join(cfg.Dir, cpuProfileFile))
	if err != nil {
		return nil, err
	}

	return func() error {
		cpuErr := stopCPUProfile()
		memErr := writeMemoryProfile(filepath.Join(cfg.Dir, memProfileFile))
		return errors.Join(cpuErr, memErr)
	}, nil
}

func startCPUProfile(fileName string) (func() error, error) {
	cpuFile, err := os.Create(fileName)
	if err != nil {
		return nil, fmt.Errorf("creating cpu profile file: %w", err)
	}

	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		cpuFile.Close()
		return nil, fmt.Errorf("starting cpu profile: %w", err)
	}

	return func() error {
		pprof.StopCPUProfile()
		return cpuFile.Close()
	}, nil
}

func writeMemoryProfile(fileName string) error {
	memFile, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("creating memory profile file: %w", err)
	}
	defer memFile.Close()

	runtime.GC()
	if err := pprof.Lookup("allocs").WriteTo(memFile, 0); err != nil {
		return fmt.Errorf("writing memory profile: %w", err)
	}

	return nil
}
