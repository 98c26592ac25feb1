package selfprofile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"slices"
)

// ErrUnknownProfile indicates a profile name outside [AllProfiles].
var ErrUnknownProfile = errors.New("unknown profile")

// Session writes the requested runtime profiles over the lifetime of a
// command. Call [Session.Start] before the work and [Session.Stop] after it.
//
// Create instances with [Config.NewSession].
type Session struct {
	cpu *os.File
	Config
	stopped bool
}

// Start validates the requested profiles, applies sampling rates for the
// block and mutex profiles and begins CPU profiling when requested.
func (s *Session) Start() error {
	for _, name := range s.Profiles {
		if !slices.Contains(AllProfiles(), name) {
			return fmt.Errorf("%w: %q", ErrUnknownProfile, name)
		}
	}

	if len(s.Profiles) == 0 {
		return nil
	}

	err := os.MkdirAll(s.Dir, 0o750)
	if err != nil {
		return fmt.Errorf("create profile directory: %w", err)
	}

	if s.Enabled(Block) {
		runtime.SetBlockProfileRate(s.BlockRate)
	}

	if s.Enabled(Mutex) {
		runtime.SetMutexProfileFraction(s.MutexFraction)
	}

	if !s.Enabled(CPU) {
		return nil
	}

	f, err := os.Create(s.path(CPU)) //nolint:gosec // Profile directory from CLI flag is expected.
	if err != nil {
		return fmt.Errorf("create cpu profile: %w", err)
	}

	err = pprof.StartCPUProfile(f)
	if err != nil {
		return errors.Join(fmt.Errorf("start cpu profile: %w", err), f.Close())
	}

	s.cpu = f

	return nil
}

// Stop ends CPU profiling and writes every requested snapshot profile.
// Subsequent calls do nothing.
func (s *Session) Stop() error {
	if s.stopped {
		return nil
	}

	s.stopped = true

	var errs []error

	if s.cpu != nil {
		pprof.StopCPUProfile()

		err := s.cpu.Close()
		if err != nil {
			errs = append(errs, fmt.Errorf("close cpu profile: %w", err))
		}

		s.cpu = nil
	}

	for _, name := range s.Profiles {
		if name == CPU {
			continue
		}

		err := s.snapshot(name)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Paths returns the files the session writes, in request order.
func (s *Session) Paths() []string {
	out := make([]string, 0, len(s.Profiles))
	for _, name := range s.Profiles {
		out = append(out, s.path(name))
	}

	return out
}

func (s *Session) path(name string) string {
	return filepath.Join(s.Dir, name+".pprof")
}

func (s *Session) snapshot(name string) error {
	prof := pprof.Lookup(name)
	if prof == nil {
		return fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}

	f, err := os.Create(s.path(name)) //nolint:gosec // Profile directory from CLI flag is expected.
	if err != nil {
		return fmt.Errorf("create %s profile: %w", name, err)
	}

	err = prof.WriteTo(f, 0)
	if err != nil {
		return errors.Join(fmt.Errorf("write %s profile: %w", name, err), f.Close())
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("close %s profile: %w", name, err)
	}

	return nil
}
