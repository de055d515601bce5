package logs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jrick/logrotate/rotator"
)

// SubsystemTags names every subsystem logger the two analyzer binaries
// register, matching the teacher's logger.SubsystemTags enum in shape.
var SubsystemTags = struct {
	LATN, // latency pipeline driver
	HOST, // host-log ingest scheduler
	MRGE, // AnalysisData merger
	QNTL, // quantile aggregation core
	GRPH, // tree-graph pipeline driver
	PRSE, // block log parser
	FNLZ, // graph finalizer
	CRSK string // confirmation-risk engine
}{
	LATN: "LATN",
	HOST: "HOST",
	MRGE: "MRGE",
	QNTL: "QNTL",
	GRPH: "GRPH",
	PRSE: "PRSE",
	FNLZ: "FNLZ",
	CRSK: "CRSK",
}

var allSubsystems = []string{
	SubsystemTags.LATN, SubsystemTags.HOST, SubsystemTags.MRGE, SubsystemTags.QNTL,
	SubsystemTags.GRPH, SubsystemTags.PRSE, SubsystemTags.FNLZ, SubsystemTags.CRSK,
}

// Registry owns a single Backend and the per-subsystem Loggers created
// from it, the way the teacher's logger package owns backendLog and the
// package-level xxxLog variables.
type Registry struct {
	backend     *Backend
	LogRotator  *rotator.Rotator
	subsystems  map[string]*Logger
}

// NewRegistry builds a Registry writing to stdout plus a rotating log
// file, or stderr-only when logFile is empty (the common CLI case).
func NewRegistry(logFile string) (*Registry, error) {
	var backend *Backend
	r := &Registry{}

	if logFile == "" {
		backend = StderrOnly()
	} else {
		logDir, _ := filepath.Split(logFile)
		if logDir != "" {
			if err := os.MkdirAll(logDir, 0700); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		rot, err := rotator.New(logFile, 10*1024, false, 3)
		if err != nil {
			return nil, fmt.Errorf("failed to create file rotator: %w", err)
		}
		r.LogRotator = rot
		backend = NewBackend([]*BackendWriter{
			NewAllLevelsBackendWriter(&teeWriter{rot}),
			NewErrorBackendWriter(os.Stderr),
		})
	}

	r.backend = backend
	r.subsystems = make(map[string]*Logger, len(allSubsystems))
	for _, tag := range allSubsystems {
		r.subsystems[tag] = backend.Logger(tag)
	}
	return r, nil
}

// teeWriter duplicates every write to stdout in addition to the rotator,
// mirroring the teacher's logWriter.
type teeWriter struct {
	rot *rotator.Rotator
}

func (t *teeWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	return t.rot.Write(p)
}

// Get returns the logger for the given subsystem tag, defaulting to a
// fresh Info-level logger if the tag is unknown.
func (r *Registry) Get(tag string) *Logger {
	if l, ok := r.subsystems[tag]; ok {
		return l
	}
	return r.backend.Logger(tag)
}

// SetLevels sets every subsystem logger to the same level.
func (r *Registry) SetLevels(level Level) {
	for _, l := range r.subsystems {
		l.SetLevel(level)
	}
}

// Close releases the underlying backend and rotator, returning the
// rotator's close error, if any.
func (r *Registry) Close() error {
	r.backend.Close()
	if r.LogRotator != nil {
		return r.LogRotator.Close()
	}
	return nil
}
