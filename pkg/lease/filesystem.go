package lease

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/serverless-otel/ingestd/internal/clock"
	"github.com/serverless-otel/ingestd/internal/logger"
	"github.com/serverless-otel/ingestd/pkg/metrics"
)

const lockDirName = ".locks"

// initCacheSize and initCacheTTL bound the filesystem lease manager's
// initialization cache: a warm handler instance processes many records
// against the same segment, and re-stat-ing/re-creating the sentinel file
// on every request is wasted I/O against a (likely networked) filesystem.
const (
	initCacheSize = 50
	initCacheTTL  = 15 * time.Minute
)

// FilesystemConfig configures a FilesystemManager.
type FilesystemConfig struct {
	BaseDir string

	// Timeout bounds how long Acquire will retry before failing.
	Timeout time.Duration
	// Delay is the sleep between conflicting acquire attempts.
	Delay time.Duration
}

func (c FilesystemConfig) applyDefaults() FilesystemConfig {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Minute
	}
	if c.Delay <= 0 {
		c.Delay = time.Second
	}
	return c
}

// FilesystemManager grants segment leases via atomic symbolic-link creation
// on a POSIX filesystem shared by every handler instance. It relies on
// symlink(2) atomically failing with EEXIST when the target link already
// exists, a guarantee that holds even across clients of a networked mount.
type FilesystemManager struct {
	config    FilesystemConfig
	initCache *expirable.LRU[string, struct{}]
	metrics   metrics.LeaseMetrics
}

var _ Manager = (*FilesystemManager)(nil)

// NewFilesystemManager constructs a FilesystemManager.
func NewFilesystemManager(config FilesystemConfig) *FilesystemManager {
	return &FilesystemManager{
		config:    config.applyDefaults(),
		initCache: expirable.NewLRU[string, struct{}](initCacheSize, nil, initCacheTTL),
	}
}

// SetMetrics attaches lease instrumentation. Safe to call with nil, which
// leaves conflict/timeout recording disabled.
func (m *FilesystemManager) SetMetrics(lm metrics.LeaseMetrics) {
	m.metrics = lm
}

func (m *FilesystemManager) datasetBase(dataset string) string {
	return filepath.Join(m.config.BaseDir, dataset)
}

func (m *FilesystemManager) lockDir(dataset, segment string) string {
	return filepath.Join(m.datasetBase(dataset), segment, lockDirName)
}

func (m *FilesystemManager) segmentLockfile(dataset, segment string) string {
	return filepath.Join(m.lockDir(dataset, segment), segment+".lck")
}

func (m *FilesystemManager) instanceLockfile(dataset, segment, instance string) string {
	return filepath.Join(m.lockDir(dataset, segment), instance+".lck")
}

// Initialize ensures the segment's lock directory and this instance's
// sentinel file exist. Results are cached per (dataset, instance, segment)
// so repeated calls against a warm segment are no-ops.
func (m *FilesystemManager) Initialize(ctx context.Context, dataset, instance, segment string) error {
	cacheKey := dataset + "/" + segment + "/" + instance
	if _, ok := m.initCache.Get(cacheKey); ok {
		return nil
	}

	lockDir := m.lockDir(dataset, segment)
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return fmt.Errorf("initializing segment lock directory: %w", err)
	}

	instanceLockfile := m.instanceLockfile(dataset, segment, instance)
	if _, err := os.Stat(instanceLockfile); errors.Is(err, fs.ErrNotExist) {
		f, err := os.OpenFile(instanceLockfile, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("creating instance sentinel: %w", err)
		}
		f.Close()
	} else if err != nil {
		return fmt.Errorf("statting instance sentinel: %w", err)
	}

	m.initCache.Add(cacheKey, struct{}{})
	return nil
}

// Acquire repeatedly attempts to create the segment-wide symlink that IS
// the lease, sleeping between EEXIST conflicts until it succeeds or the
// configured timeout elapses.
func (m *FilesystemManager) Acquire(ctx context.Context, dataset, segment, instance string, now clock.Nanos) (*Handle, error) {
	segmentLockfile := m.segmentLockfile(dataset, segment)
	instanceLockfile := m.instanceLockfile(dataset, segment, instance)

	start := now()
	deadline := m.config.Timeout.Nanoseconds()

	for attempt := 1; ; attempt++ {
		err := os.Symlink(instanceLockfile, segmentLockfile)
		if err == nil {
			return &Handle{Lockfile: instanceLockfile, Timestamp: now()}, nil
		}

		if !errors.Is(err, fs.ErrExist) {
			return nil, &SegmentLockError{Segment: segment, Reason: err.Error()}
		}

		if m.metrics != nil {
			m.metrics.RecordConflict(string(KindFilesystem))
		}

		if now()-start >= deadline {
			if m.metrics != nil {
				m.metrics.RecordTimeout(string(KindFilesystem))
			}
			return nil, &SegmentLockError{Segment: segment, Reason: "timed out waiting for lease"}
		}

		logger.DebugCtx(ctx, "segment lease contended", logger.SegmentID(segment), logger.Attempt(attempt))

		select {
		case <-ctx.Done():
			return nil, &SegmentLockError{Segment: segment, Reason: ctx.Err().Error()}
		case <-time.After(m.config.Delay):
		}
	}
}

// Release removes the segment-wide symlink, after verifying it both
// belongs to this handle and still points at this instance's sentinel.
func (m *FilesystemManager) Release(ctx context.Context, dataset, segment, instance string, handle *Handle) error {
	if handle == nil {
		return &SegmentUnlockError{Segment: segment, Reason: "no lease held"}
	}

	segmentLockfile := m.segmentLockfile(dataset, segment)
	expected := m.instanceLockfile(dataset, segment, instance)

	if handle.Lockfile != expected {
		return &SegmentUnlockError{Segment: segment, Reason: "handle does not belong to this instance"}
	}

	current, err := os.Readlink(segmentLockfile)
	if err != nil {
		return &SegmentUnlockError{Segment: segment, Reason: fmt.Sprintf("reading lock symlink: %v", err)}
	}
	if current != expected {
		return &SegmentUnlockError{Segment: segment, Reason: "lease no longer owned by this instance"}
	}

	if err := os.Remove(segmentLockfile); err != nil {
		return &SegmentUnlockError{Segment: segment, Reason: fmt.Sprintf("removing lock symlink: %v", err)}
	}

	return nil
}

// Ready checks that the configured base directory exists and is writable,
// by statting it and creating and removing a throwaway probe file.
func (m *FilesystemManager) Ready(ctx context.Context) error {
	info, err := os.Stat(m.config.BaseDir)
	if err != nil {
		return fmt.Errorf("base directory %s is not accessible: %w", m.config.BaseDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("base directory %s is not a directory", m.config.BaseDir)
	}

	probe := filepath.Join(m.config.BaseDir, ".readiness-probe")
	f, err := os.OpenFile(probe, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("base directory %s is not writable: %w", m.config.BaseDir, err)
	}
	f.Close()
	os.Remove(probe)

	return nil
}
