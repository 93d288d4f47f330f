// Package recorder manages exclusive microphone capture sessions. The
// microphone is a singleton resource: at most one active session exists at a
// time, and starting a new session synchronously tears down the previous one.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	apperrors "tallytalk/internal/errors"
	"tallytalk/internal/logger"
)

// Device is a capture source. Open acquires the underlying input and returns
// the audio stream; a permission failure must surface as ErrDeviceDenied.
type Device interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// ErrDeviceDenied is returned by a Device when the user refuses access.
var ErrDeviceDenied = errors.New("recorder: device access denied")

// Asset is one finalized recording. It is consumed exactly once: Read drains
// the file, Discard removes it. There is no retained history of raw audio.
type Asset struct {
	path string
	size int64

	mu       sync.Mutex
	consumed bool
}

// Size returns the recording size in bytes.
func (a *Asset) Size() int64 { return a.size }

// Path returns the on-disk location of the recording.
func (a *Asset) Path() string { return a.path }

// Read returns the recording bytes. A second call fails: the asset is
// single-use by contract.
func (a *Asset) Read() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.consumed {
		return nil, fmt.Errorf("recorder: asset %s already consumed", a.path)
	}
	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, fmt.Errorf("recorder: reading asset: %w", err)
	}
	a.consumed = true
	return data, nil
}

// Discard removes the underlying file. Cleanup failures are logged and
// swallowed: they do not affect the correctness of the next recording.
func (a *Asset) Discard() {
	if err := os.Remove(a.path); err != nil && !os.IsNotExist(err) {
		logger.Get().Warnw("failed to remove recording", "path", a.path, "error", err)
	}
}

// session is one in-flight capture. The device stream is drained into a temp
// file by a background copier; stop closes the device and waits for it.
type session struct {
	stream io.ReadCloser
	file   *os.File
	done   chan struct{}
	err    error
}

// Recorder owns the capture device and guarantees exclusive sessions.
type Recorder struct {
	device Device
	dir    string

	mu          sync.Mutex
	active      *session
	autoStarted bool
}

// New creates a Recorder over the given device, writing recordings to dir
// (os.TempDir() when empty).
func New(device Device, dir string) *Recorder {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Recorder{device: device, dir: dir}
}

// Start begins a new capture session. Any previous in-flight session is
// stopped and discarded first; sessions are never layered. Device refusal
// maps to PERMISSION_DENIED.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		r.teardownLocked()
	}

	stream, err := r.device.Open(ctx)
	if err != nil {
		if errors.Is(err, ErrDeviceDenied) {
			return apperrors.Wrap(apperrors.ErrPermissionDenied, err)
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	file, err := os.CreateTemp(r.dir, "capture-*.m4a")
	if err != nil {
		_ = stream.Close()
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s := &session{stream: stream, file: file, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		_, s.err = io.Copy(s.file, s.stream)
	}()
	r.active = s

	return nil
}

// StartOnce begins a session only on its first call, so repeated triggers
// from the same surface (re-renders, re-focus) do not restart recording.
func (r *Recorder) StartOnce(ctx context.Context) error {
	r.mu.Lock()
	if r.autoStarted {
		r.mu.Unlock()
		return nil
	}
	r.autoStarted = true
	r.mu.Unlock()

	return r.Start(ctx)
}

// Stop finalizes the active session and returns its Asset. The device is
// released on every path, including errors. Calling Stop without a session
// returns NO_ACTIVE_SESSION.
func (r *Recorder) Stop() (*Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.active
	if s == nil {
		return nil, apperrors.ErrNoActiveSession
	}
	r.active = nil

	_ = s.stream.Close()
	<-s.done

	info, statErr := s.file.Stat()
	closeErr := s.file.Close()

	// An EOF-ish copy error after close is the normal end of capture; any
	// other copy error means the recording is unusable.
	if s.err != nil && !errors.Is(s.err, io.ErrClosedPipe) && !errors.Is(s.err, os.ErrClosed) {
		_ = os.Remove(s.file.Name())
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("capture stream: %w", s.err))
	}
	if statErr != nil {
		_ = os.Remove(s.file.Name())
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, statErr)
	}
	if closeErr != nil {
		logger.Get().Warnw("failed to close recording file", "path", s.file.Name(), "error", closeErr)
	}

	return &Asset{path: s.file.Name(), size: info.Size()}, nil
}

// Close tears down any in-flight session and discards its output. Safe to
// call on every exit path; never fails.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teardownLocked()
}

// teardownLocked stops and discards the active session. Callers hold r.mu.
func (r *Recorder) teardownLocked() {
	s := r.active
	if s == nil {
		return
	}
	r.active = nil

	_ = s.stream.Close()
	<-s.done
	name := s.file.Name()
	if err := s.file.Close(); err != nil {
		logger.Get().Warnw("failed to close discarded recording", "path", name, "error", err)
	}
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		logger.Get().Warnw("failed to remove discarded recording", "path", name, "error", err)
	}
}

// EncodeForSpeech transcodes a recording to mono 16kHz ~32kbps AAC, the
// smallest shape the transcription service handles well. Returns the path of
// the encoded file.
func EncodeForSpeech(ctx context.Context, inputPath string) (string, error) {
	base := filepath.Base(inputPath)
	out := filepath.Join(filepath.Dir(inputPath), "speech-"+base)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", // overwrite output file without asking
		"-i", inputPath,
		"-ac", "1", // 1 channel
		"-ar", "16000", // 16 kHz
		"-b:a", "32k",
		"-c:a", "aac",
		out)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg error: %w, output: %s", err, string(output))
	}

	return out, nil
}
