// Package pidfile tracks the running intake service through a PID file.
package pidfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Common errors
var (
	ErrNoPIDFile      = errors.New("no PID file found")
	ErrInvalidPID     = errors.New("invalid PID in file")
	ErrAlreadyRunning = errors.New("intake service already running")
)

// FileName is the PID file name within ~/.nota
const FileName = "intake.pid"

const (
	dirPerm  = 0755
	filePerm = 0644
)

// File is a PID file at a fixed path.
type File struct {
	path string
}

// New returns a PID file at path.
func New(path string) *File {
	return &File{path: path}
}

// Default returns the PID file at ~/.nota/intake.pid.
func Default() (*File, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home directory: %w", err)
	}
	return New(filepath.Join(homeDir, ".nota", FileName)), nil
}

// Path returns the file's location.
func (f *File) Path() string {
	return f.path
}

// Write records pid, creating parent directories if needed.
func (f *File) Write(pid int) error {
	if err := os.MkdirAll(filepath.Dir(f.path), dirPerm); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	content := strconv.Itoa(pid) + "\n"
	if err := os.WriteFile(f.path, []byte(content), filePerm); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	return nil
}

// Acquire writes the current process ID unless another live process owns
// the file. A stale file is replaced.
func (f *File) Acquire() error {
	running, pid, err := f.IsRunning()
	if err != nil {
		return err
	}
	if running && pid != os.Getpid() {
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}
	return f.Write(os.Getpid())
}

// Read returns the recorded PID. It returns ErrNoPIDFile when the file does
// not exist and ErrInvalidPID when it holds anything but a positive integer.
func (f *File) Read() (int, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, ErrNoPIDFile
		}
		return 0, fmt.Errorf("read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, ErrInvalidPID
	}
	return pid, nil
}

// Remove deletes the file. A missing file is not an error.
func (f *File) Remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove PID file: %w", err)
	}
	return nil
}

// IsRunning reports whether the recorded process is alive, along with its PID.
// With no file it returns (false, 0, nil); a stale file yields (false, pid, nil).
func (f *File) IsRunning() (bool, int, error) {
	pid, err := f.Read()
	if err != nil {
		if errors.Is(err, ErrNoPIDFile) {
			return false, 0, nil
		}
		return false, 0, err
	}

	return Alive(pid), pid, nil
}

// CleanStale removes the file when its process is gone and reports whether
// it did so.
func (f *File) CleanStale() (bool, error) {
	running, pid, err := f.IsRunning()
	if err != nil {
		if errors.Is(err, ErrInvalidPID) {
			return true, f.Remove()
		}
		return false, err
	}
	if running || pid == 0 {
		return false, nil
	}
	if err := f.Remove(); err != nil {
		return false, err
	}
	return true, nil
}

// Alive reports whether a process with pid exists.
func Alive(pid int) bool {
	// Signal 0 performs the permission and existence checks only
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// Signal sends sig to pid.
func Signal(pid int, sig unix.Signal) error {
	if err := unix.Kill(pid, sig); err != nil {
		return fmt.Errorf("signal %d: %w", pid, err)
	}
	return nil
}
