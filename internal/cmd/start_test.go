//go:build linux

package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/TechnicallyShaun/nota-intake/internal/intake"
	"github.com/TechnicallyShaun/nota-intake/internal/intake/pidfile"
)

func testConfig(t *testing.T) *intake.Config {
	t.Helper()
	root := t.TempDir()
	cfg := &intake.Config{
		WatchDir: filepath.Join(root, "input"),
		LogDir:   filepath.Join(root, "logs"),
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestStart_WritesAndRemovesPIDFile(t *testing.T) {
	isolateEnv(t)
	cfg := testConfig(t)
	pf := pidfile.New(filepath.Join(t.TempDir(), "intake.pid"))

	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- runStart(ctx, cmd, cfg, pf) }()

	deadline := time.Now().Add(3 * time.Second)
	for {
		if pid, err := pf.Read(); err == nil && pid == os.Getpid() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("PID file was not written")
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runStart returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("runStart did not return after cancel")
	}

	if _, err := os.Stat(pf.Path()); !os.IsNotExist(err) {
		t.Error("expected PID file to be removed on exit")
	}
	if info, err := os.Stat(cfg.WatchDir); err != nil || !info.IsDir() {
		t.Errorf("expected watch directory to be created: %v", err)
	}
	if !strings.Contains(stdout.String(), "Watching: "+cfg.WatchDir) {
		t.Errorf("unexpected stdout: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "intake service stopped") {
		t.Errorf("expected log lines mirrored to stderr, got: %q", stderr.String())
	}
}

func TestStart_RefusesWhenAlreadyRunning(t *testing.T) {
	if os.Getpid() == 1 {
		t.Skip("running as PID 1")
	}
	isolateEnv(t)
	cfg := testConfig(t)
	pf := pidfile.New(filepath.Join(t.TempDir(), "intake.pid"))
	if err := pf.Write(1); err != nil {
		t.Fatal(err)
	}

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := runStart(context.Background(), cmd, cfg, pf)
	if !errors.Is(err, pidfile.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got: %v", err)
	}
	if pid, _ := pf.Read(); pid != 1 {
		t.Errorf("expected PID file to be left alone, got %d", pid)
	}
}

func TestStart_InvalidConfig(t *testing.T) {
	isolateEnv(t)
	cfg := testConfig(t)
	cfg.LogLevel = "loud"

	cmd := &cobra.Command{}
	err := runStart(context.Background(), cmd, cfg, pidfile.New(filepath.Join(t.TempDir(), "intake.pid")))
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("expected invalid configuration error, got: %v", err)
	}
}

func TestStartCmd_HasFlags(t *testing.T) {
	cmd := NewStartCmd()
	for _, name := range []string{"watch-dir", "log-level"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected --%s flag", name)
		}
	}
}
