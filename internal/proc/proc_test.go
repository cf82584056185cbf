package proc

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// script writes an executable shell script into a temp dir and returns
// its path. Tests drive Process with scripts instead of the real CLI.
func script(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mock-cli")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestLaunch_CleanExit(t *testing.T) {
	p, err := Launch(context.Background(), Options{
		Path: script(t, `printf 'hello\n'; exit 0`),
	})
	require.NoError(t, err)

	out, err := io.ReadAll(p.Stdout())
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))

	require.NoError(t, p.Wait())
	assert.Equal(t, 0, p.ExitCode())

	exited, code := p.Exited()
	assert.True(t, exited)
	assert.Equal(t, 0, code)
}

func TestLaunch_NonZeroExitAndStderr(t *testing.T) {
	p, err := Launch(context.Background(), Options{
		Path: script(t, `echo "something broke" >&2; exit 3`),
	})
	require.NoError(t, err)

	_, _ = io.ReadAll(p.Stdout())
	require.Error(t, p.Wait())
	assert.Equal(t, 3, p.ExitCode())
	assert.Contains(t, p.Stderr(), "something broke")
}

func TestLaunch_MissingExecutable(t *testing.T) {
	_, err := Launch(context.Background(), Options{
		Path: filepath.Join(t.TempDir(), "does-not-exist"),
	})
	require.Error(t, err)
}

func TestLaunch_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	p, err := Launch(context.Background(), Options{
		Path: script(t, `pwd`),
		Dir:  dir,
	})
	require.NoError(t, err)

	out, err := io.ReadAll(p.Stdout())
	require.NoError(t, err)
	_ = p.Wait()

	// Resolve symlinks: macOS tempdirs live under /private.
	got, _ := filepath.EvalSymlinks(string(out[:len(out)-1]))
	want, _ := filepath.EvalSymlinks(dir)
	assert.Equal(t, want, got)
}

func TestLaunch_EnvPassedToChild(t *testing.T) {
	p, err := Launch(context.Background(), Options{
		Path: script(t, `printf '%s\n' "$MOCK_MARKER"`),
		Env:  append(os.Environ(), "MOCK_MARKER=present"),
	})
	require.NoError(t, err)

	out, err := io.ReadAll(p.Stdout())
	require.NoError(t, err)
	_ = p.Wait()
	assert.Equal(t, "present\n", string(out))
}

func TestStop_TerminatesRunningProcess(t *testing.T) {
	p, err := Launch(context.Background(), Options{
		Path: script(t, `printf 'up\n'; exec sleep 60`),
	})
	require.NoError(t, err)

	// Wait until the process is demonstrably running.
	buf := make([]byte, 8)
	_, err = p.Stdout().Read(buf)
	require.NoError(t, err)

	start := time.Now()
	p.Stop()
	_ = p.Wait()

	assert.True(t, p.Stopped())
	assert.Less(t, time.Since(start), 10*time.Second, "termination must not wait out the sleep")
}

func TestStop_Idempotent(t *testing.T) {
	p, err := Launch(context.Background(), Options{
		Path: script(t, `exec sleep 60`),
	})
	require.NoError(t, err)

	p.Stop()
	p.Stop()
	_ = p.Wait()
	assert.True(t, p.Stopped())
}

func TestWait_Reentrant(t *testing.T) {
	p, err := Launch(context.Background(), Options{
		Path: script(t, `exit 0`),
	})
	require.NoError(t, err)

	_, _ = io.ReadAll(p.Stdout())
	err1 := p.Wait()
	err2 := p.Wait()
	assert.Equal(t, err1, err2)
}

func TestStderrCapIsEnforced(t *testing.T) {
	b := &cappedBuffer{cap: 8}
	n, err := b.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, 10, n, "writer must never see a short write")
	assert.Equal(t, "01234567", b.String())

	_, _ = b.Write([]byte("more"))
	assert.Equal(t, "01234567", b.String())
}
