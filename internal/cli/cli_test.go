package cli

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/iconstack/pkg/errors"
)

// isolate points the config and cache directories at fresh temp dirs.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
}

// runCLI executes the root command with args and returns what the command
// wrote to its output stream.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// writePNG writes a size x size gradient image into dir.
func writePNG(t *testing.T, dir string, size int) string {
	t.Helper()
	m := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			m.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	path := filepath.Join(dir, "logo.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, m); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(xdg, appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestConfigFlag(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("max_layers = 2\nbase_exponent = 6\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "--config", path, "plan", "--json")
	if err != nil {
		t.Fatalf("plan error: %v", err)
	}
	if !strings.Contains(out, `"rename_to": "128x128"`) || !strings.Contains(out, `"rename_to": "64x64"`) {
		t.Errorf("plan output does not reflect config:\n%s", out)
	}
	if strings.Contains(out, "256x256") {
		t.Errorf("plan has more slots than max_layers:\n%s", out)
	}
}

func TestConfigFlagMissingFile(t *testing.T) {
	isolate(t)
	_, err := runCLI(t, "--config", filepath.Join(t.TempDir(), "nope.toml"), "plan")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom", "config.toml")

	if _, err := runCLI(t, "--config", path, "config", "init"); err != nil {
		t.Fatalf("config init --config error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config not written: %v", err)
	}

	if _, err := runCLI(t, "config", "init"); err != nil {
		t.Fatalf("config init error: %v", err)
	}
	if _, err := runCLI(t, "config", "init"); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("second init error = %v, want INVALID_PATH", err)
	}

	out, err := runCLI(t, "config", "show")
	if err != nil {
		t.Fatalf("config show error: %v", err)
	}
	for _, want := range []string{"max_layers", "lanczos", "32, 64, 128, 256"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestCachePath(t *testing.T) {
	isolate(t)
	xdg := os.Getenv("XDG_CACHE_HOME")

	out, err := runCLI(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out); got != filepath.Join(xdg, appName) {
		t.Errorf("cache path = %q", got)
	}
}

func TestInvalidConfigCanBeRepaired(t *testing.T) {
	isolate(t)
	dir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("max_layers = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, "plan"); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("plan error = %v, want INVALID_CONFIG", err)
	}

	for _, args := range [][]string{
		{"config", "path"},
		{"cache", "path"},
		{"cache", "clear"},
		{"completion", "bash"},
	} {
		if _, err := runCLI(t, args...); err != nil {
			t.Errorf("%v with invalid config: %v", args, err)
		}
	}

	if _, err := runCLI(t, "config", "init", "--force"); err != nil {
		t.Fatalf("config init --force error: %v", err)
	}
	if _, err := runCLI(t, "plan"); err != nil {
		t.Errorf("plan after repair: %v", err)
	}
}

func TestServeRedisUnreachable(t *testing.T) {
	isolate(t)
	_, err := runCLI(t, "serve", "--addr", "127.0.0.1:0", "--redis-url", "redis://127.0.0.1:1/0")
	if err == nil || !strings.Contains(err.Error(), "redis") {
		t.Errorf("serve error = %v, want redis connection error", err)
	}
}
