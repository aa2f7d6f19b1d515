package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/giobyte8/imagescaler/internal/config"
	"github.com/giobyte8/imagescaler/internal/monitor"
	"github.com/giobyte8/imagescaler/internal/source"
)

func testConfig(dir string) config.Config {
	cfg := config.DefaultConfig()
	cfg.SourceDir = dir
	cfg.Monitor = monitor.Config{InitialDelay: time.Millisecond, Period: 5 * time.Millisecond}
	return cfg
}

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestRunScale(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 30, 30)

	if err := runScale(context.Background(), testConfig(dir)); err != nil {
		t.Fatalf("runScale: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "a"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(entries) != 9 {
		t.Fatalf("expected 9 variants, got %d", len(entries))
	}
}

func TestRunScaleReportsFailures(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 30, 30)
	if err := os.WriteFile(filepath.Join(dir, "b.png"), []byte("nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	err := runScale(context.Background(), testConfig(dir))
	if err == nil || !strings.Contains(err.Error(), "1 of 2 images") {
		t.Fatalf("expected partial failure error, got %v", err)
	}
}

func TestRunScaleMissingDir(t *testing.T) {
	err := runScale(context.Background(), testConfig(filepath.Join(t.TempDir(), "images")))
	if !errors.Is(err, source.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestListCommand(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 30, 30)
	if err := runScale(context.Background(), testConfig(dir)); err != nil {
		t.Fatalf("runScale: %v", err)
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"list", dir, "a.png"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("list: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 9 {
		t.Fatalf("expected 9 lines, got %d:\n%s", len(lines), out.String())
	}
	if filepath.Base(lines[0]) != "10_a.png" {
		t.Fatalf("unexpected first variant %s", lines[0])
	}
}
