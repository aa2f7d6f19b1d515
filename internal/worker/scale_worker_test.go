package worker

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/giobyte8/imagescaler/internal/models"
	"github.com/giobyte8/imagescaler/internal/scaler"
	"github.com/giobyte8/imagescaler/internal/telemetry/metrics"
)

type fakeOriginal struct {
	path          string
	width, height int
}

func (o fakeOriginal) Path() string { return o.path }
func (o fakeOriginal) Width() int   { return o.width }
func (o fakeOriginal) Height() int  { return o.height }
func (o fakeOriginal) Close() error { return nil }

type scaleCall struct {
	width, height int
	outPath       string
}

// fakeScaler writes empty files and records every call.
type fakeScaler struct {
	width, height int
	openErr       error
	failPercent   map[string]bool

	mu    sync.Mutex
	calls []scaleCall
}

func (s *fakeScaler) Open(path string) (scaler.Original, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return fakeOriginal{path: path, width: s.width, height: s.height}, nil
}

func (s *fakeScaler) Scale(o scaler.Original, width, height int, outPath string) error {
	s.mu.Lock()
	s.calls = append(s.calls, scaleCall{width, height, outPath})
	s.mu.Unlock()

	if s.failPercent[filepath.Base(outPath)] {
		return errors.New("disk full")
	}
	return os.WriteFile(outPath, nil, 0o644)
}

type increment struct {
	metric metrics.MetricName
	attrs  map[string]string
}

type recordingMetrics struct {
	mu         sync.Mutex
	increments []increment
}

func (m *recordingMetrics) Increment(metric metrics.MetricName, attrs map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.increments = append(m.increments, increment{metric, attrs})
}

func (m *recordingMetrics) Shutdown(ctx context.Context) error {
	return nil
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

func TestRunCreatesNineVariants(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 100, 100)
	img := models.NewImageDescriptor(dir, "a.png")

	s, err := scaler.New(scaler.BackendDraw, scaler.Options{})
	if err != nil {
		t.Fatalf("scaler: %v", err)
	}

	var published []models.ImageDescriptor
	w := NewScaleWorker(img, s, Options{
		Publish: func(d models.ImageDescriptor) { published = append(published, d) },
	})

	outcome := w.Run()
	if !outcome.Succeeded() {
		t.Fatalf("unexpected errors: %v", outcome.Errors)
	}

	entries, err := os.ReadDir(img.OutputPath)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 9 {
		t.Fatalf("expected 9 variants, got %d", len(entries))
	}

	for _, percent := range scaler.DefaultPercentages {
		f, err := os.Open(filepath.Join(img.OutputPath, models.VariantFileName(percent, "a.png")))
		if err != nil {
			t.Fatalf("open variant %d: %v", percent, err)
		}
		cfg, _, err := image.DecodeConfig(f)
		f.Close()
		if err != nil {
			t.Fatalf("decode variant %d: %v", percent, err)
		}
		if cfg.Width != percent || cfg.Height != percent {
			t.Errorf("variant %d is %dx%d", percent, cfg.Width, cfg.Height)
		}
	}

	if len(published) != 1 || published[0] != img {
		t.Fatalf("expected image published once, got %#v", published)
	}
}

func TestRunReplacesStaleOutput(t *testing.T) {
	dir := t.TempDir()
	img := models.NewImageDescriptor(dir, "a.jpg")
	if err := os.MkdirAll(img.OutputPath, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	stale := filepath.Join(img.OutputPath, "95_a.jpg")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatalf("write stale: %v", err)
	}

	fs := &fakeScaler{width: 100, height: 100}
	outcome := NewScaleWorker(img, fs, Options{}).Run()
	if !outcome.Succeeded() {
		t.Fatalf("unexpected errors: %v", outcome.Errors)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale variant removed, stat err: %v", err)
	}
	entries, _ := os.ReadDir(img.OutputPath)
	if len(entries) != 9 {
		t.Fatalf("expected 9 files, got %d", len(entries))
	}
}

func TestRunUsesOriginalDimensionsInAscendingOrder(t *testing.T) {
	dir := t.TempDir()
	img := models.NewImageDescriptor(dir, "b.jpg")
	fs := &fakeScaler{width: 50, height: 200}

	NewScaleWorker(img, fs, Options{}).Run()

	if len(fs.calls) != 9 {
		t.Fatalf("expected 9 calls, got %d", len(fs.calls))
	}
	for i, percent := range scaler.DefaultPercentages {
		call := fs.calls[i]
		wantW, wantH := scaler.TargetDimensions(50, 200, percent)
		if call.width != wantW || call.height != wantH {
			t.Errorf("call %d: got %dx%d, want %dx%d", i, call.width, call.height, wantW, wantH)
		}
		if call.outPath != img.VariantPath(percent) {
			t.Errorf("call %d: got path %s", i, call.outPath)
		}
	}
	if fs.calls[0].width != 5 || fs.calls[0].height != 20 {
		t.Errorf("10%% variant should be 5x20, got %dx%d", fs.calls[0].width, fs.calls[0].height)
	}
	if fs.calls[8].width != 45 || fs.calls[8].height != 180 {
		t.Errorf("90%% variant should be 45x180, got %dx%d", fs.calls[8].width, fs.calls[8].height)
	}
}

func TestRunSortsUnorderedPercentages(t *testing.T) {
	dir := t.TempDir()
	img := models.NewImageDescriptor(dir, "c.png")
	fs := &fakeScaler{width: 100, height: 100}
	given := []int{90, 10, 50, 10}

	outcome := NewScaleWorker(img, fs, Options{Percentages: given}).Run()

	want := []int{10, 50, 90}
	if len(fs.calls) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(fs.calls))
	}
	for i, percent := range want {
		if fs.calls[i].outPath != img.VariantPath(percent) {
			t.Errorf("call %d: got %s, want %s", i, fs.calls[i].outPath, img.VariantPath(percent))
		}
	}
	if !outcome.Succeeded() {
		t.Errorf("unexpected errors %v", outcome.Errors)
	}
	if given[0] != 90 {
		t.Errorf("caller slice was reordered: %v", given)
	}
}

func TestRunContinuesAfterVariantFailure(t *testing.T) {
	dir := t.TempDir()
	img := models.NewImageDescriptor(dir, "a.jpg")
	fs := &fakeScaler{
		width:       100,
		height:      100,
		failPercent: map[string]bool{"50_a.jpg": true},
	}

	var reported []string
	published := 0
	outcome := NewScaleWorker(img, fs, Options{
		ReportError: func(header, message string) { reported = append(reported, message) },
		Publish:     func(models.ImageDescriptor) { published++ },
	}).Run()

	if outcome.Succeeded() {
		t.Fatal("expected a failed outcome")
	}
	if len(outcome.Errors) != 1 || !errors.Is(outcome.Errors[0], ErrResize) {
		t.Fatalf("expected one ErrResize, got %v", outcome.Errors)
	}
	if len(outcome.Variants) != 8 {
		t.Fatalf("expected 8 variants, got %d", len(outcome.Variants))
	}
	if len(reported) != 1 {
		t.Fatalf("expected one reported error, got %v", reported)
	}
	if published != 1 {
		t.Fatalf("failed workers must still publish, got %d", published)
	}
}

func TestRunReportsUnreadableOriginalPerVariant(t *testing.T) {
	dir := t.TempDir()
	img := models.NewImageDescriptor(dir, "a.jpg")
	fs := &fakeScaler{openErr: errors.New("corrupt")}

	outcome := NewScaleWorker(img, fs, Options{}).Run()
	if len(outcome.Errors) != 9 {
		t.Fatalf("expected 9 errors, got %d", len(outcome.Errors))
	}
	for _, err := range outcome.Errors {
		if !errors.Is(err, ErrResize) {
			t.Fatalf("expected ErrResize, got %v", err)
		}
	}
	if len(fs.calls) != 0 {
		t.Fatalf("scale must not be attempted without an original, got %d calls", len(fs.calls))
	}
}

func TestRunWithUnwritableOutputPath(t *testing.T) {
	dir := t.TempDir()
	img := models.NewImageDescriptor(dir, "a.jpg")

	// A regular file squatting the output path blocks directory creation
	if err := os.WriteFile(img.OutputPath, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := &fakeScaler{width: 10, height: 10}
	published := false
	outcome := NewScaleWorker(img, fs, Options{
		Publish: func(models.ImageDescriptor) { published = true },
	}).Run()

	if !errors.Is(outcome.Errors[0], ErrDirectoryReset) {
		t.Fatalf("expected ErrDirectoryReset first, got %v", outcome.Errors)
	}
	if len(outcome.Errors) != 10 {
		t.Fatalf("expected 1 reset error and 9 resize errors, got %d", len(outcome.Errors))
	}
	if !published {
		t.Fatal("worker must run to the end")
	}
}

func TestExecuteReportsSuccess(t *testing.T) {
	dir := t.TempDir()
	ok := NewScaleWorker(models.NewImageDescriptor(dir, "a.jpg"), &fakeScaler{width: 10, height: 10}, Options{})
	if !ok.Execute() {
		t.Fatal("expected success")
	}

	bad := NewScaleWorker(models.NewImageDescriptor(dir, "b.jpg"), &fakeScaler{openErr: errors.New("x")}, Options{})
	if bad.Execute() {
		t.Fatal("expected failure")
	}
}

func TestRunRecordsBoundedMetricAttributes(t *testing.T) {
	dir := t.TempDir()
	img := models.NewImageDescriptor(dir, "a.jpg")
	fs := &fakeScaler{
		width:       100,
		height:      100,
		failPercent: map[string]bool{"30_a.jpg": true},
	}
	rec := &recordingMetrics{}

	NewScaleWorker(img, fs, Options{Metrics: rec}).Run()

	counts := make(map[metrics.MetricName]int)
	for _, inc := range rec.increments {
		counts[inc.metric]++
		for key := range inc.attrs {
			if key != "percent" && key != "succeeded" {
				t.Errorf("%s: unexpected attribute %q", inc.metric, key)
			}
		}
	}

	if counts[metrics.VariantCreated] != 8 || counts[metrics.VariantFailed] != 1 {
		t.Errorf("unexpected variant counts %v", counts)
	}
	if counts[metrics.ImageCompleted] != 1 {
		t.Errorf("expected one image completion, got %d", counts[metrics.ImageCompleted])
	}
	last := rec.increments[len(rec.increments)-1]
	if last.attrs["succeeded"] != "false" {
		t.Errorf("image completion attrs = %v", last.attrs)
	}
}
