package source

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/giobyte8/imagescaler/internal/models"
)

var ErrSourceNotFound = errors.New("source directory not found")

type ImageSource interface {
	ListImages(dir string) ([]models.ImageDescriptor, error)
	CountImages(dir string) int
}

// DirImageSource discovers images as the regular files placed
// directly under a directory. Nested directories, including the ones
// holding previously generated variants, are ignored.
type DirImageSource struct{}

func NewDirImageSource() *DirImageSource {
	return &DirImageSource{}
}

// ListImages returns one descriptor per regular file under 'dir',
// ordered by name. When 'dir' does not exist the returned slice is
// empty and the error wraps ErrSourceNotFound.
func (s *DirImageSource) ListImages(
	dir string,
) ([]models.ImageDescriptor, error) {
	names, err := s.regularFiles(dir)
	if err != nil {
		return []models.ImageDescriptor{}, err
	}

	descriptors := make([]models.ImageDescriptor, 0, len(names))
	for _, name := range names {
		descriptors = append(
			descriptors,
			models.NewImageDescriptor(dir, name),
		)
	}

	slog.Debug("Images discovered", "dir", dir, "count", len(descriptors))
	return descriptors, nil
}

// CountImages returns the number of regular files under 'dir'.
//
// A missing directory counts as 1 so a pool sized from this value
// always gets at least one slot. ListImages reports the same
// directory as empty; callers must not assume both agree.
func (s *DirImageSource) CountImages(dir string) int {
	names, err := s.regularFiles(dir)
	if errors.Is(err, ErrSourceNotFound) {
		return 1
	}
	if err != nil {
		slog.Warn("Failed to count images", "dir", dir, "error", err)
		return 1
	}

	return len(names)
}

func (s *DirImageSource) regularFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat source dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf(
			"%w: %s is not a directory",
			ErrSourceNotFound,
			dir,
		)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}

	// ReadDir already sorts by name, keep it explicit for callers
	sort.Strings(names)
	return names, nil
}
