package models

import (
	"path/filepath"
	"strconv"
	"strings"
)

// ImageDescriptor identifies one original image and the directory
// where its scaled variants live. Values are created at discovery
// time and never mutated afterwards.
type ImageDescriptor struct {

	// File name of the original, extension included
	Name string

	// Absolute or source-relative path to the original file
	SourcePath string

	// Directory holding the scaled variants, sibling of the original
	// and named after it with the extension stripped
	OutputPath string
}

// NewImageDescriptor derives a descriptor for file 'name' living
// directly under 'dir'.
func NewImageDescriptor(dir, name string) ImageDescriptor {
	return ImageDescriptor{
		Name:       name,
		SourcePath: filepath.Join(dir, name),
		OutputPath: filepath.Join(dir, StripExt(name)),
	}
}

// VariantName returns the file name of the variant scaled to 'percent'.
func (d ImageDescriptor) VariantName(percent int) string {
	return VariantFileName(percent, d.Name)
}

// VariantPath returns the full path of the variant scaled to 'percent'.
func (d ImageDescriptor) VariantPath(percent int) string {
	return filepath.Join(d.OutputPath, d.VariantName(percent))
}

func (d ImageDescriptor) String() string {
	return d.Name
}

func StripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func VariantFileName(percent int, name string) string {
	return strconv.Itoa(percent) + "_" + name
}
