// Package scanner finds the images a stage works on and names the files it
// writes.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// GraySuffix marks grayscale intermediates written by the binarize stage.
const GraySuffix = "_cinza"

// Output kinds used in file names.
const (
	KindLowPass  = "passa_baixa"
	KindHighPass = "passa_alta"
	KindFFT      = "fft"
	KindGabor    = "gabor"
)

// IsImageFile reports whether path has a .jpg, .jpeg or .png extension,
// ignoring case.
func IsImageFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}

// IsGrayIntermediate reports whether path is an image whose base name ends
// in GraySuffix.
func IsGrayIntermediate(path string) bool {
	if !IsImageFile(path) {
		return false
	}
	name := filepath.Base(path)
	return strings.HasSuffix(strings.TrimSuffix(name, filepath.Ext(name)), GraySuffix)
}

// Sources lists the regular image files directly inside dir, sorted by name.
// Grayscale intermediates are left out so dir may double as the gray
// directory. A missing directory yields no files.
func Sources(dir string) ([]string, error) {
	return list(dir, func(name string) bool {
		return IsImageFile(name) && !IsGrayIntermediate(name)
	})
}

// GrayIntermediates lists the grayscale intermediates inside dir.
func GrayIntermediates(dir string) ([]string, error) {
	return list(dir, IsGrayIntermediate)
}

func list(dir string, keep func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if keep(entry.Name()) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// BaseName strips the directory and extension from path, then suffix if the
// remaining name ends with it.
func BaseName(path, suffix string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if suffix != "" {
		name = strings.TrimSuffix(name, suffix)
	}
	return name
}

// GrayName is the grayscale intermediate name: {base}_cinza{ext}.
func GrayName(base, ext string) string {
	return base + GraySuffix + ext
}

// BinaryName is the binarized output name: {base}_binaria{ext}.
func BinaryName(base, ext string) string {
	return base + "_binaria" + ext
}

// FrequencyName is {base}_{domain}_{kind}.{ext}, kind being KindLowPass or
// KindHighPass. ext may be given with or without its dot.
func FrequencyName(base, domain, kind, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s", base, domain, kind, strings.TrimPrefix(ext, "."))
}

// EnhanceName is {base}_{kind}.png, kind being KindFFT or KindGabor.
func EnhanceName(base, kind string) string {
	return base + "_" + kind + ".png"
}

// EntryName names a rendered bundle entry: {base}_{domain}_{entry}.png.
func EntryName(base, domain, entry string) string {
	return fmt.Sprintf("%s_%s_%s.png", base, domain, entry)
}
