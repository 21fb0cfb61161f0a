// Package util - filesystem helpers for the command-line tools.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ImageFile is one image read from disk.
type ImageFile struct {
	// Path is the file's location.
	Path string
	// Data is the raw file contents.
	Data []byte
	// Frame is the numeric suffix parsed from the file name, or -1 when the
	// name carries none. Files with frame numbers sort by frame; the rest
	// sort by path.
	Frame int
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true,
}

// LoadDirectoryImageFiles reads every image file in a directory, ordered by
// trailing frame number when present (frame-0.jpg, frame-1.jpg, ...) and by
// path otherwise.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: The loaded images in playback order.
// - error: Error if the directory or a file cannot be read.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []ImageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !imageExtensions[ext] {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, ImageFile{
			Path:  path,
			Data:  data,
			Frame: frameNumber(entry.Name(), ext),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Frame != files[j].Frame {
			return files[i].Frame < files[j].Frame
		}
		return files[i].Path < files[j].Path
	})

	return files, nil
}

// frameNumber parses the trailing integer of a file name like frame-12.jpg
// or img_0042.png. Returns -1 when the name ends without digits.
func frameNumber(name, ext string) int {
	stem := strings.TrimSuffix(name, ext)
	i := len(stem)
	for i > 0 && stem[i-1] >= '0' && stem[i-1] <= '9' {
		i--
	}
	if i == len(stem) {
		return -1
	}
	n, err := strconv.Atoi(stem[i:])
	if err != nil {
		return -1
	}
	return n
}
