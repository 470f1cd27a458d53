package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// ImageSource serves backdrop frames from raster files. A single file is a
// one-page source; a directory contributes its images in name order.
// Decoded pages are kept, since a backdrop is drawn on every frame.
type ImageSource struct {
	files []string

	mu      sync.Mutex
	decoded map[int]image.Image
}

func NewImageSource(path string) (*ImageSource, error) {
	files, err := listImages(path)
	if err != nil {
		return nil, err
	}
	return &ImageSource{files: files, decoded: make(map[int]image.Image)}, nil
}

func listImages(path string) ([]string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && isImage(e.Name()) {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func (s *ImageSource) PageCount() int {
	return len(s.files)
}

// withFile opens page index and hands it to fn.
func (s *ImageSource) withFile(index int, fn func(name string, r io.Reader) error) error {
	if index < 0 || index >= len(s.files) {
		return fmt.Errorf("page %d out of range [0,%d)", index, len(s.files))
	}
	f, err := os.Open(s.files[index])
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(s.files[index], f)
}

func (s *ImageSource) GetPageDimensions(index int) (w, h float64, err error) {
	err = s.withFile(index, func(name string, r io.Reader) error {
		cfg, _, err := image.DecodeConfig(r)
		if err != nil {
			return fmt.Errorf("read header of %s: %w", name, err)
		}
		w, h = float64(cfg.Width), float64(cfg.Height)
		return nil
	})
	return w, h, err
}

// RenderPage decodes the image once. dpi has no meaning for raster files.
func (s *ImageSource) RenderPage(index int, _ int) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if img, ok := s.decoded[index]; ok {
		return img, nil
	}
	var img image.Image
	err := s.withFile(index, func(name string, r io.Reader) error {
		var err error
		if img, _, err = image.Decode(r); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.decoded[index] = img
	return img, nil
}

func (s *ImageSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.decoded)
	return nil
}
