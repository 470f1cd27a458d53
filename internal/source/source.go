// Package source loads the still image drawn behind the scene, either a
// page of a PDF or an image file.
package source

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
)

type Source interface {
	PageCount() int
	GetPageDimensions(index int) (width, height float64, err error)
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// Open picks a PDF or image source by the path's extension.
func Open(path string) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return NewFitzPDFSource(path)
	}
	return NewImageSource(path)
}

// LoadBackdrop renders one page of path.
func LoadBackdrop(path string, page, dpi int) (image.Image, error) {
	src, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backdrop %s: %w", path, err)
	}
	defer src.Close()

	if n := src.PageCount(); page < 0 || page >= n {
		return nil, fmt.Errorf("backdrop %s has %d pages, page %d requested", path, n, page)
	}
	w, h, err := src.GetPageDimensions(page)
	if err != nil {
		return nil, fmt.Errorf("measure backdrop %s page %d: %w", path, page, err)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("backdrop %s page %d is empty (%gx%g)", path, page, w, h)
	}
	img, err := src.RenderPage(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("render backdrop %s page %d: %w", path, page, err)
	}
	return img, nil
}

// FitzPDFSource renders PDF pages with MuPDF. The document is not safe for
// concurrent use, so calls are serialised.
type FitzPDFSource struct {
	mu  sync.Mutex
	doc *fitz.Document
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &FitzPDFSource{doc: doc}, nil
}

func (f *FitzPDFSource) PageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.NumPage()
}

func (f *FitzPDFSource) GetPageDimensions(index int) (float64, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rect, err := f.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}
