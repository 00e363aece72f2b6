package render

import (
	"fmt"
	"image"
	_ "image/png"
	"io/fs"
	"path"
	"strings"
)

// Assets caches tile images by kind name. A missing image is not an error;
// callers draw without it.
type Assets struct {
	images map[string]image.Image
}

func NewAssets() *Assets {
	return &Assets{images: make(map[string]image.Image)}
}

func (a *Assets) Add(name string, img image.Image) {
	a.images[name] = img
}

// Get returns the image for name, or nil.
func (a *Assets) Get(name string) image.Image {
	if a == nil {
		return nil
	}
	return a.images[name]
}

func (a *Assets) Len() int { return len(a.images) }

// LoadAssets decodes every *.png directly under dir, keyed by base name.
func LoadAssets(fsys fs.FS, dir string) (*Assets, error) {
	a := NewAssets()
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read assets: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".png") {
			continue
		}
		f, err := fsys.Open(path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", e.Name(), err)
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Name(), err)
		}
		a.Add(strings.TrimSuffix(e.Name(), ".png"), img)
	}
	return a, nil
}
