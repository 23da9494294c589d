package icons

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Overrides maps lower-cased module names to replacement icons.
type Overrides struct {
	icons map[string]image.Image
}

// LoadOverrides decodes every *.png in dir. A missing directory yields an
// empty set.
func LoadOverrides(dir string) (*Overrides, error) {
	o := &Overrides{icons: make(map[string]image.Image)}
	if dir == "" {
		return o, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return o, nil
		}
		return nil, fmt.Errorf("failed to read icon overrides: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".png") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		img, err := decodePNG(path)
		if err != nil {
			return nil, err
		}
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		o.icons[strings.ToLower(stem)] = img
	}
	return o, nil
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open icon %s: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode icon %s: %w", path, err)
	}
	return img, nil
}

// Lookup returns the override for module, if any.
func (o *Overrides) Lookup(module string) (image.Image, bool) {
	if o == nil || module == "" {
		return nil, false
	}
	img, ok := o.icons[strings.ToLower(module)]
	return img, ok
}

// Len returns the number of loaded overrides.
func (o *Overrides) Len() int {
	if o == nil {
		return 0
	}
	return len(o.icons)
}
