package x11

import (
	"fmt"
	"image"
	"image/color"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// WindowIcon decodes the _NET_WM_ICON entry whose size is closest to size.
func (c *Connection) WindowIcon(windowID xproto.Window, size int) (image.Image, error) {
	icons, err := ewmh.WmIconGet(c.XUtil, windowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get _NET_WM_ICON: %w", err)
	}
	if len(icons) == 0 {
		return nil, fmt.Errorf("window %d has no icon", windowID)
	}

	best := icons[0]
	for _, icon := range icons[1:] {
		if abs(int(icon.Width)-size) < abs(int(best.Width)-size) {
			best = icon
		}
	}
	return decodeARGB(int(best.Width), int(best.Height), best.Data)
}

// decodeARGB converts packed 0xAARRGGBB pixels into an NRGBA image.
func decodeARGB(width, height int, data []uint) (image.Image, error) {
	if width <= 0 || height <= 0 || len(data) < width*height {
		return nil, fmt.Errorf("malformed icon %dx%d with %d pixels", width, height, len(data))
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := data[y*width+x]
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(p >> 16),
				G: uint8(p >> 8),
				B: uint8(p),
				A: uint8(p >> 24),
			})
		}
	}
	return img, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
