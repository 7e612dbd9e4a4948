package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"
	"runtime"

	"fyne.io/systray"
)

var (
	iconIdle   []byte
	iconIdleHi []byte
	iconActive []byte
)

func init() {
	green := color.RGBA{R: 52, G: 199, B: 89, A: 255}
	iconIdle = platformIcon(renderIcon(22, nil, 0))
	iconIdleHi = platformIcon(renderIcon(44, nil, 0))
	iconActive = platformIcon(renderIcon(44, &green, 44.0/5))
}

func setIdleIcon() {
	systray.SetTemplateIcon(iconIdleHi, iconIdle)
}

// platformIcon wraps PNG data in an ICO container on Windows, where the
// tray only accepts icons.
func platformIcon(pngData []byte) []byte {
	if runtime.GOOS != "windows" {
		return pngData
	}
	return wrapICO(pngData)
}

// wrapICO builds a single-image ICO holding pngData as is (Vista+ format).
func wrapICO(pngData []byte) []byte {
	cfg, err := png.DecodeConfig(bytes.NewReader(pngData))
	if err != nil {
		panic("wrapICO: " + err.Error())
	}
	dim := func(n int) byte {
		if n >= 256 {
			return 0
		}
		return byte(n)
	}

	var buf bytes.Buffer
	buf.Grow(6 + 16 + len(pngData))
	binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1}) // reserved, type icon, count
	buf.WriteByte(dim(cfg.Width))
	buf.WriteByte(dim(cfg.Height))
	buf.WriteByte(0) // palette
	buf.WriteByte(0) // reserved
	binary.Write(&buf, binary.LittleEndian, uint16(1))  // planes
	binary.Write(&buf, binary.LittleEndian, uint16(32)) // bpp
	binary.Write(&buf, binary.LittleEndian, uint32(len(pngData)))
	binary.Write(&buf, binary.LittleEndian, uint32(6+16))
	buf.Write(pngData)
	return buf.Bytes()
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic("encodePNG: " + err.Error())
	}
	return buf.Bytes()
}

// renderIcon draws a key outline with an optional filled dot in the middle.
func renderIcon(size int, dot *color.RGBA, dotR float64) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	s := float64(size)
	cx, cy := s/2, s/2
	inset := s * 0.12
	corner := s * 0.22
	stroke := math.Max(1, s/11)

	for y := range size {
		for x := range size {
			fx, fy := float64(x)+0.5, float64(y)+0.5
			if dot != nil && math.Hypot(fx-cx, fy-cy) <= dotR {
				img.Set(x, y, dot)
				continue
			}
			d := roundedRectDist(fx, fy, inset, s-inset, corner)
			if d <= 0 && d > -stroke {
				img.Set(x, y, color.Black)
			}
		}
	}
	return encodePNG(img)
}

// roundedRectDist is the signed distance from (x, y) to a square with
// rounded corners spanning [lo, hi] on both axes; negative inside.
func roundedRectDist(x, y, lo, hi, r float64) float64 {
	c := (lo + hi) / 2
	half := (hi-lo)/2 - r
	qx := math.Abs(x-c) - half
	qy := math.Abs(y-c) - half
	outside := math.Hypot(math.Max(qx, 0), math.Max(qy, 0))
	inside := math.Min(math.Max(qx, qy), 0)
	return outside + inside - r
}
