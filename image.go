package avmat

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

var ErrUnknownImageFormat = errors.New("unknown image format")

// ImageProbe is the outcome of resolving one image.
type ImageProbe struct {
	Image *Image
	Path  string
	Err   error
}

// decodeConfig reads the header of an image, picking the decoder by
// extension first so formats without a registered magic (tga) still work.
func decodeConfig(rd io.ReadSeeker, ext string) (image.Config, string, error) {
	switch strings.TrimPrefix(strings.ToLower(ext), ".") {
	case "jpeg", "jpg":
		cfg, err := jpeg.DecodeConfig(rd)
		return cfg, "jpeg", err
	case "png":
		cfg, err := png.DecodeConfig(rd)
		return cfg, "png", err
	case "gif":
		cfg, err := gif.DecodeConfig(rd)
		return cfg, "gif", err
	case "bmp":
		cfg, err := bmp.DecodeConfig(rd)
		return cfg, "bmp", err
	case "tif", "tiff":
		cfg, err := tiff.DecodeConfig(rd)
		return cfg, "tiff", err
	case "tga":
		cfg, err := tga.DecodeConfig(rd)
		return cfg, "tga", err
	}
	cfg, format, err := image.DecodeConfig(rd)
	if err != nil {
		return image.Config{}, "", ErrUnknownImageFormat
	}
	return cfg, format, nil
}

// ProbeImage fills img's size and format from its bytes or from the file
// its path names, resolved against baseDir when relative.
func ProbeImage(img *Image, baseDir string) ImageProbe {
	probe := ImageProbe{Image: img}
	var (
		rd  io.ReadSeeker
		ext string
	)
	if img.Embedded() {
		rd = bytes.NewReader(img.Data)
		ext = strings.TrimPrefix(img.MimeType, "image/")
		probe.Path = img.Path
	} else {
		path := filepath.FromSlash(img.Path)
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		probe.Path = path
		f, err := os.Open(path)
		if err != nil {
			probe.Err = err
			return probe
		}
		defer f.Close()
		rd = f
		ext = filepath.Ext(path)
	}

	cfg, format, err := decodeConfig(rd, ext)
	if err != nil {
		probe.Err = fmt.Errorf("%s: %w", probe.Path, err)
		return probe
	}
	img.Size = [2]uint64{uint64(cfg.Width), uint64(cfg.Height)}
	img.Format = format
	return probe
}

// ProbeImages probes every distinct image used by a material of s.
func ProbeImages(s *Scene, baseDir string) []ImageProbe {
	seen := make(map[*Image]bool)
	var probes []ImageProbe
	for _, m := range s.Materials {
		for _, ts := range m.TextureSlots {
			if ts == nil || ts.Texture == nil || ts.Texture.Image == nil {
				continue
			}
			img := ts.Texture.Image
			if seen[img] {
				continue
			}
			seen[img] = true
			probes = append(probes, ProbeImage(img, baseDir))
		}
	}
	return probes
}
