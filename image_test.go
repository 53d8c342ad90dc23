package avmat

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func writeTestImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".png":
		err = png.Encode(f, img)
	case ".bmp":
		err = bmp.Encode(f, img)
	case ".tif":
		err = tiff.Encode(f, img, nil)
	default:
		_, err = f.Write([]byte("not an image"))
	}
	if err != nil {
		t.Fatal(err)
	}
}

// TestProbeImages 测试纹理图片探测
func TestProbeImages(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "textures"), 0755); err != nil {
		t.Fatal(err)
	}
	writeTestImage(t, filepath.Join(dir, "textures", "skin.png"), 4, 2)
	writeTestImage(t, filepath.Join(dir, "eye.bmp"), 8, 8)
	writeTestImage(t, filepath.Join(dir, "hair.tif"), 3, 5)
	writeTestImage(t, filepath.Join(dir, "broken.dat"), 1, 1)

	tests := []struct {
		path    string
		size    [2]uint64
		format  string
		wantErr bool
	}{
		{"textures/skin.png", [2]uint64{4, 2}, "png", false},
		{"eye.bmp", [2]uint64{8, 8}, "bmp", false},
		{"hair.tif", [2]uint64{3, 5}, "tiff", false},
		{"broken.dat", [2]uint64{}, "", true},
		{"missing.png", [2]uint64{}, "", true},
	}

	s := newAvatarScene()
	var mats []*Material
	for i, tt := range tests {
		mats = append(mats, addMaterial(s, tt.path, red, tt.path))
		if i == 0 {
			// a second slot on the same image is probed once
			mats[0].TextureSlots = append(mats[0].TextureSlots, mats[0].TextureSlots[0])
		}
	}
	addMesh(s, "Body", mats, 0)

	probes := ProbeImages(s, dir)
	if len(probes) != len(tests) {
		t.Fatalf("got %d probes, want %d", len(probes), len(tests))
	}
	for i, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p := probes[i]
			if (p.Err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", p.Err, tt.wantErr)
			}
			if p.Image.Size != tt.size || p.Image.Format != tt.format {
				t.Errorf("got %v %q, want %v %q", p.Image.Size, p.Image.Format, tt.size, tt.format)
			}
		})
	}
	if !errors.Is(probes[3].Err, ErrUnknownImageFormat) {
		t.Errorf("unreadable image error = %v, want ErrUnknownImageFormat", probes[3].Err)
	}
	if !errors.Is(probes[4].Err, os.ErrNotExist) {
		t.Errorf("missing image error = %v, want not exist", probes[4].Err)
	}
}

func TestProbeEmbeddedImage(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 16, 4))); err != nil {
		t.Fatal(err)
	}
	img := &Image{Name: "packed", MimeType: "image/png", Data: buf.Bytes(), Path: embeddedPath(buf.Bytes())}

	p := ProbeImage(img, "")
	if p.Err != nil {
		t.Fatal(p.Err)
	}
	if img.Size != [2]uint64{16, 4} || img.Format != "png" {
		t.Errorf("got %v %q", img.Size, img.Format)
	}
	if p.Path != img.Path {
		t.Errorf("probe path = %q", p.Path)
	}
}
