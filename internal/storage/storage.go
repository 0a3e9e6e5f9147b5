// Package storage writes diagnostic images to disk when
// save_debug_images is enabled (spec §6 ambient/debug keys), adapted
// from the teacher's screenshot saver: instead of saving every
// capture, it saves on demand — one image per qualifying match, with
// the matched region boxed for inspection.
package storage

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"autoapprove/internal/framecache"
	"autoapprove/internal/matcher"
)

// Dumper writes debug images under a fixed directory.
type Dumper struct {
	directory string
}

// NewDumper returns a dumper rooted at dir (debug_image_dir), expanding
// a leading ~ to the user's home directory.
func NewDumper(dir string) *Dumper {
	d := &Dumper{}
	d.SetDirectory(dir)
	return d
}

// SetDirectory changes the target directory, creating it if absent.
func (d *Dumper) SetDirectory(dir string) error {
	if len(dir) > 0 && dir[0] == '~' {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, dir[1:])
	}
	d.directory = dir
	return os.MkdirAll(dir, 0755)
}

// GetDirectory returns the current target directory.
func (d *Dumper) GetDirectory() string {
	return d.directory
}

// SaveMatch renders frame as an RGBA image with a box drawn around
// result's matched region and writes it as PNG, returning the file path.
func (d *Dumper) SaveMatch(frame *framecache.Frame, result *matcher.MatchResult) (string, error) {
	if err := os.MkdirAll(d.directory, 0755); err != nil {
		return "", fmt.Errorf("storage: create dir: %w", err)
	}

	img := bgraToRGBA(frame)
	box := image.Rect(result.Location.X, result.Location.Y,
		result.Location.X+result.Size.X, result.Location.Y+result.Size.Y)
	drawBox(img, box, color.RGBA{R: 255, G: 0, B: 0, A: 255})

	timestamp := time.Now().Format("20060102_150405.000")
	name := fmt.Sprintf("match_%s_%s.png", result.TemplateID[:min(12, len(result.TemplateID))], timestamp)
	path := filepath.Join(d.directory, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("storage: encode png: %w", err)
	}
	return path, nil
}

// Cleanup removes files in the directory older than olderThan, so a
// long-running worker with save_debug_images on does not fill the disk.
func (d *Dumper) Cleanup(olderThan time.Duration) error {
	entries, err := os.ReadDir(d.directory)
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-olderThan)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(d.directory, entry.Name()))
		}
	}
	return nil
}

// bgraToRGBA converts a frame's row-pitch-padded BGRA buffer into a
// tightly packed image.RGBA, honoring RowPitch the same way the
// matcher does (spec §4.3/§8).
func bgraToRGBA(frame *framecache.Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for y := 0; y < frame.Height; y++ {
		srcRow := frame.Pix[y*frame.RowPitch : y*frame.RowPitch+frame.Width*4]
		dstRow := img.Pix[y*img.Stride : y*img.Stride+frame.Width*4]
		for x := 0; x < frame.Width; x++ {
			b, g, r, a := srcRow[x*4], srcRow[x*4+1], srcRow[x*4+2], srcRow[x*4+3]
			dstRow[x*4+0] = r
			dstRow[x*4+1] = g
			dstRow[x*4+2] = b
			dstRow[x*4+3] = a
		}
	}
	return img
}

// drawBox draws a 2px rectangle outline, clipped to img's bounds.
func drawBox(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Min.Y+1, c)
		img.Set(x, r.Max.Y-1, c)
		img.Set(x, r.Max.Y-2, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Min.X+1, y, c)
		img.Set(r.Max.X-1, y, c)
		img.Set(r.Max.X-2, y, c)
	}
}
