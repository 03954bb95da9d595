// Package imageprep prepares mini-game sprites. It clears near-white
// backgrounds to transparent alpha and reports image geometry and color mode.
package imageprep

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"lockbox/internal/config"
	"lockbox/internal/fileutil"
	"lockbox/internal/logging"
)

// DefaultWhiteThreshold clears pixels whose red, green and blue all exceed it.
const DefaultWhiteThreshold = 240

// Info describes a decoded image.
type Info struct {
	Path        string `json:"path"`
	Format      string `json:"format"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Mode        string `json:"mode"`
	HasAlpha    bool   `json:"has_alpha"`
	Transparent bool   `json:"transparent"`
}

// Inspect decodes path and reports its size, color mode and whether any
// pixel is not fully opaque.
func Inspect(path string) (Info, error) {
	img, format, err := decodeFile(path)
	if err != nil {
		return Info{}, err
	}
	b := img.Bounds()
	info := Info{
		Path:   path,
		Format: format,
		Width:  b.Dx(),
		Height: b.Dy(),
		Mode:   Mode(img),
	}
	info.Transparent = anyTransparent(img)
	info.HasAlpha = info.Transparent || hasAlphaChannel(img)
	return info, nil
}

// Mode names the color layout of img using the short names image tools print
// (RGB, RGBA, L, P, ...).
func Mode(img image.Image) string {
	switch m := img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA:
		return "RGBA"
	case *image.RGBA, *image.RGBA64:
		if anyTransparent(m) {
			return "RGBA"
		}
		return "RGB"
	case *image.YCbCr:
		return "RGB"
	case *image.Gray:
		return "L"
	case *image.Gray16:
		return "I;16"
	case *image.Paletted:
		return "P"
	case *image.CMYK:
		return "CMYK"
	case *image.Alpha, *image.Alpha16:
		return "A"
	default:
		return "unknown"
	}
}

func hasAlphaChannel(img image.Image) bool {
	switch m := img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA, *image.Alpha, *image.Alpha16:
		return true
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a < 0xffff {
				return true
			}
		}
	}
	return false
}

func anyTransparent(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a < 0xffff {
				return true
			}
		}
	}
	return false
}

// ClearWhite copies src into a new NRGBA image and makes every pixel whose
// red, green and blue channels all exceed threshold fully transparent white.
// It returns the copy and the number of cleared pixels.
func ClearWhite(src image.Image, threshold int) (*image.NRGBA, int) {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	limit := uint8(min(max(threshold, 0), 255))
	cleared := 0
	for i := 0; i+3 < len(dst.Pix); i += 4 {
		p := dst.Pix[i : i+4 : i+4]
		if p[0] > limit && p[1] > limit && p[2] > limit {
			p[0], p[1], p[2], p[3] = 0xff, 0xff, 0xff, 0
			cleared++
		}
	}
	return dst, cleared
}

// Result reports one processed sprite.
type Result struct {
	Path    string `json:"path"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Cleared int    `json:"cleared"`
}

// Pixels returns the sprite area.
func (r Result) Pixels() int {
	return r.Width * r.Height
}

// ClearWhiteFile rewrites path as a PNG with its near-white pixels cleared.
// The file is replaced atomically.
func ClearWhiteFile(path string, threshold int) (Result, error) {
	img, _, err := decodeFile(path)
	if err != nil {
		return Result{}, err
	}
	out, cleared := ClearWhite(img, threshold)
	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return Result{}, fmt.Errorf("encode %s: %w", path, err)
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return Result{}, err
	}
	b := out.Bounds()
	return Result{Path: path, Width: b.Dx(), Height: b.Dy(), Cleared: cleared}, nil
}

// Options configure a transparency batch.
type Options struct {
	AssetsDir      string
	Files          []string
	WhiteThreshold int
}

// OptionsFromConfig builds batch options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AssetsDir:      cfg.Images.AssetsDir,
		Files:          append([]string(nil), cfg.Images.Transparent...),
		WhiteThreshold: cfg.Images.WhiteThreshold,
	}
}

// Resolve joins a relative sprite name onto the assets directory.
func (o Options) Resolve(name string) string {
	if filepath.IsAbs(name) || o.AssetsDir == "" {
		return name
	}
	return filepath.Join(o.AssetsDir, name)
}

// Batch summarizes a transparency run.
type Batch struct {
	Results []Result `json:"results"`
	Missing []string `json:"missing"`
	Failed  []string `json:"failed"`
}

// ClearWhiteAll processes every sprite in opts.Files. Missing files and
// per-file failures are logged and reported without stopping the batch.
func ClearWhiteAll(opts Options, logger *slog.Logger) *Batch {
	logger = logging.NewComponentLogger(logger, "imageprep")
	threshold := opts.WhiteThreshold
	if threshold == 0 {
		threshold = DefaultWhiteThreshold
	}

	batch := &Batch{}
	for _, name := range opts.Files {
		path := opts.Resolve(name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(logger, "sprite not found", "sprite_missing",
				logging.String("path", path),
				logging.String(logging.FieldImpact, "sprite keeps its background"),
			)
			batch.Missing = append(batch.Missing, path)
			continue
		}
		result, err := ClearWhiteFile(path, threshold)
		if err != nil {
			logger.Error("sprite transparency failed", logging.String("path", path), logging.Error(err))
			batch.Failed = append(batch.Failed, path)
			continue
		}
		logger.Info("processed sprite transparency",
			logging.String("path", path),
			logging.Int("cleared", result.Cleared),
			logging.Int("pixels", result.Pixels()),
		)
		batch.Results = append(batch.Results, result)
	}
	return batch
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// ListImages returns the image files directly inside dir, sorted by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read image directory: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func decodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", path, err)
	}
	return img, format, nil
}
