// Package firmware converts audio clips into a C header of PROGMEM byte
// arrays for the lockbox microcontroller.
package firmware

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"lockbox/internal/fileutil"
	"lockbox/internal/logging"
)

const bytesPerLine = 16

// Asset is one clip embedded in the header.
type Asset struct {
	FileName string
	Var      string
	Data     []byte
}

// Options configure header generation.
type Options struct {
	SourceDir    string
	HeaderPath   string
	IncludeGuard string
}

// Result describes a generated header.
type Result struct {
	HeaderPath string
	Assets     []Asset
	TotalBytes int
}

// VarName derives a C identifier from a file name: lower-cased, spaces and
// dots become underscores, accents are folded, any other character outside
// [a-z0-9_] becomes an underscore, and a leading digit gets a "_" prefix.
func VarName(fileName string) string {
	name := strings.ToLower(fileName)
	name = strings.NewReplacer(" ", "_", ".", "_").Replace(name)
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err == nil {
		name = folded
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	ident := b.String()
	if ident == "" || (ident[0] >= '0' && ident[0] <= '9') {
		ident = "_" + ident
	}
	return ident
}

// Collect reads every *.mp3 in dir, sorted by file name. Colliding
// identifiers get a numeric suffix.
func Collect(dir string) ([]Asset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".mp3") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	taken := make(map[string]bool, len(names))
	assets := make([]Asset, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		ident := uniqueIdent(taken, VarName(name))
		assets = append(assets, Asset{FileName: name, Var: ident, Data: data})
	}
	return assets, nil
}

// uniqueIdent returns base, or base with the smallest numeric suffix from 2
// up that is not yet taken, and marks the result as taken.
func uniqueIdent(taken map[string]bool, base string) string {
	ident := base
	for n := 2; taken[ident]; n++ {
		ident = fmt.Sprintf("%s_%d", base, n)
	}
	taken[ident] = true
	return ident
}

// Render writes the header for assets.
func Render(w io.Writer, guard string, assets []Asset) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#ifndef %s\n#define %s\n\n", guard, guard)
	bw.WriteString("#include <pgmspace.h>\n\n")
	for _, asset := range assets {
		fmt.Fprintf(bw, "// %s (%d bytes)\n", asset.FileName, len(asset.Data))
		fmt.Fprintf(bw, "const uint8_t %s[] PROGMEM = {\n", asset.Var)
		for i, value := range asset.Data {
			if i%bytesPerLine == 0 {
				bw.WriteString("  ")
			}
			fmt.Fprintf(bw, "0x%02x,", value)
			if i%bytesPerLine == bytesPerLine-1 {
				bw.WriteByte('\n')
			}
		}
		if len(asset.Data)%bytesPerLine != 0 {
			bw.WriteByte('\n')
		}
		bw.WriteString("};\n")
		fmt.Fprintf(bw, "const unsigned int %s_len = %d;\n\n", asset.Var, len(asset.Data))
	}
	bw.WriteString("#endif\n")
	return bw.Flush()
}

// Generate collects the clips in opts.SourceDir and writes the header.
func Generate(opts Options, logger *slog.Logger) (*Result, error) {
	logger = logging.NewComponentLogger(logger, "firmware")
	guard := strings.TrimSpace(opts.IncludeGuard)
	if guard == "" {
		guard = "AUDIO_ASSETS_H"
	}
	logger.Info("scanning clips", logging.String("dir", opts.SourceDir))
	assets, err := Collect(opts.SourceDir)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := Render(&buf, guard, assets); err != nil {
		return nil, fmt.Errorf("render header: %w", err)
	}
	if err := fileutil.WriteFileAtomic(opts.HeaderPath, buf.Bytes(), 0o644); err != nil {
		return nil, err
	}

	result := &Result{HeaderPath: opts.HeaderPath, Assets: assets}
	for _, asset := range assets {
		result.TotalBytes += len(asset.Data)
		logger.Info("embedded clip",
			logging.String("file", asset.FileName),
			logging.String("var", asset.Var),
			logging.Int("bytes", len(asset.Data)),
		)
	}
	logger.Info("header generated",
		logging.String("path", opts.HeaderPath),
		logging.Int("clips", len(assets)),
	)
	return result, nil
}
