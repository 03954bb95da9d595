package webembed

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"lockbox/internal/fileutil"
)

var knownTypes = map[string]string{
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".webp":  "image/webp",
	".mp3":   "audio/mpeg",
	".wav":   "audio/wav",
	".ogg":   "audio/ogg",
	".json":  "application/json",
	".woff2": "font/woff2",
}

// MIMEType returns the media type for a file name, without parameters.
func MIMEType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := knownTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if media, _, err := mime.ParseMediaType(t); err == nil {
			return media
		}
		return t
	}
	return "application/octet-stream"
}

// Asset is an encoded file.
type Asset struct {
	Name    string
	MIME    string
	Base64  string
	DataURI string
	Size    int
}

// LoadAsset reads and encodes the file at path.
func LoadAsset(path string) (Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Asset{}, fmt.Errorf("read asset: %w", err)
	}
	mimeType := MIMEType(path)
	encoded := base64.StdEncoding.EncodeToString(data)
	return Asset{
		Name:    filepath.Base(path),
		MIME:    mimeType,
		Base64:  encoded,
		DataURI: "data:" + mimeType + ";base64," + encoded,
		Size:    len(data),
	}, nil
}

// Replacement reports how one placeholder was substituted.
type Replacement struct {
	Placeholder string
	File        string
	Count       int
}

// Replace substitutes every occurrence of each placeholder in content with
// the data URI of its asset. assets maps placeholder to file path; relative
// paths resolve against assetsDir. Placeholders are applied longest first so
// a placeholder that prefixes another cannot clobber it.
func Replace(content string, assets map[string]string, assetsDir string) (string, []Replacement, error) {
	placeholders := make([]string, 0, len(assets))
	for placeholder := range assets {
		if placeholder == "" {
			return "", nil, errors.New("empty placeholder")
		}
		placeholders = append(placeholders, placeholder)
	}
	sort.Slice(placeholders, func(i, j int) bool {
		if len(placeholders[i]) != len(placeholders[j]) {
			return len(placeholders[i]) > len(placeholders[j])
		}
		return placeholders[i] < placeholders[j]
	})

	replacements := make([]Replacement, 0, len(placeholders))
	for _, placeholder := range placeholders {
		file := assets[placeholder]
		if !filepath.IsAbs(file) {
			file = filepath.Join(assetsDir, file)
		}
		asset, err := LoadAsset(file)
		if err != nil {
			return "", nil, fmt.Errorf("placeholder %q: %w", placeholder, err)
		}
		count := strings.Count(content, placeholder)
		content = strings.ReplaceAll(content, placeholder, asset.DataURI)
		replacements = append(replacements, Replacement{Placeholder: placeholder, File: file, Count: count})
	}
	sort.Slice(replacements, func(i, j int) bool { return replacements[i].Placeholder < replacements[j].Placeholder })
	return content, replacements, nil
}

// ReplaceFile runs Replace over the page at htmlPath and writes the result
// to outputPath (htmlPath itself when outputPath is empty).
func ReplaceFile(htmlPath, outputPath string, assets map[string]string, assetsDir string) ([]Replacement, error) {
	data, err := os.ReadFile(htmlPath)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	content, replacements, err := Replace(string(data), assets, assetsDir)
	if err != nil {
		return nil, err
	}
	if outputPath == "" {
		outputPath = htmlPath
	}
	if err := fileutil.WriteFileAtomic(outputPath, []byte(content), 0o644); err != nil {
		return nil, err
	}
	return replacements, nil
}

// TemplateData is passed to page templates.
type TemplateData struct {
	// Assets is keyed by the asset name, e.g. "elf_sheet".
	Assets map[string]Asset
}

// RenderTemplate executes the template at templatePath with assets (name to
// file path, relative to assetsDir) and writes the page to outputPath.
func RenderTemplate(templatePath, outputPath string, assets map[string]string, assetsDir string) error {
	raw, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	tmpl, err := template.New(filepath.Base(templatePath)).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	data := TemplateData{Assets: make(map[string]Asset, len(assets))}
	for name, file := range assets {
		if !filepath.IsAbs(file) {
			file = filepath.Join(assetsDir, file)
		}
		asset, err := LoadAsset(file)
		if err != nil {
			return fmt.Errorf("asset %q: %w", name, err)
		}
		data.Assets[name] = asset
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return fmt.Errorf("render template: %w", err)
	}
	return fileutil.WriteFileAtomic(outputPath, out.Bytes(), 0o644)
}
