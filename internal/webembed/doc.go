// Package webembed inlines binary assets into the standalone HTML mini-games
// as base64 data URIs, so each game ships as a single file.
//
// Replace substitutes every occurrence of configured placeholders in an
// existing page. RenderTemplate executes a text/template with the encoded
// assets available by name.
package webembed
