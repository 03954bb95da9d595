// Package main hosts the lockbox CLI entrypoint and command graph.
//
// The Cobra-based command tree maps terminal invocations onto the internal
// show tooling: assembling the per-character tracks and lighting sequence,
// normalizing loudness, generating the firmware header, embedding assets into
// the web page, preparing sprites, chunking and drafting transcripts, and
// validating sequence files. It centralizes configuration resolution and
// logger setup so subcommands only wire flags to the internal packages.
package main
