// Package preflight provides readiness checks for the external tools and
// filesystem paths a lockbox run depends on.
//
// The CLI "lockbox status" command renders every check; individual commands
// call RunAll before starting work so a missing narration file or unwritable
// output directory fails before any ffmpeg process is spawned.
package preflight
