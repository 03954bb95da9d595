// Package manifest records every generated output in a small SQLite
// database so repeat runs can skip inputs that have not changed.
//
// Each entry is keyed by output path and stores the hash of the input file
// and of the parameters that produced it. The schema is embedded; a database
// written by a different schema version is rejected with ErrSchemaMismatch
// and must be deleted.
package manifest
