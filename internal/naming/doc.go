// Package naming chooses output paths: collision-free sequential names in a
// target directory, sanitized user-supplied base names, and time-ordered
// uniqueness tokens for merge outputs.
//
// Files:
//   - outputpath.go: canonical extension, directory resolution, candidate search
//   - collision.go: Namer, the in-process reservation table
//   - sanitize.go: base name cleanup
//   - token.go: ULID tokens and merged output names
package naming
