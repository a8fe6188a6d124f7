// Package media implements the engine-backed operations: stream-copy
// segment cutting, intro merging with a copy→re-encode fallback and live
// progress, compression to a quality/codec profile, and saving results.
package media
