// Package probe inspects media files with a single ffprobe JSON call and
// reduces the result to the metadata the cut and merge stages need.
package probe
