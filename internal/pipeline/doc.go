// Package pipeline runs a batch of segment requests against one source:
// cut, optionally prepend an intro, optionally compress, one segment at a
// time, recording one result per request.
package pipeline
