package overlay

import "errors"

// Commit errors. All of them are returned before any backend state is
// touched, and the stream is left as it was so the caller can inspect it.
var (
	// ErrInvalidTopology is returned when a batch's dimensionality is not 2.
	ErrInvalidTopology = errors.New("overlay: only 2D vertices are supported")

	// ErrArityMismatch is returned when texture coordinates were supplied
	// but their count differs from the vertex count.
	ErrArityMismatch = errors.New("overlay: texture coordinate count does not match vertex count")

	// ErrUnsupportedTopology is returned when the declared topology is not
	// one of the six recognized values.
	ErrUnsupportedTopology = errors.New("overlay: unsupported topology")

	// ErrNoTexture is returned when a textured batch is committed without a
	// texture bound to unit 0.
	ErrNoTexture = errors.New("overlay: textured batch has no bound texture")
)

// Stream sequencing errors.
var (
	// ErrNoBatch is returned when vertices or texture coordinates are
	// appended before BeginBatch.
	ErrNoBatch = errors.New("overlay: no batch in progress")

	// ErrBatchInProgress is returned when BeginBatch is called while the
	// previous batch still holds uncommitted vertices.
	ErrBatchInProgress = errors.New("overlay: previous batch not committed")
)
