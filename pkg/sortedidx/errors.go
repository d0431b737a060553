package sortedidx

import "errors"

// Error classification. Callers classify with errors.Is; implementations
// may wrap these with additional context via fmt.Errorf("...: %w", ...).
var (
	// ErrNotFound means the lookup exhausted every base without a match.
	// Normal outcome, not logged.
	ErrNotFound = errors.New("sortedidx: not found")

	// ErrDeadlock means a lookup observed more than maxLookupRetries
	// invalidated bases in a row.
	ErrDeadlock = errors.New("sortedidx: deadlock: too many invalidated bases")

	// ErrCorruptFatal means block-table construction hit corruption at a
	// block boundary or exceeded the corruption threshold. The base is
	// left unindexed and must be repaired offline.
	ErrCorruptFatal = errors.New("sortedidx: corrupt: fatal")

	// ErrIOError wraps pread/mmap/preallocate/msync/rename/fstat failures.
	ErrIOError = errors.New("sortedidx: io error")

	// ErrNoMemory means allocation failed for a block table or Bloom bits.
	ErrNoMemory = errors.New("sortedidx: no memory")

	// ErrInvalidInput signals a caller-supplied argument violates a
	// documented precondition (not part of the spec's taxonomy, but
	// needed at API boundaries the same way the teacher's packages use
	// ErrInvalidInput).
	ErrInvalidInput = errors.New("sortedidx: invalid input")
)
