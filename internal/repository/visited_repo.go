package repository

import "context"

// SeenIndex is the persistence side of article deduplication.
type SeenIndex interface {
	// Claim records url as seen and reports whether this call inserted it.
	// It must be atomic: of several concurrent claims for the same url, exactly
	// one returns true.
	Claim(ctx context.Context, url string) (bool, error)
	// Exists checks whether url has been recorded.
	Exists(ctx context.Context, url string) (bool, error)
	// Release forgets url so a later run can process it again.
	Release(ctx context.Context, url string) error
}
