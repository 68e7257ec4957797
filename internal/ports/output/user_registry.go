package output

import "context"

// UserRegistry interface - Output port
// Persisted set of sender ids, used by /start and /broadcast
type UserRegistry interface {
	// Register adds id. Registering an existing id is not an error.
	Register(ctx context.Context, id int64) error

	// ListAll returns every registered id in ascending order
	ListAll(ctx context.Context) ([]int64, error)

	// Ping checks the backing store is reachable
	Ping(ctx context.Context) error
}
