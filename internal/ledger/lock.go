package ledger

import "sync"

var (
	locksMu sync.Mutex
	locks   = map[string]*sync.Mutex{}
)

// Lock acquires the process-wide mutex for a ledger storage key and returns
// the matching unlock function. The gate check, dispatch and commit of one
// run happen under this lock so that a reused process (a warm Lambda
// container, a test running several runs) never interleaves two
// read-modify-write sequences on the same file. It does not protect against
// other processes.
func Lock(key string) (unlock func()) {
	locksMu.Lock()
	mu, ok := locks[key]
	if !ok {
		mu = &sync.Mutex{}
		locks[key] = mu
	}
	locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}
