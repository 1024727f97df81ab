package pipeline

// rotator cycles through API credentials. The cursor wraps modulo the list
// length, so a burst of rate limits walks the whole pool and comes back
// around. It is owned by a single job goroutine and needs no locking.
type rotator struct {
	keys   []string
	cursor int
}

func newRotator(keys []string) *rotator {
	return &rotator{keys: keys}
}

// Current returns the credential at the cursor.
func (r *rotator) Current() string {
	return r.keys[r.cursor%len(r.keys)]
}

// Advance moves to the next credential and returns it.
func (r *rotator) Advance() string {
	r.cursor++
	return r.Current()
}

// Len returns the pool size.
func (r *rotator) Len() int {
	return len(r.keys)
}
