package session

import "sync"

// TokenLen is the number of random bytes in a capability token.
const TokenLen = 32

// Tracker remembers, per capability token, the set of report ids created
// through that token. It is a capability store, not an identity system:
// whoever presents the token holds the delete rights. Entries live only for
// the process lifetime; a lost token permanently forfeits its reports.
type Tracker struct {
	mu    sync.Mutex
	owned map[string]map[int]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{owned: map[string]map[int]struct{}{}}
}

// Register adds reportID to the token's set. Re-registering an id is harmless.
func (t *Tracker) Register(token string, reportID int) {
	if token == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.owned[token]
	if !ok {
		set = map[int]struct{}{}
		t.owned[token] = set
	}
	set[reportID] = struct{}{}
}

// CanDelete reports whether the token created reportID. A token with no
// entries at all yields false.
func (t *Tracker) CanDelete(token string, reportID int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.owned[token][reportID]
	return ok
}

// Release drops reportID from the token's set after a successful deletion.
func (t *Tracker) Release(token string, reportID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.owned[token]
	if !ok {
		return
	}
	delete(set, reportID)
	if len(set) == 0 {
		delete(t.owned, token)
	}
}
