package search

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
)

// cursorVersion is bumped whenever the token layout changes so that tokens
// minted by an incompatible build are rejected instead of mis-parsed.
const cursorVersion = 1

// storeCursor is the resume position within one store's scan.
type storeCursor struct {
	// Token is the upstream listing token for the page to fetch next.
	Token string `json:"t,omitempty"`
	// TermIndex is the search term currently being scanned in phase 1.
	TermIndex int `json:"i,omitempty"`
	// Unfiltered is set once the scan has moved to the unfiltered phase,
	// either because no terms were given or as the phase-2 fallback.
	Unfiltered bool `json:"u,omitempty"`
	// Matched records whether phase 1 accepted anything; it decides whether
	// the phase-2 fallback runs.
	Matched bool `json:"m,omitempty"`
	// Scanned counts items examined, accepted or not.
	Scanned int `json:"s,omitempty"`
	// Done marks the store fully consumed (or excluded after a failure).
	Done bool `json:"d,omitempty"`
}

type cursorSet struct {
	Version int                     `json:"v"`
	Stores  map[string]*storeCursor `json:"c,omitempty"`
}

func newCursorSet() *cursorSet {
	return &cursorSet{Version: cursorVersion, Stores: make(map[string]*storeCursor)}
}

func (cs *cursorSet) get(storeId string) *storeCursor {
	if sc, ok := cs.Stores[storeId]; ok {
		return sc
	}
	sc := &storeCursor{}
	cs.Stores[storeId] = sc
	return sc
}

func (cs *cursorSet) encode() string {
	data, err := json.Marshal(cs)
	if err != nil {
		// Only reachable if the struct itself becomes unmarshalable.
		slog.Error("failed to encode continuation token", "error", err)
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// decodeCursorSet parses an external continuation token. Any malformed,
// truncated, or version-mismatched token yields a fresh cursor set so that
// pagination restarts from the beginning rather than failing the call.
func decodeCursorSet(token string) *cursorSet {
	if token == "" {
		return newCursorSet()
	}

	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		slog.Warn("invalid continuation token, restarting pagination", "error", err)
		return newCursorSet()
	}

	var cs cursorSet
	if err := json.Unmarshal(data, &cs); err != nil {
		slog.Warn("invalid continuation token, restarting pagination", "error", err)
		return newCursorSet()
	}
	if cs.Version != cursorVersion {
		slog.Warn("continuation token from incompatible version, restarting pagination", "token_version", cs.Version)
		return newCursorSet()
	}
	if cs.Stores == nil {
		cs.Stores = make(map[string]*storeCursor)
	}
	return &cs
}
