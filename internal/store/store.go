package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stoprouter/internal/geo"
	"stoprouter/internal/model"
)

// SchemaVersion is stamped on every snapshot written by this build.
const SchemaVersion = 1

var (
	ErrNotFound       = errors.New("not found")
	ErrUnversioned    = errors.New("snapshot has no schema version")
	ErrSchemaMismatch = errors.New("snapshot schema version not supported")
	ErrCorrupt        = errors.New("snapshot is corrupt")
)

// Repository persists one snapshot per session id. Implementations replace
// the stored document atomically: a failed Save leaves the previous
// snapshot readable.
type Repository interface {
	Save(ctx context.Context, sessionID string, snap Snapshot) error
	// Load returns ErrNotFound when nothing is stored for sessionID.
	Load(ctx context.Context, sessionID string) (Snapshot, error)
	Clear(ctx context.Context, sessionID string) error
}

// Snapshot is the persisted form of a session.
type Snapshot struct {
	Version   int               `json:"version"`
	SavedAt   time.Time         `json:"savedAt"`
	Stops     []model.Stop      `json:"stops"`
	Path      []geo.Point       `json:"path"`
	Completed []string          `json:"completed"`
	Overrides map[string]string `json:"overrides"`
}

// Encode stamps the schema version and serializes snap.
func Encode(snap Snapshot) ([]byte, error) {
	snap.Version = SchemaVersion
	if snap.SavedAt.IsZero() {
		snap.SavedAt = time.Now().UTC()
	}
	return json.Marshal(snap)
}

// Decode parses and validates a stored document.
func Decode(b []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if snap.Version == 0 {
		return Snapshot{}, ErrUnversioned
	}
	if snap.Version != SchemaVersion {
		return Snapshot{}, fmt.Errorf("%w: got %d, want %d", ErrSchemaMismatch, snap.Version, SchemaVersion)
	}
	if err := snap.Validate(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Validate checks the route and ledger invariants.
func (s Snapshot) Validate() error {
	uids := make(map[string]struct{}, len(s.Stops))
	for i, st := range s.Stops {
		if st.UID == "" {
			return fmt.Errorf("%w: stop %d has no uid", ErrCorrupt, i)
		}
		if _, dup := uids[st.UID]; dup {
			return fmt.Errorf("%w: duplicate uid %s", ErrCorrupt, st.UID)
		}
		uids[st.UID] = struct{}{}
		if st.OrderIndex != i+1 {
			return fmt.Errorf("%w: stop %s has order index %d at position %d", ErrCorrupt, st.UID, st.OrderIndex, i+1)
		}
		if err := st.Point().Validate(); err != nil {
			return fmt.Errorf("%w: stop %s: %v", ErrCorrupt, st.UID, err)
		}
	}
	for _, uid := range s.Completed {
		if _, ok := uids[uid]; !ok {
			return fmt.Errorf("%w: completed uid %s not on route", ErrCorrupt, uid)
		}
	}
	return nil
}
