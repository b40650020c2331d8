package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	dbm "github.com/cosmos/cosmos-db"
)

const dbName = "craps"

var stateKey = []byte("state")

// Store persists the whole State as one JSON value in a cosmos-db database
// under <home>/data.
type Store struct {
	db dbm.DB
}

func OpenStore(home string, backend dbm.BackendType) (*Store, error) {
	dir := filepath.Join(home, "data")
	if backend != dbm.MemDBBackend {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir data dir: %w", err)
		}
	}
	db, err := dbm.NewDB(dbName, backend, dir)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", backend, err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an already opened database.
func NewStore(db dbm.DB) *Store {
	return &Store{db: db}
}

// Load returns the saved state, or a fresh one if nothing was saved yet.
func (s *Store) Load() (*State, error) {
	b, err := s.db.Get(stateKey)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	if b == nil {
		return NewState(), nil
	}
	return decode(b)
}

func (s *Store) Save(st *State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.db.SetSync(stateKey, b); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
