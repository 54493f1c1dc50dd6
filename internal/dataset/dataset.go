// Package dataset holds the in-memory record set for the session. Records are
// written once per load as a whole-slice replacement and never mutated in
// place, so concurrent readers always observe either the old or the fully new
// data.
package dataset

import (
	"os"
	"sort"
	"strings"
	"sync"

	"groundwater-platform/internal/models"
	"groundwater-platform/internal/normalize"
)

// Store is the shared in-memory dataset.
type Store struct {
	mu       sync.RWMutex
	records  []models.Record
	states   []string
	loadGen  uint64 // last generation handed out
	applied  uint64 // generation of the data currently installed
	source   string
	defects  int
	rowCount int
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// BeginLoad reserves a load generation. A slow load whose generation has been
// superseded by a newer Replace is discarded instead of overwriting fresher
// data.
func (s *Store) BeginLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadGen++
	return s.loadGen
}

// Replace installs a new record set for the given generation. It reports
// false, leaving the store untouched, when a newer load already landed.
func (s *Store) Replace(gen uint64, records []models.Record, source string, defects int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen <= s.applied {
		return false
	}
	s.applied = gen
	s.records = records
	s.states = collectStates(records)
	s.source = source
	s.defects = defects
	s.rowCount = len(records)
	return true
}

// Append adds records to the current set without replacing it (upload in
// append mode). The combined slice is rebuilt, not mutated in place.
func (s *Store) Append(records []models.Record, defects int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	combined := make([]models.Record, 0, len(s.records)+len(records))
	combined = append(combined, s.records...)
	combined = append(combined, records...)
	s.records = combined
	s.states = collectStates(combined)
	s.defects += defects
	s.rowCount = len(combined)
}

// Snapshot returns the current record slice. Callers must treat it as
// read-only; the store never mutates a slice it has handed out.
func (s *Store) Snapshot() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records
}

// States returns the canonical state names, sorted.
func (s *Store) States() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states
}

// Len reports the number of loaded records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rowCount
}

// Defects reports how many loaded rows were missing core fields.
func (s *Store) Defects() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defects
}

// Source reports where the current data came from.
func (s *Store) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

func collectStates(records []models.Record) []string {
	seen := make(map[string]string, 40)
	for i := range records {
		st := records[i].State
		if st == "" {
			continue
		}
		key := strings.ToLower(st)
		if _, ok := seen[key]; !ok {
			seen[key] = st
		}
	}
	states := make([]string, 0, len(seen))
	for _, st := range seen {
		states = append(states, st)
	}
	sort.Strings(states)
	return states
}

// LoadCSVFile loads the first existing path from candidates into the store.
// Returns the chosen path. All candidates missing is an error carried back to
// the caller; the store is left as it was.
func (s *Store) LoadCSVFile(candidates ...string) (string, error) {
	var path string
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			path = p
			break
		}
	}
	if path == "" {
		return "", &models.NotFoundError{Resource: "csv file", ID: strings.Join(candidates, ", ")}
	}

	gen := s.BeginLoad()
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	batch, err := normalize.ReadCSV(f)
	if err != nil {
		return "", err
	}
	s.Replace(gen, batch.Records, path, batch.DefectiveRows)
	return path, nil
}
