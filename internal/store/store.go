// Package store persists traveler profiles, guide profiles, and conversation
// transcripts as JSON files under a single data directory. One file per
// record; a save fully overwrites the prior value.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"tripnegotiator/internal/trip"
)

// ErrNotFound reports a missing traveler or guide record. Missing
// conversations are not an error; they read back as an empty transcript.
var ErrNotFound = errors.New("store: record not found")

const guideCacheSize = 128

// Store is the on-disk record store. Guide records are read every
// coordinator round, so decoded guides sit behind a small LRU that is
// invalidated on save.
type Store struct {
	dir    string
	guides *lru.Cache[string, trip.GuideProfile]
}

func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("store: empty data directory")
	}
	cache, err := lru.New[string, trip.GuideProfile](guideCacheSize)
	if err != nil {
		return nil, err
	}
	for _, kind := range []string{"traveler", "guide", "conversation"} {
		if err := os.MkdirAll(filepath.Join(dir, kind), 0o755); err != nil {
			return nil, err
		}
	}
	return &Store{dir: dir, guides: cache}, nil
}

// Clear wipes every record of every kind and recreates the directory
// skeleton. Used at the start of a fresh-collection run.
func (s *Store) Clear() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return err
	}
	s.guides.Purge()
	for _, kind := range []string{"traveler", "guide", "conversation"} {
		if err := os.MkdirAll(filepath.Join(s.dir, kind), 0o755); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) path(kind, id string) string {
	return filepath.Join(s.dir, kind, id+".json")
}

// writeJSON writes via a temp file and rename so a crash mid-write never
// leaves a truncated record behind.
func (s *Store) writeJSON(kind, id string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	p := s.path(kind, id)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func (s *Store) readJSON(kind, id string, v any) error {
	data, err := os.ReadFile(s.path(kind, id))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
		}
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *Store) SaveTraveler(p *trip.TravelerProfile) error {
	if p == nil || p.ID == "" {
		return errors.New("store: traveler profile without id")
	}
	return s.writeJSON("traveler", p.ID, p)
}

func (s *Store) LoadTraveler(id string) (*trip.TravelerProfile, error) {
	var p trip.TravelerProfile
	if err := s.readJSON("traveler", id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) SaveGuide(g *trip.GuideProfile) error {
	if g == nil || g.ID == "" {
		return errors.New("store: guide profile without id")
	}
	if err := s.writeJSON("guide", g.ID, g); err != nil {
		return err
	}
	s.guides.Remove(g.ID)
	return nil
}

func (s *Store) LoadGuide(id string) (*trip.GuideProfile, error) {
	// Callers get a deep copy so the cached entry's maps and lists stay
	// out of reach.
	if g, ok := s.guides.Get(id); ok {
		return g.Clone(), nil
	}
	var g trip.GuideProfile
	if err := s.readJSON("guide", id, &g); err != nil {
		return nil, err
	}
	s.guides.Add(id, g)
	return g.Clone(), nil
}

// LoadAllGuides returns every guide record. No ordering guarantee.
func (s *Store) LoadAllGuides() ([]*trip.GuideProfile, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, "guide"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []*trip.GuideProfile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		g, err := s.LoadGuide(strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *Store) SaveConversation(id string, msgs []trip.Message) error {
	if id == "" {
		return errors.New("store: conversation without id")
	}
	if msgs == nil {
		msgs = []trip.Message{}
	}
	return s.writeJSON("conversation", id, msgs)
}

// LoadConversation returns the transcript for id, or an empty transcript
// when none has been written yet.
func (s *Store) LoadConversation(id string) ([]trip.Message, error) {
	var msgs []trip.Message
	if err := s.readJSON("conversation", id, &msgs); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return msgs, nil
}
