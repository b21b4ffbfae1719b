package season

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vmunix/stash/internal/storage"
)

// StoreFile is the name of the season store in the documents directory.
const StoreFile = "season_downloads.plist"

const defaultPersistDebounce = 500 * time.Millisecond

// container is the on-disk layout of the season store.
type container struct {
	Groups   []Group   `plist:"groups"`
	Episodes []Episode `plist:"episodes"`
}

// Store holds season groups and episodes in memory and writes them behind a
// debounce: a burst of changes produces one write once the store has been
// quiet for the debounce interval.
type Store struct {
	docs     *storage.Documents
	debounce time.Duration
	log      *slog.Logger

	mu       sync.Mutex
	groups   map[string]Group
	episodes map[string]Episode
	timer    *time.Timer
	dirty    bool
	closed   bool

	writeMu sync.Mutex
	writes  int
}

// NewStore loads StoreFile from docs. A missing or unreadable file starts empty.
func NewStore(docs *storage.Documents, debounce time.Duration, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	if debounce <= 0 {
		debounce = defaultPersistDebounce
	}
	s := &Store{
		docs:     docs,
		debounce: debounce,
		log:      log.With("component", "season_store"),
		groups:   make(map[string]Group),
		episodes: make(map[string]Episode),
	}

	var c container
	if _, err := docs.LoadPlist(StoreFile, &c); err != nil {
		s.log.Error("reading season store, treating as empty", "error", err)
		return s
	}
	for _, g := range c.Groups {
		s.groups[g.ID] = g
	}
	for _, ep := range c.Episodes {
		s.episodes[ep.ID] = ep
	}
	return s
}

// Groups returns every group, oldest first.
func (s *Store) Groups() []Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedGroups()
}

func (s *Store) sortedGroups() []Group {
	out := make([]Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Group returns the group with id.
func (s *Store) Group(id string) (Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	return g, ok
}

// Episodes returns the episodes of a group ordered by number.
func (s *Store) Episodes(groupID string) []Episode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.episodesOf(groupID)
}

func (s *Store) episodesOf(groupID string) []Episode {
	var out []Episode
	for _, ep := range s.episodes {
		if ep.GroupID == groupID {
			out = append(out, ep)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Episode returns the episode with id.
func (s *Store) Episode(id string) (Episode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ep, ok := s.episodes[id]
	return ep, ok
}

// EpisodeByURL returns the episode downloading url.
func (s *Store) EpisodeByURL(url string) (Episode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ep := range s.episodes {
		if ep.URL == url {
			return ep, true
		}
	}
	return Episode{}, false
}

// Update runs fn with exclusive access to the group and its episodes, then
// recounts the group and schedules a write. fn returns false to discard.
func (s *Store) Update(groupID string, fn func(g *Group, eps []Episode) bool) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return Group{}, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	eps := s.episodesOf(groupID)
	if !fn(&g, eps) {
		return g, nil
	}
	for _, ep := range eps {
		s.episodes[ep.ID] = ep
	}
	recount(&g, s.episodesOf(groupID))
	s.groups[groupID] = g
	s.markDirty()
	return g, nil
}

// Insert adds a group and its episodes unless the group already exists.
// Episodes missing from an existing group are added. It reports whether the group was new.
func (s *Store) Insert(g Group, eps []Episode) (Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, found := s.groups[g.ID]
	if found {
		g = existing
	}
	for _, ep := range eps {
		if _, ok := s.episodes[ep.ID]; !ok {
			s.episodes[ep.ID] = ep
		}
	}
	recount(&g, s.episodesOf(g.ID))
	s.groups[g.ID] = g
	s.markDirty()
	return g, !found
}

// Delete removes a group and all of its episodes and returns the removed episodes.
func (s *Store) Delete(groupID string) ([]Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[groupID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	eps := s.episodesOf(groupID)
	for _, ep := range eps {
		delete(s.episodes, ep.ID)
	}
	delete(s.groups, groupID)
	s.markDirty()
	return eps, nil
}

// markDirty restarts the debounce timer. Callers hold s.mu.
func (s *Store) markDirty() {
	s.dirty = true
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		if err := s.Flush(); err != nil {
			s.log.Error("writing season store", "error", err)
		}
	})
}

// Flush writes pending changes now.
func (s *Store) Flush() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	c := container{
		Groups:   s.sortedGroups(),
		Episodes: make([]Episode, 0, len(s.episodes)),
	}
	for _, g := range c.Groups {
		c.Episodes = append(c.Episodes, s.episodesOf(g.ID)...)
	}
	s.dirty = false
	s.mu.Unlock()

	if err := s.docs.SavePlist(StoreFile, c); err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return fmt.Errorf("save season store: %w", err)
	}
	s.writes++
	return nil
}

// Writes returns how many times the store file has been written.
func (s *Store) Writes() int {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.writes
}

// Close writes pending changes and stops scheduling new writes.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Flush()
}
