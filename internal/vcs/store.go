package vcs

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ErrNoSuchFile is returned when a GET names a path with no revisions at all.
var ErrNoSuchFile = fmt.Errorf("vcs: no such file")

// ErrNoSuchRevision is returned when a GET names a revision that does not
// exist for a path that does have at least one revision.
var ErrNoSuchRevision = fmt.Errorf("vcs: no such revision")

// ErrNotText is returned when a PUT body contains a byte outside the
// allowed text-content range.
var ErrNotText = fmt.Errorf("vcs: text files only")

// Store holds every path's revision history in memory. Revisions are
// 1-based and dense; a PUT whose content matches the latest revision is a
// no-op that returns the existing revision number.
type Store struct {
	mu    sync.RWMutex
	files map[string][][]byte // path -> revisions, index 0 is revision 1
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{files: make(map[string][][]byte)}
}

// ValidateContent checks every byte is 0x09, 0x0A, or in 0x20..0x7E.
func ValidateContent(data []byte) error {
	for _, b := range data {
		if b != 0x09 && b != 0x0A && !(b >= 0x20 && b <= 0x7E) {
			return ErrNotText
		}
	}
	return nil
}

// Put stores data as a new revision of path, unless it is byte-identical to
// the current latest revision, and returns the resulting revision number.
func (s *Store) Put(path string, data []byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	revs := s.files[path]
	if len(revs) > 0 && bytes.Equal(revs[len(revs)-1], data) {
		return len(revs)
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	s.files[path] = append(revs, cp)
	return len(s.files[path])
}

// Get returns the content of the given revision (1-based) for path.
// revSpec follows §4.3's GET grammar: "r<digits>" or "<digits>"; anything
// else parses to revision 0, per the design note preserved as-is. An empty
// revSpec means "latest".
func (s *Store) Get(path, revSpec string) ([]byte, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	revs := s.files[path]
	if len(revs) == 0 {
		return nil, 0, ErrNoSuchFile
	}

	if revSpec == "" {
		return revs[len(revs)-1], len(revs), nil
	}

	rev := parseRevSpec(revSpec)
	if rev < 1 || rev > len(revs) {
		return nil, 0, ErrNoSuchRevision
	}
	return revs[rev-1], rev, nil
}

// parseRevSpec accepts "r<digits>" or "<digits>"; anything else (including
// a bare "r" or non-numeric text) parses to 0, which Get then rejects as
// no-such-revision — preserved from the original source's behavior.
func parseRevSpec(spec string) int {
	digits := spec
	if strings.HasPrefix(spec, "r") {
		digits = spec[1:]
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// ListEntry is one line of a LIST response.
type ListEntry struct {
	Name    string
	IsDir   bool
	Rev     int
}

// List enumerates entries directly under dir (after normalizeDir's
// trailing-slash rule), collapsing deeper paths to their first segment
// tagged DIR, sorted lexicographically.
func (s *Store) List(dir string) []ListEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := normalizeDir(dir)
	if prefix == "/" {
		prefix = "/"
	}

	seen := make(map[string]ListEntry)
	for path, revs := range s.files {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || rest == "" {
			continue
		}
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			name := rest[:i]
			seen[name] = ListEntry{Name: name, IsDir: true}
		} else {
			seen[rest] = ListEntry{Name: rest, IsDir: false, Rev: len(revs)}
		}
	}

	entries := make([]ListEntry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}
