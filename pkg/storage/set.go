package storage

import (
	"sort"
	"sync"

	"roparse/pkg/models"
)

// UserSet accumulates unique usernames and counts processed entries.
// All methods are safe for concurrent use.
type UserSet struct {
	mu        sync.Mutex
	users     map[string]struct{}
	processed int
}

// NewUserSet creates an empty set
func NewUserSet() *UserSet {
	return &UserSet{
		users: make(map[string]struct{}),
	}
}

// AddPage inserts the usernames of members and counts every entry as
// processed. It returns how many usernames were new and the set size.
func (s *UserSet) AddPage(members []models.Member) (added, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range members {
		if s.insert(m.Username) {
			added++
		}
	}
	s.processed += len(members)

	return added, len(s.users)
}

// AddPageUpTo behaves like AddPage but stops consuming entries once the set
// holds limit usernames. Only consumed entries count as processed. A limit
// of zero or less means no limit.
func (s *UserSet) AddPageUpTo(members []models.Member, limit int) (added, total int) {
	if limit <= 0 {
		return s.AddPage(members)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range members {
		if len(s.users) >= limit {
			break
		}
		if s.insert(m.Username) {
			added++
		}
		s.processed++
	}

	return added, len(s.users)
}

// insert adds a username; empty usernames are never stored
func (s *UserSet) insert(username string) bool {
	if username == "" {
		return false
	}
	if _, exists := s.users[username]; exists {
		return false
	}
	s.users[username] = struct{}{}
	return true
}

// SnapshotSorted returns the usernames in ascending byte order
func (s *UserSet) SnapshotSorted() []string {
	s.mu.Lock()
	usernames := make([]string, 0, len(s.users))
	for u := range s.users {
		usernames = append(usernames, u)
	}
	s.mu.Unlock()

	sort.Strings(usernames)
	return usernames
}

// Unique returns the number of distinct usernames
func (s *UserSet) Unique() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// Processed returns the number of entries seen, including duplicates and
// entries without a username
func (s *UserSet) Processed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed
}
