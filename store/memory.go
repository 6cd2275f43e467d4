package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// IDSequence hands out post ids. It is called with the store lock held.
type IDSequence func() int64

// Counter returns a sequence starting at start, owned by the caller
func Counter(start int64) IDSequence {
	next := start
	return func() int64 {
		id := next
		next++
		return id
	}
}

// MemoryStore keeps posts in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	posts map[int64]*BlogPost
	next  IDSequence
	now   func() time.Time
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithIDSequence replaces the default per-store sequence starting at 1
func WithIDSequence(seq IDSequence) MemoryOption {
	return func(s *MemoryStore) { s.next = seq }
}

// WithMemoryClock replaces time.Now for created/updated timestamps
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		posts: make(map[int64]*BlogPost),
		next:  Counter(1),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create(_ context.Context, post *BlogPost) (*BlogPost, error) {
	if err := post.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := post.clone()
	stored.ID = s.next()
	now := s.now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.posts[stored.ID] = stored
	return stored.clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (*BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, postNotFound(id)
	}
	return post.clone(), nil
}

// GetBySlug returns the lowest-id post with the slug
func (s *MemoryStore) GetBySlug(_ context.Context, slug string) (*BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *BlogPost
	for _, post := range s.posts {
		if post.Slug == slug && (found == nil || post.ID < found.ID) {
			found = post
		}
	}
	if found == nil {
		return nil, slugNotFound(slug)
	}
	return found.clone(), nil
}

// List returns all posts ordered by id
func (s *MemoryStore) List(_ context.Context) ([]*BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*BlogPost, 0, len(s.posts))
	for _, post := range s.posts {
		posts = append(posts, post.clone())
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts, nil
}

func (s *MemoryStore) UpdateSEO(_ context.Context, id int64, update SEOUpdate) (*BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, postNotFound(id)
	}

	update.apply(post)
	post.UpdatedAt = s.now().UTC()
	return post.clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return postNotFound(id)
	}
	delete(s.posts, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
