package services

import (
	"sync"

	"github.com/inkvault/backend/internal/models"
)

// LatestWindowSize is how many of the newest posts are held in process
const LatestWindowSize = 100

// latestWindow holds the newest posts, newest first. Every mutation bumps gen
// so a rebuild that raced a mutation can be discarded.
type latestWindow struct {
	mu    sync.RWMutex
	posts []models.Post
	gen   uint64
}

func newLatestWindow() *latestWindow {
	return &latestWindow{posts: make([]models.Post, 0, LatestWindowSize)}
}

func (w *latestWindow) generation() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.gen
}

func (w *latestWindow) size() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.posts)
}

// slice returns a copy of posts[skip:skip+limit]. A window shorter than
// skip+limit cannot answer; the store may hold posts it never saw.
func (w *latestWindow) slice(skip, limit int) ([]models.Post, bool) {
	end := skip + limit
	if skip < 0 || limit <= 0 || end > LatestWindowSize {
		return nil, false
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	if len(w.posts) < end {
		return nil, false
	}
	out := make([]models.Post, end-skip)
	copy(out, w.posts[skip:end])
	return out, true
}

// prepend puts a new post at the head and drops whatever falls past the size
func (w *latestWindow) prepend(post models.Post) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := len(w.posts)
	if n >= LatestWindowSize {
		n = LatestWindowSize - 1
	}
	next := make([]models.Post, 0, LatestWindowSize)
	next = append(next, post)
	next = append(next, w.posts[:n]...)
	w.posts = next
	w.gen++
	return len(w.posts)
}

// remove drops the post with id and reports whether it was present
func (w *latestWindow) remove(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.posts {
		if w.posts[i].ID == id {
			w.posts = append(w.posts[:i:i], w.posts[i+1:]...)
			w.gen++
			return true
		}
	}
	return false
}

// replace installs a rebuilt window unless the window changed since gen was read
func (w *latestWindow) replace(posts []models.Post, gen uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.gen != gen {
		return false
	}
	if len(posts) > LatestWindowSize {
		posts = posts[:LatestWindowSize]
	}
	next := make([]models.Post, len(posts), LatestWindowSize)
	copy(next, posts)
	w.posts = next
	w.gen++
	return true
}
