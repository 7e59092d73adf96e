// Package comments keeps per-article comment threads in memory only. A thread
// starts from the sample comments and is lost on Reset or restart.
package comments

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pliu/newsportal/internal/metrics"
	"github.com/pliu/newsportal/internal/models"
)

const (
	GuestAuthor = "Гость"
	JustNow     = "Только что"
)

var ErrEmptyText = errors.New("comment text is empty")

// Samples seed every new thread.
func Samples() []models.Comment {
	return []models.Comment{
		{ID: 1, Author: "Анна Кузнецова", Text: "Невероятная новость! Интересно, когда это станет доступно широкой публике?", Date: "2 часа назад", Likes: 12},
		{ID: 2, Author: "Павел Морозов", Text: "Отличная статья, спасибо за информацию. Жду продолжения!", Date: "5 часов назад", Likes: 8},
	}
}

// Add prepends a guest comment. list is not modified.
func Add(list []models.Comment, id int64, text string) ([]models.Comment, models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return list, models.Comment{}, ErrEmptyText
	}
	c := models.Comment{
		ID:     id,
		Author: GuestAuthor,
		Text:   text,
		Date:   JustNow,
	}
	next := make([]models.Comment, 0, len(list)+1)
	next = append(next, c)
	next = append(next, list...)
	return next, c, nil
}

// Like bumps the likes of comment id by one. Unknown ids leave the list as is.
func Like(list []models.Comment, id int64) ([]models.Comment, bool) {
	i := slices.IndexFunc(list, func(c models.Comment) bool { return c.ID == id })
	if i < 0 {
		return list, false
	}
	next := slices.Clone(list)
	next[i].Likes++
	return next, true
}

type threadKey struct {
	profile string
	article int
}

// Registry holds the live threads, one per profile and article.
type Registry struct {
	mu      sync.Mutex
	threads map[threadKey][]models.Comment
	now     func() time.Time
	lastID  int64
}

func NewRegistry() *Registry {
	return &Registry{threads: make(map[threadKey][]models.Comment), now: time.Now}
}

// List returns the thread, newest first. An untouched thread reads as the
// samples and is not stored.
func (r *Registry) List(profileID string, articleID int) []models.Comment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.thread(threadKey{profileID, articleID}))
}

// Len reports how many threads are stored.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.threads)
}

func (r *Registry) Add(profileID string, articleID int, text string) (models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := threadKey{profileID, articleID}
	next, c, err := Add(r.thread(key), r.nextID(), text)
	if err != nil {
		return c, err
	}
	r.threads[key] = next
	metrics.IncComment("add")
	return c, nil
}

// Like reports whether the comment existed.
func (r *Registry) Like(profileID string, articleID int, commentID int64) (models.Comment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := threadKey{profileID, articleID}
	next, ok := Like(r.thread(key), commentID)
	if !ok {
		return models.Comment{}, false
	}
	r.threads[key] = next
	metrics.IncComment("like")
	i := slices.IndexFunc(next, func(c models.Comment) bool { return c.ID == commentID })
	return next[i], true
}

// Reset drops the thread, as remounting the article view does.
func (r *Registry) Reset(profileID string, articleID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.threads, threadKey{profileID, articleID})
}

// thread must be called with mu held. Callers store the result only when they
// change it.
func (r *Registry) thread(key threadKey) []models.Comment {
	if list, ok := r.threads[key]; ok {
		return list
	}
	return Samples()
}

// nextID must be called with mu held.
func (r *Registry) nextID() int64 {
	id := r.now().UnixMilli()
	if id <= r.lastID {
		id = r.lastID + 1
	}
	r.lastID = id
	return id
}
