package devserver

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/cinemaclub/internal/client/models"
	"github.com/dmitrijs2005/cinemaclub/internal/common"
)

type userRecord struct {
	models.User
	PasswordHash []byte
}

type refreshRecord struct {
	UserID  int64
	Expires time.Time
}

type mediaRecord struct {
	models.Media
	Popularity int
	ComingSoon bool
}

// Repository keeps users, refresh tokens and the catalog in memory.
type Repository struct {
	mu       sync.RWMutex
	nextID   int64
	users    map[int64]*userRecord
	byEmail  map[string]int64
	refresh  map[string]refreshRecord
	media    []mediaRecord
	clubs    []models.CinemaClub
	timeFunc func() time.Time
}

func NewRepository() *Repository {
	return &Repository{
		nextID:   1,
		users:    map[int64]*userRecord{},
		byEmail:  map[string]int64{},
		refresh:  map[string]refreshRecord{},
		media:    seedMedia(),
		clubs:    seedClubs(),
		timeFunc: time.Now,
	}
}

func normEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *Repository) CreateUser(_ context.Context, u *userRecord) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normEmail(u.Email)
	if _, ok := r.byEmail[key]; ok {
		return nil, common.ErrorAlreadyExists
	}

	u.UserID = r.nextID
	u.CreatedAt = r.timeFunc().UTC()
	r.nextID++
	r.users[u.UserID] = u
	r.byEmail[key] = u.UserID

	out := u.User
	return &out, nil
}

func (r *Repository) UserByEmail(_ context.Context, email string) (*userRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normEmail(email)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r.users[id]
	return &cp, nil
}

func (r *Repository) User(_ context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := u.User
	return &out, nil
}

// UpdateUser applies fn to the stored user and returns the result.
func (r *Repository) UpdateUser(_ context.Context, id int64, fn func(*models.User)) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	fn(&u.User)
	out := u.User
	return &out, nil
}

func (r *Repository) CreateRefreshToken(_ context.Context, userID int64, token string, validity time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refresh[token] = refreshRecord{UserID: userID, Expires: r.timeFunc().Add(validity)}
	return nil
}

// TakeRefreshToken removes token and returns its owner. A token can be
// taken once.
func (r *Repository) TakeRefreshToken(_ context.Context, token string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.refresh[token]
	if !ok {
		return 0, common.ErrInvalidToken
	}
	delete(r.refresh, token)

	if rec.Expires.Before(r.timeFunc()) {
		return 0, common.ErrRefreshTokenExpired
	}
	return rec.UserID, nil
}

func (r *Repository) DeleteRefreshToken(_ context.Context, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.refresh, token)
}

// ListMedia filters the catalog. total is the match count before paging.
func (r *Repository) ListMedia(_ context.Context, f models.MediaFilters) (items []models.Media, total int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(f.Search)
	var out []models.Media
	for _, m := range r.media {
		if m.ComingSoon {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		if f.Year > 0 && m.ReleaseYear != f.Year {
			continue
		}
		if f.Animation != nil && m.IsAnimation != *f.Animation {
			continue
		}
		if f.Genre != "" && !hasGenre(m.Genres, f.Genre) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(m.Title), search) {
			continue
		}
		out = append(out, m.Media)
	}

	total = len(out)
	return page(out, f.Offset, f.Limit), total
}

func (r *Repository) MediaByID(_ context.Context, id string) (*models.Media, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.media {
		if m.MediaID == id {
			out := m.Media
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

// Popular returns released media by popularity.
func (r *Repository) Popular(_ context.Context, limit int) []models.Media {
	return r.sorted(limit, false, func(a, b mediaRecord) bool { return a.Popularity > b.Popularity })
}

// Newest returns released media, newest first.
func (r *Repository) Newest(_ context.Context, limit int) []models.Media {
	return r.sorted(limit, false, func(a, b mediaRecord) bool { return a.ReleaseYear > b.ReleaseYear })
}

func (r *Repository) ComingSoon(_ context.Context, limit int) []models.Media {
	return r.sorted(limit, true, func(a, b mediaRecord) bool { return a.Title < b.Title })
}

func (r *Repository) sorted(limit int, comingSoon bool, less func(a, b mediaRecord) bool) []models.Media {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs := make([]mediaRecord, 0, len(r.media))
	for _, m := range r.media {
		if m.ComingSoon == comingSoon {
			recs = append(recs, m)
		}
	}
	sort.SliceStable(recs, func(i, j int) bool { return less(recs[i], recs[j]) })

	out := make([]models.Media, 0, len(recs))
	for _, m := range recs {
		out = append(out, m.Media)
	}
	return page(out, 0, limit)
}

func (r *Repository) Clubs(_ context.Context, t models.ClubType, limit int) []models.CinemaClub {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.CinemaClub
	for _, c := range r.clubs {
		if t != "" && c.Type != t {
			continue
		}
		out = append(out, c)
	}
	return page(out, 0, limit)
}

func (r *Repository) Club(_ context.Context, id int64) (*models.CinemaClub, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.clubs {
		if c.ClubID == id {
			out := c
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func hasGenre(genres []string, genre string) bool {
	for _, g := range genres {
		if strings.EqualFold(g, genre) {
			return true
		}
	}
	return false
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
