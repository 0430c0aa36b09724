package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/mediashelf/internal/common"
	"github.com/dmitrijs2005/mediashelf/internal/dbx"
	"github.com/dmitrijs2005/mediashelf/internal/server/models"
	mediarepo "github.com/dmitrijs2005/mediashelf/internal/server/repositories/media"
	usersrepo "github.com/dmitrijs2005/mediashelf/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// fakeUsersRepo keeps users in memory keyed by id.
type fakeUsersRepo struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	nextID  int
	created int

	getErr    error
	createErr error
}

func newFakeUsersRepo(users ...*models.User) *fakeUsersRepo {
	r := &fakeUsersRepo{byID: map[string]*models.User{}}
	for _, u := range users {
		r.byID[u.ID] = u
	}
	return r
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email || existing.UserName == u.UserName {
			return nil, fmt.Errorf("%w: users_email_key", common.ErrorAlreadyExists)
		}
	}
	f.nextID++
	f.created++
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	u.CreatedAt = time.Now()
	cp := *u
	f.byID[u.ID] = &cp
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

// fakeMediaRepo keeps items in memory keyed by id.
type fakeMediaRepo struct {
	mu      sync.Mutex
	items   map[string]*models.MediaItem
	nextID  int
	updates int
	deletes int
	lookups int
	locked  int
	search  int

	createErr error
	getErr    error
	updateErr error
	deleteErr error
	searchErr error
	nilSearch bool
}

func newFakeMediaRepo(items ...*models.MediaItem) *fakeMediaRepo {
	r := &fakeMediaRepo{items: map[string]*models.MediaItem{}}
	for _, it := range items {
		r.items[it.ID] = it
	}
	return r
}

func clone(it *models.MediaItem) *models.MediaItem {
	cp := *it
	cp.Formats = append([]string(nil), it.Formats...)
	return &cp
}

func (f *fakeMediaRepo) Create(ctx context.Context, it *models.MediaItem) (*models.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	it.ID = fmt.Sprintf("media-%d", f.nextID)
	it.CreatedAt = time.Date(2024, 1, 1, 0, f.nextID, 0, 0, time.UTC)
	it.UpdatedAt = it.CreatedAt
	f.items[it.ID] = clone(it)
	return it, nil
}

func (f *fakeMediaRepo) get(id string) (*models.MediaItem, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	it, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(it), nil
}

func (f *fakeMediaRepo) GetByID(ctx context.Context, id string) (*models.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	return f.get(id)
}

func (f *fakeMediaRepo) GetForUpdate(ctx context.Context, id string) (*models.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locked++
	return f.get(id)
}

func (f *fakeMediaRepo) Update(ctx context.Context, it *models.MediaItem) (*models.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	stored, ok := f.items[it.ID]
	if !ok || stored.OwnerID != it.OwnerID {
		return nil, common.ErrorNotFound
	}
	it.UpdatedAt = stored.UpdatedAt.Add(time.Minute)
	f.items[it.ID] = clone(it)
	return it, nil
}

func (f *fakeMediaRepo) Delete(ctx context.Context, id, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	stored, ok := f.items[id]
	if !ok || stored.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeMediaRepo) Search(ctx context.Context, ownerID string, t models.MediaType, term string) ([]*models.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.search++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.nilSearch {
		return nil, nil
	}
	term = strings.ToLower(term)
	out := []*models.MediaItem{}
	for _, it := range f.items {
		if it.OwnerID != ownerID || it.Type != t {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(it.Title), term) &&
			!strings.Contains(strings.ToLower(it.Creator), term) &&
			!strings.Contains(strings.ToLower(it.Genre), term) {
			continue
		}
		out = append(out, clone(it))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	m *fakeMediaRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository      { return m.u }
func (m *fakeRepoManager) Media(db dbx.DBTX) mediarepo.Repository      { return m.m }

// fakeCache records calls; it stores entries in a map.
type fakeCache struct {
	mu          sync.Mutex
	entries     map[string][]*models.MediaItem
	gen         map[string]int
	invalidated []string

	keyErr error
	getErr error
	putErr error
	invErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]*models.MediaItem{}, gen: map[string]int{}}
}

func (c *fakeCache) SearchKey(ctx context.Context, ownerID string, t models.MediaType, term string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keyErr != nil {
		return "", c.keyErr
	}
	return fmt.Sprintf("%s:%d:%s:%s", ownerID, c.gen[ownerID], t, strings.ToLower(term)), nil
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]*models.MediaItem, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	items, ok := c.entries[key]
	return items, ok, nil
}

func (c *fakeCache) Put(ctx context.Context, key string, items []*models.MediaItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.putErr != nil {
		return c.putErr
	}
	c.entries[key] = items
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, ownerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, ownerID)
	if c.invErr != nil {
		return c.invErr
	}
	c.gen[ownerID]++
	return nil
}
