package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"brokerscope/internal/models"
	"brokerscope/internal/regulator"
	"brokerscope/internal/store"
	"brokerscope/internal/websearch"
)

var errBoom = errors.New("boom")

// --- brokers ---

type fakeBrokers struct {
	mu      sync.Mutex
	items   []models.Broker
	listErr error
}

func (f *fakeBrokers) add(b models.Broker) models.Broker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Date(2026, 1, 1, 0, 0, len(f.items), 0, time.UTC)
	}
	f.items = append(f.items, b)
	return b
}

func (f *fakeBrokers) filter(flt store.BrokerFilter) []models.Broker {
	var out []models.Broker
	for _, b := range f.items {
		if flt.Query != "" && !strings.Contains(strings.ToLower(b.Name), strings.ToLower(flt.Query)) {
			continue
		}
		if flt.Country != "" && !strings.EqualFold(b.Country, flt.Country) {
			continue
		}
		if flt.Asset != "" && !b.SupportsAsset(flt.Asset) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func (f *fakeBrokers) List(_ context.Context, flt store.BrokerFilter) ([]models.Broker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := f.filter(flt)
	if flt.Offset >= len(out) {
		return []models.Broker{}, nil
	}
	out = out[flt.Offset:]
	if flt.Limit > 0 && len(out) > flt.Limit {
		out = out[:flt.Limit]
	}
	return out, nil
}

func (f *fakeBrokers) Count(_ context.Context, flt store.BrokerFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.filter(flt)), nil
}

func (f *fakeBrokers) ListAll(_ context.Context) ([]models.Broker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Broker(nil), f.items...), nil
}

func (f *fakeBrokers) ListForQuiz(_ context.Context, maxDeposit *decimal.Decimal, assets []string) ([]models.Broker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Broker
	for _, b := range f.items {
		if maxDeposit != nil && b.MinDeposit.GreaterThan(*maxDeposit) {
			continue
		}
		ok := len(assets) == 0
		for _, a := range assets {
			if b.SupportsAsset(a) {
				ok = true
			}
		}
		if ok {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RatingValue() > out[j].RatingValue() })
	return out, nil
}

func (f *fakeBrokers) FindBySlug(_ context.Context, slug string) (*models.Broker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.items {
		if b.Slug == slug {
			return &b, nil
		}
	}
	return nil, nil
}

func (f *fakeBrokers) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.items {
		if b.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBrokers) SlugTaken(ctx context.Context, slug string) (bool, error) {
	b, _ := f.FindBySlug(ctx, slug)
	return b != nil, nil
}

func (f *fakeBrokers) Create(_ context.Context, b *models.Broker) (*models.Broker, error) {
	created := f.add(*b)
	return &created, nil
}

func (f *fakeBrokers) Update(_ context.Context, slug string, b *models.Broker) (*models.Broker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].Slug == slug {
			updated := *b
			updated.Slug = slug
			f.items[i] = updated
			return &updated, nil
		}
	}
	return nil, nil
}

func (f *fakeBrokers) DeleteBySlug(_ context.Context, slug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, b := range f.items {
		if b.Slug == slug {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// --- categories ---

type fakeCategories struct {
	byBroker map[uuid.UUID][]models.Category
	err      error
}

func (f *fakeCategories) ForBroker(_ context.Context, id uuid.UUID) ([]models.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byBroker[id], nil
}

// --- reviews ---

type fakeReviews struct {
	mu    sync.Mutex
	items []models.Review
}

func (f *fakeReviews) Create(_ context.Context, r *models.Review) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	created := *r
	created.ID = uuid.New()
	created.CreatedAt = time.Date(2026, 2, 1, 0, len(f.items), 0, 0, time.UTC)
	f.items = append(f.items, created)
	return &created, nil
}

func (f *fakeReviews) List(_ context.Context, flt store.ReviewFilter) ([]models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Review{}
	for i := len(f.items) - 1; i >= 0; i-- {
		r := f.items[i]
		if flt.BrokerID != nil && r.BrokerID != *flt.BrokerID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeReviews) Summary(_ context.Context, id uuid.UUID) (models.ReviewSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s models.ReviewSummary
	total := 0
	for _, r := range f.items {
		if r.BrokerID == id {
			s.Count++
			total += r.Rating
		}
	}
	if s.Count > 0 {
		s.AverageRating = float64(total) / float64(s.Count)
	}
	return s, nil
}

// --- users ---

type fakeUsers map[uuid.UUID]models.User

func (f fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f[id]; ok {
		return &u, nil
	}
	return nil, nil
}

// --- blog ---

type fakePosts struct {
	mu    sync.Mutex
	items []models.BlogPost
}

func (f *fakePosts) ListPublished(_ context.Context, flt store.BlogPostFilter, now time.Time) ([]models.BlogPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.BlogPost{}
	for _, p := range f.items {
		if !p.IsPublished(now) {
			continue
		}
		if flt.Tag != "" && !containsString(p.Tags, flt.Tag) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (f *fakePosts) FindPublishedBySlug(_ context.Context, slug string, now time.Time) (*models.BlogPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.Slug == slug && p.IsPublished(now) {
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakePosts) FindByID(_ context.Context, id uuid.UUID) (*models.BlogPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakePosts) SlugTaken(_ context.Context, slug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePosts) Create(ctx context.Context, p *models.BlogPost) (*models.BlogPost, error) {
	if taken, _ := f.SlugTaken(ctx, p.Slug); taken {
		return nil, store.ErrSlugTaken
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	created := *p
	created.ID = uuid.New()
	created.ReadingTime = models.ReadingTime(p.Content)
	f.items = append(f.items, created)
	return &created, nil
}

func (f *fakePosts) Update(_ context.Context, p *models.BlogPost) (*models.BlogPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == p.ID {
			f.items[i] = *p
			f.items[i].ReadingTime = models.ReadingTime(p.Content)
			updated := f.items[i]
			return &updated, nil
		}
	}
	return nil, nil
}

func (f *fakePosts) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.items {
		if p.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeBlogCategories struct {
	items []models.BlogCategory
}

func (f *fakeBlogCategories) List(_ context.Context) ([]models.BlogCategory, error) {
	return append([]models.BlogCategory{}, f.items...), nil
}

func (f *fakeBlogCategories) FindByID(_ context.Context, id uuid.UUID) (*models.BlogCategory, error) {
	for _, c := range f.items {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeBlogCategories) Create(_ context.Context, c *models.BlogCategory) (*models.BlogCategory, error) {
	for _, existing := range f.items {
		if existing.Slug == c.Slug {
			return nil, store.ErrSlugTaken
		}
	}
	created := *c
	created.ID = uuid.New()
	f.items = append(f.items, created)
	return &created, nil
}

func (f *fakeBlogCategories) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	for i, c := range f.items {
		if c.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// --- outbound ---

type fakeSearch struct {
	search, news bool
	results      []websearch.Result
	items        []websearch.NewsItem
	err          error
	queries      []string
}

func (f *fakeSearch) SearchConfigured() bool { return f.search }
func (f *fakeSearch) NewsConfigured() bool   { return f.news }

func (f *fakeSearch) Search(_ context.Context, q string, _ int) ([]websearch.Result, error) {
	f.queries = append(f.queries, q)
	return f.results, f.err
}

func (f *fakeSearch) News(_ context.Context, _ string, _ int) ([]websearch.NewsItem, error) {
	return f.items, f.err
}

func (f *fakeSearch) VerifyBroker(_ context.Context, name, _ string) (*websearch.Verification, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &websearch.Verification{Name: name, Found: len(f.results) > 0, Results: f.results}, nil
}

type fakeRegisters struct {
	licensed bool
	err      error
}

func (f *fakeRegisters) Lookup(_ context.Context, reg regulator.Regulator, name string) (*regulator.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &regulator.Result{Regulator: reg, BrokerName: name, Licensed: f.licensed, Matches: []regulator.Entry{}}, nil
}

type fakeDB struct{ err error }

func (f fakeDB) PingContext(context.Context) error { return f.err }

type fakeCache struct {
	invalidations int
	enabled       bool
	err           error
}

func (f *fakeCache) InvalidateAll(context.Context) int {
	f.invalidations++
	return 0
}

func (f *fakeCache) Ping(context.Context) (bool, error) { return f.enabled, f.err }

// --- harness ---

type testEnv struct {
	deps       *Deps
	brokers    *fakeBrokers
	categories *fakeCategories
	reviews    *fakeReviews
	users      fakeUsers
	posts      *fakePosts
	blogCats   *fakeBlogCategories
	search     *fakeSearch
	registers  *fakeRegisters
	cache      *fakeCache
	public     *Public
	admin      *Admin
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		brokers:    &fakeBrokers{},
		categories: &fakeCategories{byBroker: map[uuid.UUID][]models.Category{}},
		reviews:    &fakeReviews{},
		users:      fakeUsers{},
		posts:      &fakePosts{},
		blogCats:   &fakeBlogCategories{},
		search:     &fakeSearch{},
		registers:  &fakeRegisters{},
		cache:      &fakeCache{enabled: true},
	}
	env.deps = &Deps{
		DB:             fakeDB{},
		Brokers:        env.brokers,
		Categories:     env.categories,
		Reviews:        env.reviews,
		Users:          env.users,
		Posts:          env.posts,
		BlogCategories: env.blogCats,
		Search:         env.search,
		Registers:      env.registers,
		Cache:          env.cache,
		Now:            func() time.Time { return testNow },
	}
	env.public = NewPublic(env.deps)
	env.admin = NewAdmin(env.deps)
	return env
}

// serve routes one request through a chi router holding a single route so
// URL parameters resolve as in production.
func serve(t *testing.T, method, pattern string, h http.HandlerFunc, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func ptr[T any](v T) *T { return &v }
