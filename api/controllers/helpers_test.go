package controllers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shopfront-backend/internal/auth"
	"github.com/angelmondragon/shopfront-backend/internal/cart"
	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type memoryKV struct {
	data map[string]string
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string]string{}}
}

func (m *memoryKV) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s, ok := value.(string); ok {
		m.data[key] = s
	}
	return nil
}

func (m *memoryKV) GetOptional(ctx context.Context, key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryKV) ValueLen(ctx context.Context, key string) (int64, error) {
	return int64(len(m.data[key])), nil
}

func (m *memoryKV) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryKV) CartKey() string         { return "sf:shopping_cart" }
func (m *memoryKV) CartMetadataKey() string { return "sf:cart_metadata" }
func (m *memoryKV) CartIDKey() string       { return "sf:cart_id" }
func (m *memoryKV) TokenKey() string        { return "sf:token" }
func (m *memoryKV) RefreshTokenKey() string { return "sf:refreshToken" }
func (m *memoryKV) UserKey() string         { return "sf:user" }

type fakeProducts struct {
	products map[int64]catalog.Product
}

func (f *fakeProducts) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, pkgerrors.FromHTTPStatus(404, "product not found")
	}
	return &p, nil
}

func (f *fakeProducts) ProductsByCategory(ctx context.Context, categoryID int64, limit int) ([]catalog.Product, error) {
	out := []catalog.Product{}
	for _, p := range f.products {
		if p.Category.ID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled})
}

func testProduct(id int64, title, priceStr string) catalog.Product {
	return catalog.Product{
		ID:       id,
		Title:    title,
		Price:    decimal.RequireFromString(priceStr),
		Category: catalog.Category{ID: 1, Name: "Clothes"},
	}
}

func newTestCart(t *testing.T, products *fakeProducts) (*cart.Store, *cart.Repository) {
	t.Helper()
	kv := newMemoryKV()
	repo, err := cart.NewRepository(cart.RepositoryParams{KV: kv, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	store, err := cart.NewStore(context.Background(), cart.StoreParams{
		Repo:    repo,
		Catalog: products,
		Logger:  quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, repo
}

type fakeAuthRemote struct {
	tokens *catalog.AuthTokens
	user   *catalog.User
	err    error
}

func (f *fakeAuthRemote) Login(ctx context.Context, email, password string) (*catalog.AuthTokens, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens, nil
}

func (f *fakeAuthRemote) RefreshToken(ctx context.Context, refreshToken string) (*catalog.AuthTokens, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens, nil
}

func (f *fakeAuthRemote) Profile(ctx context.Context) (*catalog.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeAuthRemote) CreateUser(ctx context.Context, input catalog.NewUser) (*catalog.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &catalog.User{ID: 9, Name: input.Name, Email: input.Email}, nil
}

func (f *fakeAuthRemote) EmailExists(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func newTestSession(t *testing.T, remote *fakeAuthRemote) (*auth.Manager, *memoryKV) {
	t.Helper()
	kv := newMemoryKV()
	m, err := auth.NewManager(auth.ManagerParams{KV: kv, Catalog: remote, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m, kv
}
