package httpx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/target/petalcart/internal/domain/access"
	domainauth "github.com/target/petalcart/internal/domain/auth"
	"github.com/target/petalcart/internal/domain/cart"
	apperrors "github.com/target/petalcart/internal/errors"
	mockauth "github.com/target/petalcart/internal/mocks/auth"
	mockcart "github.com/target/petalcart/internal/mocks/cart"
	"github.com/target/petalcart/internal/service"
)

// memUsers is an in-memory core.UserRepository.
type memUsers struct {
	mu      sync.Mutex
	seq     int64
	byEmail map[string]*domainauth.User
}

func newMemUsers() *memUsers { return &memUsers{byEmail: make(map[string]*domainauth.User)} }

func (m *memUsers) Create(_ context.Context, req *domainauth.CreateUserRequest) (*domainauth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := domainauth.NormalizeEmail(req.Email)
	if _, ok := m.byEmail[email]; ok {
		return nil, apperrors.ConflictField("email", "an account with this email already exists")
	}
	m.seq++
	role := req.Role
	if role == "" {
		role = domainauth.RoleClient
	}
	u := &domainauth.User{
		ID: m.seq, Email: email, Name: req.Name, PasswordHash: req.PasswordHash,
		Role: role, IsActive: true, EmailVerified: req.EmailVerified,
	}
	m.byEmail[email] = u
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*domainauth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domainauth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[domainauth.NormalizeEmail(email)]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpsertExternal(ctx context.Context, req *domainauth.CreateUserRequest) (*domainauth.User, error) {
	if u, err := m.SetRole(ctx, req.Email, req.Role); err == nil {
		return u, nil
	}
	return m.Create(ctx, req)
}

func (m *memUsers) SetRole(_ context.Context, email string, role domainauth.Role) (*domainauth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[domainauth.NormalizeEmail(email)]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

// memShop is an in-memory catalogue and per-user cart.
type memShop struct {
	mu       sync.Mutex
	products map[int64]*cart.Product
	carts    map[int64][]cart.Line
	itemSeq  int64
}

func newMemShop(products ...cart.Product) *memShop {
	s := &memShop{products: make(map[int64]*cart.Product), carts: make(map[int64][]cart.Line)}
	for i := range products {
		p := products[i]
		s.products[p.ID] = &p
	}
	return s
}

func (s *memShop) FindByID(_ context.Context, id int64) (*cart.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, apperrors.NotFound("product no longer available")
	}
	cp := *p
	return &cp, nil
}

func (s *memShop) List(_ context.Context, _ cart.ProductListOptions) ([]*cart.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*cart.Product, 0, len(s.products))
	for id := int64(1); id <= int64(len(s.products)); id++ {
		if p, ok := s.products[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memShop) Save(_ context.Context, p *cart.Product) (*cart.Product, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, apperrors.ValidationField("name", "name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	cp.ID = int64(len(s.products) + 1)
	s.products[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *memShop) GetCart(_ context.Context, userID int64) (cart.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cart.NewSnapshot(s.carts[userID]), nil
}

func (s *memShop) AddItem(_ context.Context, userID, productID int64, quantity int) (cart.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return cart.Snapshot{}, apperrors.NotFound("product no longer available")
	}
	lines := s.carts[userID]
	for i := range lines {
		if lines[i].ProductID != productID {
			continue
		}
		if lines[i].Quantity+quantity > p.StockQuantity {
			return cart.Snapshot{}, apperrors.ValidationField("quantity", "not enough stock for the requested quantity")
		}
		lines[i].Quantity += quantity
		return cart.NewSnapshot(lines), nil
	}
	if quantity > p.StockQuantity {
		return cart.Snapshot{}, apperrors.ValidationField("quantity", "not enough stock for the requested quantity")
	}
	s.itemSeq++
	s.carts[userID] = append(lines, cart.Line{ItemID: s.itemSeq, ProductID: productID, Name: p.Name, Quantity: quantity, UnitPrice: p.Price})
	return cart.NewSnapshot(s.carts[userID]), nil
}

func (s *memShop) UpdateItem(_ context.Context, userID, itemID int64, quantity int) (cart.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[userID]
	for i := range lines {
		if lines[i].ItemID != itemID {
			continue
		}
		if quantity < 1 {
			s.carts[userID] = append(lines[:i], lines[i+1:]...)
		} else {
			lines[i].Quantity = quantity
		}
		return cart.NewSnapshot(s.carts[userID]), nil
	}
	return cart.Snapshot{}, apperrors.NotFound("cart item not found")
}

func (s *memShop) RemoveItem(ctx context.Context, userID, itemID int64) (cart.Snapshot, error) {
	return s.UpdateItem(ctx, userID, itemID, 0)
}

func (s *memShop) Clear(_ context.Context, userID int64) (cart.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return cart.NewSnapshot(nil), nil
}

// testEnv wires the router over in-memory collaborators.
type testEnv struct {
	handler  http.Handler
	users    *memUsers
	shop     *memShop
	sessions *mockauth.MemorySessionStore
	guests   *mockcart.MemoryGuestActionStore
	auth     *service.AuthService
}

var (
	roses  = cart.Product{ID: 1, Name: "Red Roses", Price: 2999, StockQuantity: 5, Active: true}
	lilies = cart.Product{ID: 2, Name: "White Lilies", Price: 1550, StockQuantity: 10, Active: true}
)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		users:    newMemUsers(),
		shop:     newMemShop(roses, lilies),
		sessions: mockauth.NewMemorySessionStore(),
		guests:   mockcart.NewMemoryGuestActionStore(),
	}
	env.auth = service.NewAuthService(service.AuthServiceOptions{
		Deps: service.AuthDeps{
			Users:    env.users,
			Sessions: env.sessions,
			Tokens:   mockauth.NewMemoryTokenIssuer(),
			Hasher:   mockauth.PlainHasher{},
			Throttle: mockauth.NewMemoryThrottle(5),
			Roles:    mockauth.StaticRoleMapper{AdminGroup: "florists", ClientGroup: "storefront-clients"},
		},
		Logger: logger,
	})
	reconciler := service.NewReconciler(service.ReconcilerOptions{
		Deps:   service.ReconcilerDeps{Cart: env.shop, Products: env.shop, Guests: env.guests},
		Logger: logger,
	})
	h, err := NewRouter(RouterServices{
		Auth:       env.auth,
		Reconciler: reconciler,
		Carts:      env.shop,
		Products:   env.shop,
		Gate:       access.Gate{},
		Logger:     logger,
	})
	require.NoError(t, err)
	env.handler = h
	return env
}

// do sends a request with optional JSON body and cookies.
func (e *testEnv) do(t *testing.T, method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = strings.NewReader(string(b))
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// register signs up a client and returns its session cookie.
func (e *testEnv) register(t *testing.T, email string, cookies ...*http.Cookie) *http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Test Florist", "email": email, "password": "correct-horse",
	}, cookies...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := findCookie(rec, CookieSessionToken)
	require.NotNil(t, c)
	return c
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func newRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func queryEscape(s string) string { return url.QueryEscape(s) }
