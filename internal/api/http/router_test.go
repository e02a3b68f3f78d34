package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/storefront/internal/api/http/handlers"
	"github.com/spec-kit/storefront/internal/auth"
	"github.com/spec-kit/storefront/internal/domain"
	"github.com/spec-kit/storefront/internal/repository"
	"github.com/spec-kit/storefront/internal/service"
)

const loginPath = "/api/v1/auth/login"

type fakeUserRepo struct {
	users map[int64]*domain.User
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = int64(len(r.users) + 1)
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindIdentityByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == username {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) List(_ context.Context, _, _ int) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeCartRepo struct {
	carts map[int64]*domain.Cart
}

func (r *fakeCartRepo) GetByID(_ context.Context, id int64) (*domain.Cart, error) {
	if c, ok := r.carts[id]; ok {
		copied := *c
		copied.Items = append([]domain.CartItem(nil), c.Items...)
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeCartRepo) AddItem(_ context.Context, cartID int64, item domain.CartItem) error {
	c, ok := r.carts[cartID]
	if !ok {
		return repository.ErrNotFound
	}
	c.Items = append(c.Items, item)
	return nil
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServer struct {
	app   *fiber.App
	codec *auth.TokenCodec
	carts *fakeCartRepo
}

func newTestServer(t *testing.T, ready bool) *testServer {
	t.Helper()

	hash := func(pw string) string {
		h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
		require.NoError(t, err)
		return string(h)
	}
	users := &fakeUserRepo{users: map[int64]*domain.User{
		1: {ID: 1, Name: "Admin", Email: "admin@example.com", PasswordHash: hash("correct"), Role: domain.RoleAdmin, Status: domain.UserStatusActive},
		2: {ID: 2, Name: "Carol", Email: "carol@example.com", PasswordHash: hash("secret"), Role: domain.RoleCustomer, Status: domain.UserStatusActive},
		5: {ID: 5, Name: "Eve", Email: "eve@example.com", PasswordHash: hash("secret"), Role: domain.RoleCustomer, Status: domain.UserStatusActive},
	}}
	carts := &fakeCartRepo{carts: map[int64]*domain.Cart{
		10: {ID: 10, UserID: 2},
		11: {ID: 11, UserID: 5},
	}}

	tokenCfg := auth.TokenConfig{Secret: []byte("router-test-secret"), TTL: 24 * time.Hour}
	codec, err := auth.NewTokenCodec(tokenCfg)
	require.NoError(t, err)
	validator, err := auth.NewTokenValidator(tokenCfg)
	require.NoError(t, err)

	pipeline := auth.NewPipeline(auth.PipelineDependencies{
		Codec:         codec,
		Validator:     validator,
		Authenticator: auth.NewCredentialAuthenticator(users, auth.BcryptVerifier{}),
		Logger:        zap.NewNop(),
	}, loginPath, nil)

	var pingErr error
	if !ready {
		pingErr = errors.New("dial tcp: connection refused")
	}

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler("storefront", "test", map[string]handlers.Pinger{
			"postgres": pingerFunc(func(context.Context) error { return pingErr }),
		}),
		Users:    handlers.NewUsersHandler(service.NewUserService(users)),
		Carts:    handlers.NewCartsHandler(service.NewCartService(carts, nil)),
		Pipeline: pipeline,
	})
	return &testServer{app: app, codec: codec, carts: carts}
}

func (s *testServer) do(t *testing.T, method, path, body, token string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	status, body := s.do(t, http.MethodPost, loginPath, `{"username":"`+username+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusOK, status, string(body))
	var resp map[string]string
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp["token"]
}

type errorBody struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

func decodeErrorBody(t *testing.T, body []byte) errorBody {
	t.Helper()
	var out errorBody
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func TestAdminLoginReachesAdminEndpoint(t *testing.T) {
	s := newTestServer(t, true)
	token := s.login(t, "admin@example.com", "correct")
	require.NotEmpty(t, token)

	status, body := s.do(t, http.MethodGet, "/api/v1/users", "", token)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"email":"carol@example.com"`)
	assert.NotContains(t, string(body), "password")
}

func TestWrongPasswordReturnsStructured401(t *testing.T) {
	s := newTestServer(t, true)

	status, body := s.do(t, http.MethodPost, loginPath, `{"username":"admin@example.com","password":"wrong"}`, "")
	require.Equal(t, http.StatusUnauthorized, status)

	eb := decodeErrorBody(t, body)
	assert.Equal(t, 401, eb.Status)
	assert.Equal(t, "Unauthorized", eb.Error)
	assert.Contains(t, eb.Message, "authentication failed")
	assert.Equal(t, loginPath, eb.Path)
	_, err := time.Parse(time.RFC3339, eb.Timestamp)
	assert.NoError(t, err)
	assert.NotContains(t, string(body), "token\":")
}

func TestForeignSignedTokenRejected(t *testing.T) {
	s := newTestServer(t, true)

	foreign, err := auth.NewTokenCodec(auth.TokenConfig{Secret: []byte("someone-else"), TTL: time.Hour})
	require.NoError(t, err)
	token, _, err := foreign.Issue(1, "admin@example.com", []string{"ADMIN"}, time.Now())
	require.NoError(t, err)

	status, body := s.do(t, http.MethodGet, "/api/v1/users", "", token)
	require.Equal(t, http.StatusUnauthorized, status)
	eb := decodeErrorBody(t, body)
	assert.Equal(t, "/api/v1/users", eb.Path)
	assert.Equal(t, auth.ErrTokenInvalidSignature.Error(), eb.Message)
}

func TestMissingRoleIsForbiddenWithoutBody(t *testing.T) {
	s := newTestServer(t, true)
	token := s.login(t, "carol@example.com", "secret")

	status, body := s.do(t, http.MethodGet, "/api/v1/users", "", token)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Empty(t, body)
}

func TestOwnershipOfUserRecord(t *testing.T) {
	s := newTestServer(t, true)
	carol := s.login(t, "carol@example.com", "secret")
	admin := s.login(t, "admin@example.com", "correct")

	status, _ := s.do(t, http.MethodGet, "/api/v1/users/5", "", carol)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := s.do(t, http.MethodGet, "/api/v1/users/2", "", carol)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"id":2`)

	status, _ = s.do(t, http.MethodGet, "/api/v1/users/5", "", admin)
	assert.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodGet, "/api/v1/users/me", "", carol)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"email":"carol@example.com"`)
}

func TestAnonymousRequests(t *testing.T) {
	s := newTestServer(t, true)

	status, _ := s.do(t, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, status)

	status, body := s.do(t, http.MethodGet, "/api/v1/users/me", "", "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Empty(t, body)
}

func TestCartOwnershipCheckedAfterLoad(t *testing.T) {
	s := newTestServer(t, true)
	carol := s.login(t, "carol@example.com", "secret")
	admin := s.login(t, "admin@example.com", "correct")

	status, body := s.do(t, http.MethodGet, "/api/v1/carts/10", "", carol)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"user_id":2`)

	status, _ = s.do(t, http.MethodGet, "/api/v1/carts/11", "", carol)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/carts/11", "", admin)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/carts/99", "", carol)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/carts/11/items", `{"product_id":7,"quantity":1}`, carol)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Empty(t, s.carts.carts[11].Items)

	status, body = s.do(t, http.MethodPost, "/api/v1/carts/10/items", `{"product_id":7,"quantity":2}`, carol)
	assert.Equal(t, http.StatusCreated, status)
	assert.Contains(t, string(body), `"product_id":7`)

	status, _ = s.do(t, http.MethodPost, "/api/v1/carts/10/items", `{"product_id":7,"quantity":0}`, carol)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUnknownRouteRendersErrorBody(t *testing.T) {
	s := newTestServer(t, true)

	status, body := s.do(t, http.MethodGet, "/nope", "", "")
	require.Equal(t, http.StatusNotFound, status)
	eb := decodeErrorBody(t, body)
	assert.Equal(t, "Not Found", eb.Error)
	assert.Equal(t, "/nope", eb.Path)
}

func TestReadiness(t *testing.T) {
	status, _ := newTestServer(t, true).do(t, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, status)

	status, body := newTestServer(t, false).do(t, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, string(body), "connection refused")
}
