package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type testServer struct {
	app    *fiber.App
	auth   *service.AuthService
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := repository.NewMemoryStore()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	authSvc := service.NewAuthService(config.AuthConfig{BcryptCost: bcrypt.MinCost}, store.Users(), tokens)
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  store.Tickets(),
		CommentRepo: store.Comments(),
		UserRepo:    store.Users(),
	})
	metrics := observability.NewMetrics()

	app := NewApp("support-desk-test")
	RegisterMiddlewares(app, zap.NewNop(), metrics, config.AppConfig{CORSOrigins: "*", RequestTimeout: 5 * time.Second})
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("support-desk", "test", nil),
		Users:          handlers.NewUsersHandler(authSvc),
		Tickets:        handlers.NewTicketsHandler(tickets),
		Dashboard:      handlers.NewDashboardHandler(service.NewDashboardService(store.Tickets())),
		Consultants:    handlers.NewConsultantsHandler(service.NewDirectoryService(store.Users(), nil)),
		Metrics:        metrics,
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})
	return &testServer{app: app, auth: authSvc, tokens: tokens}
}

func (s *testServer) tokenFor(t *testing.T, email, name string, role domain.Role) string {
	t.Helper()
	user, err := s.auth.CreateUser(context.Background(), service.CreateUserInput{
		Email: email, FullName: name, Password: "password123", Role: role,
	})
	require.NoError(t, err)
	token, _, err := s.tokens.GenerateToken(*user)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			encoded, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(encoded)
		}
		reader = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

type ticketBody struct {
	ID              string  `json:"id"`
	ClientID        string  `json:"client_id"`
	ClientName      string  `json:"client_name"`
	Status          string  `json:"status"`
	Priority        string  `json:"priority"`
	Category        string  `json:"category"`
	AssignedTo      *string `json:"assigned_to"`
	ResolutionNotes *string `json:"resolution_notes"`
	ClosedAt        *string `json:"closed_at"`
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	clientA := s.tokenFor(t, "a@example.com", "Client A", domain.RoleClient)
	clientC := s.tokenFor(t, "c@example.com", "Client C", domain.RoleClient)
	consultant := s.tokenFor(t, "b@example.com", "Consultant B", domain.RoleConsultant)

	status, env := s.do(t, http.MethodPost, "/tickets", "", map[string]string{"title": "x", "description": "y"})
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperrors.CodeUnauthenticated, env.Error.Code)

	status, env = s.do(t, http.MethodPost, "/tickets", clientA, map[string]string{"title": "Email down", "description": "No mail since 9am"})
	require.Equal(t, http.StatusCreated, status)
	created := decode[ticketBody](t, env)
	assert.Equal(t, "open", created.Status)
	assert.Equal(t, "medium", created.Priority)
	assert.Equal(t, "general", created.Category)
	assert.Equal(t, "Client A", created.ClientName)
	assert.Nil(t, created.ClosedAt)

	status, env = s.do(t, http.MethodPut, "/tickets/"+created.ID, clientA, map[string]string{"priority": "high"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, apperrors.CodeForbidden, env.Error.Code)

	status, env = s.do(t, http.MethodPut, "/tickets/"+created.ID, consultant, map[string]string{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeInvalidEnum, env.Error.Code)

	status, env = s.do(t, http.MethodPut, "/tickets/"+created.ID, consultant, `{"status":"closed","resolution_notes":"restarted relay"}`)
	require.Equal(t, http.StatusOK, status)
	closed := decode[ticketBody](t, env)
	assert.Equal(t, "closed", closed.Status)
	assert.NotNil(t, closed.ClosedAt)
	require.NotNil(t, closed.ResolutionNotes)
	assert.Equal(t, "medium", closed.Priority)

	status, env = s.do(t, http.MethodPut, "/tickets/"+created.ID, consultant, `{"resolution_notes":null}`)
	require.Equal(t, http.StatusOK, status)
	cleared := decode[ticketBody](t, env)
	assert.Nil(t, cleared.ResolutionNotes)
	assert.Equal(t, "closed", cleared.Status)

	status, env = s.do(t, http.MethodGet, "/tickets/"+created.ID, clientC, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = s.do(t, http.MethodGet, "/tickets", clientC, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(env.Data))

	status, env = s.do(t, http.MethodGet, "/tickets", clientA, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]ticketBody](t, env), 1)

	status, env = s.do(t, http.MethodGet, "/tickets/does-not-exist", consultant, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, apperrors.CodeNotFound, env.Error.Code)
}

func TestCommentsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	client := s.tokenFor(t, "a@example.com", "Client A", domain.RoleClient)
	admin := s.tokenFor(t, "root@example.com", "Admin", domain.RoleAdmin)

	_, env := s.do(t, http.MethodPost, "/tickets", client, map[string]string{"title": "t", "description": "d"})
	ticket := decode[ticketBody](t, env)

	status, _ := s.do(t, http.MethodPost, "/tickets/"+ticket.ID+"/comments", client, map[string]string{"text": "first"})
	require.Equal(t, http.StatusCreated, status)
	status, _ = s.do(t, http.MethodPost, "/tickets/"+ticket.ID+"/comments", admin, map[string]string{"text": "second"})
	require.Equal(t, http.StatusCreated, status)

	status, env = s.do(t, http.MethodPost, "/tickets/"+ticket.ID+"/comments", client, map[string]string{"text": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeValidation, env.Error.Code)
	assert.Equal(t, "required", env.Error.Details["text"])

	status, env = s.do(t, http.MethodGet, "/tickets/"+ticket.ID+"/comments", client, nil)
	require.Equal(t, http.StatusOK, status)
	comments := decode[[]struct {
		Text       string `json:"text"`
		AuthorName string `json:"author_name"`
	}](t, env)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Text)
	assert.Equal(t, "Admin", comments[1].AuthorName)

	status, _ = s.do(t, http.MethodGet, "/tickets/missing/comments", admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDashboardAndConsultants(t *testing.T) {
	s := newTestServer(t)
	client := s.tokenFor(t, "a@example.com", "Client A", domain.RoleClient)
	consultant := s.tokenFor(t, "b@example.com", "Consultant B", domain.RoleConsultant)

	for _, title := range []string{"one", "two"} {
		status, _ := s.do(t, http.MethodPost, "/tickets", client, map[string]string{"title": title, "description": "d"})
		require.Equal(t, http.StatusCreated, status)
	}

	status, env := s.do(t, http.MethodGet, "/dashboard/stats", client, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"open":2,"in_progress":0,"closed":0,"total":2}`, string(env.Data))

	status, env = s.do(t, http.MethodGet, "/consultants", client, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = s.do(t, http.MethodGet, "/consultants", consultant, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(env.Data), "password")
	assert.Contains(t, string(env.Data), "Consultant B")
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t)
	register := map[string]string{"full_name": "Dana", "email": "dana@example.com", "password": "password123"}

	status, env := s.do(t, http.MethodPost, "/auth/register", "", register)
	require.Equal(t, http.StatusCreated, status)
	session := decode[struct {
		User struct {
			Role string `json:"role"`
		} `json:"user"`
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}](t, env)
	assert.Equal(t, "client", session.User.Role)
	assert.NotEmpty(t, session.Auth.Token)

	status, env = s.do(t, http.MethodPost, "/auth/register", "", register)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, apperrors.CodeConflict, env.Error.Code)

	status, _ = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "dana@example.com", "password": "password123"})
	assert.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "dana@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, apperrors.CodeUnauthenticated, env.Error.Code)

	status, env = s.do(t, http.MethodGet, "/tickets", "garbage", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, apperrors.CodeInvalidCredential, env.Error.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env := s.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperrors.CodeNotFound, env.Error.Code)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "support_desk_http_requests_total")
}
