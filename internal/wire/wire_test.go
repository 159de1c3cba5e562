package wire

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"krishi-setu/internal/data/entity"
	"krishi-setu/internal/data/repository"
	"krishi-setu/internal/usecase"
	"krishi-setu/pkg/apperror"
	"krishi-setu/pkg/middleware"
	"krishi-setu/pkg/notify"
	"krishi-setu/pkg/token"
	"krishi-setu/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// memStore keeps accounts of one role in memory with the same uniqueness
// and compare-and-swap rules as the postgres store.
type memStore struct {
	role   entity.Role
	hasher repository.SecretHasher

	mu       sync.Mutex
	accounts map[uuid.UUID]*entity.Account
}

func newMemStore(role entity.Role, hasher repository.SecretHasher) *memStore {
	return &memStore{role: role, hasher: hasher, accounts: map[uuid.UUID]*entity.Account{}}
}

func clone(a *entity.Account) *entity.Account {
	c := *a
	if a.RefreshToken != nil {
		t := *a.RefreshToken
		c.RefreshToken = &t
	}
	return &c
}

func (s *memStore) Role() entity.Role { return s.role }

func (s *memStore) Create(ctx context.Context, account *entity.Account, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.Email == account.Email {
			return repository.ErrDuplicateEmail
		}
		if a.Mobile == account.Mobile {
			return repository.ErrDuplicateMobile
		}
	}

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return err
	}
	now := time.Now()
	account.ID = uuid.New()
	account.CreatedAt, account.UpdatedAt = now, now
	account.Role = s.role
	account.SecretHash = hash
	s.accounts[account.ID] = clone(account)
	return nil
}

func (s *memStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		return clone(a), nil
	}
	return nil, nil
}

func (s *memStore) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == email {
			return clone(a), nil
		}
	}
	return nil, nil
}

func (s *memStore) UpdateSecret(ctx context.Context, id uuid.UUID, secret string) error {
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return err
	}
	return s.update(id, func(a *entity.Account) { a.SecretHash = hash })
}

func (s *memStore) MarkVerified(ctx context.Context, email string) (*entity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == email && !(a.IsVerified && a.IsActive) {
			a.IsVerified, a.IsActive = true, true
			return clone(a), nil
		}
	}
	return nil, nil
}

func (s *memStore) SetRefreshToken(ctx context.Context, id uuid.UUID, tok string) error {
	return s.update(id, func(a *entity.Account) { a.RefreshToken = &tok })
}

func (s *memStore) RotateRefreshToken(ctx context.Context, id uuid.UUID, oldToken, newToken string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok || a.RefreshToken == nil || *a.RefreshToken != oldToken {
		return false, nil
	}
	a.RefreshToken = &newToken
	return true, nil
}

func (s *memStore) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		a.RefreshToken = nil
	}
	return nil
}

func (s *memStore) ListByAdmin(ctx context.Context, adminID uuid.UUID, limit, offset int) ([]*entity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Account
	for _, a := range s.accounts {
		if a.User != nil && a.User.AdminID != nil && *a.User.AdminID == adminID {
			out = append(out, clone(a))
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) CountByAdmin(ctx context.Context, adminID uuid.UUID) (int64, error) {
	all, err := s.ListByAdmin(ctx, adminID, 1<<30, 0)
	return int64(len(all)), err
}

func (s *memStore) VerifySecret(account *entity.Account, candidate string) bool {
	return s.hasher.Check(candidate, account.SecretHash)
}

func (s *memStore) update(id uuid.UUID, fn func(a *entity.Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	fn(a)
	a.UpdatedAt = time.Now()
	return nil
}

// outbox records every mail synchronously.
type outbox struct {
	mu   sync.Mutex
	sent map[notify.Intent][]notify.Message
}

func (o *outbox) Dispatch(ctx context.Context, intent notify.Intent, msg notify.Message) (notify.Receipt, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sent == nil {
		o.sent = map[notify.Intent][]notify.Message{}
	}
	o.sent[intent] = append(o.sent[intent], msg)
	return notify.Receipt{Intent: intent, To: msg.To, Transport: "outbox", SentAt: time.Now()}, nil
}

func (o *outbox) Go(intent notify.Intent, msg notify.Message) {
	o.Dispatch(context.Background(), intent, msg)
}

func (o *outbox) last(t *testing.T, intent notify.Intent) notify.Message {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.sent[intent], "no %s mail", intent)
	return o.sent[intent][len(o.sent[intent])-1]
}

type okPinger struct{}

func (okPinger) Ping(ctx context.Context) error { return nil }

type testApp struct {
	router http.Handler
	mail   *outbox
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	config := &utils.Config{
		App: utils.AppConfig{Name: "Krishi-Setu", BaseURL: "http://localhost:8080/api/v1", CORSOrigin: "*"},
		Token: utils.TokenConfig{
			Access:       utils.TokenClassConfig{Secret: "access-secret", Expiry: 15 * time.Minute},
			Refresh:      utils.TokenClassConfig{Secret: "refresh-secret", Expiry: 240 * time.Hour},
			Verification: utils.TokenClassConfig{Secret: "verify-secret", Expiry: 24 * time.Hour},
		},
		Security: utils.SecurityConfig{BcryptCost: bcrypt.MinCost, DefaultPasswordPrefix: "KRISHI@"},
		Email:    utils.EmailConfig{Timeout: time.Second},
	}

	tokens, err := token.NewSet(
		token.ClassConfig{Secret: config.Token.Access.Secret, TTL: config.Token.Access.Expiry},
		token.ClassConfig{Secret: config.Token.Refresh.Secret, TTL: config.Token.Refresh.Expiry},
		token.ClassConfig{Secret: config.Token.Verification.Secret, TTL: config.Token.Verification.Expiry},
	)
	require.NoError(t, err)

	hasher := utils.NewPasswordHasher(config.Security.BcryptCost)
	repo := repository.NewRepositoryFrom(
		newMemStore(entity.RoleAdmin, hasher),
		newMemStore(entity.RoleUser, hasher),
	)

	mail := &outbox{}
	app := Wiring(usecase.Deps{
		Repo:       repo,
		Tokens:     tokens,
		Notifier:   mail,
		Background: mail,
		Config:     config,
		Log:        zap.NewNop(),
	}, okPinger{})

	return &testApp{router: app.Router, mail: mail}
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

func (a *testApp) do(t *testing.T, method, path, body, bearer string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

// tokenFromLink extracts the last path segment of a verification link.
func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	i := strings.LastIndex(link, "/verify/")
	require.True(t, i >= 0, link)
	return link[i+len("/verify/"):]
}

const adminBody = `{
	"businessName": "Green Fields",
	"businessOwner": "Asha Patil",
	"businessAddress": "12 Market Road",
	"email": "Asha@GreenFields.in",
	"mobile": "9876543210",
	"city": "Pune",
	"state": "Maharashtra",
	"country": "India"
}`

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func registerVerifyLogin(t *testing.T, app *testApp) tokenPair {
	t.Helper()

	rec, env := app.do(t, http.MethodPost, "/api/v1/auth/admin/register", adminBody, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	link := app.mail.last(t, notify.IntentVerification).VerificationLink
	assert.True(t, strings.HasPrefix(link, "http://localhost:8080/api/v1/auth/admin/verify/"), link)

	rec, _ = app.do(t, http.MethodGet, "/api/v1/auth/admin/verify/"+tokenFromLink(t, link), "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = app.do(t, http.MethodPost, "/api/v1/auth/admin/login",
		`{"email":"asha@greenfields.in","password":"KRISHI@3210"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var pair tokenPair
	require.NoError(t, json.Unmarshal(env.Data, &pair))
	return pair
}

func TestAuthLifecycle(t *testing.T) {
	app := newTestApp(t)

	// register
	rec, env := app.do(t, http.MethodPost, "/api/v1/auth/admin/register", adminBody, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var registered map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &registered))
	assert.Equal(t, "asha@greenfields.in", registered["email"])
	assert.Equal(t, false, registered["isVerified"])
	for _, key := range []string{"password", "secretHash", "refreshToken", "verificationToken"} {
		assert.NotContains(t, registered, key)
	}

	// login before verification is refused
	rec, _ = app.do(t, http.MethodPost, "/api/v1/auth/admin/login",
		`{"email":"asha@greenfields.in","password":"KRISHI@3210"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// verify
	link := app.mail.last(t, notify.IntentVerification).VerificationLink
	verifyPath := "/api/v1/auth/admin/verify/" + tokenFromLink(t, link)

	rec, env = app.do(t, http.MethodGet, verifyPath, "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var verified struct {
		Account struct {
			IsVerified bool `json:"isVerified"`
			IsActive   bool `json:"isActive"`
		} `json:"account"`
		MailSent bool `json:"mailSent"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &verified))
	assert.True(t, verified.Account.IsVerified)
	assert.True(t, verified.Account.IsActive)
	assert.True(t, verified.MailSent)
	assert.Equal(t, "KRISHI@3210", app.mail.last(t, notify.IntentRegistration).DefaultSecret)

	// verifying again is a no-op
	rec, env = app.do(t, http.MethodGet, verifyPath, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, env.Message, "already")

	// login with the derived default secret
	rec, env = app.do(t, http.MethodPost, "/api/v1/auth/admin/login",
		`{"email":"asha@greenfields.in","password":"KRISHI@3210"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login tokenPair
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.AccessToken)
	require.NotEmpty(t, login.RefreshToken)

	cookies := map[string]string{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c.Value
	}
	assert.Equal(t, login.AccessToken, cookies[middleware.AccessTokenCookie])
	assert.Equal(t, login.RefreshToken, cookies[middleware.RefreshTokenCookie])

	rec, _ = app.do(t, http.MethodGet, "/api/v1/auth/admin/me", "", login.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	// refresh
	rec, env = app.do(t, http.MethodPost, "/api/v1/auth/admin/refresh-token",
		`{"refreshToken":"`+login.RefreshToken+`"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var refreshed tokenPair
	require.NoError(t, json.Unmarshal(env.Data, &refreshed))
	assert.NotEqual(t, login.AccessToken, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// the redeemed refresh token cannot be used twice
	rec, _ = app.do(t, http.MethodPost, "/api/v1/auth/admin/refresh-token",
		`{"refreshToken":"`+login.RefreshToken+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// logout
	rec, _ = app.do(t, http.MethodPost, "/api/v1/auth/admin/logout", "", refreshed.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// the access token is still signed and unexpired but the session is gone
	rec, env = app.do(t, http.MethodGet, "/api/v1/auth/admin/me", "", refreshed.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)

	rec, _ = app.do(t, http.MethodPost, "/api/v1/auth/admin/refresh-token",
		`{"refreshToken":"`+refreshed.RefreshToken+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterDuplicates(t *testing.T) {
	app := newTestApp(t)

	rec, _ := app.do(t, http.MethodPost, "/api/v1/auth/admin/register", adminBody, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = app.do(t, http.MethodPost, "/api/v1/auth/admin/register", adminBody, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	sameMobile := strings.Replace(adminBody, "Asha@GreenFields.in", "other@greenfields.in", 1)
	rec, _ = app.do(t, http.MethodPost, "/api/v1/auth/admin/register", sameMobile, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env := app.do(t, http.MethodPost, "/api/v1/auth/admin/register", `{"email":"bad"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.False(t, env.Success)
}

func TestAdminProvisionsUsers(t *testing.T) {
	app := newTestApp(t)
	admin := registerVerifyLogin(t, app)

	userBody := `{"name":"Ravi Kumar","email":"ravi@example.com","mobile":"9123456789"}`

	// anonymous callers cannot register users
	rec, _ := app.do(t, http.MethodPost, "/api/v1/auth/user/register", userBody, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = app.do(t, http.MethodPost, "/api/v1/auth/user/register", userBody, admin.AccessToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	link := app.mail.last(t, notify.IntentVerification).VerificationLink
	assert.Contains(t, link, "/auth/user/verify/")

	rec, _ = app.do(t, http.MethodGet, "/api/v1/auth/user/verify/"+tokenFromLink(t, link), "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// the user signs in on the user surface only
	rec, _ = app.do(t, http.MethodPost, "/api/v1/auth/admin/login",
		`{"email":"ravi@example.com","password":"KRISHI@6789"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := app.do(t, http.MethodPost, "/api/v1/auth/user/login",
		`{"email":"ravi@example.com","password":"KRISHI@6789"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var user tokenPair
	require.NoError(t, json.Unmarshal(env.Data, &user))

	// change password then log in with the new one
	rec, _ = app.do(t, http.MethodPut, "/api/v1/auth/user/change-password",
		`{"oldPassword":"KRISHI@6789","newPassword":"Fresh#Pass1"}`, user.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ravi@example.com", app.mail.last(t, notify.IntentChangePassword).To)

	rec, _ = app.do(t, http.MethodPost, "/api/v1/auth/user/login",
		`{"email":"ravi@example.com","password":"KRISHI@6789"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = app.do(t, http.MethodPost, "/api/v1/auth/user/login",
		`{"email":"ravi@example.com","password":"Fresh#Pass1"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// the admin sees the provisioned user
	rec, env = app.do(t, http.MethodGet, "/api/v1/admin/users?page=1&per_page=10", "", admin.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page struct {
		Items []struct {
			Email   string `json:"email"`
			AdminID string `json:"adminId"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "ravi@example.com", page.Items[0].Email)

	// a live user session is refused on both admin-only routes
	rec, env = app.do(t, http.MethodGet, "/api/v1/admin/users", "", user.AccessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, apperror.MsgAdminOnly, env.Message)

	rec, env = app.do(t, http.MethodPost, "/api/v1/auth/user/register",
		`{"name":"Meena Devi","email":"meena@example.com","mobile":"9000000001"}`, user.AccessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, apperror.MsgAdminOnly, env.Message)

	// the user can still reach its own surface with the same token
	rec, _ = app.do(t, http.MethodGet, "/api/v1/auth/user/me", "", user.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	// and is not an admin on the admin surface
	rec, _ = app.do(t, http.MethodGet, "/api/v1/auth/admin/me", "", user.AccessToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLegacyRegenerateTokenPath(t *testing.T) {
	app := newTestApp(t)
	login := registerVerifyLogin(t, app)

	rec, env := app.do(t, http.MethodPost, "/api/v1/auth/admin/regenerateToken",
		`{"refreshToken":"`+login.RefreshToken+`"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var refreshed tokenPair
	require.NoError(t, json.Unmarshal(env.Data, &refreshed))
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// both paths share one rotation
	rec, _ = app.do(t, http.MethodPost, "/api/v1/auth/admin/refresh-token",
		`{"refreshToken":"`+login.RefreshToken+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginTrimsEmail(t *testing.T) {
	app := newTestApp(t)
	registerVerifyLogin(t, app)

	rec, _ := app.do(t, http.MethodPost, "/api/v1/auth/admin/login",
		`{"email":"  Asha@GreenFields.in ","password":"KRISHI@3210"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRouterFallbacks(t *testing.T) {
	app := newTestApp(t)

	rec, env := app.do(t, http.MethodGet, "/api/v1/unknown", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)

	rec, _ = app.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = app.do(t, http.MethodDelete, "/health", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec, _ = app.do(t, http.MethodGet, "/api/v1/auth/admin/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
