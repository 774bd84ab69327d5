package web

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ieltsgenai/prep-service/pkg/assessment"
	"github.com/ieltsgenai/prep-service/pkg/auth"
	"github.com/ieltsgenai/prep-service/pkg/dynstore"
	"github.com/ieltsgenai/prep-service/pkg/model"
	"github.com/ieltsgenai/prep-service/pkg/repository"
	"github.com/ieltsgenai/prep-service/pkg/templates"
)

const (
	testEmail    = "test@ieltsaiprep.com"
	testPassword = "password123"
)

type noopMetrics struct{}

func (noopMetrics) Count(name string, value float64, tags []string) error     { return nil }
func (noopMetrics) Gauge(name string, value float64, tags []string) error     { return nil }
func (noopMetrics) Histogram(name string, value float64, tags []string) error { return nil }

type memSessions struct {
	items map[string]model.Session
}

func (m *memSessions) Create(ctx context.Context, session model.Session) error {
	m.items[session.Token] = session
	return nil
}

func (m *memSessions) Get(ctx context.Context, token string) (*model.Session, error) {
	session, ok := m.items[token]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return &session, nil
}

func (m *memSessions) Delete(ctx context.Context, token string) error {
	delete(m.items, token)
	return nil
}

// testEnv reúne o app montado sobre stores em memória.
type testEnv struct {
	app      *App
	router   *Router
	users    map[string]*model.User
	sessions *memSessions
	attempts map[string]int
	saved    []model.AssessmentResult
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	env := &testEnv{
		users: map[string]*model.User{
			testEmail: {
				Email:        testEmail,
				PasswordHash: string(hash),
				Name:         "Test User",
				Status:       model.UserStatusActive,
			},
		},
		sessions: &memSessions{items: make(map[string]model.Session)},
		attempts: map[string]int{
			testEmail + "|" + string(model.AcademicWriting): 4,
			testEmail + "|" + string(model.GeneralSpeaking): 1,
		},
	}

	userStore := &dynstore.MockStore[model.User]{
		GetFn: func(ctx context.Context, hashKey, sortKey any) (*model.User, error) {
			user, ok := env.users[hashKey.(string)]
			if !ok {
				return nil, dynstore.ErrNotFound
			}
			copied := *user
			return &copied, nil
		},
		PutFn: func(ctx context.Context, item model.User, ttl int64) error {
			env.users[item.Email] = &item
			return nil
		},
		PutIfAbsentFn: func(ctx context.Context, item model.User) error {
			if _, ok := env.users[item.Email]; ok {
				return dynstore.ErrConditionFailed
			}
			env.users[item.Email] = &item
			return nil
		},
		AddIntFn: func(ctx context.Context, hashKey, sortKey any, attribute string, delta, floor int) (int, error) {
			user := env.users[hashKey.(string)]
			user.FailedAttempts += delta
			return user.FailedAttempts, nil
		},
	}

	attemptStore := &dynstore.MockStore[model.AttemptAllowance]{
		PutFn: func(ctx context.Context, item model.AttemptAllowance, ttl int64) error {
			env.attempts[item.Email+"|"+item.AssessmentType] = item.Remaining
			return nil
		},
		AddIntFn: func(ctx context.Context, hashKey, sortKey any, attribute string, delta, floor int) (int, error) {
			key := fmt.Sprintf("%v|%v", hashKey, sortKey)
			remaining, ok := env.attempts[key]
			if !ok || remaining+delta < floor {
				return 0, dynstore.ErrConditionFailed
			}
			env.attempts[key] = remaining + delta
			return env.attempts[key], nil
		},
		QueryByHashFn: func(ctx context.Context, hashKey any, limit int32) ([]model.AttemptAllowance, error) {
			var out []model.AttemptAllowance
			for _, at := range model.AllAssessmentTypes {
				key := fmt.Sprintf("%v|%s", hashKey, at)
				if remaining, ok := env.attempts[key]; ok {
					out = append(out, model.AttemptAllowance{
						Email:          hashKey.(string),
						AssessmentType: string(at),
						Remaining:      remaining,
					})
				}
			}
			return out, nil
		},
	}

	resultStore := &dynstore.MockStore[model.AssessmentResult]{
		PutFn: func(ctx context.Context, item model.AssessmentResult, ttl int64) error {
			env.saved = append(env.saved, item)
			return nil
		},
	}

	users := repository.NewUserRepositoryWithStore(userStore)
	verifier := auth.NewRecaptchaVerifier(false, "", time.Second, nil)
	authService := auth.NewService(users, env.sessions, verifier, noopMetrics{}, time.Hour)

	env.app = &App{
		ServiceName: "ielts-genai-prep",
		Version:     "test",
		Auth:        authService,
		// Sem client de modelo: toda submissão cai no avaliador local
		Engine:    assessment.NewEngine(nil, "", "", time.Second, noopMetrics{}),
		Users:     users,
		Attempts:  repository.NewAttemptRepositoryWithStore(attemptStore),
		Questions: repository.NewQuestionRepositoryWithStore(&dynstore.MockStore[model.Question]{}),
		Results:   repository.NewResultRepositoryWithStore(resultStore),
		Renderer:  templates.NewRenderer(nil, "", ""),
	}
	env.router = env.app.Router()
	return env
}

func (env *testEnv) dispatch(req *Request) *Response {
	return env.router.Dispatch(context.Background(), req)
}

// loginCookie autentica e devolve o header cookie pronto para reuso.
func (env *testEnv) loginCookie(t *testing.T) string {
	t.Helper()
	resp := env.dispatch(&Request{
		Method:  "POST",
		Path:    "/login",
		Headers: map[string]string{"content-type": "application/json"},
		Body:    []byte(fmt.Sprintf(`{"email": %q, "password": %q}`, testEmail, testPassword)),
	})
	require.Equal(t, 200, resp.StatusCode)

	setCookie := resp.Headers["Set-Cookie"]
	require.NotEmpty(t, setCookie)

	var token string
	_, err := fmt.Sscanf(setCookie, SessionCookie+"=%s", &token)
	require.NoError(t, err)
	return SessionCookie + "=" + token[:36] // uuid tem 36 caracteres
}

func TestHandleLogin_JSON(t *testing.T) {
	env := newTestEnv(t)

	resp := env.dispatch(&Request{
		Method:  "POST",
		Path:    "/login",
		Headers: map[string]string{"content-type": "application/json"},
		Body:    []byte(fmt.Sprintf(`{"email": %q, "password": %q}`, testEmail, testPassword)),
	})
	require.Equal(t, 200, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body, &body))
	assert.Equal(t, "/dashboard", body["redirect"])

	cookie := resp.Headers["Set-Cookie"]
	assert.Contains(t, cookie, SessionCookie+"=")
	assert.Contains(t, cookie, "HttpOnly")
	assert.Contains(t, cookie, "Secure")
	assert.Contains(t, cookie, "Max-Age=3600")
	assert.Len(t, env.sessions.items, 1)
}

func TestHandleLogin_Form(t *testing.T) {
	env := newTestEnv(t)

	resp := env.dispatch(&Request{
		Method:  "POST",
		Path:    "/login",
		Headers: map[string]string{"content-type": "application/x-www-form-urlencoded"},
		Body:    []byte("email=test%40ieltsaiprep.com&password=password123"),
	})
	assert.Equal(t, 302, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Headers["Location"])
	assert.Contains(t, resp.Headers["Set-Cookie"], SessionCookie+"=")
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)

	resp := env.dispatch(&Request{
		Method:  "POST",
		Path:    "/login",
		Headers: map[string]string{"content-type": "application/json"},
		Body:    []byte(fmt.Sprintf(`{"email": %q, "password": "nope-nope"}`, testEmail)),
	})
	assert.Equal(t, 401, resp.StatusCode)

	// Nem sessão nem cookie em falha de autenticação
	assert.Empty(t, env.sessions.items)
	assert.Empty(t, resp.Headers["Set-Cookie"])
}

func TestHandleLogin_LockedAfterRepeatedFailures(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 5; i++ {
		resp := env.dispatch(&Request{
			Method:  "POST",
			Path:    "/login",
			Headers: map[string]string{"content-type": "application/json"},
			Body:    []byte(fmt.Sprintf(`{"email": %q, "password": "nope-nope"}`, testEmail)),
		})
		assert.Equal(t, 401, resp.StatusCode)
	}

	resp := env.dispatch(&Request{
		Method:  "POST",
		Path:    "/login",
		Headers: map[string]string{"content-type": "application/json"},
		Body:    []byte(fmt.Sprintf(`{"email": %q, "password": %q}`, testEmail, testPassword)),
	})
	assert.Equal(t, 423, resp.StatusCode)
}

func TestHandleLogin_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	// JSON malformado
	resp := env.dispatch(&Request{
		Method:  "POST",
		Path:    "/login",
		Headers: map[string]string{"content-type": "application/json"},
		Body:    []byte("{not json"),
	})
	assert.Equal(t, 400, resp.StatusCode)

	// Credenciais ausentes
	resp = env.dispatch(&Request{
		Method:  "POST",
		Path:    "/login",
		Headers: map[string]string{"content-type": "application/json"},
		Body:    []byte("{}"),
	})
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandleDashboard(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginCookie(t)

	resp := env.dispatch(&Request{
		Method:  "GET",
		Path:    "/dashboard",
		Headers: map[string]string{"cookie": cookie},
	})
	require.Equal(t, 200, resp.StatusCode)

	html := string(resp.Body)
	assert.Contains(t, html, "Test User")
	assert.Contains(t, html, "TrueScore® Academic Writing")
	assert.Contains(t, html, "ClearScore® General Speaking")
}

func TestHandleDashboard_NoSession(t *testing.T) {
	env := newTestEnv(t)

	resp := env.dispatch(&Request{Method: "GET", Path: "/dashboard"})
	assert.Equal(t, 302, resp.StatusCode)
	assert.Equal(t, "/login", resp.Headers["Location"])
	assert.Contains(t, resp.Headers["Set-Cookie"], "Max-Age=0")
}

func TestHandleDashboard_ExpiredSession(t *testing.T) {
	env := newTestEnv(t)

	// Sessão criada no passado, além do TTL de 1h
	env.sessions.items["stale"] = model.Session{
		Token:     "stale",
		Email:     testEmail,
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}

	resp := env.dispatch(&Request{
		Method:  "GET",
		Path:    "/dashboard",
		Headers: map[string]string{"cookie": SessionCookie + "=stale"},
	})
	assert.Equal(t, 302, resp.StatusCode)
	assert.Equal(t, "/login", resp.Headers["Location"])

	// Delete-on-read: a sessão some do store
	assert.NotContains(t, env.sessions.items, "stale")
}

func TestHandleAssessmentPage(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginCookie(t)

	resp := env.dispatch(&Request{
		Method:  "GET",
		Path:    "/assessment/academic-writing",
		Headers: map[string]string{"cookie": cookie},
	})
	require.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "TrueScore® Academic Writing")

	resp = env.dispatch(&Request{
		Method:  "GET",
		Path:    "/assessment/telepathy",
		Headers: map[string]string{"cookie": cookie},
	})
	assert.Equal(t, 404, resp.StatusCode)
}

func TestHandleRobots(t *testing.T) {
	env := newTestEnv(t)

	resp := env.dispatch(&Request{Method: "GET", Path: "/robots.txt"})
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.Headers["Content-Type"])
	assert.Contains(t, string(resp.Body), "User-agent: *")
	assert.Contains(t, string(resp.Body), "Disallow: /api/")
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.dispatch(&Request{Method: "GET", Path: "/api/health"})
	require.Equal(t, 200, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body, &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ielts-genai-prep", body["service"])
	assert.Equal(t, "test", body["version"])
}

func TestHandleRegister(t *testing.T) {
	env := newTestEnv(t)

	resp := env.dispatch(&Request{
		Method: "POST",
		Path:   "/api/register",
		Body:   []byte(`{"email": "new@example.com", "password": "longenough1", "name": "New"}`),
	})
	assert.Equal(t, 201, resp.StatusCode)

	// Duplicado
	resp = env.dispatch(&Request{
		Method: "POST",
		Path:   "/api/register",
		Body:   []byte(`{"email": "new@example.com", "password": "longenough1", "name": "New"}`),
	})
	assert.Equal(t, 409, resp.StatusCode)

	// Senha curta
	resp = env.dispatch(&Request{
		Method: "POST",
		Path:   "/api/register",
		Body:   []byte(`{"email": "other@example.com", "password": "short", "name": "X"}`),
	})
	assert.Equal(t, 400, resp.StatusCode)
}

func TestSubmit_Writing(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginCookie(t)

	resp := env.dispatch(&Request{
		Method:  "POST",
		Path:    "/api/nova-micro/submit",
		Headers: map[string]string{"cookie": cookie},
		Body: []byte(`{"assessment_type": "academic-writing", ` +
			`"text": "Universities should balance academic rigour with employability."}`),
	})
	require.Equal(t, 200, resp.StatusCode)

	var result model.AssessmentResult
	require.NoError(t, json.Unmarshal(resp.Body, &result))

	assert.GreaterOrEqual(t, result.BandScore, 6.0)
	assert.LessOrEqual(t, result.BandScore, 8.5)
	assert.NotEmpty(t, result.Feedback)
	assert.Equal(t, testEmail, result.Email)
	assert.Equal(t, 3, result.RemainingTries)

	// Uma tentativa debitada e o histórico persistido
	assert.Equal(t, 3, env.attempts[testEmail+"|"+string(model.AcademicWriting)])
	require.Len(t, env.saved, 1)
	assert.Equal(t, result.ResultID, env.saved[0].ResultID)
}

func TestSubmit_SpeakingTranscript(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginCookie(t)

	resp := env.dispatch(&Request{
		Method:  "POST",
		Path:    "/api/nova-sonic/submit",
		Headers: map[string]string{"cookie": cookie},
		Body: []byte(`{"assessment_type": "general-speaking", ` +
			`"transcript": "I enjoy visiting the botanical garden near my house."}`),
	})
	require.Equal(t, 200, resp.StatusCode)

	var result model.AssessmentResult
	require.NoError(t, json.Unmarshal(resp.Body, &result))
	assert.Equal(t, 0, result.RemainingTries) // só havia 1 tentativa
}

func TestSubmit_Denials(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginCookie(t)

	// Sem sessão: 401 JSON, nunca redirect
	resp := env.dispatch(&Request{
		Method: "POST",
		Path:   "/api/nova-micro/submit",
		Body:   []byte(`{"assessment_type": "academic-writing", "text": "x"}`),
	})
	assert.Equal(t, 401, resp.StatusCode)

	// JSON malformado
	resp = env.dispatch(&Request{
		Method:  "POST",
		Path:    "/api/nova-micro/submit",
		Headers: map[string]string{"cookie": cookie},
		Body:    []byte("{broken"),
	})
	assert.Equal(t, 400, resp.StatusCode)

	// Tipo de speaking no endpoint de writing
	resp = env.dispatch(&Request{
		Method:  "POST",
		Path:    "/api/nova-micro/submit",
		Headers: map[string]string{"cookie": cookie},
		Body:    []byte(`{"assessment_type": "academic-speaking", "text": "x"}`),
	})
	assert.Equal(t, 400, resp.StatusCode)

	// Texto vazio
	resp = env.dispatch(&Request{
		Method:  "POST",
		Path:    "/api/nova-micro/submit",
		Headers: map[string]string{"cookie": cookie},
		Body:    []byte(`{"assessment_type": "academic-writing"}`),
	})
	assert.Equal(t, 400, resp.StatusCode)
}

func TestSubmit_NoAttemptsLeft(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginCookie(t)

	// general-writing nunca foi comprado
	resp := env.dispatch(&Request{
		Method:  "POST",
		Path:    "/api/nova-micro/submit",
		Headers: map[string]string{"cookie": cookie},
		Body:    []byte(`{"assessment_type": "general-writing", "text": "A letter to a friend."}`),
	})
	assert.Equal(t, 403, resp.StatusCode)
	assert.Empty(t, env.saved)
}

func TestHandlePurchaseVerify(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginCookie(t)

	// general-writing nunca foi comprado; a compra credita o saldo padrão
	resp := env.dispatch(&Request{
		Method:  "POST",
		Path:    "/api/purchase/verify",
		Headers: map[string]string{"cookie": cookie},
		Body:    []byte(`{"assessment_type": "general-writing", "platform": "apple", "receipt": "base64-receipt"}`),
	})
	require.Equal(t, 200, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body, &body))
	assert.Equal(t, "general-writing", body["assessment_type"])
	assert.EqualValues(t, model.DefaultAttemptsPerPurchase, body["remaining"])
	assert.Equal(t, model.DefaultAttemptsPerPurchase,
		env.attempts[testEmail+"|"+string(model.GeneralWriting)])

	// Com saldo creditado a submissão passa a ser aceita
	resp = env.dispatch(&Request{
		Method:  "POST",
		Path:    "/api/nova-micro/submit",
		Headers: map[string]string{"cookie": cookie},
		Body:    []byte(`{"assessment_type": "general-writing", "text": "A letter to a friend about my new flat."}`),
	})
	assert.Equal(t, 200, resp.StatusCode)
}

func TestHandlePurchaseVerify_Denials(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginCookie(t)

	// Sem sessão
	resp := env.dispatch(&Request{
		Method: "POST",
		Path:   "/api/purchase/verify",
		Body:   []byte(`{"assessment_type": "general-writing", "platform": "apple", "receipt": "r"}`),
	})
	assert.Equal(t, 401, resp.StatusCode)

	cases := []struct {
		name string
		body string
	}{
		{"tipo desconhecido", `{"assessment_type": "general-listening", "platform": "apple", "receipt": "r"}`},
		{"plataforma inválida", `{"assessment_type": "general-writing", "platform": "amazon", "receipt": "r"}`},
		{"sem recibo", `{"assessment_type": "general-writing", "platform": "google"}`},
		{"payload quebrado", `{"assessment_type":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.dispatch(&Request{
				Method:  "POST",
				Path:    "/api/purchase/verify",
				Headers: map[string]string{"cookie": cookie},
				Body:    []byte(tc.body),
			})
			assert.Equal(t, 400, resp.StatusCode)
		})
	}

	// Nenhuma recusa credita saldo
	_, granted := env.attempts[testEmail+"|"+string(model.GeneralWriting)]
	assert.False(t, granted)
}

func TestHandleMayaIntroduction(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginCookie(t)

	resp := env.dispatch(&Request{
		Method:  "GET",
		Path:    "/api/maya/introduction",
		Headers: map[string]string{"cookie": cookie},
		Query:   map[string]string{"type": "academic-speaking"},
	})
	require.Equal(t, 200, resp.StatusCode)

	var intro assessment.MayaIntroduction
	require.NoError(t, json.Unmarshal(resp.Body, &intro))
	assert.Equal(t, "Maya", intro.Examiner)
	assert.NotEmpty(t, intro.Lines)

	// Writing não tem examinadora
	resp = env.dispatch(&Request{
		Method:  "GET",
		Path:    "/api/maya/introduction",
		Headers: map[string]string{"cookie": cookie},
		Query:   map[string]string{"type": "academic-writing"},
	})
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandleLogout(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.loginCookie(t)
	require.Len(t, env.sessions.items, 1)

	resp := env.dispatch(&Request{
		Method:  "POST",
		Path:    "/logout",
		Headers: map[string]string{"cookie": cookie},
	})
	assert.Equal(t, 302, resp.StatusCode)
	assert.Equal(t, "/login", resp.Headers["Location"])
	assert.Contains(t, resp.Headers["Set-Cookie"], "Max-Age=0")
	assert.Empty(t, env.sessions.items)
}

func TestHandleLoginPage(t *testing.T) {
	env := newTestEnv(t)

	resp := env.dispatch(&Request{Method: "GET", Path: "/login"})
	require.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Headers["Content-Type"], "text/html")
	assert.Contains(t, string(resp.Body), "Sign in")
}

func TestHandleHome(t *testing.T) {
	env := newTestEnv(t)

	resp := env.dispatch(&Request{Method: "GET", Path: "/"})
	require.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "TrueScore® Academic Writing")
}

func TestStaticPages(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/privacy-policy", "/terms-of-service"} {
		resp := env.dispatch(&Request{Method: "GET", Path: path})
		assert.Equal(t, 200, resp.StatusCode, path)
		assert.Contains(t, resp.Headers["Content-Type"], "text/html")
	}
}
