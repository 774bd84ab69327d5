package web

import (
	"context"
	"fmt"
	"strings"

	"github.com/ieltsgenai/prep-service/pkg/assessment"
	"github.com/ieltsgenai/prep-service/pkg/auth"
	"github.com/ieltsgenai/prep-service/pkg/model"
	"github.com/ieltsgenai/prep-service/pkg/repository"
	"github.com/ieltsgenai/prep-service/pkg/templates"
)

// SessionCookie é o nome do cookie de sessão do produto.
const SessionCookie = "web_session_id"

// App liga o router aos serviços de domínio. Uma instância por processo;
// nenhum estado de requisição vive aqui.
type App struct {
	ServiceName string
	Version     string

	Auth      *auth.Service
	Engine    *assessment.Engine
	Users     *repository.UserRepository
	Attempts  *repository.AttemptRepository
	Questions *repository.QuestionRepository
	Results   *repository.ResultRepository
	Renderer  *templates.Renderer

	RecaptchaSiteKey string
}

// Router monta a tabela de rotas completa do serviço.
func (a *App) Router() *Router {
	r := NewRouter()

	// Páginas
	r.Handle("GET", "/", a.handleHome)
	r.Handle("GET", "/login", a.handleLoginPage)
	r.Handle("POST", "/login", a.handleLogin)
	r.Handle("POST", "/logout", a.handleLogout)
	r.Handle("GET", "/logout", a.handleLogout)
	r.Handle("GET", "/dashboard", a.handleDashboard)
	r.Handle("GET", "/assessment/{type}", a.handleAssessmentPage)
	r.Handle("GET", "/privacy-policy", a.staticPage("privacy-policy.html"))
	r.Handle("GET", "/terms-of-service", a.staticPage("terms-of-service.html"))
	r.Handle("GET", "/robots.txt", a.handleRobots)

	// API
	r.Handle("GET", "/api/health", a.handleHealth)
	r.Handle("POST", "/api/register", a.handleRegister)
	r.Handle("POST", "/api/purchase/verify", a.handlePurchaseVerify)
	r.Handle("POST", "/api/nova-micro/submit", a.submitHandler(false))
	r.Handle("POST", "/api/nova-sonic/submit", a.submitHandler(true))
	r.Handle("GET", "/api/maya/introduction", a.handleMayaIntroduction)

	return r
}

// sessionCookieValue monta o Set-Cookie de login.
func (a *App) sessionCookieValue(token string) string {
	maxAge := int(a.Auth.SessionTTL().Seconds())
	return fmt.Sprintf("%s=%s; HttpOnly; Secure; Path=/; Max-Age=%d; SameSite=Lax",
		SessionCookie, token, maxAge)
}

// expiredCookieValue derruba o cookie no navegador.
func expiredCookieValue() string {
	return SessionCookie + "=; HttpOnly; Secure; Path=/; Max-Age=0"
}

// requireSession resolve o cookie em sessão viva. asAPI controla a
// resposta de recusa: 401 JSON para a API, 302 /login para páginas.
func (a *App) requireSession(ctx context.Context, req *Request, asAPI bool) (*model.Session, *Response) {
	session, err := a.Auth.ValidateSession(ctx, req.Cookie(SessionCookie))
	if err != nil {
		if asAPI {
			return nil, JSONError(401, "authentication required")
		}
		return nil, Redirect("/login").WithHeader("Set-Cookie", expiredCookieValue())
	}
	return session, nil
}

// wantsJSON identifica clientes de API (fetch) versus formulários.
func wantsJSON(req *Request) bool {
	return strings.Contains(req.Header("content-type"), "application/json")
}
