package web

import (
	"context"
	"errors"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/ieltsgenai/prep-service/pkg/assessment"
	"github.com/ieltsgenai/prep-service/pkg/auth"
	"github.com/ieltsgenai/prep-service/pkg/model"
	"github.com/ieltsgenai/prep-service/pkg/repository"
)

// ---------------------------------------------------------------------
// Páginas
// ---------------------------------------------------------------------

func (a *App) handleHome(ctx context.Context, req *Request) *Response {
	labels := make([]string, 0, len(model.AllAssessmentTypes))
	for _, t := range model.AllAssessmentTypes {
		labels = append(labels, t.Label())
	}
	body, err := a.Renderer.Render(ctx, "home.html", map[string]interface{}{
		"Products": labels,
	})
	if err != nil {
		return a.renderFailure(ctx, err)
	}
	return HTML(200, body)
}

func (a *App) handleLoginPage(ctx context.Context, req *Request) *Response {
	body, err := a.Renderer.Render(ctx, "login.html", map[string]interface{}{
		"RecaptchaEnabled": a.RecaptchaSiteKey != "",
		"RecaptchaSiteKey": a.RecaptchaSiteKey,
		"Error":            req.Query["error"],
	})
	if err != nil {
		return a.renderFailure(ctx, err)
	}
	return HTML(200, body)
}

func (a *App) staticPage(name string) HandlerFunc {
	return func(ctx context.Context, req *Request) *Response {
		body, err := a.Renderer.Render(ctx, name, nil)
		if err != nil {
			return a.renderFailure(ctx, err)
		}
		return HTML(200, body)
	}
}

func (a *App) handleRobots(ctx context.Context, req *Request) *Response {
	body, err := a.Renderer.RobotsTxt()
	if err != nil {
		return a.renderFailure(ctx, err)
	}
	return Text(200, body)
}

func (a *App) handleDashboard(ctx context.Context, req *Request) *Response {
	session, denied := a.requireSession(ctx, req, false)
	if denied != nil {
		return denied
	}

	user, err := a.Users.GetByEmail(ctx, session.Email)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("dashboard user lookup failed")
		return JSONError(500, "internal server error")
	}

	allowances, err := a.Attempts.List(ctx, session.Email)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("dashboard allowance lookup failed")
	}
	remaining := make(map[string]int, len(allowances))
	for _, al := range allowances {
		remaining[al.AssessmentType] = al.Remaining
	}

	type product struct {
		Type      string
		Label     string
		Remaining int
	}
	products := make([]product, 0, len(model.AllAssessmentTypes))
	for _, t := range model.AllAssessmentTypes {
		products = append(products, product{
			Type:      string(t),
			Label:     t.Label(),
			Remaining: remaining[string(t)],
		})
	}

	results, err := a.Results.ListByEmail(ctx, session.Email, 10)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("dashboard result lookup failed")
	}

	body, err := a.Renderer.Render(ctx, "dashboard.html", map[string]interface{}{
		"Name":     user.Name,
		"Products": products,
		"Results":  results,
	})
	if err != nil {
		return a.renderFailure(ctx, err)
	}
	return HTML(200, body)
}

func (a *App) handleAssessmentPage(ctx context.Context, req *Request) *Response {
	_, denied := a.requireSession(ctx, req, false)
	if denied != nil {
		return denied
	}

	t, err := model.ParseAssessmentType(req.PathParams["type"])
	if err != nil {
		return JSONError(404, "unknown assessment type")
	}

	question, err := a.Questions.ActiveQuestion(ctx, t)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("question lookup failed")
		return JSONError(500, "internal server error")
	}

	body, err := a.Renderer.Render(ctx, "assessment.html", map[string]interface{}{
		"Label":    t.Label(),
		"Question": question,
		"Speaking": t.IsSpeaking(),
	})
	if err != nil {
		return a.renderFailure(ctx, err)
	}
	return HTML(200, body)
}

// ---------------------------------------------------------------------
// Autenticação
// ---------------------------------------------------------------------

type loginPayload struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	RecaptchaToken string `json:"recaptcha_token"`
}

// parseLoginPayload aceita JSON (fetch) e formulário (POST clássico).
func parseLoginPayload(req *Request) (*loginPayload, error) {
	if wantsJSON(req) {
		var p loginPayload
		if err := req.BindJSON(&p); err != nil {
			return nil, err
		}
		return &p, nil
	}

	form, err := url.ParseQuery(string(req.Body))
	if err != nil {
		return nil, err
	}
	p := &loginPayload{
		Email:          form.Get("email"),
		Password:       form.Get("password"),
		RecaptchaToken: form.Get("g-recaptcha-response"),
	}
	if p.RecaptchaToken == "" {
		p.RecaptchaToken = form.Get("recaptcha_token")
	}
	return p, nil
}

func (a *App) handleLogin(ctx context.Context, req *Request) *Response {
	payload, err := parseLoginPayload(req)
	if err != nil {
		return JSONError(400, "invalid request body")
	}
	if payload.Email == "" || payload.Password == "" {
		return JSONError(400, "email and password are required")
	}

	session, err := a.Auth.Login(ctx, payload.Email, payload.Password, payload.RecaptchaToken, req.SourceIP)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrRecaptchaRejected):
			return JSONError(400, "recaptcha verification failed")
		case errors.Is(err, auth.ErrAccountLocked):
			return JSONError(423, "account locked, contact support")
		case errors.Is(err, auth.ErrInvalidCredentials):
			return JSONError(401, "invalid email or password")
		}
		log.Ctx(ctx).Error().Err(err).Msg("login failed")
		return JSONError(500, "internal server error")
	}

	cookie := a.sessionCookieValue(session.Token)
	if wantsJSON(req) {
		return JSON(200, map[string]string{"redirect": "/dashboard"}).
			WithHeader("Set-Cookie", cookie)
	}
	return Redirect("/dashboard").WithHeader("Set-Cookie", cookie)
}

func (a *App) handleLogout(ctx context.Context, req *Request) *Response {
	if err := a.Auth.Logout(ctx, req.Cookie(SessionCookie)); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("logout failed")
	}
	return Redirect("/login").WithHeader("Set-Cookie", expiredCookieValue())
}

type registerPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (a *App) handleRegister(ctx context.Context, req *Request) *Response {
	var payload registerPayload
	if err := req.BindJSON(&payload); err != nil {
		return JSONError(400, "invalid request body")
	}

	user, err := a.Auth.Register(ctx, payload.Email, payload.Password, payload.Name)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			return JSONError(400, "invalid registration data")
		case errors.Is(err, repository.ErrUserExists):
			return JSONError(409, "account already exists")
		}
		log.Ctx(ctx).Error().Err(err).Msg("registration failed")
		return JSONError(500, "internal server error")
	}

	return JSON(201, map[string]string{"email": user.Email})
}

// ---------------------------------------------------------------------
// Avaliações
// ---------------------------------------------------------------------

type submitPayload struct {
	AssessmentType string `json:"assessment_type"`
	QuestionID     string `json:"question_id"`
	Text           string `json:"text"`
	Transcript     string `json:"transcript"`
}

// submitHandler atende os dois endpoints de submissão; speaking=true é
// o caminho Nova Sonic (ClearScore), senão Nova Micro (TrueScore).
func (a *App) submitHandler(speaking bool) HandlerFunc {
	return func(ctx context.Context, req *Request) *Response {
		session, denied := a.requireSession(ctx, req, true)
		if denied != nil {
			return denied
		}

		var payload submitPayload
		if err := req.BindJSON(&payload); err != nil {
			return JSONError(400, "invalid request body")
		}

		t, err := model.ParseAssessmentType(payload.AssessmentType)
		if err != nil {
			return JSONError(400, "unknown assessment type")
		}
		if speaking != t.IsSpeaking() {
			return JSONError(400, "assessment type does not match endpoint")
		}

		text := payload.Text
		if speaking && payload.Transcript != "" {
			text = payload.Transcript
		}
		if text == "" {
			return JSONError(400, "submission text is required")
		}

		question, err := a.resolveQuestion(ctx, t, payload.QuestionID)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("question resolution failed")
			return JSONError(500, "internal server error")
		}

		remaining, err := a.Attempts.Consume(ctx, session.Email, t)
		if err != nil {
			if errors.Is(err, repository.ErrNoAttemptsLeft) {
				return JSONError(403, "no attempts remaining for this assessment")
			}
			log.Ctx(ctx).Error().Err(err).Msg("attempt consume failed")
			return JSONError(500, "internal server error")
		}

		result, err := a.Engine.Evaluate(ctx, *question, assessment.Submission{
			Email:      session.Email,
			Type:       t,
			QuestionID: question.QuestionID,
			Text:       text,
		})
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("evaluation failed")
			return JSONError(500, "internal server error")
		}
		result.RemainingTries = remaining

		// Histórico é best effort; o candidato já tem o resultado em mãos
		if err := a.Results.Save(ctx, *result); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("result persistence failed")
		}

		return JSON(200, result)
	}
}

func (a *App) resolveQuestion(ctx context.Context, t model.AssessmentType, questionID string) (*model.Question, error) {
	if questionID == "" {
		return a.Questions.ActiveQuestion(ctx, t)
	}
	return a.Questions.Get(ctx, t, questionID)
}

type purchasePayload struct {
	AssessmentType string `json:"assessment_type"`
	Platform       string `json:"platform"`
	Receipt        string `json:"receipt"`
}

// handlePurchaseVerify credita o saldo de tentativas de uma compra
// in-app. O recibo já chega validado pelos apps contra a loja; aqui só
// se confere a forma do payload.
func (a *App) handlePurchaseVerify(ctx context.Context, req *Request) *Response {
	session, denied := a.requireSession(ctx, req, true)
	if denied != nil {
		return denied
	}

	var payload purchasePayload
	if err := req.BindJSON(&payload); err != nil {
		return JSONError(400, "invalid request body")
	}

	t, err := model.ParseAssessmentType(payload.AssessmentType)
	if err != nil {
		return JSONError(400, "unknown assessment type")
	}
	if payload.Platform != "apple" && payload.Platform != "google" {
		return JSONError(400, "platform must be apple or google")
	}
	if payload.Receipt == "" {
		return JSONError(400, "purchase receipt is required")
	}

	if err := a.Attempts.Grant(ctx, session.Email, t); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("attempt grant failed")
		return JSONError(500, "internal server error")
	}

	log.Ctx(ctx).Info().
		Str("assessment_type", string(t)).
		Str("platform", payload.Platform).
		Msg("purchase credited")

	return JSON(200, map[string]interface{}{
		"assessment_type": string(t),
		"remaining":       model.DefaultAttemptsPerPurchase,
	})
}

func (a *App) handleMayaIntroduction(ctx context.Context, req *Request) *Response {
	_, denied := a.requireSession(ctx, req, true)
	if denied != nil {
		return denied
	}

	t, err := model.ParseAssessmentType(req.Query["type"])
	if err != nil || !t.IsSpeaking() {
		return JSONError(400, "a speaking assessment type is required")
	}
	return JSON(200, assessment.IntroductionFor(t))
}

// ---------------------------------------------------------------------
// Infra
// ---------------------------------------------------------------------

func (a *App) handleHealth(ctx context.Context, req *Request) *Response {
	return JSON(200, map[string]string{
		"status":  "ok",
		"service": a.ServiceName,
		"version": a.Version,
	})
}

func (a *App) renderFailure(ctx context.Context, err error) *Response {
	log.Ctx(ctx).Error().Err(err).Msg("template render failed")
	return JSONError(500, "internal server error")
}
