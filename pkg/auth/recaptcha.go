package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultVerifyURL é o endpoint site-verify do Google.
const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// SecretSource busca o secret do reCAPTCHA (normalmente Secrets Manager).
type SecretSource func(ctx context.Context) (string, error)

// RecaptchaVerifier valida tokens contra o Google. A política é FALHAR
// FECHADO: secret ausente, erro de rede ou resposta malformada contam
// como verificação reprovada. O único bypass é Enabled=false na config,
// explicitamente, para desenvolvimento local.
type RecaptchaVerifier struct {
	enabled   bool
	verifyURL string
	client    *http.Client
	source    SecretSource

	mu     sync.Mutex
	secret string
}

// NewRecaptchaVerifier monta o verificador; timeout cobre a chamada
// outbound inteira (default 10s via config).
func NewRecaptchaVerifier(enabled bool, verifyURL string, timeout time.Duration, source SecretSource) *RecaptchaVerifier {
	if verifyURL == "" {
		verifyURL = DefaultVerifyURL
	}
	return &RecaptchaVerifier{
		enabled:   enabled,
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: timeout},
		source:    source,
	}
}

// Enabled indica se a verificação está ativa.
func (v *RecaptchaVerifier) Enabled() bool { return v.enabled }

type siteVerifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify valida o token com o IP do cliente. Retorna false em qualquer
// falha; o motivo vai para o log, nunca para o cliente.
func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) bool {
	if !v.enabled {
		return true
	}
	if token == "" {
		return false
	}

	secret, err := v.loadSecret(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("recaptcha secret unavailable, failing closed")
		return false
	}

	form := url.Values{}
	form.Set("secret", secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("recaptcha request build failed")
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("recaptcha verify call failed, failing closed")
		return false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("recaptcha response read failed")
		return false
	}

	var result siteVerifyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("recaptcha response parse failed")
		return false
	}

	if !result.Success {
		log.Ctx(ctx).Warn().
			Strs("error_codes", result.ErrorCodes).
			Msg("recaptcha rejected")
	}
	return result.Success
}

func (v *RecaptchaVerifier) loadSecret(ctx context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.secret != "" {
		return v.secret, nil
	}
	if v.source == nil {
		return "", fmt.Errorf("recaptcha: no secret source configured")
	}

	secret, err := v.source(ctx)
	if err != nil {
		return "", err
	}
	if secret == "" {
		return "", fmt.Errorf("recaptcha: secret source returned empty value")
	}

	v.secret = secret
	return secret, nil
}
