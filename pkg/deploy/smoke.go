package deploy

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// SmokeCheck descreve uma verificação pós-deploy.
type SmokeCheck struct {
	Name       string
	Method     string
	Path       string
	Body       string
	WantStatus int
	// WantHeader opcional: "Content-Type" -> prefixo esperado
	WantHeader map[string]string
}

// DefaultSmokeChecks cobre as superfícies críticas do serviço.
// O POST /login sem credenciais DEVE devolver 400: confirma que o
// router novo está no ar sem depender de uma conta real.
func DefaultSmokeChecks() []SmokeCheck {
	return []SmokeCheck{
		{Name: "health", Method: "GET", Path: "/api/health", WantStatus: 200,
			WantHeader: map[string]string{"Content-Type": "application/json"}},
		{Name: "home", Method: "GET", Path: "/", WantStatus: 200},
		{Name: "login page", Method: "GET", Path: "/login", WantStatus: 200},
		{Name: "robots", Method: "GET", Path: "/robots.txt", WantStatus: 200,
			WantHeader: map[string]string{"Content-Type": "text/plain"}},
		{Name: "login without credentials", Method: "POST", Path: "/login",
			Body: "{}", WantStatus: 400},
		{Name: "dashboard without session", Method: "GET", Path: "/dashboard", WantStatus: 302},
	}
}

// RunSmokeChecks executa as verificações contra a URL base e retorna
// erro se qualquer uma falhar (pensado para gate de pipeline).
func RunSmokeChecks(ctx context.Context, baseURL string, checks []SmokeCheck) error {
	client := &http.Client{
		Timeout: 15 * time.Second,
		// Os checks validam o 302 cru, sem seguir o redirect
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	baseURL = strings.TrimRight(baseURL, "/")
	var failures []string

	for _, check := range checks {
		if err := runCheck(ctx, client, baseURL, check); err != nil {
			log.Error().Err(err).Str("check", check.Name).Msg("smoke check failed")
			failures = append(failures, check.Name)
			continue
		}
		log.Info().Str("check", check.Name).Msg("smoke check passed")
	}

	if len(failures) > 0 {
		return fmt.Errorf("deploy: %d smoke check(s) failed: %s",
			len(failures), strings.Join(failures, ", "))
	}
	return nil
}

func runCheck(ctx context.Context, client *http.Client, baseURL string, check SmokeCheck) error {
	req, err := http.NewRequestWithContext(ctx, check.Method, baseURL+check.Path,
		strings.NewReader(check.Body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if check.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != check.WantStatus {
		return fmt.Errorf("status %d, want %d", resp.StatusCode, check.WantStatus)
	}
	for header, wantPrefix := range check.WantHeader {
		if got := resp.Header.Get(header); !strings.HasPrefix(got, wantPrefix) {
			return fmt.Errorf("header %s = %q, want prefix %q", header, got, wantPrefix)
		}
	}
	return nil
}
