package metrics

// Provider define o contrato para envio de métricas.
// Permite trocar Datadog por outro backend sem alterar a lógica de negócio.
type Provider interface {
	Count(name string, value float64, tags []string) error
	Gauge(name string, value float64, tags []string) error
	Histogram(name string, value float64, tags []string) error
}

// Nomes das métricas emitidas pelo serviço.
const (
	MetricLoginSuccess      = "auth.login.success"
	MetricLoginFailure      = "auth.login.failure"
	MetricLoginLocked       = "auth.login.locked"
	MetricRecaptchaRejected = "auth.recaptcha.rejected"
	MetricSessionExpired    = "auth.session.expired"
	MetricAssessmentSubmit  = "assessment.submit"
	MetricAssessmentFallbck = "assessment.model_fallback"
	MetricRequestLatencyMS  = "http.request.latency_ms"
)
