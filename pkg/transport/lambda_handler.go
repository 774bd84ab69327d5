package transport

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ieltsgenai/prep-service/pkg/metrics"
	"github.com/ieltsgenai/prep-service/pkg/web"
)

const (
	HeaderCorrelationID = "x-correlation-id"
	HeaderLatency       = "x-latency-ms"
)

type contextKey string

// ContextKeyCorrID carrega o correlation id no contexto da requisição.
const ContextKeyCorrID contextKey = "correlation_id"

// LambdaHandler adapta eventos do API Gateway para o router do serviço.
type LambdaHandler struct {
	router  *web.Router
	metrics metrics.Provider
}

// NewLambdaHandler cria uma nova instância do adaptador.
func NewLambdaHandler(router *web.Router, provider metrics.Provider) *LambdaHandler {
	return &LambdaHandler{router: router, metrics: provider}
}

// Handle processa a requisição Lambda.
func (h *LambdaHandler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()

	req := fromProxyEvent(event)

	corrID := req.Header(HeaderCorrelationID)
	if corrID == "" {
		corrID = uuid.NewString()
	}

	logger := log.With().Str("correlation_id", corrID).Logger()
	ctx = logger.WithContext(ctx)
	ctx = context.WithValue(ctx, ContextKeyCorrID, corrID)

	resp := h.router.Dispatch(ctx, req)

	latency := time.Since(start)
	logger.Info().
		Str("method", event.HTTPMethod).
		Str("path", event.Path).
		Int("status", resp.StatusCode).
		Int64("latency_ms", latency.Milliseconds()).
		Msg("lambda request completed")
	_ = h.metrics.Histogram(metrics.MetricRequestLatencyMS, float64(latency.Milliseconds()),
		[]string{"method:" + event.HTTPMethod, fmt.Sprintf("status:%d", resp.StatusCode)})

	headers := map[string]string{HeaderCorrelationID: corrID}
	for k, v := range resp.Headers {
		headers[k] = v
	}

	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       string(resp.Body),
	}, nil
}

// fromProxyEvent converte o evento do API Gateway no envelope neutro.
func fromProxyEvent(event events.APIGatewayProxyRequest) *web.Request {
	headers := make(map[string]string, len(event.Headers))
	for k, v := range event.Headers {
		headers[strings.ToLower(k)] = v
	}

	query := make(map[string]string, len(event.QueryStringParameters))
	for k, v := range event.QueryStringParameters {
		query[k] = v
	}

	body := []byte(event.Body)
	if event.IsBase64Encoded {
		if decoded, err := base64.StdEncoding.DecodeString(event.Body); err == nil {
			body = decoded
		}
	}

	return &web.Request{
		Method:   event.HTTPMethod,
		Path:     event.Path,
		Headers:  headers,
		Query:    query,
		Body:     body,
		SourceIP: event.RequestContext.Identity.SourceIP,
	}
}
