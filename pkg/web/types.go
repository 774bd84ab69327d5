package web

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Request é o envelope neutro de transporte: tanto o API Gateway quanto
// o servidor HTTP local convertem para ele antes do roteamento.
type Request struct {
	Method     string
	Path       string
	Headers    map[string]string // chaves minúsculas
	Query      map[string]string
	PathParams map[string]string
	Body       []byte
	SourceIP   string
}

// Header busca um header (case-insensitive).
func (r *Request) Header(name string) string {
	return r.Headers[strings.ToLower(name)]
}

// Cookie extrai um cookie pelo nome do header Cookie.
func (r *Request) Cookie(name string) string {
	raw := r.Header("cookie")
	if raw == "" {
		return ""
	}
	for _, part := range strings.Split(raw, ";") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) == 2 && kv[0] == name {
			return kv[1]
		}
	}
	return ""
}

// BindJSON desserializa o body JSON no destino.
func (r *Request) BindJSON(target interface{}) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("web: empty body")
	}
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("web: invalid JSON body: %w", err)
	}
	return nil
}

// Response segue o envelope {statusCode, headers, body} do API Gateway.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// WithHeader adiciona um header à resposta (fluente).
func (r *Response) WithHeader(name, value string) *Response {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[name] = value
	return r
}

// JSON monta uma resposta application/json.
func JSON(status int, payload interface{}) *Response {
	body, err := json.Marshal(payload)
	if err != nil {
		// Payloads são structs nossos; falha aqui é bug de programação
		return &Response{
			StatusCode: 500,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       []byte(`{"error":"internal server error"}`),
		}
	}
	return &Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

// JSONError monta o corpo de erro padrão da API.
func JSONError(status int, message string) *Response {
	return JSON(status, map[string]string{"error": message})
}

// HTML monta uma resposta text/html.
func HTML(status int, body []byte) *Response {
	return &Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "text/html; charset=utf-8"},
		Body:       body,
	}
}

// Text monta uma resposta text/plain.
func Text(status int, body []byte) *Response {
	return &Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "text/plain"},
		Body:       body,
	}
}

// Redirect monta um 302 para o destino.
func Redirect(location string) *Response {
	return &Response{
		StatusCode: 302,
		Headers:    map[string]string{"Location": location},
	}
}
