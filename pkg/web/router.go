package web

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// HandlerFunc processa um Request já roteado.
type HandlerFunc func(ctx context.Context, req *Request) *Response

type route struct {
	method   string
	segments []string // segmentos literais ou "{param}"
	handler  HandlerFunc
}

// Router é a tabela única e parametrizada de method+path que substitui
// a cadeia if/elif regenerada por deploy. Suporta parâmetros de path
// no formato {nome}.
type Router struct {
	routes []route
}

func NewRouter() *Router {
	return &Router{}
}

// Handle registra uma rota. Padrões como "/assessment/{type}" expõem
// o parâmetro em req.PathParams["type"].
func (r *Router) Handle(method, pattern string, handler HandlerFunc) {
	r.routes = append(r.routes, route{
		method:   strings.ToUpper(method),
		segments: splitPath(pattern),
		handler:  handler,
	})
}

// Dispatch resolve e executa o handler. Panics viram 500 genérico:
// o detalhe fica no log, nunca no corpo da resposta.
func (r *Router) Dispatch(ctx context.Context, req *Request) (resp *Response) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Ctx(ctx).Error().
				Interface("panic", rec).
				Str("method", req.Method).
				Str("path", req.Path).
				Msg("handler panic recovered")
			resp = JSONError(500, "internal server error")
		}
	}()

	segments := splitPath(req.Path)
	methodMatched := false

	for _, rt := range r.routes {
		params, ok := match(rt.segments, segments)
		if !ok {
			continue
		}
		if rt.method != strings.ToUpper(req.Method) {
			methodMatched = true
			continue
		}
		req.PathParams = params
		return rt.handler(ctx, req)
	}

	if methodMatched {
		return JSONError(405, "method not allowed")
	}
	return JSONError(404, "not found")
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func match(pattern, actual []string) (map[string]string, bool) {
	if len(pattern) != len(actual) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range pattern {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if params == nil {
				params = make(map[string]string)
			}
			params[seg[1:len(seg)-1]] = actual[i]
			continue
		}
		if seg != actual[i] {
			return nil, false
		}
	}
	return params, true
}
