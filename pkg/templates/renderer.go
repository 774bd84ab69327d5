package templates

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"path"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

//go:embed assets
var embedded embed.FS

// S3Client abstrai o download de assets (permite mocking).
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Renderer serve as páginas HTML. Os assets vivem FORA do código
// executável: embutidos no binário por padrão, com override opcional
// no S3 para atualizar páginas sem um deploy de código. Falha no S3
// cai para a cópia embutida, com log.
type Renderer struct {
	s3     S3Client
	bucket string
	prefix string

	mu    sync.RWMutex
	cache map[string]*template.Template
}

func NewRenderer(client S3Client, bucket, prefix string) *Renderer {
	return &Renderer{
		s3:     client,
		bucket: bucket,
		prefix: prefix,
		cache:  make(map[string]*template.Template),
	}
}

// Render executa o template nomeado (ex: "login.html") com os dados.
func (r *Renderer) Render(ctx context.Context, name string, data interface{}) ([]byte, error) {
	tpl, err := r.load(ctx, name)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("templates: execute %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// RobotsTxt devolve as regras de crawler embutidas, verbatim.
func (r *Renderer) RobotsTxt() ([]byte, error) {
	raw, err := embedded.ReadFile("assets/robots.txt")
	if err != nil {
		return nil, fmt.Errorf("templates: robots.txt: %w", err)
	}
	return raw, nil
}

// Invalidate descarta o cache de templates parseados.
func (r *Renderer) Invalidate() {
	r.mu.Lock()
	r.cache = make(map[string]*template.Template)
	r.mu.Unlock()
}

func (r *Renderer) load(ctx context.Context, name string) (*template.Template, error) {
	r.mu.RLock()
	cached, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	raw, err := r.source(ctx, name)
	if err != nil {
		return nil, err
	}

	tpl, err := template.New(name).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("templates: parse %s: %w", name, err)
	}

	r.mu.Lock()
	r.cache[name] = tpl
	r.mu.Unlock()

	return tpl, nil
}

func (r *Renderer) source(ctx context.Context, name string) ([]byte, error) {
	if r.s3 != nil && r.bucket != "" {
		key := path.Join(r.prefix, name)
		out, err := r.s3.GetObject(ctx, &s3.GetObjectInput{
			Bucket: &r.bucket,
			Key:    &key,
		})
		if err == nil {
			defer out.Body.Close()
			raw, readErr := io.ReadAll(out.Body)
			if readErr == nil {
				return raw, nil
			}
			err = readErr
		}
		log.Ctx(ctx).Warn().Err(err).
			Str("bucket", r.bucket).
			Str("template", name).
			Msg("s3 template unavailable, serving embedded copy")
	}

	raw, err := embedded.ReadFile("assets/" + name)
	if err != nil {
		return nil, fmt.Errorf("templates: unknown template %q: %w", name, err)
	}
	return raw, nil
}
