package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type ConfigValidator struct {
	validate *validator.Validate
}

// NewValidator cria uma nova instância do validador
func NewValidator() *ConfigValidator {
	return &ConfigValidator{
		validate: validator.New(),
	}
}

// Validate realiza validações estruturais (tags) e semânticas (lógica)
func (cv *ConfigValidator) Validate(cfg *ServiceConfig) error {
	// 1. Validação Estrutural (tags do struct: required, oneof, etc)
	if err := cv.validate.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errMsgs []string
			for _, e := range validationErrors {
				errMsgs = append(errMsgs, fmt.Sprintf("campo '%s' falhou na regra '%s'", e.Field(), e.Tag()))
			}
			return fmt.Errorf("config: erros de validação estrutural:\n- %s", strings.Join(errMsgs, "\n- "))
		}
		return fmt.Errorf("config: erro de validação estrutural: %w", err)
	}

	// 2. Validação Semântica
	return cv.validateSemantics(cfg)
}

func (cv *ConfigValidator) validateSemantics(cfg *ServiceConfig) error {
	// Durations precisam ser parseáveis quando informadas
	for field, value := range map[string]string{
		"service.timeout":          cfg.Service.Timeout,
		"sessions.ttl":             cfg.Sessions.TTL,
		"recaptcha.timeout":        cfg.Recaptcha.Timeout,
		"assessment.model_timeout": cfg.Assessment.ModelTimeout,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("config: duration inválida em '%s': %q", field, value)
		}
	}

	// Store de sessão default: dynamodb (sem infraestrutura extra)
	if cfg.Sessions.Store == "" {
		cfg.Sessions.Store = "dynamodb"
	}

	if cfg.Service.Region == "" {
		cfg.Service.Region = "us-east-1"
	}

	// Templates no S3 exigem bucket quando o prefixo é informado
	if cfg.Templates.S3Prefix != "" && cfg.Templates.S3Bucket == "" {
		return fmt.Errorf("config: 'templates.s3_prefix' informado sem 'templates.s3_bucket'")
	}

	return nil
}
