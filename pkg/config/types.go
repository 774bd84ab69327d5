package config

import "time"

// ServiceConfig representa a estrutura raiz do arquivo YAML do serviço.
type ServiceConfig struct {
	Version    string         `yaml:"version" validate:"required"`
	Service    ServiceDetails `yaml:"service" validate:"required"`
	Tables     TablesConf     `yaml:"tables" validate:"required"`
	Sessions   SessionsConf   `yaml:"sessions"`
	Recaptcha  RecaptchaConf  `yaml:"recaptcha"`
	Assessment AssessmentConf `yaml:"assessment"`
	Templates  TemplatesConf  `yaml:"templates"`
}

// ServiceDetails contém os metadados e configurações de runtime do serviço.
type ServiceDetails struct {
	Name    string      `yaml:"name" validate:"required,hostname_rfc1123"`
	Runtime string      `yaml:"runtime" validate:"required,oneof=local lambda"`
	Region  string      `yaml:"region" env:"AWS_REGION"`
	Port    int         `yaml:"port" validate:"required_if=Runtime local"` // Obrigatório apenas se local
	Timeout string      `yaml:"timeout" validate:"required"`               // Ex: "10s"
	Logging LoggingConf `yaml:"logging"`
	Metrics MetricsConf `yaml:"metrics"`
}

// TablesConf nomeia as tabelas DynamoDB usadas pelos repositórios.
type TablesConf struct {
	Users     string `yaml:"users" env:"USERS_TABLE" validate:"required"`
	Sessions  string `yaml:"sessions" env:"SESSIONS_TABLE" validate:"required"`
	Attempts  string `yaml:"attempts" env:"ATTEMPTS_TABLE" validate:"required"`
	Questions string `yaml:"questions" env:"QUESTIONS_TABLE" validate:"required"`
	Results   string `yaml:"results" env:"RESULTS_TABLE" validate:"required"`
}

// SessionsConf escolhe o store de sessão externo. O default (dynamodb)
// funciona sem infraestrutura extra; redis é o caminho de menor latência.
type SessionsConf struct {
	Store         string `yaml:"store" validate:"omitempty,oneof=redis dynamodb"`
	TTL           string `yaml:"ttl"` // Ex: "1h"
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR" validate:"required_if=Store redis"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	SQSReloadURL  string `yaml:"sqs_reload_url" env:"QUESTION_RELOAD_QUEUE_URL"`
}

// RecaptchaConf controla a verificação no Google reCAPTCHA.
// Sem secret configurado e com Enabled=true o login FALHA FECHADO.
type RecaptchaConf struct {
	Enabled   bool   `yaml:"enabled"`
	SiteKey   string `yaml:"site_key" env:"RECAPTCHA_SITE_KEY"`
	SecretARN string `yaml:"secret_arn" env:"RECAPTCHA_SECRET_ARN" validate:"required_if=Enabled true"`
	VerifyURL string `yaml:"verify_url"`
	Timeout   string `yaml:"timeout"` // default 10s
}

// AssessmentConf aponta os modelos gerenciados dos motores de avaliação.
type AssessmentConf struct {
	NovaMicroModelID string `yaml:"nova_micro_model_id" env:"NOVA_MICRO_MODEL_ID"`
	NovaSonicModelID string `yaml:"nova_sonic_model_id" env:"NOVA_SONIC_MODEL_ID"`
	ModelTimeout     string `yaml:"model_timeout"` // default 25s
}

// TemplatesConf configura a origem opcional de templates no S3.
type TemplatesConf struct {
	S3Bucket string `yaml:"s3_bucket" env:"TEMPLATES_BUCKET"`
	S3Prefix string `yaml:"s3_prefix" env:"TEMPLATES_PREFIX"`
}

type LoggingConf struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format  string `yaml:"format" validate:"omitempty,oneof=json console"`
}

type MetricsConf struct {
	Datadog DatadogConf `yaml:"datadog"`
}

type DatadogConf struct {
	Enabled   bool   `yaml:"enabled" env:"DD_ENABLED"`
	Addr      string `yaml:"addr" env:"DD_AGENT_HOST" validate:"required_if=Enabled true"`
	Namespace string `yaml:"namespace"`
}

// GetTimeout converte o timeout do serviço (default 10s).
func (s ServiceDetails) GetTimeout() time.Duration {
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetTTL converte o TTL de sessão (default 1h, conforme o produto).
func (s SessionsConf) GetTTL() time.Duration {
	d, err := time.ParseDuration(s.TTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// GetTimeout converte o timeout do reCAPTCHA (default 10s).
func (r RecaptchaConf) GetTimeout() time.Duration {
	d, err := time.ParseDuration(r.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// GetModelTimeout converte o timeout de invocação do modelo (default 25s).
func (a AssessmentConf) GetModelTimeout() time.Duration {
	d, err := time.ParseDuration(a.ModelTimeout)
	if err != nil || d <= 0 {
		return 25 * time.Second
	}
	return d
}
