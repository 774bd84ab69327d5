package main

import (
	"context"
	stdlog "log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/ieltsgenai/prep-service/pkg/assessment"
	"github.com/ieltsgenai/prep-service/pkg/auth"
	"github.com/ieltsgenai/prep-service/pkg/config"
	"github.com/ieltsgenai/prep-service/pkg/logger"
	"github.com/ieltsgenai/prep-service/pkg/observability"
	"github.com/ieltsgenai/prep-service/pkg/repository"
	"github.com/ieltsgenai/prep-service/pkg/secrets"
	"github.com/ieltsgenai/prep-service/pkg/templates"
	"github.com/ieltsgenai/prep-service/pkg/transport"
	"github.com/ieltsgenai/prep-service/pkg/web"
)

// version é sobrescrita no build (-ldflags "-X main.version=...").
var version = "dev"

var (
	configPath string
	// Injetáveis para os testes do main
	serverStarter = transport.StartHTTPServer
	lambdaStarter = lambda.Start
)

func init() {
	configPath = os.Getenv("CONFIG_FILE_PATH")
}

func main() {
	if configPath == "" {
		stdlog.Fatalln("FATAL: CONFIG_FILE_PATH não definido")
	}

	if err := run(context.Background(), configPath); err != nil {
		stdlog.Fatalf("FATAL: %v", err)
	}
}

// run contém a lógica principal testável.
func run(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	appLogger := logger.Configure(cfg.Service.Logging)
	log.Logger = appLogger

	provider, err := observability.SetupMetrics(cfg.Service.Metrics)
	if err != nil {
		return err
	}

	awsCfg, err := secrets.GetAWSConfig(ctx, cfg.Service.Region)
	if err != nil {
		return err
	}

	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	ssmClient := ssm.NewFromConfig(awsCfg)

	// Repositórios (todo o estado fica fora do processo)
	users := repository.NewUserRepository(dynamoClient, cfg.Tables.Users)
	attempts := repository.NewAttemptRepository(dynamoClient, cfg.Tables.Attempts)
	questions := repository.NewQuestionRepository(dynamoClient, cfg.Tables.Questions)
	results := repository.NewResultRepository(dynamoClient, cfg.Tables.Results)

	var sessions repository.SessionRepository
	if cfg.Sessions.Store == "redis" {
		sessions = repository.NewRedisSessionRepository(
			repository.NewRedisClient(cfg.Sessions.RedisAddr, cfg.Sessions.RedisPassword))
	} else {
		sessions = repository.NewDynamoSessionRepository(dynamoClient, cfg.Tables.Sessions)
	}

	// reCAPTCHA: secret via Secrets Manager, avaliado de forma lazy
	secretsClient := secretsmanager.NewFromConfig(awsCfg)
	secretSource := func(ctx context.Context) (string, error) {
		return secrets.GetSecretString(ctx, secretsClient, cfg.Recaptcha.SecretARN, "secret_key")
	}
	verifyURL, err := secrets.ResolveValue(ctx, ssmClient, cfg.Recaptcha.VerifyURL)
	if err != nil {
		return err
	}
	verifier := auth.NewRecaptchaVerifier(
		cfg.Recaptcha.Enabled,
		verifyURL,
		cfg.Recaptcha.GetTimeout(),
		secretSource,
	)

	authService := auth.NewService(users, sessions, verifier, provider, cfg.Sessions.GetTTL())

	// Ids de modelo podem vir do Parameter Store (prefixo ssm://)
	microModelID, err := secrets.ResolveValue(ctx, ssmClient, cfg.Assessment.NovaMicroModelID)
	if err != nil {
		return err
	}
	sonicModelID, err := secrets.ResolveValue(ctx, ssmClient, cfg.Assessment.NovaSonicModelID)
	if err != nil {
		return err
	}
	engine := assessment.NewEngine(
		bedrockruntime.NewFromConfig(awsCfg),
		microModelID,
		sonicModelID,
		cfg.Assessment.GetModelTimeout(),
		provider,
	)

	renderer := templates.NewRenderer(
		s3.NewFromConfig(awsCfg),
		cfg.Templates.S3Bucket,
		cfg.Templates.S3Prefix,
	)

	app := &web.App{
		ServiceName:      cfg.Service.Name,
		Version:          version,
		Auth:             authService,
		Engine:           engine,
		Users:            users,
		Attempts:         attempts,
		Questions:        questions,
		Results:          results,
		Renderer:         renderer,
		RecaptchaSiteKey: cfg.Recaptcha.SiteKey,
	}
	router := app.Router()

	switch cfg.Service.Runtime {
	case "local":
		// Reload de cache via SQS só faz sentido em processo longo
		if cfg.Sessions.SQSReloadURL != "" {
			reloader := transport.NewCacheReloader(
				sqs.NewFromConfig(awsCfg), cfg.Sessions.SQSReloadURL, questions, renderer)
			go reloader.Start(ctx)
		}
		return serverStarter(router, cfg.Service.Port, provider)
	case "lambda":
		handler := transport.NewLambdaHandler(router, provider)
		lambdaStarter(handler.Handle)
		return nil
	default:
		return nil
	}
}
