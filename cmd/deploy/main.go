package main

import (
	"context"
	stdlog "log"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ieltsgenai/prep-service/envloader"
	"github.com/ieltsgenai/prep-service/pkg/deploy"
	"github.com/ieltsgenai/prep-service/pkg/secrets"
)

// deployConfig vem inteiro do ambiente: o driver roda em pipeline.
type deployConfig struct {
	FunctionName string `env:"LAMBDA_FUNCTION_NAME"`
	BinaryPath   string `env:"DEPLOY_BINARY" envDefault:"bootstrap"`
	Region       string `env:"AWS_REGION" envDefault:"us-east-1"`
	SmokeBaseURL string `env:"SMOKE_BASE_URL"`
	SkipSmoke    bool   `env:"SKIP_SMOKE" envDefault:"false"`
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	var cfg deployConfig
	if err := envloader.Load(&cfg); err != nil {
		stdlog.Fatalf("FATAL: %v", err)
	}
	if cfg.FunctionName == "" {
		stdlog.Fatalln("FATAL: LAMBDA_FUNCTION_NAME não definido")
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Error().Err(err).Msg("deploy failed")
		os.Exit(1)
	}
	log.Info().Msg("deploy completed")
}

func run(ctx context.Context, cfg deployConfig) error {
	pkg, err := deploy.BuildPackage(cfg.BinaryPath)
	if err != nil {
		return err
	}
	log.Info().Int("bytes", len(pkg)).Msg("deployment package built")

	awsCfg, err := secrets.GetAWSConfig(ctx, cfg.Region)
	if err != nil {
		return err
	}

	driver := deploy.NewDriver(lambda.NewFromConfig(awsCfg), cfg.FunctionName)
	if err := driver.Push(ctx, pkg); err != nil {
		return err
	}

	if cfg.SkipSmoke || cfg.SmokeBaseURL == "" {
		log.Warn().Msg("smoke checks skipped")
		return nil
	}
	return deploy.RunSmokeChecks(ctx, cfg.SmokeBaseURL, deploy.DefaultSmokeChecks())
}
