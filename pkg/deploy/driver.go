package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/rs/zerolog/log"
)

// LambdaAPI abstrai as chamadas usadas do SDK (permite mocking).
type LambdaAPI interface {
	UpdateFunctionCode(ctx context.Context, params *lambda.UpdateFunctionCodeInput, optFns ...func(*lambda.Options)) (*lambda.UpdateFunctionCodeOutput, error)
	GetFunctionConfiguration(ctx context.Context, params *lambda.GetFunctionConfigurationInput, optFns ...func(*lambda.Options)) (*lambda.GetFunctionConfigurationOutput, error)
}

// Driver publica o pacote e espera a atualização assentar antes de
// liberar o smoke test. Diferente dos deploys antigos, nada é declarado
// pronto sem o LastUpdateStatus ficar Successful.
type Driver struct {
	client       LambdaAPI
	functionName string
	pollInterval time.Duration
	maxWait      time.Duration
}

func NewDriver(client LambdaAPI, functionName string) *Driver {
	return &Driver{
		client:       client,
		functionName: functionName,
		pollInterval: 2 * time.Second,
		maxWait:      2 * time.Minute,
	}
}

// Push sobe o zip e bloqueia até a função estar ativa com o novo código.
func (d *Driver) Push(ctx context.Context, packageBytes []byte) error {
	out, err := d.client.UpdateFunctionCode(ctx, &lambda.UpdateFunctionCodeInput{
		FunctionName: aws.String(d.functionName),
		ZipFile:      packageBytes,
		Publish:      true,
	})
	if err != nil {
		return fmt.Errorf("deploy: update function code: %w", err)
	}

	log.Info().
		Str("function", d.functionName).
		Str("version", aws.ToString(out.Version)).
		Str("sha256", aws.ToString(out.CodeSha256)).
		Msg("code uploaded, waiting for update to settle")

	return d.waitSettled(ctx)
}

func (d *Driver) waitSettled(ctx context.Context) error {
	deadline := time.Now().Add(d.maxWait)

	for {
		cfg, err := d.client.GetFunctionConfiguration(ctx, &lambda.GetFunctionConfigurationInput{
			FunctionName: aws.String(d.functionName),
		})
		if err != nil {
			return fmt.Errorf("deploy: get function configuration: %w", err)
		}

		switch cfg.LastUpdateStatus {
		case types.LastUpdateStatusSuccessful:
			return nil
		case types.LastUpdateStatusFailed:
			return fmt.Errorf("deploy: function update failed: %s", aws.ToString(cfg.LastUpdateStatusReason))
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("deploy: timed out waiting for update to settle")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.pollInterval):
		}
	}
}
