package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Interfaces para abstrair o SDK da AWS (permite mocking)
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

var (
	awsCfg  aws.Config
	awsOnce sync.Once
	awsErr  error
)

// GetAWSConfig carrega a configuração da AWS (env vars, profile, IAM role)
// de forma lazy-singleton.
func GetAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	awsOnce.Do(func() {
		opts := []func(*config.LoadOptions) error{}
		if region != "" {
			opts = append(opts, config.WithRegion(region))
		}
		awsCfg, awsErr = config.LoadDefaultConfig(ctx, opts...)
	})
	return awsCfg, awsErr
}

// GetSecretString busca um secret e, se for JSON com o campo informado,
// retorna o campo; senão retorna o valor bruto.
func GetSecretString(ctx context.Context, client SecretsClient, secretID, jsonField string) (string, error) {
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &secretID,
	})
	if err != nil {
		return "", fmt.Errorf("secrets: get %s: %w", secretID, err)
	}

	val := aws.ToString(out.SecretString)
	if jsonField == "" {
		return val, nil
	}

	var data map[string]string
	if err := json.Unmarshal([]byte(val), &data); err == nil {
		if field, ok := data[jsonField]; ok {
			return field, nil
		}
	}
	return val, nil
}

// GetParameter busca um parâmetro do SSM Parameter Store.
func GetParameter(ctx context.Context, client SSMClient, name string, decrypt bool) (string, error) {
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &decrypt,
	})
	if err != nil {
		return "", fmt.Errorf("secrets: ssm get %s: %w", name, err)
	}
	return aws.ToString(out.Parameter.Value), nil
}

// ParameterPrefix marca valores de configuração que vêm do Parameter
// Store em vez do YAML (ex.: "ssm:///ielts/prod/nova-micro-model-id").
const ParameterPrefix = "ssm://"

// ResolveValue retorna o valor literal ou, quando ele carrega o prefixo
// ssm://, o parâmetro correspondente do Parameter Store.
func ResolveValue(ctx context.Context, client SSMClient, value string) (string, error) {
	name, found := strings.CutPrefix(value, ParameterPrefix)
	if !found {
		return value, nil
	}
	return GetParameter(ctx, client, name, true)
}
