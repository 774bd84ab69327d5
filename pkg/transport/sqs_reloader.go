package transport

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SQSClient define a interface necessária para o reloader (permite mocking).
type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Invalidator descarta um cache em processo (banco de questões,
// templates parseados).
type Invalidator interface {
	Invalidate()
}

// CacheReloader escuta uma fila SQS; cada mensagem sinaliza que o banco
// de questões ou os templates mudaram e os caches devem ser descartados.
// Roda apenas no runtime local — no Lambda os caches morrem com o
// ambiente de execução.
type CacheReloader struct {
	client   SQSClient
	queueURL string
	targets  []Invalidator
	logger   zerolog.Logger
}

func NewCacheReloader(client SQSClient, queueURL string, targets ...Invalidator) *CacheReloader {
	return &CacheReloader{
		client:   client,
		queueURL: queueURL,
		targets:  targets,
		logger:   log.With().Str("component", "cache_reloader").Logger(),
	}
}

// Start inicia o monitoramento (bloqueante; rode em goroutine).
func (c *CacheReloader) Start(ctx context.Context) {
	if c.queueURL == "" {
		c.logger.Warn().Msg("fila SQS não configurada, reload de cache desativado")
		return
	}

	c.logger.Info().Str("queue", c.queueURL).Msg("monitorando fila SQS para reload de cache")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("parando monitoramento SQS")
			return
		default:
			out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
				QueueUrl:            aws.String(c.queueURL),
				MaxNumberOfMessages: 1,
				WaitTimeSeconds:     20, // long polling
			})

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Error().Err(err).Msg("erro no SQS, retentando em 5s")
				time.Sleep(5 * time.Second)
				continue
			}

			if len(out.Messages) == 0 {
				continue
			}

			c.logger.Info().Msg("evento de alteração recebido, invalidando caches")
			for _, target := range c.targets {
				target.Invalidate()
			}

			_, _ = c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(c.queueURL),
				ReceiptHandle: out.Messages[0].ReceiptHandle,
			})
		}
	}
}
