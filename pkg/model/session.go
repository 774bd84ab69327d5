package model

import "time"

// Session — token opaco com expiração de 1h, persistido fora do processo.
// A expiração é aplicada duas vezes: TTL do lado do store (Redis EXPIRE /
// atributo TTL do DynamoDB) e verificação na leitura.
type Session struct {
	Token     string `dynamodbav:"session_id" json:"token"`
	Email     string `dynamodbav:"email" json:"email"`
	CreatedAt int64  `dynamodbav:"created_at" json:"created_at"`
	ExpiresAt int64  `dynamodbav:"expires_at" json:"expires_at"`
}

// Expired verifica a expiração no instante informado.
func (s Session) Expired(now time.Time) bool {
	return now.Unix() >= s.ExpiresAt
}

// TTL retorna quanto tempo resta até a expiração (0 se já expirou).
func (s Session) TTL(now time.Time) time.Duration {
	d := time.Unix(s.ExpiresAt, 0).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
