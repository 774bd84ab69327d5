package model

// User — registro persistido na tabela de usuários (hash key: email).
type User struct {
	Email          string `dynamodbav:"email" json:"email"`
	PasswordHash   string `dynamodbav:"password_hash" json:"-"`
	Name           string `dynamodbav:"name" json:"name"`
	Status         string `dynamodbav:"status" json:"status"`
	FailedAttempts int    `dynamodbav:"failed_attempts" json:"-"`
	CreatedAt      int64  `dynamodbav:"created_at" json:"created_at"`
	LastLoginAt    int64  `dynamodbav:"last_login_at,omitempty" json:"last_login_at,omitempty"`
}

const (
	UserStatusActive = "active"
	UserStatusLocked = "locked"
)
