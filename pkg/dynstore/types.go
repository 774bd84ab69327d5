package dynstore

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

var (
	// ErrNotFound – o item não existe na tabela
	ErrNotFound = errors.New("dynstore: item not found")
	// ErrConditionFailed – a condição do update/put não foi satisfeita
	ErrConditionFailed = errors.New("dynstore: condition failed")
)

// Client abstrai o cliente DynamoDB do SDK (permite mocking).
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// TableConfig descreve a tabela por trás de um Store[T].
type TableConfig struct {
	TableName    string
	HashKey      string
	SortKey      string // opcional
	TTLAttribute string // opcional; epoch seconds
}

// Store — interface genérica usada pelos repositórios.
type Store[T any] interface {
	Get(ctx context.Context, hashKey, sortKey any) (*T, error)
	Put(ctx context.Context, item T, ttl int64) error
	// PutIfAbsent falha com ErrConditionFailed se a chave já existir.
	PutIfAbsent(ctx context.Context, item T) error
	Delete(ctx context.Context, hashKey, sortKey any) error
	// QueryByHash lista os itens de uma hash key (limit <= 0 = sem limite).
	QueryByHash(ctx context.Context, hashKey any, limit int32) ([]T, error)
	// AddInt soma delta a um atributo numérico e retorna o novo valor.
	// Para delta negativo, floor é o valor mínimo permitido após a
	// operação; a escrita é condicional e atômica (ErrConditionFailed
	// quando violaria o floor). Para delta positivo, floor é ignorado.
	AddInt(ctx context.Context, hashKey, sortKey any, attribute string, delta int, floor int) (int, error)
}
