package dynstore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// MockStore é um mock via campos de função para a interface Store[T].
//
// Defina apenas os campos (`GetFn`, `PutFn`, ...) que o teste precisa;
// os demais métodos devolvem o comportamento neutro.
type MockStore[T any] struct {
	GetFn         func(ctx context.Context, hashKey, sortKey any) (*T, error)
	PutFn         func(ctx context.Context, item T, ttl int64) error
	PutIfAbsentFn func(ctx context.Context, item T) error
	DeleteFn      func(ctx context.Context, hashKey, sortKey any) error
	QueryByHashFn func(ctx context.Context, hashKey any, limit int32) ([]T, error)
	AddIntFn      func(ctx context.Context, hashKey, sortKey any, attribute string, delta, floor int) (int, error)
}

func (m *MockStore[T]) Get(ctx context.Context, hashKey, sortKey any) (*T, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, hashKey, sortKey)
	}
	return nil, ErrNotFound
}

func (m *MockStore[T]) Put(ctx context.Context, item T, ttl int64) error {
	if m.PutFn != nil {
		return m.PutFn(ctx, item, ttl)
	}
	return nil
}

func (m *MockStore[T]) PutIfAbsent(ctx context.Context, item T) error {
	if m.PutIfAbsentFn != nil {
		return m.PutIfAbsentFn(ctx, item)
	}
	return nil
}

func (m *MockStore[T]) Delete(ctx context.Context, hashKey, sortKey any) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, hashKey, sortKey)
	}
	return nil
}

func (m *MockStore[T]) QueryByHash(ctx context.Context, hashKey any, limit int32) ([]T, error) {
	if m.QueryByHashFn != nil {
		return m.QueryByHashFn(ctx, hashKey, limit)
	}
	return nil, nil
}

func (m *MockStore[T]) AddInt(ctx context.Context, hashKey, sortKey any, attribute string, delta, floor int) (int, error) {
	if m.AddIntFn != nil {
		return m.AddIntFn(ctx, hashKey, sortKey, attribute, delta, floor)
	}
	return 0, nil
}

// MockClient é um mock para a interface Client de baixo nível.
type MockClient struct {
	GetItemFn    func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItemFn    func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItemFn func(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItemFn func(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	QueryFn      func(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

func (m *MockClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.GetItemFn != nil {
		return m.GetItemFn(ctx, params, optFns...)
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (m *MockClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if m.PutItemFn != nil {
		return m.PutItemFn(ctx, params, optFns...)
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (m *MockClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if m.DeleteItemFn != nil {
		return m.DeleteItemFn(ctx, params, optFns...)
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *MockClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if m.UpdateItemFn != nil {
		return m.UpdateItemFn(ctx, params, optFns...)
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (m *MockClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if m.QueryFn != nil {
		return m.QueryFn(ctx, params, optFns...)
	}
	return &dynamodb.QueryOutput{}, nil
}
