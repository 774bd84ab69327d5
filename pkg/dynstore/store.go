package dynstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type dynamoStore[T any] struct {
	client Client
	cfg    TableConfig
}

// New cria um store reutilizável sobre uma tabela.
func New[T any](client Client, cfg TableConfig) Store[T] {
	return &dynamoStore[T]{client: client, cfg: cfg}
}

func (s *dynamoStore[T]) key(hashKey, sortKey any) map[string]types.AttributeValue {
	key := map[string]types.AttributeValue{
		s.cfg.HashKey: attr(hashKey),
	}
	if s.cfg.SortKey != "" && sortKey != nil {
		key[s.cfg.SortKey] = attr(sortKey)
	}
	return key
}

// Get item por chave primária (leitura consistente)
func (s *dynamoStore[T]) Get(ctx context.Context, hashKey, sortKey any) (*T, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.cfg.TableName),
		Key:            s.key(hashKey, sortKey),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynstore: get failed: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var item T
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("dynstore: unmarshal failed: %w", err)
	}
	return &item, nil
}

// Put item (upsert); ttl > 0 grava o atributo TTL configurado
func (s *dynamoStore[T]) Put(ctx context.Context, item T, ttl int64) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("dynstore: marshal failed: %w", err)
	}
	if s.cfg.TTLAttribute != "" && ttl > 0 {
		av[s.cfg.TTLAttribute] = attr(ttl)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.cfg.TableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("dynstore: put failed: %w", err)
	}
	return nil
}

// PutIfAbsent grava apenas se a hash key ainda não existir
func (s *dynamoStore[T]) PutIfAbsent(ctx context.Context, item T) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("dynstore: marshal failed: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name(s.cfg.HashKey))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("dynstore: build condition: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.cfg.TableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailure(err) {
			return ErrConditionFailed
		}
		return fmt.Errorf("dynstore: conditional put failed: %w", err)
	}
	return nil
}

// Delete item
func (s *dynamoStore[T]) Delete(ctx context.Context, hashKey, sortKey any) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.cfg.TableName),
		Key:       s.key(hashKey, sortKey),
	})
	if err != nil {
		return fmt.Errorf("dynstore: delete failed: %w", err)
	}
	return nil
}

// QueryByHash lista os itens de uma hash key
func (s *dynamoStore[T]) QueryByHash(ctx context.Context, hashKey any, limit int32) ([]T, error) {
	keyCond := expression.Key(s.cfg.HashKey).Equal(expression.Value(hashKey))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("dynstore: build key condition: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.cfg.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	out, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("dynstore: query failed: %w", err)
	}

	items := make([]T, 0, len(out.Items))
	for _, raw := range out.Items {
		var item T
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("dynstore: unmarshal failed: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// AddInt soma delta ao atributo de forma atômica; para delta negativo a
// escrita exige que o resultado não fique abaixo do floor
func (s *dynamoStore[T]) AddInt(ctx context.Context, hashKey, sortKey any, attribute string, delta int, floor int) (int, error) {
	update := expression.Set(
		expression.Name(attribute),
		expression.Name(attribute).Plus(expression.Value(delta)),
	)
	builder := expression.NewBuilder().WithUpdate(update)

	if delta < 0 {
		// remaining >= floor - delta  garante  remaining + delta >= floor
		builder = builder.WithCondition(
			expression.Name(attribute).GreaterThanEqual(expression.Value(floor - delta)),
		)
	}

	expr, err := builder.Build()
	if err != nil {
		return 0, fmt.Errorf("dynstore: build update: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.cfg.TableName),
		Key:                       s.key(hashKey, sortKey),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailure(err) {
			return 0, ErrConditionFailed
		}
		return 0, fmt.Errorf("dynstore: update failed: %w", err)
	}

	raw, ok := out.Attributes[attribute]
	if !ok {
		return 0, fmt.Errorf("dynstore: attribute %q missing from update response", attribute)
	}
	var value int
	if err := attributevalue.Unmarshal(raw, &value); err != nil {
		return 0, fmt.Errorf("dynstore: unmarshal %q: %w", attribute, err)
	}
	return value, nil
}

func isConditionFailure(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

// attr converte qualquer valor para types.AttributeValue
func attr(v any) types.AttributeValue {
	if v == nil {
		return &types.AttributeValueMemberNULL{Value: true}
	}
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return &types.AttributeValueMemberNULL{Value: true}
	}
	return av
}
