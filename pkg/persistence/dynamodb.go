package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"

	"github.com/sessionseal/sessionseal"
)

const (
	defaultTableName = "SessionRecord"

	partitionKey = "Id"
	dataAttr     = "Data"
)

var (
	// Verify DynamoDBStore implements the store interface.
	_ sessionseal.Store = (*DynamoDBStore)(nil)

	storeDynamoDBTimer  = metrics.GetOrRegisterTimer(fmt.Sprintf("%s.store.dynamodb.store", sessionseal.MetricsPrefix), nil)
	loadDynamoDBTimer   = metrics.GetOrRegisterTimer(fmt.Sprintf("%s.store.dynamodb.load", sessionseal.MetricsPrefix), nil)
	removeDynamoDBTimer = metrics.GetOrRegisterTimer(fmt.Sprintf("%s.store.dynamodb.remove", sessionseal.MetricsPrefix), nil)
)

// DynamoDBClientAPI is the subset of the DynamoDB client API used by the
// store. It exists to support injecting a mock client in tests.
type DynamoDBClientAPI interface {
	GetItemWithContext(aws.Context, *dynamodb.GetItemInput, ...request.Option) (*dynamodb.GetItemOutput, error)
	PutItemWithContext(aws.Context, *dynamodb.PutItemInput, ...request.Option) (*dynamodb.PutItemOutput, error)
	DeleteItemWithContext(aws.Context, *dynamodb.DeleteItemInput, ...request.Option) (*dynamodb.DeleteItemOutput, error)
}

// DynamoDBStore implements the Store interface backed by a DynamoDB table
// with a string partition key holding the storage key and a binary attribute
// holding the ciphertext.
type DynamoDBStore struct {
	svc       DynamoDBClientAPI
	tableName string
}

// DynamoDBStoreOption is used to configure additional options in a DynamoDBStore.
type DynamoDBStoreOption func(*DynamoDBStore)

// WithTableName configures the DynamoDBStore to use the specified table name.
func WithTableName(table string) DynamoDBStoreOption {
	return func(s *DynamoDBStore) {
		s.tableName = table
	}
}

// WithClient configures the DynamoDBStore to use the specified DynamoDB client.
func WithClient(c DynamoDBClientAPI) DynamoDBStoreOption {
	return func(s *DynamoDBStore) {
		s.svc = c
	}
}

// NewDynamoDBStore returns a new DynamoDBStore.
func NewDynamoDBStore(sess client.ConfigProvider, opts ...DynamoDBStoreOption) *DynamoDBStore {
	store := &DynamoDBStore{
		svc:       dynamodb.New(sess),
		tableName: defaultTableName,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// GetClient returns the DynamoDB client in use by the store.
func (s *DynamoDBStore) GetClient() DynamoDBClientAPI {
	return s.svc
}

// Load retrieves the record for the given storage key.
// The return value will be nil if not already present.
func (s *DynamoDBStore) Load(ctx context.Context, key string) ([]byte, error) {
	defer loadDynamoDBTimer.UpdateSince(time.Now())

	res, err := s.svc.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		Key: map[string]*dynamodb.AttributeValue{
			partitionKey: {S: aws.String(key)},
		},
		ProjectionExpression: aws.String(dataAttr),
		ConsistentRead:       aws.Bool(true), // always use strong consistency
		TableName:            aws.String(s.tableName),
	})
	if err != nil {
		return nil, errors.Wrap(err, "error loading session record")
	}

	if res.Item == nil {
		return nil, nil
	}

	attr, ok := res.Item[dataAttr]
	if !ok || attr.B == nil {
		return nil, errors.Errorf("session record %s is missing the %s attribute", key, dataAttr)
	}

	return attr.B, nil
}

// Store persists the record under the given storage key, replacing any
// existing record.
func (s *DynamoDBStore) Store(ctx context.Context, key string, data []byte) error {
	defer storeDynamoDBTimer.UpdateSince(time.Now())

	_, err := s.svc.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		Item: map[string]*dynamodb.AttributeValue{
			partitionKey: {S: aws.String(key)},
			dataAttr:     {B: data},
		},
		TableName: aws.String(s.tableName),
	})

	return errors.Wrapf(err, "error storing session record: %s", key)
}

// Remove deletes the record for the given storage key, if present.
func (s *DynamoDBStore) Remove(ctx context.Context, key string) error {
	defer removeDynamoDBTimer.UpdateSince(time.Now())

	_, err := s.svc.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		Key: map[string]*dynamodb.AttributeValue{
			partitionKey: {S: aws.String(key)},
		},
		TableName: aws.String(s.tableName),
	})

	return errors.Wrapf(err, "error removing session record: %s", key)
}
