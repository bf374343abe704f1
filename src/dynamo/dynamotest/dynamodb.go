// Package dynamotest provides an in-memory key-value store for handler tests.
package dynamotest

import (
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

type Item = map[string]*dynamodb.AttributeValue

// DynamoDB appends every written item to its table. Tables are created
// on first write; Created records explicit CreateTable calls.
type DynamoDB struct {
	dynamodbiface.DynamoDBAPI

	mu       sync.Mutex
	Items    map[string][]Item
	Existing map[string]bool
	Created  []string
	Fail     error

	// KeySchemas holds the hash and range attribute names of created tables.
	KeySchemas map[string][]string
}

func New() *DynamoDB {
	return &DynamoDB{Items: map[string][]Item{}, Existing: map[string]bool{}, KeySchemas: map[string][]string{}}
}

// Table returns the items written to a table.
func (f *DynamoDB) Table(name string) []Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Items[name]
}

func (f *DynamoDB) BatchWriteItemWithContext(_ aws.Context, in *dynamodb.BatchWriteItemInput, _ ...request.Option) (*dynamodb.BatchWriteItemOutput, error) {
	if f.Fail != nil {
		return nil, f.Fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for table, requests := range in.RequestItems {
		for _, r := range requests {
			if r.PutRequest != nil {
				f.Items[table] = append(f.Items[table], r.PutRequest.Item)
			}
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func (f *DynamoDB) PutItemWithContext(_ aws.Context, in *dynamodb.PutItemInput, _ ...request.Option) (*dynamodb.PutItemOutput, error) {
	if f.Fail != nil {
		return nil, f.Fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	table := aws.StringValue(in.TableName)
	f.Items[table] = append(f.Items[table], in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *DynamoDB) DescribeTableWithContext(_ aws.Context, in *dynamodb.DescribeTableInput, _ ...request.Option) (*dynamodb.DescribeTableOutput, error) {
	if f.Fail != nil {
		return nil, f.Fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.Existing[aws.StringValue(in.TableName)] {
		return nil, awserr.New(dynamodb.ErrCodeResourceNotFoundException, "table not found", nil)
	}
	return &dynamodb.DescribeTableOutput{Table: &dynamodb.TableDescription{
		TableName:   in.TableName,
		TableStatus: aws.String(dynamodb.TableStatusActive),
	}}, nil
}

func (f *DynamoDB) CreateTableWithContext(_ aws.Context, in *dynamodb.CreateTableInput, _ ...request.Option) (*dynamodb.CreateTableOutput, error) {
	if f.Fail != nil {
		return nil, f.Fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.StringValue(in.TableName)
	if f.Existing[name] {
		return nil, awserr.New(dynamodb.ErrCodeResourceInUseException, "table exists", nil)
	}
	f.Existing[name] = true
	f.Created = append(f.Created, name)
	for _, k := range in.KeySchema {
		f.KeySchemas[name] = append(f.KeySchemas[name], aws.StringValue(k.AttributeName))
	}
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *DynamoDB) WaitUntilTableExistsWithContext(_ aws.Context, _ *dynamodb.DescribeTableInput, _ ...request.WaiterOption) error {
	return f.Fail
}
