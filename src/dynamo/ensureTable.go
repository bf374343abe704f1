package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"go.uber.org/zap"
)

// TableExists reports whether the table exists, whatever its status.
func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	_, err := s.API.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	})
	if err == nil {
		return true, nil
	}

	var aerr awserr.Error
	if errors.As(err, &aerr) && aerr.Code() == dynamodb.ErrCodeResourceNotFoundException {
		return false, nil
	}
	return false, fmt.Errorf("failed to describe table %s: %w", table, err)
}

// KeySchema names the string partition key and numeric sort key of a table.
type KeySchema struct {
	Hash  string `json:"hash"`
	Range string `json:"range"`
}

var (
	// ResultsKey keys the model result tables.
	ResultsKey = KeySchema{Hash: "model", Range: "timestamp"}
	// TimeSeriesKey keys prepared datasets, whose rows carry their
	// sampling rate label and epoch seconds.
	TimeSeriesKey = KeySchema{Hash: "sampling_rate", Range: "unix_timestamp"}
)

// EnsureResultsTable creates a model results table when it does not exist.
func (s *Store) EnsureResultsTable(ctx context.Context, table string) error {
	return s.EnsureTable(ctx, table, ResultsKey)
}

// EnsureTable creates an on-demand table with the given key when it does
// not exist, and waits for it to become active.
func (s *Store) EnsureTable(ctx context.Context, table string, key KeySchema) error {
	if key.Hash == "" || key.Range == "" {
		return fmt.Errorf("table %s: key schema needs a hash and a range key, got %+v", table, key)
	}

	exists, err := s.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		s.Log.Info("creating table", zap.String("table", table), zap.String("hash", key.Hash), zap.String("range", key.Range))

		_, err := s.API.CreateTableWithContext(ctx, &dynamodb.CreateTableInput{
			TableName: aws.String(table),
			AttributeDefinitions: []*dynamodb.AttributeDefinition{
				{AttributeName: aws.String(key.Hash), AttributeType: aws.String(dynamodb.ScalarAttributeTypeS)},
				{AttributeName: aws.String(key.Range), AttributeType: aws.String(dynamodb.ScalarAttributeTypeN)},
			},
			KeySchema: []*dynamodb.KeySchemaElement{
				{AttributeName: aws.String(key.Hash), KeyType: aws.String(dynamodb.KeyTypeHash)},
				{AttributeName: aws.String(key.Range), KeyType: aws.String(dynamodb.KeyTypeRange)},
			},
			BillingMode: aws.String(dynamodb.BillingModePayPerRequest),
			TableClass:  aws.String(dynamodb.TableClassStandard),
		})

		var aerr awserr.Error
		if err != nil && !(errors.As(err, &aerr) && aerr.Code() == dynamodb.ErrCodeResourceInUseException) {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}

	if err := s.API.WaitUntilTableExistsWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	}); err != nil {
		return fmt.Errorf("table %s did not become active: %w", table, err)
	}
	return nil
}
