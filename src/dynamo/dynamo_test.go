package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"l4e-demo-pipeline/src/reconstruct"
	"l4e-demo-pipeline/src/timeseries"
)

type fakeDynamo struct {
	dynamodbiface.DynamoDBAPI

	batches [][]*dynamodb.WriteRequest
	// unprocessed is how many items of each call are handed back
	unprocessed []int
	puts        []*dynamodb.PutItemInput
	created     []*dynamodb.CreateTableInput
	tables      map[string]bool
	err         error
}

func (f *fakeDynamo) BatchWriteItemWithContext(_ aws.Context, in *dynamodb.BatchWriteItemInput, _ ...request.Option) (*dynamodb.BatchWriteItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	call := len(f.batches)
	out := &dynamodb.BatchWriteItemOutput{}
	for table, requests := range in.RequestItems {
		f.batches = append(f.batches, requests)
		if call < len(f.unprocessed) && f.unprocessed[call] > 0 {
			out.UnprocessedItems = map[string][]*dynamodb.WriteRequest{
				table: requests[:f.unprocessed[call]],
			}
		}
	}
	return out, nil
}

func (f *fakeDynamo) PutItemWithContext(_ aws.Context, in *dynamodb.PutItemInput, _ ...request.Option) (*dynamodb.PutItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.puts = append(f.puts, in)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DescribeTableWithContext(_ aws.Context, in *dynamodb.DescribeTableInput, _ ...request.Option) (*dynamodb.DescribeTableOutput, error) {
	if !f.tables[aws.StringValue(in.TableName)] {
		return nil, awserr.New(dynamodb.ErrCodeResourceNotFoundException, "not found", nil)
	}
	return &dynamodb.DescribeTableOutput{}, nil
}

func (f *fakeDynamo) CreateTableWithContext(_ aws.Context, in *dynamodb.CreateTableInput, _ ...request.Option) (*dynamodb.CreateTableOutput, error) {
	f.created = append(f.created, in)
	if f.tables == nil {
		f.tables = map[string]bool{}
	}
	f.tables[aws.StringValue(in.TableName)] = true
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeDynamo) WaitUntilTableExistsWithContext(_ aws.Context, in *dynamodb.DescribeTableInput, _ ...request.WaiterOption) error {
	if !f.tables[aws.StringValue(in.TableName)] {
		return errors.New("timed out")
	}
	return nil
}

func newTestStore(api dynamodbiface.DynamoDBAPI) *Store {
	s := New(api, zap.NewNop())
	s.Backoff = 0
	return s
}

func testTable(rows int) *timeseries.Table {
	table := &timeseries.Table{Header: []string{"timestamp", "temp", "asset"}}
	for i := 0; i < rows; i++ {
		table.Rows = append(table.Rows, []string{"1672531200", "1.5", "pump1"})
	}
	return table
}

func TestItems(t *testing.T) {
	table := &timeseries.Table{
		Header: []string{"timestamp", "temp", "asset"},
		Rows: [][]string{
			{"1672531200", "1.5", "pump1"},
			{"1672534800", "", "pump1"},
			{"1672538400"},
		},
	}
	fields := timeseries.FieldTypes{"timestamp": timeseries.Number, "temp": timeseries.Number}

	items := Items(table, fields)
	require.Len(t, items, 3)

	assert.Equal(t, "1672531200", aws.StringValue(items[0]["timestamp"].N))
	assert.Equal(t, "1.5", aws.StringValue(items[0]["temp"].N))
	assert.Equal(t, "pump1", aws.StringValue(items[0]["asset"].S))

	assert.NotContains(t, items[1], "temp")
	assert.Equal(t, "pump1", aws.StringValue(items[1]["asset"].S))

	// short rows: missing numbers dropped, missing strings empty
	assert.NotContains(t, items[2], "temp")
	assert.Equal(t, "", aws.StringValue(items[2]["asset"].S))
}

func TestBatchWriteTableSplitsBatches(t *testing.T) {
	api := &fakeDynamo{}
	store := newTestStore(api)

	n, err := store.BatchWriteTable(context.Background(), "t", testTable(60), timeseries.FieldTypes{"timestamp": timeseries.Number})
	require.NoError(t, err)
	assert.Equal(t, 60, n)

	require.Len(t, api.batches, 3)
	assert.Len(t, api.batches[0], 25)
	assert.Len(t, api.batches[1], 25)
	assert.Len(t, api.batches[2], 10)
}

func TestBatchWriteTableBatchSize(t *testing.T) {
	api := &fakeDynamo{}
	store := newTestStore(api)
	store.BatchSize = 7

	_, err := store.BatchWriteTable(context.Background(), "t", testTable(15), nil)
	require.NoError(t, err)
	require.Len(t, api.batches, 3)
	assert.Len(t, api.batches[2], 1)

	api.batches = nil
	store.BatchSize = 100
	_, err = store.BatchWriteTable(context.Background(), "t", testTable(30), nil)
	require.NoError(t, err)
	assert.Len(t, api.batches, 2)
}

func TestBatchPutResubmitsUnprocessed(t *testing.T) {
	api := &fakeDynamo{unprocessed: []int{3, 1}}
	store := newTestStore(api)

	_, err := store.BatchWriteTable(context.Background(), "t", testTable(10), nil)
	require.NoError(t, err)

	require.Len(t, api.batches, 3)
	assert.Len(t, api.batches[0], 10)
	assert.Len(t, api.batches[1], 3)
	assert.Len(t, api.batches[2], 1)
}

func TestBatchPutGivesUp(t *testing.T) {
	api := &fakeDynamo{unprocessed: []int{2, 2, 2}}
	store := newTestStore(api)
	store.MaxRetries = 2

	_, err := store.BatchWriteTable(context.Background(), "t", testTable(5), nil)
	assert.ErrorContains(t, err, "unprocessed")
}

func TestBatchPutError(t *testing.T) {
	store := newTestStore(&fakeDynamo{err: errors.New("throttled")})

	_, err := store.BatchWriteTable(context.Background(), "t", testTable(1), nil)
	assert.ErrorContains(t, err, "throttled")
}

func TestEnsureResultsTable(t *testing.T) {
	api := &fakeDynamo{tables: map[string]bool{"existing": true}}
	store := newTestStore(api)

	require.NoError(t, store.EnsureResultsTable(context.Background(), "existing"))
	assert.Empty(t, api.created)

	require.NoError(t, store.EnsureResultsTable(context.Background(), "fresh"))
	require.Len(t, api.created, 1)
	created := api.created[0]
	assert.Equal(t, "fresh", aws.StringValue(created.TableName))
	assert.Equal(t, dynamodb.BillingModePayPerRequest, aws.StringValue(created.BillingMode))
	assert.Equal(t, "model", aws.StringValue(created.KeySchema[0].AttributeName))
	assert.Equal(t, "timestamp", aws.StringValue(created.KeySchema[1].AttributeName))
}

func TestEnsureTableKeySchema(t *testing.T) {
	api := &fakeDynamo{tables: map[string]bool{}}
	store := newTestStore(api)

	require.NoError(t, store.EnsureTable(context.Background(), "series", TimeSeriesKey))
	require.Len(t, api.created, 1)
	created := api.created[0]
	assert.Equal(t, "sampling_rate", aws.StringValue(created.KeySchema[0].AttributeName))
	assert.Equal(t, dynamodb.KeyTypeHash, aws.StringValue(created.KeySchema[0].KeyType))
	assert.Equal(t, "unix_timestamp", aws.StringValue(created.KeySchema[1].AttributeName))
	assert.Equal(t, dynamodb.ScalarAttributeTypeN, aws.StringValue(created.AttributeDefinitions[1].AttributeType))

	err := store.EnsureTable(context.Background(), "bad", KeySchema{Hash: "model"})
	assert.ErrorContains(t, err, "key schema")
	assert.Len(t, api.created, 1)
}

func TestStoreInferenceResult(t *testing.T) {
	api := &fakeDynamo{}
	store := newTestStore(api)
	ctx := context.Background()

	r := InferenceResult{
		Model:        "pump1-model",
		Timestamp:    1672531200,
		Prediction:   1,
		AnomalyScore: 0.83,
		Diagnostics:  reconstruct.Diagnostics{{Asset: "pump1", Tag: "temp"}: 0.6},
	}
	require.NoError(t, store.StoreAnomaly(ctx, "abcd1234-pump1", r))
	require.NoError(t, store.StoreRawAnomaly(ctx, "abcd1234-pump1", r))
	require.NoError(t, store.StoreSensorContribution(ctx, "abcd1234-pump1", r))
	require.Len(t, api.puts, 3)

	anomaly := api.puts[0]
	assert.Equal(t, "l4edemoapp-abcd1234-pump1-anomalies", aws.StringValue(anomaly.TableName))
	assert.Equal(t, "pump1-model", aws.StringValue(anomaly.Item["model"].S))
	assert.Equal(t, "1672531200", aws.StringValue(anomaly.Item["timestamp"].N))
	assert.Equal(t, "1.0", aws.StringValue(anomaly.Item["anomaly"].N))

	raw := api.puts[1]
	assert.Equal(t, "l4edemoapp-abcd1234-pump1-raw-anomalies", aws.StringValue(raw.TableName))
	assert.Equal(t, "0.83", aws.StringValue(raw.Item["anomaly_score"].N))

	contribution := api.puts[2]
	assert.Equal(t, "l4edemoapp-abcd1234-pump1-sensor_contribution", aws.StringValue(contribution.TableName))
	assert.Equal(t, "0.6", aws.StringValue(contribution.Item["temp"].N))
}

func TestStoreProject(t *testing.T) {
	api := &fakeDynamo{}
	store := newTestStore(api)

	err := store.StoreProject(context.Background(), "projects", Project{
		UserID:           "abcd1234",
		Project:          "pump1",
		NumRows:          42,
		ExecutionID:      "exec-1",
		AssetDescription: "main pump",
	})
	require.NoError(t, err)
	require.Len(t, api.puts, 1)

	item := api.puts[0].Item
	assert.Equal(t, "projects", aws.StringValue(api.puts[0].TableName))
	assert.Equal(t, "abcd1234", aws.StringValue(item["user_id"].S))
	assert.Equal(t, "42", aws.StringValue(item["numRows"].N))
	assert.Equal(t, "main pump", aws.StringValue(item["assetDescription"].S))
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "l4edemoapp-abcd1234-pump1", TimeSeriesTable("abcd1234", "pump1"))
	assert.Equal(t, "l4edemoapp-abcd1234-pump1", ProjectTable("abcd1234-pump1"))
	assert.Equal(t, "l4edemoapp-p-daily_rate", DailyRateTable("p"))
}
