package project

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/timestreamquery"
	"github.com/aws/aws-sdk-go/service/timestreamquery/timestreamqueryiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"l4e-demo-pipeline/src/dynamo"
	"l4e-demo-pipeline/src/dynamo/dynamotest"
	"l4e-demo-pipeline/src/lookout/lookouttest"
	"l4e-demo-pipeline/src/storage"
	"l4e-demo-pipeline/src/storage/storagetest"
	"l4e-demo-pipeline/src/types"
)

const projectsTable = "l4edemoapp-projects-stack"

type fakeTimestream struct {
	timestreamqueryiface.TimestreamQueryAPI
	queries []*timestreamquery.QueryInput
}

func (f *fakeTimestream) QueryWithContext(_ aws.Context, in *timestreamquery.QueryInput, _ ...request.Option) (*timestreamquery.QueryOutput, error) {
	f.queries = append(f.queries, in)
	return &timestreamquery.QueryOutput{QueryId: aws.String("query-1")}, nil
}

type fixture struct {
	s3         *storagetest.S3
	db         *dynamotest.DynamoDB
	timestream *fakeTimestream
	handler    *Handler
}

func newFixture() *fixture {
	s3 := storagetest.New()
	db := dynamotest.New()
	ts := &fakeTimestream{}
	models := lookouttest.New()
	models.AddModel("pump1-model", "l4e-demo-app-abcd1234-pump1", "PT5M")

	return &fixture{
		s3:         s3,
		db:         db,
		timestream: ts,
		handler: &Handler{
			Lookout:       models,
			Timestream:    ts,
			Store:         storage.New(s3),
			Dynamo:        dynamo.New(db, zap.NewNop()),
			Log:           zap.NewNop(),
			ProjectsTable: projectsTable,
		},
	}
}

func TestNewProject(t *testing.T) {
	f := newFixture()
	f.s3.Put("b", "raw-datasets/pump1/sensors.csv", []byte("Time,temp\n2023-01-01 00:00:00,1\n2023-01-01 01:00:00,2\n2023-01-01 02:00:00,3\n"), map[string]string{
		storage.UserTag:             "abcd1234",
		storage.AssetDescriptionTag: "main pump",
	})

	resp, err := f.handler.NewProject(context.Background(), types.ObjectRequest{
		ID:     "exec-1",
		Bucket: "b",
		Key:    "raw-datasets/pump1/sensors.csv",
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusResponse{StatusCode: 200}, resp)

	items := f.db.Table(projectsTable)
	require.Len(t, items, 1)
	assert.Equal(t, "abcd1234", aws.StringValue(items[0]["user_id"].S))
	assert.Equal(t, "pump1", aws.StringValue(items[0]["project"].S))
	assert.Equal(t, "3", aws.StringValue(items[0]["numRows"].N))
	assert.Equal(t, "exec-1", aws.StringValue(items[0]["executionId"].S))
	assert.Equal(t, "main pump", aws.StringValue(items[0]["assetDescription"].S))
}

func TestNewProjectUnreadableFile(t *testing.T) {
	f := newFixture()

	resp, err := f.handler.NewProject(context.Background(), types.ObjectRequest{Bucket: "b", Key: "raw-datasets/pump1/missing.csv"})
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, readErrorMessage, resp.ErrorMessage)
	assert.Empty(t, f.db.Table(projectsTable))

	_, err = f.handler.NewProject(context.Background(), types.ObjectRequest{Bucket: "b", Key: "sensors.csv"})
	assert.Error(t, err)
}

func TestDescribeModel(t *testing.T) {
	f := newFixture()

	resp, err := f.handler.DescribeModel(context.Background(), types.ModelRequest{ModelName: "pump1-model"})
	require.NoError(t, err)
	assert.Equal(t, types.ModelStatusResponse{StatusCode: 200, Status: "SUCCESS", ModelName: "pump1-model"}, resp)

	_, err = f.handler.DescribeModel(context.Background(), types.ModelRequest{ModelName: "missing"})
	assert.Error(t, err)

	_, err = f.handler.DescribeModel(context.Background(), types.ModelRequest{})
	assert.Error(t, err)
}

func TestUnload(t *testing.T) {
	f := newFixture()
	detail := types.ObjectDetail{
		Bucket: types.BucketRef{Name: "b"},
		Object: types.ObjectRef{Key: "raw-datasets/pump1/sensors.csv"},
	}

	resp, err := f.handler.Unload(context.Background(), types.UnloadRequest{
		ID:                       "exec-2",
		UID:                      "abcd1234",
		UnloadQuery:              "UNLOAD (SELECT * FROM db.tbl) TO 's3://b/raw-datasets/pump1/' WITH (format='CSV')",
		AssetDescription:         "main pump",
		DatasetPreparationSfnArn: "arn:aws:states:eu-west-1:123456789012:stateMachine:prep",
		TimestampCol:             "time",
		Detail:                   detail,
	})
	require.NoError(t, err)

	assert.Equal(t, "query-1", resp.QueryID)
	assert.Equal(t, "time", resp.TimestampCol)
	assert.Equal(t, detail, resp.Detail)

	require.Len(t, f.timestream.queries, 1)
	assert.Len(t, aws.StringValue(f.timestream.queries[0].ClientToken), 32)

	items := f.db.Table(projectsTable)
	require.Len(t, items, 1)
	assert.Equal(t, "0", aws.StringValue(items[0]["numRows"].N))
	assert.Equal(t, "pump1", aws.StringValue(items[0]["project"].S))
}

func TestUnloadRejectsOtherQueries(t *testing.T) {
	f := newFixture()

	_, err := f.handler.Unload(context.Background(), types.UnloadRequest{
		UnloadQuery: "SELECT * FROM db.tbl",
		Detail:      types.ObjectDetail{Object: types.ObjectRef{Key: "raw-datasets/pump1/sensors.csv"}},
	})
	assert.ErrorContains(t, err, "UNLOAD")
	assert.Empty(t, f.timestream.queries)
	assert.Empty(t, f.db.Table(projectsTable))
}
