package dynamo

import (
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"go.uber.org/zap"
)

var (
	clientInstance *dynamodb.DynamoDB
	once           sync.Once
)

func GetDynamoDBClient(region string) *dynamodb.DynamoDB {
	once.Do(func() {
		sess := session.Must(session.NewSession(&aws.Config{Region: aws.String(region)}))

		clientInstance = dynamodb.New(sess)
	})

	return clientInstance
}

// MaxBatchSize is the BatchWriteItem limit.
const MaxBatchSize = 25

// Store writes pipeline tables.
type Store struct {
	API       dynamodbiface.DynamoDBAPI
	Log       *zap.Logger
	BatchSize int
	// MaxRetries bounds resubmissions of unprocessed items per batch.
	MaxRetries int
	Backoff    time.Duration
}

func New(api dynamodbiface.DynamoDBAPI, log *zap.Logger) *Store {
	return &Store{
		API:        api,
		Log:        log,
		BatchSize:  MaxBatchSize,
		MaxRetries: 8,
		Backoff:    100 * time.Millisecond,
	}
}
