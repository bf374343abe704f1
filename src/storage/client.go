package storage

import (
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials/stscreds"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

var (
	clientInstance *s3.S3
	once           sync.Once
)

func GetS3Client(region string) *s3.S3 {
	once.Do(func() {
		sess := session.Must(session.NewSession(&aws.Config{Region: aws.String(region)}))

		clientInstance = s3.New(sess)
	})

	return clientInstance
}

// GetAssumedRoleClient returns a client acting as roleARN, for buckets the
// function's own role cannot reach.
func GetAssumedRoleClient(region, roleARN, sessionName string) s3iface.S3API {
	sess := session.Must(session.NewSession(&aws.Config{Region: aws.String(region)}))
	creds := stscreds.NewCredentials(sess, roleARN, func(p *stscreds.AssumeRoleProvider) {
		p.RoleSessionName = sessionName
	})

	return s3.New(sess, &aws.Config{Credentials: creds})
}

// Store reads and writes the pipeline's objects.
type Store struct {
	API s3iface.S3API
}

func New(api s3iface.S3API) *Store {
	return &Store{API: api}
}
