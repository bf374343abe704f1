package timestream

import (
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/timestreamquery"
)

var (
	clientInstance *timestreamquery.TimestreamQuery
	once           sync.Once
)

func GetClient(region string) *timestreamquery.TimestreamQuery {
	once.Do(func() {
		sess := session.Must(session.NewSession(&aws.Config{
			Region:                  aws.String(region),
			EnableEndpointDiscovery: aws.Bool(true),
		}))

		clientInstance = timestreamquery.New(sess)
	})

	return clientInstance
}
