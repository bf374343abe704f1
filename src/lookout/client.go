package lookout

import (
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/lookoutequipment"
)

var (
	clientInstance *lookoutequipment.LookoutEquipment
	once           sync.Once
)

func GetClient(region string) *lookoutequipment.LookoutEquipment {
	once.Do(func() {
		sess := session.Must(session.NewSession(&aws.Config{Region: aws.String(region)}))

		clientInstance = lookoutequipment.New(sess)
	})

	return clientInstance
}
