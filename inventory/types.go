package inventory

import (
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/rs/zerolog"
)

type Inventory struct {
	client dynamodbiface.DynamoDBAPI
	region string
	logger *zerolog.Logger
}
