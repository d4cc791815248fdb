package inventory

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/rs/zerolog"

	"ddb-capacity-reporter/types"
)

const listTablesPageSize = 100

func New(logger *zerolog.Logger, awsSession *session.Session, awsRegion string) *Inventory {
	dynamoDbClient := dynamodb.New(awsSession, &aws.Config{
		Region: aws.String(awsRegion),
	})

	return NewWithClient(logger, dynamoDbClient, awsRegion)
}

func NewWithClient(logger *zerolog.Logger, client dynamodbiface.DynamoDBAPI, awsRegion string) *Inventory {
	return &Inventory{
		client: client,
		region: awsRegion,
		logger: logger,
	}
}

// ListTables returns every table name in the region, in the order the service
// lists them. An empty inventory is an error.
func (i *Inventory) ListTables(ctx context.Context) ([]types.TableIdentifier, error) {
	var (
		tables []types.TableIdentifier
		seen   = map[string]bool{}
	)

	input := &dynamodb.ListTablesInput{Limit: aws.Int64(listTablesPageSize)}
	err := i.client.ListTablesPagesWithContext(ctx, input, func(page *dynamodb.ListTablesOutput, lastPage bool) bool {
		for _, t := range page.TableNames {
			name := aws.StringValue(t)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			tables = append(tables, types.TableIdentifier(name))
		}
		return true
	})
	if err != nil {
		return nil, &types.TransportError{Op: "failed to list DynamoDB tables", Err: err}
	}

	if len(tables) == 0 {
		return nil, types.ErrEmptyInventory
	}

	i.logger.Debug().Str("Region", i.region).Int("Tables", len(tables)).Msg("Listed DynamoDB tables")
	return tables, nil
}

// Describe fetches the table and converts the response into a TableDescriptor.
func (i *Inventory) Describe(ctx context.Context, table types.TableIdentifier) (types.TableDescriptor, error) {
	result, err := i.client.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(string(table)),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == dynamodb.ErrCodeResourceNotFoundException {
			return types.TableDescriptor{}, &types.TableNotFoundError{Table: table}
		}
		return types.TableDescriptor{}, &types.TransportError{Op: "failed to describe DynamoDB table " + string(table), Err: err}
	}

	if result == nil || result.Table == nil {
		return types.TableDescriptor{}, &types.TableNotFoundError{Table: table, Reason: "empty describe response"}
	}

	return toDescriptor(table, result.Table), nil
}

// IndexNames lists the global secondary indexes of the table. A table without
// indexes yields an empty, non-nil slice.
func (i *Inventory) IndexNames(ctx context.Context, table types.TableIdentifier) ([]types.SecondaryIndexName, error) {
	desc, err := i.Describe(ctx, table)
	if err != nil {
		return nil, err
	}

	names := make([]types.SecondaryIndexName, 0, len(desc.Indexes))
	for _, idx := range desc.Indexes {
		names = append(names, idx.Name)
	}
	return names, nil
}

// ProvisionedCapacity returns the provisioned units of the given kind for the
// table, or for one of its indexes when index is non-empty. The kind is
// validated before any call to the service.
func (i *Inventory) ProvisionedCapacity(ctx context.Context, table types.TableIdentifier, index types.SecondaryIndexName, kind string) (int64, error) {
	capacityKind, err := types.ParseCapacityKind(kind)
	if err != nil {
		return 0, err
	}

	capacity, err := i.Provisioned(ctx, types.Subject{Table: table, Index: index})
	if err != nil {
		return 0, err
	}
	return capacity.Units(capacityKind)
}

// Provisioned returns both read and write units of a table or index from a
// single describe call.
func (i *Inventory) Provisioned(ctx context.Context, subject types.Subject) (types.ProvisionedCapacity, error) {
	desc, err := i.Describe(ctx, subject.Table)
	if err != nil {
		return types.ProvisionedCapacity{}, err
	}

	// on-demand tables come back without a throughput descriptor
	if desc.Provisioned == nil {
		return types.ProvisionedCapacity{}, &types.TableNotFoundError{Table: subject.Table, Reason: "no provisioned throughput descriptor"}
	}

	if !subject.IsIndex() {
		return *desc.Provisioned, nil
	}

	idx, ok := desc.Index(subject.Index)
	if !ok {
		return types.ProvisionedCapacity{}, &types.IndexNotFoundError{Table: subject.Table, Index: subject.Index}
	}
	if idx.Provisioned == nil {
		return types.ProvisionedCapacity{}, &types.IndexNotFoundError{Table: subject.Table, Index: subject.Index}
	}
	return *idx.Provisioned, nil
}

func toDescriptor(table types.TableIdentifier, t *dynamodb.TableDescription) types.TableDescriptor {
	desc := types.TableDescriptor{
		Name:    table,
		Indexes: make([]types.IndexDescriptor, 0, len(t.GlobalSecondaryIndexes)),
	}

	if t.BillingModeSummary != nil {
		desc.BillingMode = aws.StringValue(t.BillingModeSummary.BillingMode)
	}
	desc.Provisioned = toCapacity(t.ProvisionedThroughput)

	for _, gsi := range t.GlobalSecondaryIndexes {
		if gsi == nil {
			continue
		}
		desc.Indexes = append(desc.Indexes, types.IndexDescriptor{
			Name:        types.SecondaryIndexName(aws.StringValue(gsi.IndexName)),
			Provisioned: toCapacity(gsi.ProvisionedThroughput),
		})
	}

	return desc
}

func toCapacity(pt *dynamodb.ProvisionedThroughputDescription) *types.ProvisionedCapacity {
	if pt == nil {
		return nil
	}
	return &types.ProvisionedCapacity{
		ReadUnits:  aws.Int64Value(pt.ReadCapacityUnits),
		WriteUnits: aws.Int64Value(pt.WriteCapacityUnits),
	}
}
