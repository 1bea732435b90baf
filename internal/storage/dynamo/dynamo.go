// Package dynamo provides a DynamoDB implementation of storage.EmployeeStore.
//
// Employees live in a single table keyed by a partition key "pk" and sort key
// "sk". Each employee profile is stored under pk = EMPLOYEE#<id>, sk = PROFILE
// with an entity_type attribute so the table can hold other item types.
package dynamo

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/payroll/internal/models"
	"github.com/mmynk/payroll/internal/storage"
)

const (
	attrPK         = "pk"
	attrSK         = "sk"
	attrEntityType = "entity_type"

	employeePrefix  = "EMPLOYEE#"
	profileSortKey  = "PROFILE"
	employeeEntity  = "EMPLOYEE"
	defaultPageSize = 50
	maxPageSize     = 1000
)

// Client defines the DynamoDB operations required by EmployeeStore.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

var (
	_ Client                = (*dynamodb.Client)(nil)
	_ storage.EmployeeStore = (*EmployeeStore)(nil)
)

// NewClient builds a DynamoDB client from the default AWS configuration chain.
// A non-empty endpoint overrides the service endpoint, e.g. for DynamoDB Local.
func NewClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// EmployeeStore implements storage.EmployeeStore on a DynamoDB table.
type EmployeeStore struct {
	client Client
	table  string
	now    func() time.Time
}

// New returns an EmployeeStore over the named table.
func New(client Client, table string) *EmployeeStore {
	return &EmployeeStore{
		client: client,
		table:  table,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// EnsureTable creates the table with on-demand billing if it does not exist.
func (s *EmployeeStore) EnsureTable(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to describe table %s: %w", s.table, err)
	}

	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(s.table),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrPK), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrSK), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrPK), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(attrSK), KeyType: types.KeyTypeRange},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// employeeItem is the stored shape of an employee profile.
type employeeItem struct {
	PK         string    `dynamodbav:"pk"`
	SK         string    `dynamodbav:"sk"`
	EntityType string    `dynamodbav:"entity_type"`
	ID         string    `dynamodbav:"id"`
	FirstName  string    `dynamodbav:"first_name"`
	LastName   string    `dynamodbav:"last_name"`
	Email      string    `dynamodbav:"email"`
	Department string    `dynamodbav:"department,omitempty"`
	Salary     string    `dynamodbav:"salary"`
	CreatedAt  time.Time `dynamodbav:"created_at"`
	UpdatedAt  time.Time `dynamodbav:"updated_at"`
}

func employeeKey(id uuid.UUID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: employeePrefix + id.String()},
		attrSK: &types.AttributeValueMemberS{Value: profileSortKey},
	}
}

func toItem(e *models.Employee) employeeItem {
	return employeeItem{
		PK:         employeePrefix + e.ID.String(),
		SK:         profileSortKey,
		EntityType: employeeEntity,
		ID:         e.ID.String(),
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Email:      e.Email,
		Department: e.Department,
		Salary:     e.Salary.String(),
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func (it employeeItem) model() (*models.Employee, error) {
	id, err := uuid.Parse(it.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid employee id %q: %w", it.ID, err)
	}
	salary, err := decimal.NewFromString(it.Salary)
	if err != nil {
		return nil, fmt.Errorf("invalid salary for employee %s: %w", id, err)
	}
	return &models.Employee{
		ID:         id,
		FirstName:  it.FirstName,
		LastName:   it.LastName,
		Email:      it.Email,
		Department: it.Department,
		Salary:     salary,
		CreatedAt:  it.CreatedAt.UTC(),
		UpdatedAt:  it.UpdatedAt.UTC(),
	}, nil
}

// CreateEmployee stores a new employee. It fails with storage.ErrConflict
// if an employee with the same ID exists.
func (s *EmployeeStore) CreateEmployee(ctx context.Context, e *models.Employee) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := s.now()
	e.CreatedAt = now
	e.UpdatedAt = now

	cond := expression.AttributeNotExists(expression.Name(attrPK))
	if err := s.put(ctx, e, cond); err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("employee %s: %w", e.ID, storage.ErrConflict)
		}
		return fmt.Errorf("failed to create employee: %w", err)
	}
	return nil
}

func (s *EmployeeStore) put(ctx context.Context, e *models.Employee, cond expression.ConditionBuilder) error {
	item, err := attributevalue.MarshalMap(toItem(e))
	if err != nil {
		return fmt.Errorf("failed to marshal employee: %w", err)
	}
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.table),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return err
}

// GetEmployee retrieves an employee by ID.
func (s *EmployeeStore) GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            employeeKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, fmt.Errorf("employee %s: %w", id, storage.ErrNotFound)
	}

	var item employeeItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal employee: %w", err)
	}
	return item.model()
}

// ListEmployees scans employees a page at a time. The returned cursor is
// opaque; pass it back to continue, and "" means the scan is complete.
func (s *EmployeeStore) ListEmployees(ctx context.Context, limit int, cursor string) ([]*models.Employee, string, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	startKey, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	filter := expression.Name(attrEntityType).Equal(expression.Value(employeeEntity))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build filter: %w", err)
	}

	var employees []*models.Employee
	for {
		// Limit is applied before the filter, so keep scanning until the
		// page is full or the table is exhausted.
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(s.table),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
			Limit:                     aws.Int32(int32(limit - len(employees))),
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan employees: %w", err)
		}

		var items []employeeItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, "", fmt.Errorf("failed to unmarshal employees: %w", err)
		}
		for _, it := range items {
			e, err := it.model()
			if err != nil {
				return nil, "", err
			}
			employees = append(employees, e)
		}

		startKey = out.LastEvaluatedKey
		if len(startKey) == 0 || len(employees) >= limit {
			break
		}
	}

	next, err := encodeCursor(startKey)
	if err != nil {
		return nil, "", err
	}
	return employees, next, nil
}

// UpdateEmployee replaces an existing employee's profile, keeping its
// creation time.
func (s *EmployeeStore) UpdateEmployee(ctx context.Context, e *models.Employee) error {
	existing, err := s.GetEmployee(ctx, e.ID)
	if err != nil {
		return err
	}
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = s.now()

	cond := expression.AttributeExists(expression.Name(attrPK))
	if err := s.put(ctx, e, cond); err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("employee %s: %w", e.ID, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to update employee: %w", err)
	}
	return nil
}

// DeleteEmployee removes an employee by ID.
func (s *EmployeeStore) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name(attrPK))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.table),
		Key:                      employeeKey(id),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("employee %s: %w", id, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	return nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

type cursorKey struct {
	PK string `json:"pk" dynamodbav:"pk"`
	SK string `json:"sk" dynamodbav:"sk"`
}

func encodeCursor(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}
	var k cursorKey
	if err := attributevalue.UnmarshalMap(key, &k); err != nil {
		return "", fmt.Errorf("failed to decode last key: %w", err)
	}
	data, err := json.Marshal(k)
	if err != nil {
		return "", fmt.Errorf("failed to encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// ErrInvalidCursor is returned when a page cursor cannot be decoded.
var ErrInvalidCursor = errors.New("invalid page cursor")

func decodeCursor(cursor string) (map[string]types.AttributeValue, error) {
	if cursor == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var k cursorKey
	if err := json.Unmarshal(data, &k); err != nil || k.PK == "" {
		return nil, ErrInvalidCursor
	}
	key, err := attributevalue.MarshalMap(k)
	if err != nil {
		return nil, fmt.Errorf("failed to encode start key: %w", err)
	}
	return key, nil
}
