package dynamo

import (
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// stringSet marshals as a DynamoDB string set rather than a list.
type stringSet []string

func (s stringSet) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberSS{Value: s}, nil
}

// itemExists guards updates so they never create an item.
func itemExists() expression.ConditionBuilder {
	return expression.AttributeExists(expression.Name("pk"))
}

func buildUpdate(update expression.UpdateBuilder, cond *expression.ConditionBuilder) (expression.Expression, error) {
	builder := expression.NewBuilder().WithUpdate(update)
	if cond != nil {
		builder = builder.WithCondition(*cond)
	}
	return builder.Build()
}
