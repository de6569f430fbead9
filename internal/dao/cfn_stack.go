package dao

import (
	"context"
	"fmt"

	"github.com/a1s/lazyrows/internal/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
)

func init() {
	RegisterSource(CFNStackRID, NewCFNStacks)
}

// NewCFNStacks lists the CloudFormation stacks of a region. ListStacks has a
// fixed page size.
func NewCFNStacks(f Factory, loc Locator) (RowSource, error) {
	conn, err := connection(f)
	if err != nil {
		return nil, err
	}
	region := regionFor(f, loc)

	fetch := func(ctx context.Context, token *string, _ int) ([]Object, *string, error) {
		client := conn.CloudFormation(region)
		if client == nil {
			return nil, nil, fmt.Errorf("failed to get CloudFormation client for region %s", region)
		}
		out, err := client.ListStacks(ctx, &cloudformation.ListStacksInput{NextToken: token})
		if err != nil {
			return nil, nil, aws.WrapAWSError(err, "list stacks")
		}

		oo := make([]Object, 0, len(out.StackSummaries))
		for _, s := range out.StackSummaries {
			oo = append(oo, stackToObject(s))
		}
		return oo, out.NextToken, nil
	}

	return NewPagedSource(CFNStackRID, region, loc.PageSize, nil, fetch), nil
}

func stackToObject(s types.StackSummary) Object {
	attrs := map[string]string{
		"id":     aws.StringValue(s.StackId),
		"name":   aws.StringValue(s.StackName),
		"status": string(s.StackStatus),
		"reason": aws.StringValue(s.StackStatusReason),
	}

	return &BaseObject{
		ID:        attrs["id"],
		Name:      attrs["name"],
		CreatedAt: s.CreationTime,
		Attrs:     attrs,
		Raw:       s,
	}
}
