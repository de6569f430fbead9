package dao

import (
	"context"
	"fmt"

	"github.com/a1s/lazyrows/internal/aws"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

const (
	ec2MinResults = 5
	ec2MaxResults = 1000
)

func init() {
	RegisterSource(EC2InstanceRID, NewEC2Instances)
}

// NewEC2Instances lists the instances of a region.
func NewEC2Instances(f Factory, loc Locator) (RowSource, error) {
	conn, err := connection(f)
	if err != nil {
		return nil, err
	}
	region := regionFor(f, loc)

	fetch := func(ctx context.Context, token *string, limit int) ([]Object, *string, error) {
		client := conn.EC2(region)
		if client == nil {
			return nil, nil, fmt.Errorf("failed to get EC2 client for region %s", region)
		}
		out, err := client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
			NextToken:  token,
			MaxResults: awsv2.Int32(int32(min(max(limit, ec2MinResults), ec2MaxResults))),
		})
		if err != nil {
			return nil, nil, aws.WrapAWSError(err, "describe instances")
		}

		var oo []Object
		for _, r := range out.Reservations {
			for _, i := range r.Instances {
				oo = append(oo, instanceToObject(i))
			}
		}
		return oo, out.NextToken, nil
	}

	return NewPagedSource(EC2InstanceRID, region, loc.PageSize, nil, fetch), nil
}

func instanceToObject(instance types.Instance) Object {
	attrs := map[string]string{
		"id":    aws.StringValue(instance.InstanceId),
		"type":  string(instance.InstanceType),
		"vpc":   aws.StringValue(instance.VpcId),
		"ip":    aws.StringValue(instance.PrivateIpAddress),
		"state": "",
	}
	if instance.State != nil {
		attrs["state"] = string(instance.State.Name)
	}
	if instance.MetadataOptions != nil {
		attrs["http-tokens"] = string(instance.MetadataOptions.HttpTokens)
	}
	if instance.Placement != nil {
		attrs["zone"] = aws.StringValue(instance.Placement.AvailabilityZone)
	}
	for _, tag := range instance.Tags {
		if tag.Key != nil && tag.Value != nil {
			attrs["tag:"+*tag.Key] = *tag.Value
		}
	}

	name := extractNameTag(instance.Tags)
	if name == "" {
		name = attrs["id"]
	}

	return &BaseObject{
		ID:        attrs["id"],
		Name:      name,
		CreatedAt: instance.LaunchTime,
		Attrs:     attrs,
		Raw:       instance,
	}
}

// extractNameTag extracts the "Name" tag value from a list of tags.
func extractNameTag(tags []types.Tag) string {
	for _, tag := range tags {
		if tag.Key != nil && *tag.Key == "Name" && tag.Value != nil {
			return *tag.Value
		}
	}
	return ""
}
