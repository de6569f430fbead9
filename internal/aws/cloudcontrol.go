// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of a1s

package aws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudcontrol"
)

// ResourceState is one Cloud Control resource with its decoded properties.
type ResourceState struct {
	Identifier string
	Properties map[string]any
}

// ListResourcePage lists one page of resources of a CloudFormation type.
// It returns the next page token, nil on the last page.
func ListResourcePage(ctx context.Context, client *cloudcontrol.Client, typeName string, token *string, limit int32) ([]ResourceState, *string, error) {
	if client == nil {
		return nil, nil, errors.New("cloudcontrol client is nil")
	}

	out, err := client.ListResources(ctx, &cloudcontrol.ListResourcesInput{
		TypeName:   aws.String(typeName),
		NextToken:  token,
		MaxResults: aws.Int32(limit),
	})
	if err != nil {
		return nil, nil, WrapAWSError(err, "list "+typeName)
	}

	rr := make([]ResourceState, 0, len(out.ResourceDescriptions))
	for _, d := range out.ResourceDescriptions {
		r := ResourceState{Identifier: aws.ToString(d.Identifier)}
		if d.Properties != nil {
			if err := json.Unmarshal([]byte(*d.Properties), &r.Properties); err != nil {
				return nil, nil, fmt.Errorf("failed to parse properties of %s: %w", r.Identifier, err)
			}
		}
		rr = append(rr, r)
	}

	return rr, out.NextToken, nil
}
