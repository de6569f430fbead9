package dao

import (
	"context"
	"fmt"

	"github.com/a1s/lazyrows/internal/aws"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eks"
)

const eksMaxResults = 100

func init() {
	RegisterSource(EKSClusterRID, NewEKSClusters)
}

// NewEKSClusters lists the cluster names of a region.
func NewEKSClusters(f Factory, loc Locator) (RowSource, error) {
	conn, err := connection(f)
	if err != nil {
		return nil, err
	}
	region := regionFor(f, loc)

	fetch := func(ctx context.Context, token *string, limit int) ([]Object, *string, error) {
		client := conn.EKS(region)
		if client == nil {
			return nil, nil, fmt.Errorf("failed to get EKS client for region %s", region)
		}
		out, err := client.ListClusters(ctx, &eks.ListClustersInput{
			NextToken:  token,
			MaxResults: awsv2.Int32(int32(min(limit, eksMaxResults))),
		})
		if err != nil {
			return nil, nil, aws.WrapAWSError(err, "list clusters")
		}

		oo := make([]Object, 0, len(out.Clusters))
		for _, name := range out.Clusters {
			oo = append(oo, &BaseObject{
				ID:    name,
				Name:  name,
				Attrs: map[string]string{"name": name, "region": region},
				Raw:   name,
			})
		}
		return oo, out.NextToken, nil
	}

	return NewPagedSource(EKSClusterRID, region, loc.PageSize, nil, fetch), nil
}
