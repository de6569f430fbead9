package dao

import (
	"context"
	"fmt"

	"github.com/a1s/lazyrows/internal/aws"
)

func init() {
	RegisterSource(CloudControlRID, NewCloudControlResources)
}

// NewCloudControlResources lists any CloudFormation resource type supported
// by Cloud Control, e.g. AWS::Logs::LogGroup.
func NewCloudControlResources(f Factory, loc Locator) (RowSource, error) {
	conn, err := connection(f)
	if err != nil {
		return nil, err
	}
	if loc.TypeName == "" {
		return nil, fmt.Errorf("cloud control source needs a resource type name")
	}
	region := regionFor(f, loc)

	fetch := func(ctx context.Context, token *string, limit int) ([]Object, *string, error) {
		rr, next, err := aws.ListResourcePage(ctx, conn.CloudControl(region), loc.TypeName, token, int32(limit))
		if err != nil {
			return nil, nil, err
		}

		oo := make([]Object, 0, len(rr))
		for _, r := range rr {
			attrs := make(map[string]string, len(r.Properties)+1)
			for k, v := range r.Properties {
				attrs[k] = fmt.Sprint(v)
			}
			attrs["identifier"] = r.Identifier
			oo = append(oo, &BaseObject{
				ID:    r.Identifier,
				Name:  r.Identifier,
				Attrs: attrs,
				Raw:   r.Properties,
			})
		}
		return oo, next, nil
	}

	return NewPagedSource(CloudControlRID, region+"/"+loc.TypeName, loc.PageSize, nil, fetch), nil
}
