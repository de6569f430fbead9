package dao

import (
	"context"
	"fmt"

	"github.com/a1s/lazyrows/internal/aws"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
)

func init() {
	RegisterSource(IAMUserRID, NewIAMUsers)
}

// NewIAMUsers lists the IAM users of the account.
func NewIAMUsers(f Factory, loc Locator) (RowSource, error) {
	conn, err := connection(f)
	if err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context, token *string, limit int) ([]Object, *string, error) {
		client := conn.IAM()
		if client == nil {
			return nil, nil, fmt.Errorf("failed to get IAM client")
		}
		out, err := client.ListUsers(ctx, &iam.ListUsersInput{
			Marker:   token,
			MaxItems: awsv2.Int32(int32(limit)),
		})
		if err != nil {
			return nil, nil, aws.WrapAWSError(err, "list users")
		}

		oo := make([]Object, 0, len(out.Users))
		for _, u := range out.Users {
			oo = append(oo, userToObject(u))
		}
		if !out.IsTruncated {
			return oo, nil, nil
		}
		return oo, out.Marker, nil
	}

	return NewPagedSource(IAMUserRID, "global", loc.PageSize, nil, fetch), nil
}

func userToObject(user types.User) Object {
	attrs := map[string]string{
		"id":   aws.StringValue(user.UserId),
		"name": aws.StringValue(user.UserName),
		"arn":  aws.StringValue(user.Arn),
		"path": aws.StringValue(user.Path),
	}
	if user.PasswordLastUsed != nil {
		attrs["password-last-used"] = user.PasswordLastUsed.Format("2006-01-02")
	}

	return &BaseObject{
		ID:        attrs["id"],
		Name:      attrs["name"],
		CreatedAt: user.CreateDate,
		Attrs:     attrs,
		Raw:       user,
	}
}
