package dao

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/a1s/lazyrows/internal/aws"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func init() {
	RegisterSource(S3ObjectRID, NewS3Objects)
}

// NewS3Objects lists the objects and folders under loc.Prefix in loc.Bucket.
func NewS3Objects(f Factory, loc Locator) (RowSource, error) {
	conn, err := connection(f)
	if err != nil {
		return nil, err
	}
	if loc.Bucket == "" {
		return nil, fmt.Errorf("s3 source needs a bucket")
	}

	var region string
	fetch := func(ctx context.Context, token *string, limit int) ([]Object, *string, error) {
		if region == "" {
			r, err := bucketRegion(ctx, conn, loc.Bucket)
			if err != nil {
				return nil, nil, err
			}
			region = r
		}
		client := conn.S3(region)
		if client == nil {
			return nil, nil, fmt.Errorf("failed to get S3 client for %s", region)
		}

		input := &s3.ListObjectsV2Input{
			Bucket:            awsv2.String(loc.Bucket),
			Delimiter:         awsv2.String("/"),
			ContinuationToken: token,
			MaxKeys:           awsv2.Int32(int32(limit)),
		}
		if loc.Prefix != "" {
			input.Prefix = awsv2.String(loc.Prefix)
		}
		out, err := client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, nil, aws.WrapAWSError(err, "list objects")
		}

		oo := make([]Object, 0, len(out.CommonPrefixes)+len(out.Contents))
		for _, p := range out.CommonPrefixes {
			oo = append(oo, folderToObject(aws.StringValue(p.Prefix)))
		}
		for _, o := range out.Contents {
			oo = append(oo, objectToObject(o))
		}
		if !awsv2.ToBool(out.IsTruncated) {
			return oo, nil, nil
		}
		return oo, out.NextContinuationToken, nil
	}

	return NewPagedSource(S3ObjectRID, loc.Bucket+"/"+loc.Prefix, loc.PageSize, nil, fetch), nil
}

func bucketRegion(ctx context.Context, conn aws.Connection, bucket string) (string, error) {
	client := conn.S3(aws.DefaultRegion)
	if client == nil {
		return "", fmt.Errorf("failed to get S3 client")
	}
	out, err := client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{Bucket: awsv2.String(bucket)})
	if err != nil {
		return "", aws.WrapAWSError(err, "get bucket location")
	}
	if out.LocationConstraint == "" {
		return aws.DefaultRegion, nil
	}
	return string(out.LocationConstraint), nil
}

func objectToObject(obj types.Object) Object {
	key := aws.StringValue(obj.Key)
	name := key
	if idx := strings.LastIndex(key, "/"); idx >= 0 {
		name = key[idx+1:]
	}
	attrs := map[string]string{
		"key":           key,
		"storage-class": string(obj.StorageClass),
	}
	if obj.Size != nil {
		attrs["size"] = strconv.FormatInt(*obj.Size, 10)
	}

	return &BaseObject{
		ID:        key,
		Name:      name,
		CreatedAt: obj.LastModified,
		Attrs:     attrs,
		Raw:       obj,
	}
}

func folderToObject(prefix string) Object {
	name := strings.TrimSuffix(prefix, "/")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}

	return &BaseObject{
		ID:    prefix,
		Name:  name + "/",
		Attrs: map[string]string{"key": prefix},
		Raw:   prefix,
	}
}
