package dao

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/a1s/lazyrows/internal/aws"
)

// ResourceID identifies a row source kind, e.g. "sql/table" or "s3/object".
type ResourceID struct {
	Service  string
	Resource string
}

// String returns a string representation in the form "service/resource".
func (r ResourceID) String() string {
	return fmt.Sprintf("%s/%s", r.Service, r.Resource)
}

// ParseResourceID parses a string in the form "service/resource".
func ParseResourceID(s string) (ResourceID, error) {
	service, resource, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || service == "" || resource == "" {
		return ResourceID{}, fmt.Errorf("invalid resource ID format: %q (expected service/resource)", s)
	}
	return ResourceID{Service: service, Resource: resource}, nil
}

var (
	SQLTableRID     = ResourceID{Service: "sql", Resource: "table"}
	BoltBucketRID   = ResourceID{Service: "bolt", Resource: "bucket"}
	MemoryRID       = ResourceID{Service: "mem", Resource: "rows"}
	S3ObjectRID     = ResourceID{Service: "s3", Resource: "object"}
	EC2InstanceRID  = ResourceID{Service: "ec2", Resource: "instance"}
	IAMUserRID      = ResourceID{Service: "iam", Resource: "user"}
	EKSClusterRID   = ResourceID{Service: "eks", Resource: "cluster"}
	CFNStackRID     = ResourceID{Service: "cfn", Resource: "stack"}
	CloudControlRID = ResourceID{Service: "cc", Resource: "resource"}
)

// Object is one record served by a RowSource.
type Object interface {
	GetID() string
	GetName() string
	GetCreatedAt() *time.Time
	GetAttrs() map[string]string
	GetRaw() any
}

// RowSource serves records by position.
type RowSource interface {
	// ResourceID returns the kind of the source.
	ResourceID() ResourceID

	// List returns at most limit records starting at offset. A short result
	// means the source ended.
	List(ctx context.Context, offset, limit int) ([]Object, error)

	// Count returns the best known number of records.
	Count(ctx context.Context) (int, error)
}

// ChangeKind tells what happened to a source.
type ChangeKind int

const (
	ChangeInsert ChangeKind = iota + 1
	ChangeRemove
	ChangeUpdate
	ChangeReset
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeInsert:
		return "insert"
	case ChangeRemove:
		return "remove"
	case ChangeUpdate:
		return "update"
	case ChangeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Change describes rows [Offset, Offset+Count) changing remotely. A reset
// carries the new size in Count.
type Change struct {
	Kind   ChangeKind
	Offset int
	Count  int
}

// Watcher is implemented by sources pushing change notifications.
type Watcher interface {
	// Watch streams changes until ctx is done.
	Watch(ctx context.Context) <-chan Change
}

// Churner is implemented by sources able to simulate live changes.
type Churner interface {
	// Churn inserts and removes records every tick until ctx is done.
	Churn(ctx context.Context, every time.Duration, seed int64)
}

// Factory provides the AWS connection for cloud backed sources.
type Factory interface {
	Client() aws.Connection
	Region() string
}

// Locator locates the records a source serves.
type Locator struct {
	// Path is the database file for sql and bolt sources.
	Path string
	// Table names the sql table or the bolt bucket.
	Table string
	// OrderBy is the sql column rows are ordered by.
	OrderBy string
	// KeyColumn is the sql column holding the row ID.
	KeyColumn string
	// Bucket and Prefix select S3 objects.
	Bucket string
	Prefix string
	// TypeName is the CloudFormation type listed through Cloud Control.
	TypeName string
	// Region overrides the factory region.
	Region string
	// PageSize bounds the records fetched per remote call.
	PageSize int
	// Seed is the number of demo records a memory source starts with.
	Seed int
}
