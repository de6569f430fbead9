// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of a1s

package dao

import (
	"github.com/a1s/lazyrows/internal/aws"
)

// AWSFactory implements the Factory interface using an APIClient.
type AWSFactory struct {
	client aws.Connection
	region string
}

// NewFactory creates a new AWSFactory with the given client. A nil client
// serves local sources only.
func NewFactory(client aws.Connection) *AWSFactory {
	f := AWSFactory{client: client}
	if client != nil {
		f.region = client.Region()
	}
	return &f
}

// Client returns the AWS connection.
func (f *AWSFactory) Client() aws.Connection {
	return f.client
}

// Region returns the active AWS region.
func (f *AWSFactory) Region() string {
	return f.region
}

func connection(f Factory) (aws.Connection, error) {
	if f == nil || f.Client() == nil {
		return nil, aws.ErrNoConnection
	}
	return f.Client(), nil
}

func regionFor(f Factory, loc Locator) string {
	if loc.Region != "" {
		return loc.Region
	}
	return f.Region()
}
