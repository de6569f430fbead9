// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of a1s

package view

import (
	"strings"

	"github.com/a1s/lazyrows/internal/dao"
)

// S3Browser browses one prefix of a bucket. Entering a folder opens its
// prefix on top; other objects are described.
type S3Browser struct {
	*Browser

	loc dao.Locator
}

// NewS3Browser returns a browser over loc.Bucket under loc.Prefix.
func NewS3Browser(a *App, loc dao.Locator) (*S3Browser, error) {
	b, err := newBrowser(a, s3Name(loc), dao.S3ObjectRID, loc)
	if err != nil {
		return nil, err
	}
	s := S3Browser{Browser: b, loc: loc}
	b.enterFn = s.enter

	return &s, nil
}

func s3Name(loc dao.Locator) string {
	if loc.Prefix == "" {
		return loc.Bucket
	}
	return loc.Bucket + "/" + strings.TrimSuffix(loc.Prefix, "/")
}

// IsFolder reports whether id names a common prefix.
func IsFolder(id string) bool {
	return strings.HasSuffix(id, "/")
}

func (s *S3Browser) enter(index int) {
	row, _ := s.model.RowAt(index)
	if !IsFolder(row.ID) {
		s.describe(index)
		return
	}

	loc := s.loc
	loc.Prefix = row.ID
	child, err := NewS3Browser(s.app, loc)
	if err != nil {
		s.app.Flash("error", err.Error())
		return
	}
	s.app.Push(child)
}
