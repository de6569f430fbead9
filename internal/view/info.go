// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 a1s Authors

package view

import (
	"github.com/a1s/lazyrows/internal/config/data"
	"github.com/a1s/lazyrows/internal/dao"
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// Info shows what is being browsed and through which account.
type Info struct {
	*tview.Table

	kind      string
	location  string
	profile   string
	region    string
	accountID string
	version   string
}

// NewInfo creates a new info display component.
func NewInfo() *Info {
	i := &Info{
		Table: tview.NewTable(),
	}

	i.SetBorder(true)
	i.SetBorderColor(tcell.ColorDarkCyan)
	i.SetBorderPadding(0, 0, 1, 1)
	i.SetSelectable(false, false)

	return i
}

// SetSource records the browsed source.
func (i *Info) SetSource(rid dao.ResourceID, src data.Source, version string) {
	i.kind, i.version = rid.String(), version
	switch rid {
	case dao.SQLTableRID, dao.BoltBucketRID:
		i.location = src.Path + ":" + src.Table
	case dao.S3ObjectRID:
		i.location = "s3://" + src.Bucket + "/" + src.Prefix
	case dao.CloudControlRID:
		i.location = src.ResourceType
	default:
		i.location = ""
	}
	i.refresh()
}

// SetAccount records the AWS account of cloud sources.
func (i *Info) SetAccount(profile, region, accountID string) {
	i.profile, i.region, i.accountID = profile, region, accountID
	i.refresh()
}

func (i *Info) refresh() {
	i.Clear()

	lines := []string{
		"[::b]" + tview.Escape(i.kind) + "[-:-:-] [gray](v" + i.version + ")[-]",
		tview.Escape(i.location),
	}
	if i.profile != "" {
		account := i.accountID
		if account == "" {
			account = "..."
		}
		lines = append(lines, tview.Escape(i.profile)+"@"+tview.Escape(i.region)+" "+account)
	}

	for row, line := range lines {
		i.SetCell(row, 0, tview.NewTableCell(line).
			SetTextColor(tcell.ColorDarkCyan).
			SetAlign(tview.AlignLeft).
			SetSelectable(false))
	}
}
