package dao

import (
	"fmt"
	"time"
)

var demoEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

type demoRecord struct {
	id        string
	name      string
	size      int64
	createdAt time.Time
}

func demoRecords(n int) []demoRecord {
	rr := make([]demoRecord, 0, n)
	for i := range n {
		rr = append(rr, demoRecord{
			id:        fmt.Sprintf("row-%07d", i),
			name:      fmt.Sprintf("record %d", i),
			size:      int64(i%97) * 1024,
			createdAt: demoEpoch.Add(time.Duration(i) * time.Minute),
		})
	}
	return rr
}

func (r demoRecord) object() *BaseObject {
	t := r.createdAt
	return &BaseObject{
		ID:        r.id,
		Name:      r.name,
		CreatedAt: &t,
		Attrs: map[string]string{
			"id":         r.id,
			"name":       r.name,
			"size":       fmt.Sprintf("%d", r.size),
			"created_at": r.createdAt.Format(time.RFC3339),
		},
	}
}
