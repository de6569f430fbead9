package dao

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"
)

func init() {
	RegisterSource(BoltBucketRID, func(_ Factory, loc Locator) (RowSource, error) {
		return OpenBoltBucket(loc.Path, loc.Table)
	})
}

// BoltBucket serves JSON records stored under sequence keys in a bbolt bucket,
// in key order.
type BoltBucket struct {
	db     *bolt.DB
	bucket []byte
}

// OpenBoltBucket opens the database at path, creating the bucket if needed.
func OpenBoltBucket(path, bucket string) (*BoltBucket, error) {
	if path == "" || bucket == "" {
		return nil, fmt.Errorf("bolt source needs a database path and a bucket")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	b := BoltBucket{db: db, bucket: []byte(bucket)}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(b.bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &b, nil
}

// ResourceID returns the source kind.
func (*BoltBucket) ResourceID() ResourceID {
	return BoltBucketRID
}

// Close closes the database.
func (b *BoltBucket) Close() error {
	return b.db.Close()
}

// Count returns the number of records in the bucket.
func (b *BoltBucket) Count(context.Context) (int, error) {
	var n int
	err := b.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(b.bucket).Stats().KeyN
		return nil
	})
	return n, err
}

// List returns limit records starting at offset. The cursor walks past the
// skipped keys.
func (b *BoltBucket) List(ctx context.Context, offset, limit int) ([]Object, error) {
	oo := make([]Object, 0, limit)
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(b.bucket).Cursor()
		k, v := c.First()
		for i := 0; k != nil && i < offset; i++ {
			k, v = c.Next()
		}
		for ; k != nil && len(oo) < limit; k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			o, err := boltObject(k, v)
			if err != nil {
				return err
			}
			oo = append(oo, o)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", b.bucket, err)
	}

	return oo, nil
}

// Seed appends n demo records.
func (b *BoltBucket) Seed(n int) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(b.bucket)
		for _, r := range demoRecords(n) {
			if err := appendRecord(bk, r.object().Attrs); err != nil {
				return err
			}
		}
		return nil
	})
}

// appendRecord stores attrs under the next sequence key.
func appendRecord(bk *bolt.Bucket, attrs map[string]string) error {
	seq, err := bk.NextSequence()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return err
	}
	return bk.Put(marshalSeq(seq), raw)
}

func boltObject(k, v []byte) (Object, error) {
	var attrs map[string]string
	if err := json.Unmarshal(v, &attrs); err != nil {
		return nil, fmt.Errorf("bad record %d: %w", unmarshalSeq(k), err)
	}
	o := BaseObject{
		ID:    attrs["id"],
		Name:  attrs["name"],
		Attrs: attrs,
		Raw:   attrs,
	}
	if o.ID == "" {
		o.ID = strconv.FormatUint(unmarshalSeq(k), 10)
	}
	if o.Name == "" {
		o.Name = o.ID
	}
	if t, err := time.Parse(time.RFC3339, attrs["created_at"]); err == nil {
		o.CreatedAt = &t
	}

	return &o, nil
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func unmarshalSeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
