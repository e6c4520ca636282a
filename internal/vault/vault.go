// Package vault holds the per-owner aggregate of categorized records.
//
// A Vault never fetches or persists itself; callers load it, mutate it in
// memory and hand the whole aggregate back to storage.
package vault

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Bucket is the single container of records for one category.
type Bucket struct {
	Category Category
	Records  []Record
}

// Vault maps each category to at most one bucket. Buckets are created on
// first use and never removed.
type Vault struct {
	OwnerID string
	// Version is the stamp of the last successful save; 0 means the vault
	// was never stored.
	Version int64

	buckets map[Category]*Bucket
	order   []Category
}

func New(ownerID string) *Vault {
	return &Vault{OwnerID: ownerID, buckets: make(map[Category]*Bucket)}
}

// Buckets returns the buckets in creation order.
func (v *Vault) Buckets() []*Bucket {
	out := make([]*Bucket, 0, len(v.order))
	for _, c := range v.order {
		out = append(out, v.buckets[c])
	}
	return out
}

// Bucket returns the bucket of c if it exists.
func (v *Vault) Bucket(c Category) (*Bucket, bool) {
	b, ok := v.buckets[c]
	return b, ok
}

func (v *Vault) FindOrCreateBucket(c Category) *Bucket {
	if b, ok := v.buckets[c]; ok {
		return b
	}
	if v.buckets == nil {
		v.buckets = make(map[Category]*Bucket)
	}
	b := &Bucket{Category: c}
	v.buckets[c] = b
	v.order = append(v.order, c)
	return b
}

func (b *Bucket) index(id string) int {
	for i, r := range b.Records {
		if r.RecordID() == id {
			return i
		}
	}
	return -1
}

// FindRecordByID returns a copy of the record with id in category c.
func (v *Vault) FindRecordByID(c Category, id string) (Record, bool) {
	b, ok := v.buckets[c]
	if !ok {
		return nil, false
	}
	i := b.index(id)
	if i < 0 {
		return nil, false
	}
	return b.Records[i].clone(), true
}

// AppendRecord adds r to the bucket of its category, creating the bucket if
// needed. The vault keeps its own copy of r.
func (v *Vault) AppendRecord(r Record) {
	b := v.FindOrCreateBucket(r.Category())
	b.Records = append(b.Records, r.clone())
}

// RemoveRecordByID deletes the record with id from category c and reports
// whether there was one. The bucket stays even when it becomes empty.
func (v *Vault) RemoveRecordByID(c Category, id string) bool {
	b, ok := v.buckets[c]
	if !ok {
		return false
	}
	i := b.index(id)
	if i < 0 {
		return false
	}
	b.Records = append(b.Records[:i], b.Records[i+1:]...)
	return true
}

// UpdateRecordByID merges p into the record with id in category c and
// reports whether the record was found.
func (v *Vault) UpdateRecordByID(c Category, id string, p Patch) bool {
	b, ok := v.buckets[c]
	if !ok {
		return false
	}
	i := b.index(id)
	if i < 0 {
		return false
	}
	b.Records[i].apply(p)
	return true
}

// ListRecords returns copies of every record of category c in insertion
// order. The result is empty, not nil, when there is no bucket.
func (v *Vault) ListRecords(c Category) []Record {
	b, ok := v.buckets[c]
	if !ok {
		return []Record{}
	}
	out := make([]Record, 0, len(b.Records))
	for _, r := range b.Records {
		out = append(out, r.clone())
	}
	return out
}

// SearchRecords returns copies of the records of category c whose field f
// contains substr. Matching is case-sensitive; records without f never
// match.
func (v *Vault) SearchRecords(c Category, substr string, f Field) []Record {
	out := []Record{}
	b, ok := v.buckets[c]
	if !ok {
		return out
	}
	for _, r := range b.Records {
		if val, has := r.Field(f); has && strings.Contains(val, substr) {
			out = append(out, r.clone())
		}
	}
	return out
}

type bucketDoc struct {
	Category Category          `json:"category"`
	Records  []json.RawMessage `json:"records"`
}

type vaultDoc struct {
	OwnerID string      `json:"owner_id"`
	Version int64       `json:"version"`
	Buckets []bucketDoc `json:"buckets"`
}

func (v *Vault) MarshalJSON() ([]byte, error) {
	doc := vaultDoc{OwnerID: v.OwnerID, Version: v.Version, Buckets: make([]bucketDoc, 0, len(v.order))}
	for _, b := range v.Buckets() {
		bd := bucketDoc{Category: b.Category, Records: make([]json.RawMessage, 0, len(b.Records))}
		for _, r := range b.Records {
			raw, err := json.Marshal(r)
			if err != nil {
				return nil, fmt.Errorf("encode %s record %s: %w", b.Category, r.RecordID(), err)
			}
			bd.Records = append(bd.Records, raw)
		}
		doc.Buckets = append(doc.Buckets, bd)
	}
	return json.Marshal(doc)
}

// UnmarshalJSON rebuilds a vault from its document form. Buckets repeating a
// category are merged into the first one.
func (v *Vault) UnmarshalJSON(data []byte) error {
	var doc vaultDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	out := New(doc.OwnerID)
	out.Version = doc.Version
	for _, bd := range doc.Buckets {
		if !bd.Category.Valid() {
			return fmt.Errorf("decode vault: unknown category %q", bd.Category)
		}
		b := out.FindOrCreateBucket(bd.Category)
		for _, raw := range bd.Records {
			r, err := DecodeRecord(bd.Category, raw)
			if err != nil {
				return err
			}
			b.Records = append(b.Records, r)
		}
	}

	*v = *out
	return nil
}
