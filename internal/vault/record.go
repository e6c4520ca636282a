package vault

import (
	"encoding/json"
	"fmt"
)

// Record is one entry of a bucket. It is implemented only by *MailAccount,
// *SocialAccount, *OtherAccount and *Note.
type Record interface {
	RecordID() string
	Category() Category
	// Field returns the value of f and whether this kind of record has it.
	Field(f Field) (string, bool)

	apply(p Patch)
	clone() Record
}

type MailAccount struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Secret      string `json:"secret"`
	Description string `json:"description,omitempty"`
}

type SocialAccount struct {
	ID          string `json:"id"`
	AccountName string `json:"accountName"`
	Username    string `json:"username"`
	Secret      string `json:"secret"`
	Description string `json:"description,omitempty"`
}

// OtherAccount has the shape of SocialAccount but its username and secret
// are optional.
type OtherAccount struct {
	ID          string `json:"id"`
	AccountName string `json:"accountName"`
	Username    string `json:"username,omitempty"`
	Secret      string `json:"secret,omitempty"`
	Description string `json:"description,omitempty"`
}

// Note is free text. Its content is stored as given.
type Note struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
}

func (r *MailAccount) RecordID() string   { return r.ID }
func (r *SocialAccount) RecordID() string { return r.ID }
func (r *OtherAccount) RecordID() string  { return r.ID }
func (r *Note) RecordID() string          { return r.ID }

func (*MailAccount) Category() Category   { return CategoryMail }
func (*SocialAccount) Category() Category { return CategorySocial }
func (*OtherAccount) Category() Category  { return CategoryOther }
func (*Note) Category() Category          { return CategoryNote }

func (r *MailAccount) Field(f Field) (string, bool) {
	switch f {
	case FieldEmail:
		return r.Email, true
	case FieldDescription:
		return r.Description, true
	}
	return "", false
}

func (r *SocialAccount) Field(f Field) (string, bool) {
	switch f {
	case FieldAccountName:
		return r.AccountName, true
	case FieldUsername:
		return r.Username, true
	case FieldDescription:
		return r.Description, true
	}
	return "", false
}

func (r *OtherAccount) Field(f Field) (string, bool) {
	switch f {
	case FieldAccountName:
		return r.AccountName, true
	case FieldUsername:
		return r.Username, true
	case FieldDescription:
		return r.Description, true
	}
	return "", false
}

func (r *Note) Field(f Field) (string, bool) {
	switch f {
	case FieldTitle:
		return r.Title, true
	case FieldDescription:
		return r.Description, true
	}
	return "", false
}

func (r *MailAccount) clone() Record   { c := *r; return &c }
func (r *SocialAccount) clone() Record { c := *r; return &c }
func (r *OtherAccount) clone() Record  { c := *r; return &c }
func (r *Note) clone() Record          { c := *r; return &c }

// Patch carries replacement values for an update. An empty string keeps the
// current value, so a field cannot be cleared through an update. Fields a
// record does not carry are ignored.
type Patch struct {
	Email       string `json:"email,omitempty"`
	AccountName string `json:"accountName,omitempty"`
	Username    string `json:"username,omitempty"`
	Secret      string `json:"secret,omitempty"`
	Title       string `json:"title,omitempty"`
	Content     string `json:"content,omitempty"`
	Description string `json:"description,omitempty"`
}

func keep(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (r *MailAccount) apply(p Patch) {
	keep(&r.Email, p.Email)
	keep(&r.Secret, p.Secret)
	keep(&r.Description, p.Description)
}

func (r *SocialAccount) apply(p Patch) {
	keep(&r.AccountName, p.AccountName)
	keep(&r.Username, p.Username)
	keep(&r.Secret, p.Secret)
	keep(&r.Description, p.Description)
}

func (r *OtherAccount) apply(p Patch) {
	keep(&r.AccountName, p.AccountName)
	keep(&r.Username, p.Username)
	keep(&r.Secret, p.Secret)
	keep(&r.Description, p.Description)
}

func (r *Note) apply(p Patch) {
	keep(&r.Title, p.Title)
	keep(&r.Content, p.Content)
	keep(&r.Description, p.Description)
}

// Secret returns the secret field of r. Notes have none.
func Secret(r Record) (string, bool) {
	switch r := r.(type) {
	case *MailAccount:
		return r.Secret, true
	case *SocialAccount:
		return r.Secret, true
	case *OtherAccount:
		return r.Secret, true
	case *Note:
		return "", false
	}
	panic(fmt.Sprintf("vault: unhandled record type %T", r))
}

// WithSecret returns a copy of r whose secret is s. Notes are copied as is.
func WithSecret(r Record, s string) Record {
	c := r.clone()
	switch c := c.(type) {
	case *MailAccount:
		c.Secret = s
	case *SocialAccount:
		c.Secret = s
	case *OtherAccount:
		c.Secret = s
	case *Note:
	default:
		panic(fmt.Sprintf("vault: unhandled record type %T", r))
	}
	return c
}

// WithID returns a copy of r carrying id.
func WithID(r Record, id string) Record {
	c := r.clone()
	switch c := c.(type) {
	case *MailAccount:
		c.ID = id
	case *SocialAccount:
		c.ID = id
	case *OtherAccount:
		c.ID = id
	case *Note:
		c.ID = id
	default:
		panic(fmt.Sprintf("vault: unhandled record type %T", r))
	}
	return c
}

// NewRecord returns an empty record of category c.
func NewRecord(c Category) Record {
	switch c {
	case CategoryMail:
		return &MailAccount{}
	case CategorySocial:
		return &SocialAccount{}
	case CategoryOther:
		return &OtherAccount{}
	case CategoryNote:
		return &Note{}
	}
	panic(fmt.Sprintf("vault: unhandled category %q", c))
}

// DecodeRecord unmarshals data as a record of category c.
func DecodeRecord(c Category, data []byte) (Record, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("decode record: unknown category %q", c)
	}
	r := NewRecord(c)
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", c, err)
	}
	return r, nil
}
