package vault

import (
	"fmt"

	"github.com/dmitrijs2005/credvault/internal/common"
)

// Category tags a bucket. The set is closed.
type Category string

const (
	CategoryMail   Category = "mail"
	CategorySocial Category = "social"
	CategoryOther  Category = "other"
	CategoryNote   Category = "note"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryMail, CategorySocial, CategoryOther, CategoryNote}

func (c Category) Valid() bool {
	switch c {
	case CategoryMail, CategorySocial, CategoryOther, CategoryNote:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

// ParseCategory returns the category named s.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", common.ErrorValidation, s)
	}
	return c, nil
}

// Field names a searchable plaintext attribute. Values match the JSON keys
// of the records carrying them.
type Field string

const (
	FieldEmail       Field = "email"
	FieldAccountName Field = "accountName"
	FieldUsername    Field = "username"
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
)

// ParseField returns the field named s.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldEmail, FieldAccountName, FieldUsername, FieldTitle, FieldDescription:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown field %q", common.ErrorValidation, s)
}

// DefaultField is the field searched when a request names none.
func DefaultField(c Category) Field {
	switch c {
	case CategoryMail:
		return FieldEmail
	case CategorySocial, CategoryOther:
		return FieldAccountName
	case CategoryNote:
		return FieldTitle
	}
	panic(fmt.Sprintf("vault: unhandled category %q", c))
}
