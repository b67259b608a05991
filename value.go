package nsindex

import (
	"fmt"
	"maps"
	"slices"
)

// Kind is the storage shape an index is fixed to.
type Kind int

const (
	// KindList stores an ordered, most-recent-first list of strings per key.
	KindList Kind = iota
	// KindSingle stores one string per key.
	KindSingle
	// KindUniqueList is KindList without repeated values.
	KindUniqueList
	// KindObject stores a flat field->string record per key.
	KindObject
)

var kindNames = map[Kind]string{
	KindSingle:     "string",
	KindList:       "strings",
	KindUniqueList: "strings_unique",
	KindObject:     "object",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind resolves a configuration name into a Kind.
// The empty name selects the default KindList.
func ParseKind(name string) (Kind, error) {
	if name == "" {
		return KindList, nil
	}
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown index type %q", ErrConfiguration, name)
}

// Value is a closed set of shapes: Text, List, Record and Absent.
type Value interface {
	isValue()
}

// Text is a single string value.
type Text string

// List is the content of a list index, most recent first.
type List []string

// Record is the field set of an object index.
type Record map[string]string

// Absent is returned by single-string indexes for keys that hold nothing.
type Absent struct{}

func (Text) isValue()   {}
func (List) isValue()   {}
func (Record) isValue() {}
func (Absent) isValue() {}

// accepts reports whether v is a valid Put argument for k.
func (k Kind) accepts(v Value) bool {
	switch v.(type) {
	case Text:
		return k != KindObject
	case Record:
		return k == KindObject
	default:
		return false
	}
}

// Clone returns an independent copy of l.
func (l List) Clone() List {
	if l == nil {
		return List{}
	}
	return slices.Clone(l)
}

// Clone returns an independent copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	return maps.Clone(r)
}
