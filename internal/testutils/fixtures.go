package testutils

import (
	"github.com/go-logr/logr"

	"l7mp.io/livegroup/pkg/collection"
	"l7mp.io/livegroup/pkg/record"
)

// Person builds the content of a person fixture record.
func Person(name, gender string, age int64) record.Fields {
	return record.Fields{
		"name":   name,
		"gender": gender,
		"age":    age,
		"address": map[string]any{
			"city": "Budapest",
		},
	}
}

// NewPeople creates the canonical three-person fixture set: a (m), b (f),
// c (m).
func NewPeople() []*record.Record {
	return []*record.Record{
		record.New(Person("a", "m", int64(30))),
		record.New(Person("b", "f", int64(25))),
		record.New(Person("c", "m", int64(41))),
	}
}

// NewSource creates a record collection preloaded with the given records.
func NewSource(logger logr.Logger, records ...*record.Record) *collection.Collection[*record.Record] {
	src := collection.New[*record.Record](collection.Options[*record.Record]{
		Logger:         logger,
		PropertyReader: record.Property,
	})
	src.AppendAll(records)
	return src
}
