package grouping

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"l7mp.io/livegroup/pkg/collection"
	"l7mp.io/livegroup/pkg/record"
)

func newMembers() *Members {
	return collection.New[*record.Record](collection.Options[*record.Record]{
		Logger:         logger,
		PropertyReader: record.Property,
	})
}

var _ = Describe("Group", func() {
	It("should match key projections under strict equality", func() {
		g := NewGroup(record.Fields{"g": "m", "v": int64(1)}, newMembers())

		Expect(g.matches(record.Fields{"g": "m", "v": int64(1)}, []string{"g", "v"})).To(BeTrue())
		Expect(g.matches(record.Fields{"g": "m", "v": float64(1)}, []string{"g", "v"})).To(BeFalse())
		Expect(g.matches(record.Fields{"g": "f", "v": int64(1)}, []string{"g"})).To(BeFalse())
	})

	It("should copy the key snapshot on access", func() {
		g := NewGroup(record.Fields{"g": "m"}, newMembers())

		kvs := g.KeyValues()
		kvs["g"] = "f"
		Expect(g.Value("g")).To(Equal("m"))
	})

	It("should destroy idempotently", func() {
		g := NewGroup(record.Fields{"g": "m"}, newMembers())
		g.destroy()
		g.destroy()
		Expect(g.Destroyed()).To(BeTrue())
	})

	It("should print a stable representation", func() {
		g := NewGroup(record.Fields{"b": int64(2), "a": "x"}, newMembers())
		Expect(g.String()).To(Equal("group:{a=x,b=2}[0]"))
	})
})

var _ = Describe("GroupSet", func() {
	newSet := func() *GroupSet {
		return NewGroupSet(collection.New[*Group](collection.Options[*Group]{
			Logger:         logger,
			PropertyReader: groupProperty,
		}))
	}

	It("should look up groups by linear scan, first match wins", func() {
		s := newSet()
		g1 := NewGroup(record.Fields{"g": "m"}, newMembers())
		g2 := NewGroup(record.Fields{"g": "f"}, newMembers())
		s.attach(g1)
		s.attach(g2)

		Expect(s.lookup(record.Fields{"g": "f"}, []string{"g"})).To(BeIdenticalTo(g2))
		Expect(s.lookup(record.Fields{"g": "x"}, []string{"g"})).To(BeNil())
	})

	It("should detach without destroying", func() {
		s := newSet()
		g := NewGroup(record.Fields{"g": "m"}, newMembers())
		s.attach(g)

		Expect(s.detach(g)).To(BeTrue())
		Expect(s.detach(g)).To(BeFalse())
		Expect(g.Destroyed()).To(BeFalse())
		Expect(g.Owner()).To(BeNil())
	})

	It("should destroy contained groups exactly once", func() {
		s := newSet()
		g := NewGroup(record.Fields{"g": "m"}, newMembers())
		s.attach(g)

		s.destroy()
		s.destroy()
		Expect(s.Destroyed()).To(BeTrue())
		Expect(g.Destroyed()).To(BeTrue())
	})
})
