package grouping

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"l7mp.io/livegroup/internal/testutils"
	"l7mp.io/livegroup/pkg/collection"
	"l7mp.io/livegroup/pkg/record"
)

var _ = Describe("Independent sorting", func() {
	var (
		src     *Source
		e       *Engine
		a, b, c *record.Record
	)

	BeforeEach(func() {
		a = record.New(record.Fields{"n": "a", "g": "m"})
		b = record.New(record.Fields{"n": "b", "g": "f"})
		c = record.New(record.Fields{"n": "c", "g": "m"})
		src = testutils.NewSource(logger, a, b, c)
		e = New(src, Options{Logger: logger})
		Expect(e.SetGroupBy([]string{"g"})).To(Succeed())
	})

	AfterEach(func() {
		e.Destroy()
	})

	Describe("Group-level sort", func() {
		It("should default the sort surface to the group-key properties", func() {
			s := e.GroupSort()
			Expect(s.Properties).To(Equal([]string{"g"}))
			Expect(s.Ascending).To(BeTrue())
		})

		It("should keep insertion order without an explicit group sort", func() {
			Expect(keyOf(e.GroupedContent().At(0))).To(Equal("m"))
			Expect(keyOf(e.GroupedContent().At(1))).To(Equal("f"))
		})

		It("should order groups by the key properties when enabled", func() {
			Expect(e.SetGroupSort(&collection.SortOptions{Ascending: true})).To(Succeed())

			set := e.GroupedContent()
			Expect(keyOf(set.At(0))).To(Equal("f"))
			Expect(keyOf(set.At(1))).To(Equal("m"))
		})

		It("should place a newly created group at its sort position", func() {
			Expect(e.SetGroupSort(&collection.SortOptions{Ascending: true})).To(Succeed())

			src.Append(record.New(record.Fields{"n": "x", "g": "k"}))

			set := e.GroupedContent()
			Expect(keyOf(set.At(0))).To(Equal("f"))
			Expect(keyOf(set.At(1))).To(Equal("k"))
			Expect(keyOf(set.At(2))).To(Equal("m"))
		})

		It("should sort groups descending", func() {
			Expect(e.SetGroupSort(&collection.SortOptions{Properties: []string{"g"}, Ascending: false})).To(Succeed())

			set := e.GroupedContent()
			Expect(keyOf(set.At(0))).To(Equal("m"))
			Expect(keyOf(set.At(1))).To(Equal("f"))
		})

		It("should survive a rebuild", func() {
			Expect(e.SetGroupSort(&collection.SortOptions{Ascending: true})).To(Succeed())
			Expect(e.SetGroupBy([]string{"g"})).To(Succeed())

			set := e.GroupedContent()
			Expect(keyOf(set.At(0))).To(Equal("f"))
		})
	})

	Describe("Member-level sort", func() {
		It("should preserve source order without an explicit member sort", func() {
			Expect(names(e.GroupedContent().At(0))).To(Equal([]any{"a", "c"}))
		})

		It("should forward the engine default to every group", func() {
			Expect(e.SetMemberSort(&collection.SortOptions{Properties: []string{"n"}, Ascending: false})).To(Succeed())

			Expect(names(e.GroupedContent().At(0))).To(Equal([]any{"c", "a"}))
		})

		It("should keep group members sorted on insertion", func() {
			Expect(e.SetMemberSort(collection.NewSortOptions("n"))).To(Succeed())

			src.Append(record.New(record.Fields{"n": "aa", "g": "m"}))

			Expect(names(e.GroupedContent().At(0))).To(Equal([]any{"a", "aa", "c"}))
		})

		It("should apply to groups built by a rebuild", func() {
			Expect(e.SetMemberSort(&collection.SortOptions{Properties: []string{"n"}, Ascending: false})).To(Succeed())
			Expect(e.SetGroupBy([]string{"g"})).To(Succeed())

			Expect(names(e.GroupedContent().At(0))).To(Equal([]any{"c", "a"}))
		})

		It("should leave the passthrough group's ordering to the caller", func() {
			Expect(e.SetMemberSort(&collection.SortOptions{Properties: []string{"n"}, Ascending: false})).To(Succeed())
			Expect(e.SetGroupBy(nil)).To(Succeed())

			g := e.GroupedContent().At(0)
			Expect(g.Members()).To(BeIdenticalTo(src))
			Expect(src.Sorter()).To(BeNil())
		})
	})
})

var _ = Describe("Pluggable factories", func() {
	var (
		src *Source
		e   *Engine
	)

	BeforeEach(func() {
		src = testutils.NewSource(logger, testutils.NewPeople()...)
		e = New(src, Options{Logger: logger})
	})

	AfterEach(func() {
		e.Destroy()
	})

	It("should build every group through a custom group factory", func() {
		built := []record.Fields{}
		Expect(e.SetFactories(func(keyValues record.Fields, members *Members) *Group {
			built = append(built, keyValues)
			return NewGroup(keyValues, members)
		}, nil)).To(Succeed())

		Expect(e.SetGroupBy([]string{"gender"})).To(Succeed())

		Expect(built).To(HaveLen(3)) // passthrough rebuild + two gender groups
		Expect(e.GroupedContent().Len()).To(Equal(2))
	})

	It("should build the group set through a custom set factory", func() {
		sets := 0
		Expect(e.SetFactories(nil, func(groups *Groups) *GroupSet {
			sets++
			return NewGroupSet(groups)
		})).To(Succeed())

		Expect(e.SetGroupBy([]string{"gender"})).To(Succeed())
		Expect(sets).To(Equal(2))
	})

	It("should repartition when factories change", func() {
		Expect(e.SetGroupBy([]string{"gender"})).To(Succeed())
		old := e.GroupedContent()

		Expect(e.SetFactories(nil, nil)).To(Succeed())

		Expect(old.Destroyed()).To(BeTrue())
		Expect(e.GroupedContent()).NotTo(BeIdenticalTo(old))
		Expect(e.GroupedContent().Len()).To(Equal(2))
	})
})
