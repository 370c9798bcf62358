package grouping

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"l7mp.io/livegroup/internal/testutils"
	apiv1a1 "l7mp.io/livegroup/pkg/api/grouping/v1alpha1"
	"l7mp.io/livegroup/pkg/record"
)

var _ = Describe("Declarative configuration", func() {
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

	It("should apply a parsed YAML config", func() {
		cfg, err := apiv1a1.ParseConfig([]byte(`
groupBy: [gender]
groupSort:
  ascending: true
memberSort:
  properties: [name]
  ascending: false
`))
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Configure(cfg)).To(Succeed())

		set := e.GroupedContent()
		Expect(set.Len()).To(Equal(2))
		Expect(set.At(0).Value("gender")).To(Equal("f"))
		Expect(set.At(1).Value("gender")).To(Equal("m"))

		ns := []any{}
		for _, m := range set.At(1).Members().Items() {
			v, _ := m.Get("name")
			ns = append(ns, v)
		}
		Expect(ns).To(Equal([]any{"c", "a"}))
	})

	It("should disable grouping on an empty config", func() {
		Expect(e.SetGroupBy([]string{"gender"})).To(Succeed())

		cfg, err := apiv1a1.ParseConfig([]byte(`{}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Configure(cfg)).To(Succeed())

		Expect(e.IsGrouped()).To(BeFalse())
		Expect(e.GroupedContent().At(0).Passthrough()).To(BeTrue())
	})

	It("should reject a nil config", func() {
		Expect(e.Configure(nil)).NotTo(Succeed())
	})

	It("should reject an invalid config", func() {
		Expect(e.Configure(&apiv1a1.Config{GroupBy: []string{""}})).NotTo(Succeed())
	})
})

var _ = Describe("Metrics", func() {
	It("should track group lifecycle and relocations", func() {
		reg := prometheus.NewRegistry()
		m := NewMetrics(reg)

		people := testutils.NewPeople()
		src := testutils.NewSource(logger, people...)
		e := New(src, Options{Logger: logger, Metrics: m})
		defer e.Destroy()

		Expect(e.SetGroupBy([]string{"gender"})).To(Succeed())
		Expect(testutil.ToFloat64(m.groupsLive)).To(Equal(2.0))

		// b migrates from f to m, emptying f
		Expect(people[1].Set("gender", "m")).To(Succeed())
		Expect(testutil.ToFloat64(m.groupsLive)).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.relocations)).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.destroyed)).To(Equal(1.0))

		src.Append(record.New(record.Fields{"name": "x", "gender": "o"}))
		Expect(testutil.ToFloat64(m.created)).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.groupsLive)).To(Equal(2.0))
	})

	It("should run without a metrics sink", func() {
		src := testutils.NewSource(logger, testutils.NewPeople()...)
		e := New(src, Options{Logger: logger})
		defer e.Destroy()
		Expect(e.SetGroupBy([]string{"gender"})).To(Succeed())
	})
})
