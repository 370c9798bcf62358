// Package record implements the observable record type that live collections
// are built from. A Record is an unstructured map of named properties that
// supports atomic multi-property reads and paired before/after change
// notifications per property, which the grouping engine uses to relocate
// members between groups when a group-key field changes.
//
// Properties are addressed either by plain top-level key or, when the name
// starts with '$', by a JSONPath expression evaluated with ojg/jp.
package record
