package notes

import "strings"

// Default tuning values. Neither threshold is load-bearing; both are exposed
// as options.
const (
	DefaultDuplicateThreshold = 0.75
	DefaultLineThreshold      = 0.6
	DefaultSentinel           = "__internal__"
)

// Options tunes a Reconciler.
type Options struct {
	// DuplicateThreshold is the token similarity at or above which two
	// versions of a field are treated as the same note.
	DuplicateThreshold float64

	// LineThreshold is the token similarity at or above which two lines of one
	// field are collapsed by Compact.
	LineThreshold float64

	// Sentinel is an internal marker section name that never reaches output.
	// Empty disables the check.
	Sentinel string
}

// DefaultOptions returns the default tuning.
func DefaultOptions() Options {
	return Options{
		DuplicateThreshold: DefaultDuplicateThreshold,
		LineThreshold:      DefaultLineThreshold,
		Sentinel:           DefaultSentinel,
	}
}

// Option configures a Reconciler.
type Option func(*Options)

// WithDuplicateThreshold overrides the field-merge similarity threshold.
func WithDuplicateThreshold(t float64) Option {
	return func(o *Options) {
		o.DuplicateThreshold = t
	}
}

// WithLineThreshold overrides the line-compaction similarity threshold.
func WithLineThreshold(t float64) Option {
	return func(o *Options) {
		o.LineThreshold = t
	}
}

// WithSentinel overrides the reserved section name.
func WithSentinel(name string) Option {
	return func(o *Options) {
		o.Sentinel = name
	}
}

// Reconciler merges previous and incoming section sets against one canonical
// order. It holds no mutable state and is safe for concurrent use.
type Reconciler struct {
	schema *Schema
	opts   Options
}

// NewReconciler builds a Reconciler for the canonical order. An empty order
// means every section is kept in arrival order.
func NewReconciler(order []string, opts ...Option) *Reconciler {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Reconciler{
		schema: NewSchema(order, o.Sentinel),
		opts:   o,
	}
}

// Schema returns the lookup table the reconciler resolves names against.
func (r *Reconciler) Schema() *Schema {
	return r.schema
}

// Options returns the reconciler's tuning.
func (r *Reconciler) Options() Options {
	return r.opts
}

// ForOrder returns a Reconciler for a different canonical order with the same
// tuning.
func (r *Reconciler) ForOrder(order []string) *Reconciler {
	return &Reconciler{
		schema: NewSchema(order, r.opts.Sentinel),
		opts:   r.opts,
	}
}

// Reconcile is shorthand for NewReconciler(order).Reconcile(previous, incoming).
func Reconcile(previous, incoming []Section, order []string) []Section {
	return NewReconciler(order).Reconcile(previous, incoming)
}

// group collects the sections of one input that share a resolved key.
type group struct {
	keys     []string // first-seen order
	sections map[string]Section
}

func newGroup() *group {
	return &group{sections: make(map[string]Section)}
}

// Reconcile merges incoming into previous. The result holds one entry per
// canonical name present in either input, in canonical order, followed by
// the unrecognized sections: previous ones first, then new arrivals, each in
// first-seen order. Text is merged field by field with MergeText so content
// unique to either side is kept. Sections with blank names and the sentinel
// section are dropped. Neither input is modified.
func (r *Reconciler) Reconcile(previous, incoming []Section) []Section {
	prevReq, prevExtra := r.partition(previous)
	nextReq, nextExtra := r.partition(incoming)

	out := make([]Section, 0, len(prevReq.keys)+len(nextReq.keys)+len(prevExtra.keys)+len(nextExtra.keys))

	for _, name := range r.schema.names {
		if sec, ok := r.combine(prevReq, nextReq, name); ok {
			sec.Name = name
			out = append(out, sec)
		}
	}

	extraKeys := make([]string, 0, len(prevExtra.keys)+len(nextExtra.keys))
	extraKeys = append(extraKeys, prevExtra.keys...)
	for _, key := range nextExtra.keys {
		if _, ok := prevExtra.sections[key]; !ok {
			extraKeys = append(extraKeys, key)
		}
	}
	for _, key := range extraKeys {
		if sec, ok := r.combine(prevExtra, nextExtra, key); ok {
			out = append(out, sec)
		}
	}

	return out
}

// Compact returns a copy of sections with near-duplicate lines collapsed in
// every text field.
func (r *Reconciler) Compact(sections []Section) []Section {
	out := CloneSections(sections)
	for i := range out {
		out[i].PlainText = CompactLines(out[i].PlainText, r.opts.LineThreshold)
		out[i].NaturalLanguage = CompactLines(out[i].NaturalLanguage, r.opts.LineThreshold)
	}
	return out
}

// partition splits sections into canonical entries keyed by canonical name
// and extra entries keyed by normalized name. Repeats are folded in order.
func (r *Reconciler) partition(sections []Section) (required, extra *group) {
	required, extra = newGroup(), newGroup()
	for _, sec := range sections {
		name := strings.TrimSpace(sec.Name)
		if name == "" || isSentinel(name, r.opts.Sentinel) {
			continue
		}
		sec.Name = name

		if canonical, ok := r.schema.Resolve(name); ok {
			r.add(required, canonical, sec)
			continue
		}
		key := Normalize(name)
		if key == "" {
			key = strings.ToLower(name)
		}
		r.add(extra, key, sec)
	}
	return required, extra
}

func (r *Reconciler) add(g *group, key string, sec Section) {
	existing, ok := g.sections[key]
	if !ok {
		g.keys = append(g.keys, key)
		g.sections[key] = sec
		return
	}
	g.sections[key] = r.mergeSection(existing, sec)
}

// combine merges the entries stored under key in prev and next. The label of
// the previous entry wins.
func (r *Reconciler) combine(prev, next *group, key string) (Section, bool) {
	p, pok := prev.sections[key]
	n, nok := next.sections[key]
	switch {
	case pok && nok:
		return r.mergeSection(p, n), true
	case pok:
		return p, true
	case nok:
		return n, true
	default:
		return Section{}, false
	}
}

func (r *Reconciler) mergeSection(prev, next Section) Section {
	return Section{
		Name:            prev.Name,
		PlainText:       MergeText(prev.PlainText, next.PlainText, r.opts.DuplicateThreshold),
		NaturalLanguage: MergeText(prev.NaturalLanguage, next.NaturalLanguage, r.opts.DuplicateThreshold),
	}
}
