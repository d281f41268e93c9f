package citation

import "context"

// Entry is one registry slot: either a single citation or a group.
type Entry struct {
	single Citation
	group  Group
}

// IsGroup reports whether the entry was recorded as a group.
func (e Entry) IsGroup() bool {
	return e.group != nil
}

// Members returns the citations held by the entry.
// A single entry returns a one-element slice.
func (e Entry) Members() []Citation {
	if e.group != nil {
		return e.group
	}
	return []Citation{e.single}
}

// Single returns the citation of a single entry.
func (e Entry) Single() Citation {
	return e.single
}

// Markdown renders the entry as citation clusters.
func (e Entry) Markdown() string {
	if e.group != nil {
		return e.group.Markdown()
	}
	return e.single.Markdown()
}

// Registry is the append-only citation store of one conversion pass,
// together with the pending buffer of a badge run still being scanned.
// Entries are addressed by insertion index; placeholder tokens embed it.
//
// A Registry is not safe for concurrent use. Each conversion pass gets its own.
type Registry struct {
	entries []Entry
	pending []Citation
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Reset clears all entries and the pending buffer.
func (r *Registry) Reset() {
	r.entries = nil
	r.pending = nil
}

// RecordSingle appends a single citation and returns its index.
func (r *Registry) RecordSingle(c Citation) int {
	r.entries = append(r.entries, Entry{single: c})
	return len(r.entries) - 1
}

// RecordGroup appends a copy of citations as one group and returns its index.
func (r *Registry) RecordGroup(citations []Citation) int {
	g := make(Group, len(citations))
	copy(g, citations)
	r.entries = append(r.entries, Entry{group: g})
	return len(r.entries) - 1
}

// Resolve returns the entry recorded at index.
func (r *Registry) Resolve(index int) (Entry, bool) {
	if r == nil || index < 0 || index >= len(r.entries) {
		return Entry{}, false
	}
	return r.entries[index], true
}

// Len returns the number of recorded entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns a copy of all recorded entries in insertion order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Push adds a citation to the pending group buffer.
func (r *Registry) Push(c Citation) {
	r.pending = append(r.pending, c)
}

// Pending returns the number of buffered citations.
func (r *Registry) Pending() int {
	return len(r.pending)
}

// Flush records the pending buffer as a group and clears it.
// It returns false when there was nothing to flush.
func (r *Registry) Flush() (int, bool) {
	if len(r.pending) == 0 {
		return 0, false
	}
	idx := r.RecordGroup(r.pending)
	r.pending = nil
	return idx, true
}

type registryKey struct{}

// WithRegistry attaches reg to ctx for the duration of one conversion.
func WithRegistry(ctx context.Context, reg *Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, reg)
}

// FromContext returns the registry attached by WithRegistry, if any.
func FromContext(ctx context.Context) (*Registry, bool) {
	reg, ok := ctx.Value(registryKey{}).(*Registry)
	return reg, ok && reg != nil
}
