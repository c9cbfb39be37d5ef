package annotation

import (
	"fmt"
	"sort"
	"time"

	"github.com/memexhq/memex/pkg/markdown"
	"github.com/memexhq/memex/pkg/types"
	"github.com/memexhq/memex/pkg/uri"
)

// DefaultGroupID is the sentinel id of the global public group. Annotations
// are published there unless the client names another group.
const DefaultGroupID = "__world__"

// Annotation is a single user-authored note anchored to a web document.
//
// Derived fields (text_rendered, target_uri_normalized) are computed inside
// the mutators that set their source fields and are never writable on their
// own. Read a value through its accessor; change it through its Set method.
type Annotation struct {
	id      types.ID
	created time.Time
	updated time.Time

	userid  string
	groupid string

	text         string
	textRendered string

	tags   []string
	shared bool

	targetURI           string
	targetURINormalized string
	targetSelectors     []map[string]any

	references types.IDList
	extra      map[string]any

	deleted    bool
	documentID int64

	changes map[string]struct{}
}

// New returns an annotation owned by userid with the documented defaults:
// published to the public group, private, live, and empty collections.
func New(userid string) *Annotation {
	return &Annotation{
		userid:          userid,
		groupid:         DefaultGroupID,
		tags:            []string{},
		targetSelectors: []map[string]any{},
		references:      types.IDList{},
		extra:           map[string]any{},
		changes:         map[string]struct{}{},
	}
}

// ID returns the annotation's identifier. Zero until the store assigns one.
func (a *Annotation) ID() types.ID { return a.id }

// Created returns the insertion timestamp (UTC).
func (a *Annotation) Created() time.Time { return a.created }

// Updated returns the last-modified timestamp (UTC). The store refreshes it
// on every persisted update; mutators do not touch it.
func (a *Annotation) Updated() time.Time { return a.updated }

// UserID returns the full identifier of the owning user.
func (a *Annotation) UserID() string { return a.userid }

// GroupID returns the id of the group the annotation is published in.
func (a *Annotation) GroupID() string { return a.groupid }

// Text returns the raw author-supplied body.
func (a *Annotation) Text() string { return a.text }

// TextRendered returns the sanitized HTML rendering of Text. It is always
// the rendering of the current text value and is safe to display without
// further escaping.
func (a *Annotation) TextRendered() string { return a.textRendered }

// Tags returns a copy of the annotation's tags.
func (a *Annotation) Tags() []string {
	return append([]string(nil), a.tags...)
}

// Shared reports whether the annotation is visible to the group's members.
// Unshared annotations are visible only to their owner.
func (a *Annotation) Shared() bool { return a.shared }

// TargetURI returns the raw URI string as supplied by the client.
func (a *Annotation) TargetURI() string { return a.targetURI }

// TargetURINormalized returns the canonical form of TargetURI, used for
// equality and lookup across URI variants.
func (a *Annotation) TargetURINormalized() string { return a.targetURINormalized }

// TargetSelectors returns the serialized selectors locating the annotation
// within the target document.
func (a *Annotation) TargetSelectors() []map[string]any {
	return append([]map[string]any(nil), a.targetSelectors...)
}

// References returns the ancestor chain of this annotation in its reply
// thread, oldest ancestor first, immediate parent last.
func (a *Annotation) References() types.IDList {
	return append(types.IDList(nil), a.references...)
}

// Extra returns the open-ended client-supplied data mapping.
func (a *Annotation) Extra() map[string]any {
	out := make(map[string]any, len(a.extra))
	for k, v := range a.extra {
		out[k] = v
	}
	return out
}

// Deleted reports whether the annotation has been soft-deleted.
func (a *Annotation) Deleted() bool { return a.deleted }

// DocumentID returns the id of the owning document.
func (a *Annotation) DocumentID() int64 { return a.documentID }

// SetText stores the raw body and synchronously renders it to sanitized
// HTML. The rendered value is computed before either field is assigned, so
// a reader can never observe the pair out of sync.
func (a *Annotation) SetText(value string) error {
	rendered, err := markdown.Render(value)
	if err != nil {
		return err
	}
	a.text = value
	a.textRendered = rendered
	a.mark("text", "text_rendered")
	return nil
}

// SetTargetURI stores the raw URI and synchronously derives its normalized
// form.
func (a *Annotation) SetTargetURI(value string) {
	a.targetURI = value
	a.targetURINormalized = uri.Normalize(value)
	a.mark("target_uri", "target_uri_normalized")
}

// SetGroupID publishes the annotation in the named group.
func (a *Annotation) SetGroupID(groupid string) {
	a.groupid = groupid
	a.mark("groupid")
}

// SetTags replaces the annotation's tags.
func (a *Annotation) SetTags(tags []string) {
	if tags == nil {
		tags = []string{}
	}
	a.tags = append([]string(nil), tags...)
	a.mark("tags")
}

// SetShared changes group visibility.
func (a *Annotation) SetShared(shared bool) {
	a.shared = shared
	a.mark("shared")
}

// SetTargetSelectors replaces the serialized anchor selectors.
func (a *Annotation) SetTargetSelectors(selectors []map[string]any) {
	if selectors == nil {
		selectors = []map[string]any{}
	}
	a.targetSelectors = append([]map[string]any(nil), selectors...)
	a.mark("target_selectors")
}

// SetReferences replaces the ancestor chain. Only meaningful before the
// first save; threads are not re-parented.
func (a *Annotation) SetReferences(refs types.IDList) {
	if refs == nil {
		refs = types.IDList{}
	}
	a.references = append(types.IDList(nil), refs...)
	a.mark("references")
}

// SetExtra replaces the extra mapping.
func (a *Annotation) SetExtra(extra map[string]any) {
	if extra == nil {
		extra = map[string]any{}
	}
	a.extra = make(map[string]any, len(extra))
	for k, v := range extra {
		a.extra[k] = v
	}
	a.mark("extra")
}

// PutExtra sets a single key in the extra mapping.
func (a *Annotation) PutExtra(key string, value any) {
	a.extra[key] = value
	a.mark("extra")
}

// Delete soft-deletes the annotation. The record stays queryable for audit
// and thread-integrity purposes; there is no undelete.
func (a *Annotation) Delete() {
	a.deleted = true
	a.mark("deleted")
}

// ParentID returns the id of the annotation this one replies to. The second
// return is false for top-level annotations.
func (a *Annotation) ParentID() (types.ID, bool) {
	if len(a.references) == 0 {
		return types.ID{}, false
	}
	return a.references[len(a.references)-1], true
}

// IsReply reports whether the annotation replies to another annotation.
func (a *Annotation) IsReply() bool {
	return len(a.references) > 0
}

// ThreadRootID returns the id of the root annotation of this annotation's
// thread. For top-level annotations that is the annotation's own id.
func (a *Annotation) ThreadRootID() types.ID {
	if len(a.references) > 0 {
		return a.references[0]
	}
	return a.id
}

// Equal reports whether two annotations are the same entity, i.e. share an id.
func (a *Annotation) Equal(other *Annotation) bool {
	if other == nil {
		return false
	}
	return !a.id.IsZero() && a.id == other.id
}

// String returns a short diagnostic form. It is not a serialization format.
func (a *Annotation) String() string {
	return fmt.Sprintf("<Annotation %s>", a.id)
}

// Changes returns the names of the columns modified since the last
// ResetChanges, sorted. The store uses this to decide what to write.
func (a *Annotation) Changes() []string {
	out := make([]string, 0, len(a.changes))
	for name := range a.changes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Changed reports whether a specific column has been modified.
func (a *Annotation) Changed(column string) bool {
	_, ok := a.changes[column]
	return ok
}

// ResetChanges clears the dirty set, typically after a successful save.
func (a *Annotation) ResetChanges() {
	a.changes = map[string]struct{}{}
}

func (a *Annotation) mark(columns ...string) {
	if a.changes == nil {
		a.changes = map[string]struct{}{}
	}
	for _, c := range columns {
		a.changes[c] = struct{}{}
	}
}
