package annotation

import (
	"time"

	"github.com/memexhq/memex/pkg/types"
)

// Snapshot is the flat persisted shape of an annotation. The store uses it
// to move records across the persistence boundary without going through the
// mutators: hydration trusts the stored derived values rather than
// recomputing them.
type Snapshot struct {
	ID                  types.ID
	Created             time.Time
	Updated             time.Time
	UserID              string
	GroupID             string
	Text                string
	TextRendered        string
	Tags                []string
	Shared              bool
	TargetURI           string
	TargetURINormalized string
	TargetSelectors     []map[string]any
	References          types.IDList
	Extra               map[string]any
	Deleted             bool
	DocumentID          int64
}

// Snapshot captures the annotation's current persisted state.
func (a *Annotation) Snapshot() Snapshot {
	return Snapshot{
		ID:                  a.id,
		Created:             a.created,
		Updated:             a.updated,
		UserID:              a.userid,
		GroupID:             a.groupid,
		Text:                a.text,
		TextRendered:        a.textRendered,
		Tags:                a.Tags(),
		Shared:              a.shared,
		TargetURI:           a.targetURI,
		TargetURINormalized: a.targetURINormalized,
		TargetSelectors:     a.TargetSelectors(),
		References:          a.References(),
		Extra:               a.Extra(),
		Deleted:             a.deleted,
		DocumentID:          a.documentID,
	}
}

// FromSnapshot rebuilds an annotation from its persisted state. The result
// carries no pending changes.
func FromSnapshot(s Snapshot) *Annotation {
	a := &Annotation{
		id:                  s.ID,
		created:             s.Created,
		updated:             s.Updated,
		userid:              s.UserID,
		groupid:             s.GroupID,
		text:                s.Text,
		textRendered:        s.TextRendered,
		tags:                append([]string{}, s.Tags...),
		shared:              s.Shared,
		targetURI:           s.TargetURI,
		targetURINormalized: s.TargetURINormalized,
		targetSelectors:     append([]map[string]any{}, s.TargetSelectors...),
		references:          append(types.IDList{}, s.References...),
		extra:               map[string]any{},
		deleted:             s.Deleted,
		documentID:          s.DocumentID,
		changes:             map[string]struct{}{},
	}
	for k, v := range s.Extra {
		a.extra[k] = v
	}
	if a.groupid == "" {
		a.groupid = DefaultGroupID
	}
	return a
}

// Saved records the identity and timestamps the store assigned at insertion
// time and clears the dirty set.
func (a *Annotation) Saved(id types.ID, created, updated time.Time) {
	a.id = id
	a.created = created
	a.updated = updated
	a.ResetChanges()
}

// Touched records a refreshed updated timestamp after a persisted mutation.
func (a *Annotation) Touched(updated time.Time) {
	a.updated = updated
}

// SetDocumentID associates the annotation with its owning document. Every
// annotation belongs to exactly one document.
func (a *Annotation) SetDocumentID(documentID int64) {
	a.documentID = documentID
	a.mark("document_id")
}

// SetUserID assigns ownership. Owners are set at creation and never change.
func (a *Annotation) SetUserID(userid string) {
	a.userid = userid
	a.mark("userid")
}
