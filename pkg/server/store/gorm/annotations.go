package gorm

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/memexhq/memex/pkg/annotation"
	"github.com/memexhq/memex/pkg/model"
	"github.com/memexhq/memex/pkg/server/store"
	"github.com/memexhq/memex/pkg/types"
	"github.com/memexhq/memex/pkg/uri"
)

// Ensure AnnotationsStore implements store.AnnotationsStore
var _ store.AnnotationsStore = (*AnnotationsStore)(nil)

// AnnotationsStore implements store.AnnotationsStore using GORM
type AnnotationsStore struct {
	db *gorm.DB
}

// NewAnnotationsStore creates a new AnnotationsStore
func NewAnnotationsStore(db *gorm.DB) *AnnotationsStore {
	return &AnnotationsStore{db: db}
}

// CreateAnnotation inserts a new annotation. The id and timestamps are
// assigned here when the caller supplied none.
func (s *AnnotationsStore) CreateAnnotation(a *annotation.Annotation) error {
	snap := a.Snapshot()

	if snap.ID.IsZero() {
		snap.ID = types.NewID()
	}
	now := time.Now().UTC()
	if snap.Created.IsZero() {
		snap.Created = now
	}
	if snap.Updated.IsZero() {
		snap.Updated = now
	}

	row, err := rowFromSnapshot(snap)
	if err != nil {
		return err
	}

	if err := s.db.Create(row).Error; err != nil {
		return err
	}

	a.Saved(row.ID, row.Created, row.Updated)
	return nil
}

// FetchAnnotation retrieves a single annotation by id. Soft-deleted rows
// are returned as well; callers decide how to present them.
func (s *AnnotationsStore) FetchAnnotation(id types.ID) (*annotation.Annotation, error) {
	var row model.Annotation
	err := s.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	snap, err := snapshotFromRow(&row)
	if err != nil {
		return nil, err
	}
	return annotation.FromSnapshot(snap), nil
}

// UpdateAnnotation writes only the columns the annotation marked dirty and
// bumps the updated timestamp. A record with no pending changes is left
// untouched.
func (s *AnnotationsStore) UpdateAnnotation(a *annotation.Annotation) error {
	changed := a.Changes()
	if len(changed) == 0 {
		return nil
	}

	snap := a.Snapshot()
	if snap.ID.IsZero() {
		return store.ErrNotFound
	}

	updates, err := columnValues(snap, changed)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	updates["updated"] = now

	result := s.db.Model(&model.Annotation{}).Where("id = ?", snap.ID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}

	a.Touched(now)
	a.ResetChanges()
	return nil
}

// SoftDeleteAnnotation marks an annotation deleted, keeping the row for
// audit and thread integrity.
func (s *AnnotationsStore) SoftDeleteAnnotation(id types.ID) error {
	result := s.db.Model(&model.Annotation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted": true,
			"updated": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SearchAnnotations returns annotations matching the query, most recently
// updated first.
func (s *AnnotationsStore) SearchAnnotations(q store.SearchQuery) ([]*annotation.Annotation, error) {
	scope := s.searchScope(q).Order("updated DESC")
	if q.Limit > 0 {
		scope = scope.Limit(q.Limit)
	}
	if q.Offset > 0 {
		scope = scope.Offset(q.Offset)
	}

	var rows []model.Annotation
	err := scope.Find(&rows).Error
	if err != nil {
		return nil, err
	}

	annotations := make([]*annotation.Annotation, 0, len(rows))
	for i := range rows {
		snap, err := snapshotFromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		annotations = append(annotations, annotation.FromSnapshot(snap))
	}
	return annotations, nil
}

// CountAnnotations returns the number of annotations matching the query.
func (s *AnnotationsStore) CountAnnotations(q store.SearchQuery) (int64, error) {
	var count int64
	err := s.searchScope(q).Count(&count).Error
	return count, err
}

func (s *AnnotationsStore) searchScope(q store.SearchQuery) *gorm.DB {
	scope := s.db.Model(&model.Annotation{})

	if !q.IncludeDeleted {
		scope = scope.Where("deleted = ?", false)
	}
	if q.Viewer != "" {
		scope = scope.Where("shared = ? OR userid = ?", true, q.Viewer)
	} else {
		scope = scope.Where("shared = ?", true)
	}
	if q.UserID != "" {
		scope = scope.Where("userid = ?", q.UserID)
	}
	if q.GroupID != "" {
		scope = scope.Where("groupid = ?", q.GroupID)
	}
	if q.Tag != "" {
		// Containment against the GIN index on tags.
		scope = scope.Where("tags @> ARRAY[?]::text[]", q.Tag)
	}
	if q.URI != "" {
		scope = scope.Where("target_uri_normalized = ?", uri.Normalize(q.URI))
	}
	if q.DocumentID != 0 {
		scope = scope.Where("document_id = ?", q.DocumentID)
	}

	return scope
}
