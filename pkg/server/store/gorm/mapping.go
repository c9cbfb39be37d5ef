package gorm

import (
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/datatypes"

	"github.com/memexhq/memex/pkg/annotation"
	"github.com/memexhq/memex/pkg/model"
)

// rowFromSnapshot converts a domain snapshot into its persisted row shape.
func rowFromSnapshot(snap annotation.Snapshot) (*model.Annotation, error) {
	selectors, err := json.Marshal(snap.TargetSelectors)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize target selectors: %w", err)
	}
	extra, err := json.Marshal(snap.Extra)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize extra data: %w", err)
	}

	return &model.Annotation{
		ID:                  snap.ID,
		Created:             snap.Created,
		Updated:             snap.Updated,
		UserID:              snap.UserID,
		GroupID:             snap.GroupID,
		Text:                nullable(snap.Text),
		TextRendered:        nullable(snap.TextRendered),
		Tags:                pq.StringArray(snap.Tags),
		Shared:              snap.Shared,
		TargetURI:           nullable(snap.TargetURI),
		TargetURINormalized: nullable(snap.TargetURINormalized),
		TargetSelectors:     datatypes.JSON(selectors),
		References:          snap.References,
		Extra:               datatypes.JSON(extra),
		Deleted:             snap.Deleted,
		DocumentID:          snap.DocumentID,
	}, nil
}

// snapshotFromRow converts a persisted row back into a domain snapshot.
// Stored derived values are trusted, never recomputed.
func snapshotFromRow(row *model.Annotation) (annotation.Snapshot, error) {
	var selectors []map[string]any
	if len(row.TargetSelectors) > 0 {
		if err := json.Unmarshal(row.TargetSelectors, &selectors); err != nil {
			return annotation.Snapshot{}, fmt.Errorf("failed to parse target selectors of %s: %w", row.ID, err)
		}
	}
	var extra map[string]any
	if len(row.Extra) > 0 {
		if err := json.Unmarshal(row.Extra, &extra); err != nil {
			return annotation.Snapshot{}, fmt.Errorf("failed to parse extra data of %s: %w", row.ID, err)
		}
	}

	return annotation.Snapshot{
		ID:                  row.ID,
		Created:             row.Created,
		Updated:             row.Updated,
		UserID:              row.UserID,
		GroupID:             row.GroupID,
		Text:                orEmpty(row.Text),
		TextRendered:        orEmpty(row.TextRendered),
		Tags:                row.Tags,
		Shared:              row.Shared,
		TargetURI:           orEmpty(row.TargetURI),
		TargetURINormalized: orEmpty(row.TargetURINormalized),
		TargetSelectors:     selectors,
		References:          row.References,
		Extra:               extra,
		Deleted:             row.Deleted,
		DocumentID:          row.DocumentID,
	}, nil
}

// columnValues picks the named columns out of a snapshot for a partial
// update. The column names are the ones the domain mutators mark.
func columnValues(snap annotation.Snapshot, columns []string) (map[string]interface{}, error) {
	row, err := rowFromSnapshot(snap)
	if err != nil {
		return nil, err
	}

	all := map[string]interface{}{
		"userid":                row.UserID,
		"groupid":               row.GroupID,
		"text":                  row.Text,
		"text_rendered":         row.TextRendered,
		"tags":                  row.Tags,
		"shared":                row.Shared,
		"target_uri":            row.TargetURI,
		"target_uri_normalized": row.TargetURINormalized,
		"target_selectors":      row.TargetSelectors,
		"references":            row.References,
		"extra":                 row.Extra,
		"deleted":               row.Deleted,
		"document_id":           row.DocumentID,
	}

	updates := make(map[string]interface{}, len(columns))
	for _, column := range columns {
		value, ok := all[column]
		if !ok {
			return nil, fmt.Errorf("unknown annotation column %q", column)
		}
		updates[column] = value
	}
	return updates, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
