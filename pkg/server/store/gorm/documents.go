package gorm

import (
	"errors"

	"gorm.io/gorm"

	"github.com/memexhq/memex/pkg/model"
	"github.com/memexhq/memex/pkg/server/store"
	"github.com/memexhq/memex/pkg/uri"
)

// Ensure DocumentsStore implements store.DocumentsStore
var _ store.DocumentsStore = (*DocumentsStore)(nil)

// DocumentsStore implements store.DocumentsStore using GORM
type DocumentsStore struct {
	db *gorm.DB
}

// NewDocumentsStore creates a new DocumentsStore
func NewDocumentsStore(db *gorm.DB) *DocumentsStore {
	return &DocumentsStore{db: db}
}

// FindOrCreateDocumentByURI returns the document claimed by the given URI,
// creating the document and its first URI claim when none exists. Lookups
// go through the normalized form so URI variants resolve to one document.
func (s *DocumentsStore) FindOrCreateDocumentByURI(rawURI string) (*store.Document, error) {
	normalized := uri.Normalize(rawURI)

	var claim model.DocumentURI
	err := s.db.Where("uri_normalized = ?", normalized).First(&claim).Error
	if err == nil {
		return s.FetchDocument(claim.DocumentID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var doc model.Document
	err = s.db.Transaction(func(tx *gorm.DB) error {
		doc = model.Document{WebURI: &rawURI}
		if err := tx.Create(&doc).Error; err != nil {
			return err
		}
		claim = model.DocumentURI{
			Claimant:      rawURI,
			URI:           rawURI,
			URINormalized: normalized,
			Type:          "self-claim",
			DocumentID:    doc.ID,
		}
		return tx.Create(&claim).Error
	})
	if err != nil {
		return nil, err
	}

	return documentFromRow(&doc), nil
}

// FetchDocument retrieves a single document by id
func (s *DocumentsStore) FetchDocument(id int64) (*store.Document, error) {
	var row model.Document
	err := s.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return documentFromRow(&row), nil
}

func documentFromRow(row *model.Document) *store.Document {
	return &store.Document{
		ID:     row.ID,
		Title:  orEmpty(row.Title),
		WebURI: orEmpty(row.WebURI),
	}
}
