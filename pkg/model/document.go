package model

import "time"

// Document represents one annotated web document. Many annotations belong
// to one document.
type Document struct {
	ID      int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Created time.Time `gorm:"column:created;not null;default:now()"`
	Updated time.Time `gorm:"column:updated;not null;default:now()"`

	Title  *string `gorm:"column:title"`
	WebURI *string `gorm:"column:web_uri"`
}

func (Document) TableName() string {
	return "document"
}

// DocumentURI records one URI under which a document has been seen. A
// document can be addressed by many equivalent URIs (canonical links,
// mirrors, DOIs); lookups go through the normalized form.
type DocumentURI struct {
	ID      int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Created time.Time `gorm:"column:created;not null;default:now()"`
	Updated time.Time `gorm:"column:updated;not null;default:now()"`

	Claimant      string `gorm:"column:claimant;not null"`
	URI           string `gorm:"column:uri;not null"`
	URINormalized string `gorm:"column:uri_normalized;not null;index:ix__document_uri_uri_normalized"`

	// Type distinguishes how the claim was made (e.g. "self-claim",
	// "rel-canonical"). ContentType is the MIME type of the claiming
	// document, when known.
	Type        string `gorm:"column:type;not null;default:''"`
	ContentType string `gorm:"column:content_type;not null;default:''"`

	DocumentID int64     `gorm:"column:document_id;not null"`
	Document   *Document `gorm:"foreignKey:DocumentID"`
}

func (DocumentURI) TableName() string {
	return "document_uri"
}
