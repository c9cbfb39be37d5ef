package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"

	"github.com/memexhq/memex/pkg/types"
)

// Annotation is the persisted row shape of an annotation. The domain type
// lives in pkg/annotation; stores convert between the two. Tags are indexed
// with a GIN index for containment queries (see db/migrations).
type Annotation struct {
	ID      types.ID  `gorm:"column:id;type:uuid;primaryKey;default:uuid_generate_v1mc()"`
	Created time.Time `gorm:"column:created;not null;default:now()"`
	Updated time.Time `gorm:"column:updated;not null;default:now();index:ix__annotation_updated"`

	UserID  string `gorm:"column:userid;not null;index:ix__annotation_userid"`
	GroupID string `gorm:"column:groupid;not null;default:'__world__';index:ix__annotation_groupid"`

	Text         *string `gorm:"column:text"`
	TextRendered *string `gorm:"column:text_rendered"`

	Tags   pq.StringArray `gorm:"column:tags;type:text[]"`
	Shared bool           `gorm:"column:shared;not null;default:false"`

	TargetURI           *string        `gorm:"column:target_uri"`
	TargetURINormalized *string        `gorm:"column:target_uri_normalized"`
	TargetSelectors     datatypes.JSON `gorm:"column:target_selectors;type:jsonb;default:'[]'"`

	References types.IDList   `gorm:"column:references;type:uuid[]"`
	Extra      datatypes.JSON `gorm:"column:extra;type:jsonb;not null;default:'{}'"`

	Deleted bool `gorm:"column:deleted;not null;default:false"`

	DocumentID int64     `gorm:"column:document_id;not null"`
	Document   *Document `gorm:"foreignKey:DocumentID"`
}

func (Annotation) TableName() string {
	return "annotation"
}
