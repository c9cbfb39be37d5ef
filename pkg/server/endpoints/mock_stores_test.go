package endpoints

import (
	"github.com/stretchr/testify/mock"

	"github.com/memexhq/memex/pkg/annotation"
	"github.com/memexhq/memex/pkg/server/store"
	"github.com/memexhq/memex/pkg/types"
)

// MockAnnotationsStore implements store.AnnotationsStore for testing using testify/mock
type MockAnnotationsStore struct {
	mock.Mock
}

func NewMockAnnotationsStore() *MockAnnotationsStore {
	return &MockAnnotationsStore{}
}

func (m *MockAnnotationsStore) CreateAnnotation(a *annotation.Annotation) error {
	args := m.Called(a)
	return args.Error(0)
}

func (m *MockAnnotationsStore) FetchAnnotation(id types.ID) (*annotation.Annotation, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*annotation.Annotation), args.Error(1)
}

func (m *MockAnnotationsStore) UpdateAnnotation(a *annotation.Annotation) error {
	args := m.Called(a)
	return args.Error(0)
}

func (m *MockAnnotationsStore) SoftDeleteAnnotation(id types.ID) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockAnnotationsStore) SearchAnnotations(q store.SearchQuery) ([]*annotation.Annotation, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*annotation.Annotation), args.Error(1)
}

func (m *MockAnnotationsStore) CountAnnotations(q store.SearchQuery) (int64, error) {
	args := m.Called(q)
	return args.Get(0).(int64), args.Error(1)
}

// MockDocumentsStore implements store.DocumentsStore for testing using testify/mock
type MockDocumentsStore struct {
	mock.Mock
}

func NewMockDocumentsStore() *MockDocumentsStore {
	return &MockDocumentsStore{}
}

func (m *MockDocumentsStore) FindOrCreateDocumentByURI(rawURI string) (*store.Document, error) {
	args := m.Called(rawURI)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Document), args.Error(1)
}

func (m *MockDocumentsStore) FetchDocument(id int64) (*store.Document, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Document), args.Error(1)
}
