package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/memexhq/memex/pkg/annotation"
	"github.com/memexhq/memex/pkg/audit"
	"github.com/memexhq/memex/pkg/config"
	"github.com/memexhq/memex/pkg/identity"
	"github.com/memexhq/memex/pkg/server"
	"github.com/memexhq/memex/pkg/server/store"
	"github.com/memexhq/memex/pkg/types"
)

// AnnotationRequest is the JSON body accepted by the create and update
// endpoints. Nil fields are left untouched on update.
type AnnotationRequest struct {
	URI             *string           `json:"uri"`
	Text            *string           `json:"text"`
	Tags            *[]string         `json:"tags"`
	Group           *string           `json:"group"`
	Shared          *bool             `json:"shared"`
	TargetSelectors *[]map[string]any `json:"target_selectors"`
	References      *[]string         `json:"references"`
	Extra           *map[string]any   `json:"extra"`
}

// AnnotationResponse is the JSON rendering of a single annotation
type AnnotationResponse struct {
	ID              string           `json:"id"`
	Created         time.Time        `json:"created"`
	Updated         time.Time        `json:"updated"`
	User            string           `json:"user"`
	Group           string           `json:"group"`
	Text            string           `json:"text"`
	TextRendered    string           `json:"text_rendered"`
	Tags            []string         `json:"tags"`
	Shared          bool             `json:"shared"`
	URI             string           `json:"uri"`
	URINormalized   string           `json:"uri_normalized"`
	TargetSelectors []map[string]any `json:"target_selectors,omitempty"`
	References      []string         `json:"references,omitempty"`
	Extra           map[string]any   `json:"extra,omitempty"`
	Deleted         bool             `json:"deleted,omitempty"`
}

// AnnotationListResponse is the JSON rendering of a search result
type AnnotationListResponse struct {
	Total int64                `json:"total"`
	Rows  []AnnotationResponse `json:"rows"`
}

func renderAnnotation(a *annotation.Annotation) AnnotationResponse {
	return AnnotationResponse{
		ID:              a.ID().String(),
		Created:         a.Created(),
		Updated:         a.Updated(),
		User:            a.UserID(),
		Group:           a.GroupID(),
		Text:            a.Text(),
		TextRendered:    a.TextRendered(),
		Tags:            a.Tags(),
		Shared:          a.Shared(),
		URI:             a.TargetURI(),
		URINormalized:   a.TargetURINormalized(),
		TargetSelectors: a.TargetSelectors(),
		References:      a.References().Tokens(),
		Extra:           a.Extra(),
		Deleted:         a.Deleted(),
	}
}

// RegisterAnnotationsEndpoints registers the annotation CRUD and search
// endpoints on the server
func RegisterAnnotationsEndpoints(s *server.Server) {
	annotations := s.AnnotationsStore
	documents := s.DocumentsStore
	cfg := s.Config
	auth := s.Auth

	// Reads run anonymously when authentication is not enforced; writes
	// always need a token.
	read := auth.Wrap
	if !cfg.AuthnRequired {
		read = auth.Optional
	}

	r := s.Router

	// POST /annotations - Create an annotation
	r.HandleFunc("/annotations", auth.Wrap(handleCreateAnnotation(annotations, documents, cfg))).Methods("POST")

	// GET /annotations?user=...&group=...&tag=...&uri=... - Search annotations
	r.HandleFunc("/annotations", read(handleSearchAnnotations(annotations, cfg))).Methods("GET")

	// GET /annotations/{id} - Fetch a single annotation
	r.HandleFunc("/annotations/{id}", read(handleFetchAnnotation(annotations))).Methods("GET")

	// PATCH /annotations/{id} - Edit an annotation (owner only)
	r.HandleFunc("/annotations/{id}", auth.Wrap(handleUpdateAnnotation(annotations, documents, cfg))).Methods("PATCH")

	// DELETE /annotations/{id} - Soft-delete an annotation (owner only)
	r.HandleFunc("/annotations/{id}", auth.Wrap(handleDeleteAnnotation(annotations, cfg))).Methods("DELETE")
}

func handleCreateAnnotation(annotations store.AnnotationsStore, documents store.DocumentsStore, cfg *config.MemexConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identity.Get(r.Context())

		var body AnnotationRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
			return
		}

		if body.URI == nil || *body.URI == "" {
			respondWithError(w, http.StatusBadRequest, "uri is required")
			return
		}

		a := annotation.New(id.UserID)
		a.SetTargetURI(*body.URI)
		if cfg.GroupIDDefault != "" {
			a.SetGroupID(cfg.GroupIDDefault)
		}
		if body.Group != nil {
			a.SetGroupID(*body.Group)
		}
		if body.Text != nil {
			if err := a.SetText(*body.Text); err != nil {
				respondWithError(w, http.StatusBadRequest, "text could not be rendered")
				return
			}
		}
		if body.Tags != nil {
			a.SetTags(*body.Tags)
		}
		if body.Shared != nil {
			a.SetShared(*body.Shared)
		}
		if body.TargetSelectors != nil {
			a.SetTargetSelectors(*body.TargetSelectors)
		}
		if body.Extra != nil {
			a.SetExtra(*body.Extra)
		}
		if body.References != nil {
			refs, err := types.ParseIDList(*body.References)
			if err != nil {
				respondWithError(w, http.StatusBadRequest, "references contain an invalid id")
				return
			}
			a.SetReferences(refs)
		}

		doc, err := documents.FindOrCreateDocumentByURI(*body.URI)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to resolve document")
			return
		}
		a.SetDocumentID(doc.ID)

		if err := annotations.CreateAnnotation(a); err != nil {
			audit.Log(audit.CreateEvent{
				UserID:       id.UserID,
				ClientIP:     clientIP(cfg, r),
				GroupID:      a.GroupID(),
				TargetURI:    a.TargetURI(),
				Shared:       a.Shared(),
				Success:      false,
				ErrorMessage: err.Error(),
			})
			respondWithError(w, http.StatusInternalServerError, "Failed to create annotation")
			return
		}

		audit.Log(audit.CreateEvent{
			UserID:       id.UserID,
			ClientIP:     clientIP(cfg, r),
			AnnotationID: a.ID().String(),
			GroupID:      a.GroupID(),
			TargetURI:    a.TargetURI(),
			Shared:       a.Shared(),
			Success:      true,
		})
		respondWithJSON(w, http.StatusCreated, renderAnnotation(a))
	}
}

func handleFetchAnnotation(annotations store.AnnotationsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		annotationID, err := types.ParseID(mux.Vars(r)["id"])
		if err != nil {
			respondWithError(w, http.StatusNotFound, "Annotation not found")
			return
		}

		a, err := annotations.FetchAnnotation(annotationID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondWithError(w, http.StatusNotFound, "Annotation not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch annotation")
			return
		}

		// Private annotations are visible to their owner only. The 404
		// hides their existence from everyone else.
		if !a.Shared() {
			id, ok := identity.Get(r.Context())
			if !ok || id.UserID != a.UserID() {
				respondWithError(w, http.StatusNotFound, "Annotation not found")
				return
			}
		}

		respondWithJSON(w, http.StatusOK, renderAnnotation(a))
	}
}

func handleUpdateAnnotation(annotations store.AnnotationsStore, documents store.DocumentsStore, cfg *config.MemexConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identity.Get(r.Context())

		annotationID, err := types.ParseID(mux.Vars(r)["id"])
		if err != nil {
			respondWithError(w, http.StatusNotFound, "Annotation not found")
			return
		}

		var body AnnotationRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
			return
		}

		a, err := annotations.FetchAnnotation(annotationID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondWithError(w, http.StatusNotFound, "Annotation not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch annotation")
			return
		}
		if a.Deleted() {
			respondWithError(w, http.StatusNotFound, "Annotation not found")
			return
		}
		if a.UserID() != id.UserID {
			if !a.Shared() {
				respondWithError(w, http.StatusNotFound, "Annotation not found")
				return
			}
			respondWithError(w, http.StatusForbidden, "Only the annotation's owner may edit it")
			return
		}

		if body.Text != nil {
			if err := a.SetText(*body.Text); err != nil {
				respondWithError(w, http.StatusBadRequest, "text could not be rendered")
				return
			}
		}
		if body.Tags != nil {
			a.SetTags(*body.Tags)
		}
		if body.Group != nil {
			a.SetGroupID(*body.Group)
		}
		if body.Shared != nil {
			a.SetShared(*body.Shared)
		}
		if body.TargetSelectors != nil {
			a.SetTargetSelectors(*body.TargetSelectors)
		}
		if body.Extra != nil {
			a.SetExtra(*body.Extra)
		}
		if body.URI != nil && *body.URI != "" {
			a.SetTargetURI(*body.URI)
			doc, err := documents.FindOrCreateDocumentByURI(*body.URI)
			if err != nil {
				respondWithError(w, http.StatusInternalServerError, "Failed to resolve document")
				return
			}
			a.SetDocumentID(doc.ID)
		}

		fields := a.Changes()
		if err := annotations.UpdateAnnotation(a); err != nil {
			audit.Log(audit.UpdateEvent{
				UserID:       id.UserID,
				ClientIP:     clientIP(cfg, r),
				AnnotationID: a.ID().String(),
				Fields:       fields,
				Success:      false,
				ErrorMessage: err.Error(),
			})
			respondWithError(w, http.StatusInternalServerError, "Failed to update annotation")
			return
		}

		audit.Log(audit.UpdateEvent{
			UserID:       id.UserID,
			ClientIP:     clientIP(cfg, r),
			AnnotationID: a.ID().String(),
			Fields:       fields,
			Success:      true,
		})
		respondWithJSON(w, http.StatusOK, renderAnnotation(a))
	}
}

func handleDeleteAnnotation(annotations store.AnnotationsStore, cfg *config.MemexConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identity.Get(r.Context())

		annotationID, err := types.ParseID(mux.Vars(r)["id"])
		if err != nil {
			respondWithError(w, http.StatusNotFound, "Annotation not found")
			return
		}

		a, err := annotations.FetchAnnotation(annotationID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondWithError(w, http.StatusNotFound, "Annotation not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch annotation")
			return
		}
		if a.UserID() != id.UserID {
			if !a.Shared() {
				respondWithError(w, http.StatusNotFound, "Annotation not found")
				return
			}
			respondWithError(w, http.StatusForbidden, "Only the annotation's owner may delete it")
			return
		}

		if err := annotations.SoftDeleteAnnotation(annotationID); err != nil {
			audit.Log(audit.DeleteEvent{
				UserID:       id.UserID,
				ClientIP:     clientIP(cfg, r),
				AnnotationID: annotationID.String(),
				Success:      false,
				ErrorMessage: err.Error(),
			})
			respondWithError(w, http.StatusInternalServerError, "Failed to delete annotation")
			return
		}

		audit.Log(audit.DeleteEvent{
			UserID:       id.UserID,
			ClientIP:     clientIP(cfg, r),
			AnnotationID: annotationID.String(),
			Success:      true,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleSearchAnnotations(annotations store.AnnotationsStore, cfg *config.MemexConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()

		q := store.SearchQuery{
			UserID:  params.Get("user"),
			GroupID: params.Get("group"),
			Tag:     params.Get("tag"),
			URI:     params.Get("uri"),
			Limit:   20,
		}

		if id, ok := identity.Get(r.Context()); ok {
			q.Viewer = id.UserID
		}

		if raw := params.Get("document"); raw != "" {
			documentID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || documentID <= 0 {
				respondWithError(w, http.StatusBadRequest, "document must be a positive integer")
				return
			}
			q.DocumentID = documentID
		}

		if raw := params.Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 0 {
				respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			q.Limit = limit
		}
		if q.Limit <= 0 || q.Limit > cfg.APIAnnotationListLimitMax {
			q.Limit = cfg.APIAnnotationListLimitMax
		}

		if raw := params.Get("offset"); raw != "" {
			offset, err := strconv.Atoi(raw)
			if err != nil || offset < 0 {
				respondWithError(w, http.StatusBadRequest, "offset must be a non-negative integer")
				return
			}
			q.Offset = offset
		}

		total, err := annotations.CountAnnotations(q)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to search annotations")
			return
		}

		results, err := annotations.SearchAnnotations(q)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to search annotations")
			return
		}

		rows := make([]AnnotationResponse, 0, len(results))
		for _, a := range results {
			rows = append(rows, renderAnnotation(a))
		}
		respondWithJSON(w, http.StatusOK, AnnotationListResponse{Total: total, Rows: rows})
	}
}
