package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memexhq/memex/pkg/annotation"
	"github.com/memexhq/memex/pkg/server/store"
)

func TestAnnotations(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") == "" {
		t.Skip("Skipping integration tests. Set INTEGRATION_TEST=1 to run.")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tc, err := NewTestContext(ctx)
	if err != nil {
		t.Fatalf("Failed to create test context: %v", err)
	}
	defer tc.Close(ctx)

	t.Run("store", func(t *testing.T) {
		require.NoError(t, tc.truncateAll())
		testAnnotationsStore(t, tc)
	})

	t.Run("http", func(t *testing.T) {
		require.NoError(t, tc.truncateAll())
		testAnnotationsHTTP(t, tc)
	})
}

func newStoredAnnotation(t *testing.T, tc *TestContext, userid, uri string, mutate func(a *annotation.Annotation)) *annotation.Annotation {
	t.Helper()

	doc, err := tc.Server.DocumentsStore.FindOrCreateDocumentByURI(uri)
	require.NoError(t, err)

	a := annotation.New(userid)
	a.SetTargetURI(uri)
	a.SetDocumentID(doc.ID)
	if mutate != nil {
		mutate(a)
	}
	require.NoError(t, tc.Server.AnnotationsStore.CreateAnnotation(a))
	return a
}

func testAnnotationsStore(t *testing.T, tc *TestContext) {
	annotations := tc.Server.AnnotationsStore

	t.Run("create and fetch round trip", func(t *testing.T) {
		a := newStoredAnnotation(t, tc, "acct:alice@example.com", "https://example.com/page", func(a *annotation.Annotation) {
			require.NoError(t, a.SetText("some **bold** text"))
			a.SetTags([]string{"go", "testing"})
			a.SetShared(true)
		})

		require.False(t, a.ID().IsZero())
		require.False(t, a.Created().IsZero())

		got, err := annotations.FetchAnnotation(a.ID())
		require.NoError(t, err)
		assert.Equal(t, a.ID(), got.ID())
		assert.Equal(t, "acct:alice@example.com", got.UserID())
		assert.Equal(t, "some **bold** text", got.Text())
		assert.Contains(t, got.TextRendered(), "<strong>bold</strong>")
		assert.Equal(t, []string{"go", "testing"}, got.Tags())
		assert.True(t, got.Shared())
		assert.Equal(t, "https://example.com/page", got.TargetURINormalized())
		assert.Empty(t, got.Changes())
	})

	t.Run("update persists only pending changes", func(t *testing.T) {
		a := newStoredAnnotation(t, tc, "acct:alice@example.com", "https://example.com/update", func(a *annotation.Annotation) {
			require.NoError(t, a.SetText("before"))
		})

		storedAt := a.Updated()

		require.NoError(t, a.SetText("after *edit*"))
		a.SetTags([]string{"edited"})
		require.NoError(t, annotations.UpdateAnnotation(a))
		assert.Empty(t, a.Changes())
		assert.True(t, a.Updated().After(storedAt))

		got, err := annotations.FetchAnnotation(a.ID())
		require.NoError(t, err)
		assert.Equal(t, "after *edit*", got.Text())
		assert.Contains(t, got.TextRendered(), "<em>edit</em>")
		assert.Equal(t, []string{"edited"}, got.Tags())
		assert.True(t, got.Updated().After(got.Created()))
	})

	t.Run("search by tag uses containment", func(t *testing.T) {
		newStoredAnnotation(t, tc, "acct:alice@example.com", "https://example.com/tags", func(a *annotation.Annotation) {
			a.SetTags([]string{"climate", "policy"})
			a.SetShared(true)
		})
		newStoredAnnotation(t, tc, "acct:alice@example.com", "https://example.com/tags", func(a *annotation.Annotation) {
			a.SetTags([]string{"sports"})
			a.SetShared(true)
		})

		results, err := annotations.SearchAnnotations(store.SearchQuery{Tag: "climate"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Contains(t, results[0].Tags(), "climate")
	})

	t.Run("search by uri matches any equivalent spelling", func(t *testing.T) {
		newStoredAnnotation(t, tc, "acct:alice@example.com", "HTTP://Example.COM/Article/?utm_source=tw&b=2&a=1", func(a *annotation.Annotation) {
			a.SetShared(true)
		})

		results, err := annotations.SearchAnnotations(store.SearchQuery{URI: "http://example.com/Article?a=1&b=2"})
		require.NoError(t, err)
		require.Len(t, results, 1)
	})

	t.Run("private annotations are only visible to their owner", func(t *testing.T) {
		a := newStoredAnnotation(t, tc, "acct:carol@example.com", "https://example.com/private", nil)

		results, err := annotations.SearchAnnotations(store.SearchQuery{UserID: "acct:carol@example.com"})
		require.NoError(t, err)
		assert.Empty(t, results)

		results, err = annotations.SearchAnnotations(store.SearchQuery{
			UserID: "acct:carol@example.com",
			Viewer: "acct:carol@example.com",
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, a.ID(), results[0].ID())
	})

	t.Run("soft delete hides from search but keeps the row", func(t *testing.T) {
		a := newStoredAnnotation(t, tc, "acct:dave@example.com", "https://example.com/deleted", func(a *annotation.Annotation) {
			a.SetShared(true)
		})

		require.NoError(t, annotations.SoftDeleteAnnotation(a.ID()))

		results, err := annotations.SearchAnnotations(store.SearchQuery{UserID: "acct:dave@example.com"})
		require.NoError(t, err)
		assert.Empty(t, results)

		got, err := annotations.FetchAnnotation(a.ID())
		require.NoError(t, err)
		assert.True(t, got.Deleted())
	})

	t.Run("documents are shared between equivalent uris", func(t *testing.T) {
		docs := tc.Server.DocumentsStore

		first, err := docs.FindOrCreateDocumentByURI("https://example.com/Shared/?utm_campaign=x")
		require.NoError(t, err)
		second, err := docs.FindOrCreateDocumentByURI("https://example.com/Shared")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})
}

func testAnnotationsHTTP(t *testing.T, tc *TestContext) {
	aliceToken, err := tc.Server.Auth.IssueToken("acct:alice@example.com", time.Hour)
	require.NoError(t, err)
	bobToken, err := tc.Server.Auth.IssueToken("acct:bob@example.com", time.Hour)
	require.NoError(t, err)

	do := func(method, path, token, body string) (*http.Response, map[string]any) {
		t.Helper()
		var req *http.Request
		if body != "" {
			req, err = http.NewRequest(method, tc.ServerURL+path, bytes.NewReader([]byte(body)))
		} else {
			req, err = http.NewRequest(method, tc.ServerURL+path, nil)
		}
		require.NoError(t, err)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := tc.HTTPClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		var decoded map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
		return resp, decoded
	}

	var annotationID string

	t.Run("create requires a token", func(t *testing.T) {
		resp, _ := do("POST", "/annotations", "", `{"uri": "https://example.com/http"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("create", func(t *testing.T) {
		body := `{"uri": "https://example.com/http", "text": "a **note**", "tags": ["http"], "shared": true}`
		resp, decoded := do("POST", "/annotations", aliceToken, body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		annotationID, _ = decoded["id"].(string)
		require.NotEmpty(t, annotationID)
		assert.Equal(t, "acct:alice@example.com", decoded["user"])
		assert.Equal(t, "__world__", decoded["group"])
		assert.Contains(t, decoded["text_rendered"], "<strong>note</strong>")
	})

	t.Run("fetch", func(t *testing.T) {
		resp, decoded := do("GET", "/annotations/"+annotationID, bobToken, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, annotationID, decoded["id"])
	})

	t.Run("search", func(t *testing.T) {
		resp, decoded := do("GET", "/annotations?tag=http", bobToken, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(1), decoded["total"])
	})

	t.Run("only the owner can edit", func(t *testing.T) {
		resp, _ := do("PATCH", "/annotations/"+annotationID, bobToken, `{"text": "hijack"}`)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp, decoded := do("PATCH", "/annotations/"+annotationID, aliceToken, `{"text": "edited"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "edited", decoded["text"])
	})

	t.Run("only the owner can delete", func(t *testing.T) {
		resp, _ := do("DELETE", "/annotations/"+annotationID, bobToken, "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp, _ = do("DELETE", "/annotations/"+annotationID, aliceToken, "")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		// The row survives the delete and stays fetchable by id.
		resp, decoded := do("GET", "/annotations/"+annotationID, aliceToken, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, decoded["deleted"])

		resp, searchResult := do("GET", "/annotations?tag=http", aliceToken, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(0), searchResult["total"])
	})
}
