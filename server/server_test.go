package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/resumevec"
	"github.com/hupe1980/resumevec/embedding"
	"github.com/hupe1980/resumevec/extract"
	"github.com/hupe1980/resumevec/record"
)

const testDimension = 64

func newTestServer(t *testing.T) *Server {
	t.Helper()

	extractor := extract.Func(func(_ context.Context, content []byte) (string, error) {
		return strings.TrimPrefix(string(content), "%PDF-"), nil
	})

	svc, err := resumevec.New(
		embedding.NewHashEmbedder(testDimension),
		extractor,
		record.NewMemoryStore(testDimension),
	)
	require.NoError(t, err)

	return New(svc)
}

func uploadRequest(t *testing.T, userID, filename, text string) *http.Request {
	t.Helper()

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-" + text))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(HeaderUserID, userID)

	return req
}

func doJSON(t *testing.T, srv *Server, req *http.Request, out any) int {
	t.Helper()

	resp, err := srv.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, out))
	}

	return resp.StatusCode
}

func upload(t *testing.T, srv *Server, userID, text string) string {
	t.Helper()

	var created struct {
		ID string `json:"id"`
	}

	status := doJSON(t, srv, uploadRequest(t, userID, "resume.pdf", text), &created)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, created.ID)

	return created.ID
}

func TestUploadEndpoint(t *testing.T) {
	t.Run("successful upload", func(t *testing.T) {
		srv := newTestServer(t)

		var created struct {
			ID      string `json:"id"`
			OwnerID string `json:"owner_id"`
		}

		status := doJSON(t, srv, uploadRequest(t, "u1", "resume.pdf", "golang engineer"), &created)
		assert.Equal(t, http.StatusCreated, status)
		assert.Equal(t, "u1", created.OwnerID)
	})

	t.Run("missing identity header", func(t *testing.T) {
		srv := newTestServer(t)

		req := uploadRequest(t, "u1", "resume.pdf", "golang engineer")
		req.Header.Del(HeaderUserID)

		status := doJSON(t, srv, req, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("rejected document", func(t *testing.T) {
		srv := newTestServer(t)

		status := doJSON(t, srv, uploadRequest(t, "u1", "resume.docx", "golang engineer"), nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("missing file field", func(t *testing.T) {
		srv := newTestServer(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes", strings.NewReader(""))
		req.Header.Set(HeaderUserID, "u1")

		status := doJSON(t, srv, req, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestResumeEndpoints(t *testing.T) {
	t.Run("list is owner scoped", func(t *testing.T) {
		srv := newTestServer(t)
		upload(t, srv, "u1", "golang engineer")
		upload(t, srv, "u2", "frontend engineer")

		req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes", nil)
		req.Header.Set(HeaderUserID, "u1")

		var out struct {
			Count int `json:"count"`
		}

		status := doJSON(t, srv, req, &out)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, 1, out.Count)
	})

	t.Run("get foreign resume is forbidden", func(t *testing.T) {
		srv := newTestServer(t)
		id := upload(t, srv, "u1", "golang engineer")

		req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes/"+id, nil)
		req.Header.Set(HeaderUserID, "u2")

		status := doJSON(t, srv, req, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("get unknown resume", func(t *testing.T) {
		srv := newTestServer(t)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes/missing", nil)
		req.Header.Set(HeaderUserID, "u1")

		status := doJSON(t, srv, req, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("delete own resume", func(t *testing.T) {
		srv := newTestServer(t)
		id := upload(t, srv, "u1", "golang engineer")

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/resumes/"+id, nil)
		req.Header.Set(HeaderUserID, "u1")

		status := doJSON(t, srv, req, nil)
		assert.Equal(t, http.StatusNoContent, status)
	})

	t.Run("delete foreign resume is forbidden", func(t *testing.T) {
		srv := newTestServer(t)
		id := upload(t, srv, "u1", "golang engineer")

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/resumes/"+id, nil)
		req.Header.Set(HeaderUserID, "u2")

		status := doJSON(t, srv, req, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})
}

func TestSearchEndpoints(t *testing.T) {
	t.Run("text search", func(t *testing.T) {
		srv := newTestServer(t)
		upload(t, srv, "u1", "golang backend engineer kubernetes")
		upload(t, srv, "u2", "pastry baking techniques")

		body := `{"query":"golang engineer","k":2}`

		req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(HeaderUserID, "u3")

		var out struct {
			Count   int `json:"count"`
			Matches []struct {
				Resume struct {
					OwnerID string `json:"owner_id"`
				} `json:"resume"`
				Distance float32 `json:"distance"`
			} `json:"matches"`
		}

		status := doJSON(t, srv, req, &out)
		assert.Equal(t, http.StatusOK, status)
		require.Equal(t, 2, out.Count)

		// Search is cross-owner; the golang resume must rank first.
		assert.Equal(t, "u1", out.Matches[0].Resume.OwnerID)
	})

	t.Run("owner-restricted search", func(t *testing.T) {
		srv := newTestServer(t)
		upload(t, srv, "u1", "golang engineer")
		upload(t, srv, "u2", "golang engineer kubernetes")

		body := `{"query":"golang engineer","k":5,"owner_id":"u2"}`

		req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(HeaderUserID, "u1")

		var out struct {
			Count int `json:"count"`
		}

		status := doJSON(t, srv, req, &out)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, 1, out.Count)
	})

	t.Run("similar search requires ownership of the source", func(t *testing.T) {
		srv := newTestServer(t)
		id := upload(t, srv, "u1", "golang engineer")
		upload(t, srv, "u2", "golang engineer kubernetes")

		req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes/"+id+"/similar?k=1", nil)
		req.Header.Set(HeaderUserID, "u1")

		var out struct {
			Count int `json:"count"`
		}

		status := doJSON(t, srv, req, &out)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, 1, out.Count)

		// A foreign caller cannot use someone else's resume as a query.
		req = httptest.NewRequest(http.MethodGet, "/api/v1/resumes/"+id+"/similar?k=1", nil)
		req.Header.Set(HeaderUserID, "u2")

		status = doJSON(t, srv, req, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	var out struct {
		Status string `json:"status"`
	}

	status := doJSON(t, srv, req, &out)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", out.Status)
}
