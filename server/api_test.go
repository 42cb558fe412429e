package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/uigen/validator"
	"github.com/lexcodex/uigen/workflow"
)

type stubGenerator struct {
	code      string
	err       error
	sessionID string
	query     string
}

func (g *stubGenerator) Run(ctx context.Context, sessionID, query string) (string, error) {
	g.sessionID = sessionID
	g.query = query
	return g.code, g.err
}

func doGenerate(t *testing.T, gen Generator, body string) (*httptest.ResponseRecorder, GenerateResponse) {
	t.Helper()
	srv := &APIServer{Generator: gen}
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var resp GenerateResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestGenerateSuccess(t *testing.T) {
	gen := &stubGenerator{code: "export default () => null;"}
	rec, resp := doGenerate(t, gen, `{"session_id": "s1", "query": "a header"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, gen.code, resp.Code)
	assert.Empty(t, resp.Error)
	assert.Equal(t, "s1", gen.sessionID)
	assert.Equal(t, "a header", gen.query)
}

func TestGenerateRejectsMissingFields(t *testing.T) {
	for _, body := range []string{
		`{"query": "a header"}`,
		`{"session_id": "s1"}`,
		`{"session_id": " ", "query": " "}`,
		`not json`,
	} {
		rec, resp := doGenerate(t, &stubGenerator{}, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.NotEmpty(t, resp.Error, body)
	}
}

func TestGenerateSelectionFailure(t *testing.T) {
	gen := &stubGenerator{err: workflow.ErrSelection}
	rec, resp := doGenerate(t, gen, `{"session_id": "s1", "query": "a header"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NotEmpty(t, resp.Error)
}

func TestGenerateBudgetExhaustedReturnsArtifact(t *testing.T) {
	gen := &stubGenerator{err: &workflow.BudgetExhaustedError{
		Attempts: 50,
		Artifact: "broken but best-effort",
		Diagnostics: []validator.Diagnostic{
			{Line: 1, Code: "TS1005", Message: "';' expected."},
		},
	}}
	rec, resp := doGenerate(t, gen, `{"session_id": "s1", "query": "impossible"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "broken but best-effort", resp.Code)
	assert.Contains(t, resp.Error, "50 validation attempts")
}

func TestGenerateInternalError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("tsc not found")}
	rec, resp := doGenerate(t, gen, `{"session_id": "s1", "query": "a header"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, resp.Code)
	assert.Contains(t, resp.Error, "tsc not found")
}

func TestHealthEndpoint(t *testing.T) {
	srv := &APIServer{Generator: &stubGenerator{}}
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
