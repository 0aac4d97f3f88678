package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	suggestionUC "github.com/khoahotran/career-compass/internal/application/usecase/suggestion"
	"github.com/khoahotran/career-compass/internal/domain/suggestion"
	"github.com/khoahotran/career-compass/pkg/apperror"
	"github.com/khoahotran/career-compass/pkg/auth"
	"github.com/khoahotran/career-compass/pkg/logger"
)

type fakeRunner struct {
	res  *suggestionUC.Result
	err  error
	reqs []suggestionUC.Request
}

func (f *fakeRunner) Run(_ context.Context, req suggestionUC.Request) (*suggestionUC.Result, error) {
	f.reqs = append(f.reqs, req)
	return f.res, f.err
}

type fakeSubmitter struct {
	id   uuid.UUID
	err  error
	reqs []suggestionUC.Request
}

func (f *fakeSubmitter) Execute(_ context.Context, req suggestionUC.Request) (uuid.UUID, error) {
	f.reqs = append(f.reqs, req)
	return f.id, f.err
}

type fakeQuery struct {
	list []suggestion.CareerSuggestion
	err  error
}

func (f *fakeQuery) LatestSuggestions(context.Context, string) ([]suggestion.CareerSuggestion, error) {
	return f.list, f.err
}

type testServer struct {
	router    *gin.Engine
	runner    *fakeRunner
	submitter *fakeSubmitter
	query     *fakeQuery
}

func newTestServer(jwt *auth.JWTService) *testServer {
	gin.SetMode(gin.TestMode)
	ts := &testServer{
		runner:    &fakeRunner{},
		submitter: &fakeSubmitter{id: uuid.New()},
		query:     &fakeQuery{},
	}
	h := NewSuggestionHandler(ts.runner, ts.submitter, ts.query, logger.NewNopLogger())
	ts.router = NewRouter(RouterConfig{
		SuggestionHandler: h,
		JWT:               jwt,
		AllowOrigins:      []string{"http://localhost:3000"},
		ServiceName:       "career-compass-test",
		Logger:            logger.NewNopLogger(),
	})
	return ts
}

func (ts *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCareers_Success(t *testing.T) {
	ts := newTestServer(nil)
	ts.runner.res = &suggestionUC.Result{
		Stage:       suggestion.StageCareers,
		Suggestions: []suggestion.CareerSuggestion{{CareerName: "Data Analyst", CareerDescription: "..."}},
	}

	w := ts.do(http.MethodPost, "/api/suggestions", `{"external_profile_id":"u1"}`, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"suggestions":[{"career_name":"Data Analyst","career_description":"..."}]}`, w.Body.String())
	require.Len(t, ts.runner.reqs, 1)
	assert.Equal(t, suggestionUC.Request{Stage: suggestion.StageCareers, ExternalID: "u1"}, ts.runner.reqs[0])
}

func TestCareers_MissingBody(t *testing.T) {
	ts := newTestServer(nil)

	for _, body := range []string{``, `{}`, `not json`} {
		w := ts.do(http.MethodPost, "/api/suggestions", body, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "invalid_input", decodeBody(t, w)["kind"])
	}
	assert.Empty(t, ts.runner.reqs)
}

func TestCareers_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"not found", apperror.NewProfileNotFound("u404"), http.StatusNotFound, "not_found"},
		{"model unavailable", apperror.NewModelUnavailable("gemini request failed", errors.New("503")), http.StatusBadGateway, "model_unavailable"},
		{"malformed", apperror.NewMalformedResponse("missing key", "IGNORE PREVIOUS INSTRUCTIONS", nil), http.StatusBadGateway, "malformed_response"},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(nil)
			ts.runner.err = tc.err

			w := ts.do(http.MethodPost, "/api/suggestions", `{"external_profile_id":"u1"}`, "")

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.kind, decodeBody(t, w)["kind"])
			assert.NotContains(t, w.Body.String(), "IGNORE PREVIOUS INSTRUCTIONS")
		})
	}
}

func TestCareers_PartialPersistence(t *testing.T) {
	ts := newTestServer(nil)
	ts.runner.err = apperror.NewPersistenceFailed("2 of 3 careers records written", 2, 3, errors.New("insert failed"))

	w := ts.do(http.MethodPost, "/api/suggestions", `{"external_profile_id":"u1"}`, "")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "persistence_failed", body["kind"])
	assert.EqualValues(t, 2, body["written"])
	assert.EqualValues(t, 3, body["expected"])
}

func TestSkills(t *testing.T) {
	ts := newTestServer(nil)
	ts.runner.res = &suggestionUC.Result{
		Stage:  suggestion.StageSkills,
		Career: "UX Designer",
		Skills: []suggestion.SkillDetail{{SkillName: "User Research", Description: "Talking to users."}},
	}

	w := ts.do(http.MethodPost, "/api/suggestions/skills", `{"external_profile_id":"u1"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPost, "/api/suggestions/skills", `{"external_profile_id":"u1","chosen_career":"UX Designer"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"skills_descriptions":[{"skill_name":"User Research","description":"Talking to users."}]}`, w.Body.String())
	assert.Equal(t, "UX Designer", ts.runner.reqs[0].ChosenCareer)
}

func TestRoadmap(t *testing.T) {
	ts := newTestServer(nil)
	ts.runner.res = &suggestionUC.Result{
		Stage:  suggestion.StageRoadmap,
		Career: "UX Designer",
		Roadmap: []suggestion.RoadmapPhase{{
			Phase:      "Phase 1",
			Milestones: []suggestion.Milestone{{Title: "t", Description: "d", Duration: "2 weeks"}},
		}},
	}

	w := ts.do(http.MethodPost, "/api/suggestions/roadmap", `{"external_profile_id":"u1"}`, "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "UX Designer", body["chosen_career"])
	assert.Len(t, body["roadmap"], 1)
	assert.Equal(t, suggestion.StageRoadmap, ts.runner.reqs[0].Stage)
	assert.Empty(t, ts.runner.reqs[0].ChosenCareer)
}

func TestAsync(t *testing.T) {
	ts := newTestServer(nil)

	w := ts.do(http.MethodPost, "/api/suggestions/async", `{"stage":"skills","external_profile_id":"u1","chosen_career":"UX Designer"}`, "")

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, ts.submitter.id.String(), decodeBody(t, w)["request_id"])
	require.Len(t, ts.submitter.reqs, 1)
	assert.Equal(t, suggestion.StageSkills, ts.submitter.reqs[0].Stage)
	assert.Empty(t, ts.runner.reqs)

	ts.submitter.err = apperror.NewInvalidInput("unknown stage \"bogus\"", nil)
	w = ts.do(http.MethodPost, "/api/suggestions/async", `{"stage":"bogus","external_profile_id":"u1"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAsync_NotRegisteredWithoutSubmitter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewSuggestionHandler(&fakeRunner{}, nil, &fakeQuery{}, logger.NewNopLogger())
	router := NewRouter(RouterConfig{SuggestionHandler: h, Logger: logger.NewNopLogger()})

	req := httptest.NewRequest(http.MethodPost, "/api/suggestions/async", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLatestSuggestions(t *testing.T) {
	ts := newTestServer(nil)

	w := ts.do(http.MethodGet, "/api/profiles/u1/suggestions", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"suggestions":[]}`, w.Body.String())

	ts.query.err = apperror.NewProfileNotFound("u404")
	w = ts.do(http.MethodGet, "/api/profiles/u404/suggestions", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuth(t *testing.T) {
	jwtSvc := auth.NewJWTService("secret", time.Hour)
	ts := newTestServer(jwtSvc)
	ts.runner.res = &suggestionUC.Result{Suggestions: []suggestion.CareerSuggestion{{CareerName: "x"}}}

	token, err := jwtSvc.GenerateToken("u1")
	require.NoError(t, err)

	w := ts.do(http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code, "health is public")

	w = ts.do(http.MethodPost, "/api/suggestions", `{"external_profile_id":"u1"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decodeBody(t, w)["kind"])

	w = ts.do(http.MethodPost, "/api/suggestions", `{"external_profile_id":"u1"}`, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPost, "/api/suggestions", `{"external_profile_id":"u2"}`, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "permission_denied", decodeBody(t, w)["kind"])

	w = ts.do(http.MethodGet, "/api/profiles/u2/suggestions", "", token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Empty(t, ts.runner.reqs)

	w = ts.do(http.MethodPost, "/api/suggestions", `{"external_profile_id":"u1"}`, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, ts.runner.reqs, 1)
}
