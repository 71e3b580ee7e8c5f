package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundscape/config"
	"soundscape/core/analytics"
	"soundscape/core/recommend"
	"soundscape/core/search"
	"soundscape/model"
	"soundscape/repository"
	"soundscape/store/memstore"
)

// fakeAudioStore satisfies AudioStore without a bucket behind it.
type fakeAudioStore struct {
	objects map[string][]byte
	removed []string
}

func newFakeAudioStore() *fakeAudioStore {
	return &fakeAudioStore{objects: map[string][]byte{}}
}

func (f *fakeAudioStore) Put(_ context.Context, reader io.Reader, _ int64, filename string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	url := "/audio/sounds/" + filename
	f.objects[url] = data
	return url, nil
}

func (f *fakeAudioStore) Remove(_ context.Context, audioURL string) error {
	delete(f.objects, audioURL)
	f.removed = append(f.removed, audioURL)
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T) (*mux.Router, *memstore.Store, *fakeAudioStore) {
	t.Helper()

	st := memstore.New()
	audio := newFakeAudioStore()
	cfg := &config.Config{
		FrontendURL:            "http://localhost:3000",
		AllowedAudioExtensions: []string{"mp3", "wav", "ogg"},
		MaxUploadMB:            10,
	}

	repo := repository.NewSoundRepository(st)
	searchEngine := search.NewEngine(st)
	sounds := NewSoundHandler(repo, searchEngine, audio, nil, cfg)
	stats := NewAnalyticsHandler(
		analytics.NewEngine(st, nil),
		searchEngine,
		recommend.NewEngine(st),
	)
	return NewRouter(sounds, stats, cfg), st, audio
}

func seedSound(t *testing.T, st *memstore.Store, doc *model.SoundDocument) string {
	t.Helper()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	id, err := st.Insert(context.Background(), doc)
	require.NoError(t, err)
	return id
}

func do(t *testing.T, router http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func multipartSound(t *testing.T, fields map[string]string, lists map[string][]string, filename string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if filename != "" {
		part, err := writer.CreateFormFile("audio", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("not really audio"))
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for key, values := range lists {
		for _, value := range values {
			require.NoError(t, writer.WriteField(key, value))
		}
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestHealthEndpoint(t *testing.T) {
	router, _, _ := newTestServer(t)

	rec, env := do(t, router, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestCreateAndFetchSound(t *testing.T) {
	router, _, audio := newTestServer(t)

	body, contentType := multipartSound(t, map[string]string{
		"name":      "Lluvia en Bogotá",
		"longitude": "-74.0721",
		"latitude":  "4.7110",
		"author":    "María Rodríguez",
	}, map[string][]string{
		"emotions": {"relajante", "melancólico"},
		"tags":     {"clima"},
	}, "lluvia.mp3")

	req := httptest.NewRequest(http.MethodPost, "/api/sounds", body)
	req.Header.Set("Content-Type", contentType)
	rec, env := do(t, router, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.True(t, env.Success)

	var created map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotEmpty(t, created["id"])
	assert.Contains(t, audio.objects, "/audio/sounds/lluvia.mp3")

	rec, env = do(t, router, httptest.NewRequest(http.MethodGet, "/api/sounds/"+created["id"], nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched model.SoundDocument
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.Equal(t, "Lluvia en Bogotá", fetched.Name)
	assert.Equal(t, []string{"relajante", "melancólico"}, fetched.Emotions)
	assert.Equal(t, "/audio/sounds/lluvia.mp3", fetched.AudioURL)
	assert.InDelta(t, -74.0721, fetched.Location.Longitude(), 1e-9)
}

func TestCreateRejectsDisallowedExtension(t *testing.T) {
	router, _, audio := newTestServer(t)

	body, contentType := multipartSound(t, map[string]string{
		"name": "virus", "longitude": "0", "latitude": "0",
	}, nil, "payload.exe")

	req := httptest.NewRequest(http.MethodPost, "/api/sounds", body)
	req.Header.Set("Content-Type", contentType)
	rec, env := do(t, router, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Empty(t, audio.objects)
}

func TestCreateRemovesOrphanedAudioOnValidationFailure(t *testing.T) {
	router, _, audio := newTestServer(t)

	// Missing name fails validation after the upload already happened.
	body, contentType := multipartSound(t, map[string]string{
		"longitude": "-74.0721",
		"latitude":  "4.7110",
	}, nil, "huérfano.mp3")

	req := httptest.NewRequest(http.MethodPost, "/api/sounds", body)
	req.Header.Set("Content-Type", contentType)
	rec, _ := do(t, router, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, audio.removed, "/audio/sounds/huérfano.mp3")
	assert.Empty(t, audio.objects)
}

func TestCreateRequiresAudioFile(t *testing.T) {
	router, _, _ := newTestServer(t)

	body, contentType := multipartSound(t, map[string]string{
		"name": "sin audio", "longitude": "0", "latitude": "0",
	}, nil, "")

	req := httptest.NewRequest(http.MethodPost, "/api/sounds", body)
	req.Header.Set("Content-Type", contentType)
	rec, _ := do(t, router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSounds(t *testing.T) {
	router, st, _ := newTestServer(t)
	seedSound(t, st, &model.SoundDocument{Name: "uno"})
	seedSound(t, st, &model.SoundDocument{Name: "dos"})

	rec, env := do(t, router, httptest.NewRequest(http.MethodGet, "/api/sounds", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.Count)
	assert.Equal(t, 2, *env.Count)
}

func TestListSoundsByEmotion(t *testing.T) {
	router, st, _ := newTestServer(t)
	seedSound(t, st, &model.SoundDocument{Name: "calma", Emotions: []string{"relajante"}})
	seedSound(t, st, &model.SoundDocument{Name: "caos", Emotions: []string{"estresante"}})

	rec, env := do(t, router, httptest.NewRequest(http.MethodGet, "/api/sounds?emotion=relajante", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var docs []model.SoundDocument
	require.NoError(t, json.Unmarshal(env.Data, &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "calma", docs[0].Name)
}

func TestListSoundsNear(t *testing.T) {
	router, st, _ := newTestServer(t)
	seedSound(t, st, &model.SoundDocument{Name: "centro", Location: model.NewGeoPoint(-74.0721, 4.7110)})
	seedSound(t, st, &model.SoundDocument{Name: "cartagena", Location: model.NewGeoPoint(-75.5518, 10.3997)})

	url := "/api/sounds?lat=4.7110&lng=-74.0721&radius=50"
	rec, env := do(t, router, httptest.NewRequest(http.MethodGet, url, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var docs []model.SoundDocument
	require.NoError(t, json.Unmarshal(env.Data, &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "centro", docs[0].Name)
	assert.Greater(t, docs[0].DistanceMeters, 0.0)
}

func TestListSoundsRejectsBadCoordinates(t *testing.T) {
	router, _, _ := newTestServer(t)

	rec, _ := do(t, router, httptest.NewRequest(http.MethodGet, "/api/sounds?lat=abc&lng=-74", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSoundNotFound(t *testing.T) {
	router, _, _ := newTestServer(t)

	for _, id := range []string{"000000000000000000000000", "not-a-hex-id"} {
		rec, env := do(t, router, httptest.NewRequest(http.MethodGet, "/api/sounds/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
		assert.False(t, env.Success)
	}
}

func TestUpdateSound(t *testing.T) {
	router, st, _ := newTestServer(t)
	id := seedSound(t, st, &model.SoundDocument{Name: "antes"})

	req := httptest.NewRequest(http.MethodPut, "/api/sounds/"+id,
		strings.NewReader(`{"name":"después"}`))
	rec, env := do(t, router, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	doc, err := st.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "después", doc.Name)
}

func TestUpdateSoundMissingID(t *testing.T) {
	router, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPut, "/api/sounds/000000000000000000000000",
		strings.NewReader(`{"name":"x"}`))
	rec, _ := do(t, router, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateSoundEmptyBody(t *testing.T) {
	router, st, _ := newTestServer(t)
	id := seedSound(t, st, &model.SoundDocument{Name: "intacto"})

	req := httptest.NewRequest(http.MethodPut, "/api/sounds/"+id, strings.NewReader(`{}`))
	rec, _ := do(t, router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddTag(t *testing.T) {
	router, st, _ := newTestServer(t)
	id := seedSound(t, st, &model.SoundDocument{Name: "sonido"})

	req := httptest.NewRequest(http.MethodPost, "/api/sounds/"+id+"/tags",
		strings.NewReader(`{"tag":"urbano"}`))
	rec, _ := do(t, router, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Adding the same tag again changes nothing.
	req = httptest.NewRequest(http.MethodPost, "/api/sounds/"+id+"/tags",
		strings.NewReader(`{"tag":"urbano"}`))
	rec, _ = do(t, router, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	doc, err := st.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []string{"urbano"}, doc.Tags)
}

func TestAddTagRequiresValue(t *testing.T) {
	router, st, _ := newTestServer(t)
	id := seedSound(t, st, &model.SoundDocument{Name: "sonido"})

	req := httptest.NewRequest(http.MethodPost, "/api/sounds/"+id+"/tags",
		strings.NewReader(`{}`))
	rec, _ := do(t, router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteSound(t *testing.T) {
	router, st, audio := newTestServer(t)
	audio.objects["/audio/sounds/adios.mp3"] = []byte("x")
	id := seedSound(t, st, &model.SoundDocument{Name: "adios", AudioURL: "/audio/sounds/adios.mp3"})

	rec, env := do(t, router, httptest.NewRequest(http.MethodDelete, "/api/sounds/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Contains(t, audio.removed, "/audio/sounds/adios.mp3")

	rec, _ = do(t, router, httptest.NewRequest(http.MethodGet, "/api/sounds/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSoundNotFound(t *testing.T) {
	router, _, _ := newTestServer(t)

	rec, _ := do(t, router, httptest.NewRequest(http.MethodDelete, "/api/sounds/000000000000000000000000", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyticsEmotionsEndpoint(t *testing.T) {
	router, st, _ := newTestServer(t)
	seedSound(t, st, &model.SoundDocument{Name: "uno", Emotions: []string{"relajante"}})
	seedSound(t, st, &model.SoundDocument{Name: "dos", Emotions: []string{"relajante", "alegre"}})

	rec, env := do(t, router, httptest.NewRequest(http.MethodGet, "/api/analytics/emotions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var patterns []analytics.EmotionPattern
	require.NoError(t, json.Unmarshal(env.Data, &patterns))
	require.Len(t, patterns, 2)
	assert.Equal(t, "relajante", patterns[0].Emotion)
	assert.Equal(t, 2, patterns[0].Count)
}

func TestAnalyticsTimelineEndpoint(t *testing.T) {
	router, st, _ := newTestServer(t)
	seedSound(t, st, &model.SoundDocument{
		Name:      "uno",
		CreatedAt: time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC),
	})

	rec, env := do(t, router, httptest.NewRequest(http.MethodGet, "/api/analytics/timeline", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []analytics.TimelineEntry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Count)
}

func TestSearchEndpoint(t *testing.T) {
	router, st, _ := newTestServer(t)
	seedSound(t, st, &model.SoundDocument{Name: "Lluvia en Bogotá", Emotions: []string{"relajante"}})
	seedSound(t, st, &model.SoundDocument{Name: "Tráfico", Emotions: []string{"estresante"}})

	rec, env := do(t, router, httptest.NewRequest(http.MethodGet, "/api/analytics/search?q=lluvia&emotion=relajante", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)

	var docs []model.SoundDocument
	require.NoError(t, json.Unmarshal(env.Data, &docs))
	assert.Equal(t, "Lluvia en Bogotá", docs[0].Name)
}

func TestRecommendationsEndpoint(t *testing.T) {
	router, st, _ := newTestServer(t)
	refID := seedSound(t, st, &model.SoundDocument{Name: "ref", Emotions: []string{"relajante"}})
	seedSound(t, st, &model.SoundDocument{Name: "parecido", Emotions: []string{"relajante"}})
	seedSound(t, st, &model.SoundDocument{Name: "ajeno", Emotions: []string{"estresante"}})

	url := fmt.Sprintf("/api/analytics/recommendations/%s", refID)
	rec, env := do(t, router, httptest.NewRequest(http.MethodGet, url, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var scored []recommend.ScoredSound
	require.NoError(t, json.Unmarshal(env.Data, &scored))
	require.Len(t, scored, 1)
	assert.Equal(t, "parecido", scored[0].Name)
	assert.Equal(t, 1, scored[0].Score)
}

func TestRecommendationsMissingReference(t *testing.T) {
	router, _, _ := newTestServer(t)

	rec, _ := do(t, router, httptest.NewRequest(http.MethodGet, "/api/analytics/recommendations/000000000000000000000000", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	router, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/sounds", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
