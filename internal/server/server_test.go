package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelens/carelens/constants"
	"github.com/carelens/carelens/internal/async"
	"github.com/carelens/carelens/internal/common"
	"github.com/carelens/carelens/internal/entity"
	"github.com/carelens/carelens/internal/export"
	"github.com/carelens/carelens/internal/repository"
	"github.com/carelens/carelens/internal/share"
	"github.com/carelens/carelens/internal/storage"
)

type recordingQueue struct {
	jobs []async.Job
}

func (r *recordingQueue) Enqueue(_ context.Context, job async.Job) error {
	r.jobs = append(r.jobs, job)
	return nil
}

type fixture struct {
	router *gin.Engine
	stores repository.Stores
	queue  *recordingQueue
	userID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.DiscardHandler)
	stores := repository.NewMemoryStores()
	queue := &recordingQueue{}
	cfg := &common.Config{MaxUploadBytes: 1 << 20, ShareTTL: time.Hour}

	srv := NewServer(
		logger, cfg, stores,
		storage.NewMemoryStore(),
		queue,
		share.NewService(stores, cfg.ShareTTL, logger),
		export.NewService(stores, logger),
	)
	return &fixture{
		router: srv.Router(),
		stores: stores,
		queue:  queue,
		userID: uuid.New(),
	}
}

func (f *fixture) do(t *testing.T, method, path string, body *bytes.Buffer, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("X-User-ID", f.userID.String())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func multipartFile(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, http.Header) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	header := http.Header{}
	header.Set("Content-Type", mw.FormDataContentType())
	return &buf, header
}

func TestUploadRequiresUserHeader(t *testing.T) {
	f := newFixture(t)
	body, header := multipartFile(t, "labs.pdf", "application/pdf", []byte("%PDF-1.4"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", body)
	req.Header = header
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadAcceptedAndEnqueued(t *testing.T) {
	f := newFixture(t)
	body, header := multipartFile(t, "labs.pdf", "application/pdf", []byte("%PDF-1.4 fake"))

	w := f.do(t, http.MethodPost, "/api/v1/reports", body, header)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var resp struct {
		ID     uuid.UUID              `json:"id"`
		Status constants.ReportStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, constants.StatusProcessing, resp.Status)

	rep, err := f.stores.Reports.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.Equal(t, f.userID, rep.UserID)
	assert.Equal(t, "labs.pdf", rep.FileName)
	assert.Equal(t, constants.StatusProcessing, rep.Status)
	assert.NotEmpty(t, rep.FileURL)

	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, resp.ID, f.queue.jobs[0].ReportID)
	assert.Equal(t, "application/pdf", f.queue.jobs[0].ContentType)
	assert.Equal(t, []byte("%PDF-1.4 fake"), f.queue.jobs[0].Data)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	f := newFixture(t)
	body, header := multipartFile(t, "notes.docx", "application/msword", []byte("word"))

	w := f.do(t, http.MethodPost, "/api/v1/reports", body, header)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Empty(t, f.queue.jobs)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	f := newFixture(t)
	body, header := multipartFile(t, "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 2<<20))

	w := f.do(t, http.MethodPost, "/api/v1/reports", body, header)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Empty(t, f.queue.jobs)
}

func TestGetReportScopedToOwner(t *testing.T) {
	f := newFixture(t)
	rep, err := f.stores.Reports.Create(context.Background(), &entity.Report{
		UserID: uuid.New(), // someone else
		Status: constants.StatusCompleted,
	})
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/v1/reports/"+rep.ID.String(), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetReport(t *testing.T) {
	f := newFixture(t)
	rep, err := f.stores.Reports.Create(context.Background(), &entity.Report{
		UserID:   f.userID,
		FileName: "labs.pdf",
		Status:   constants.StatusCompleted,
		Summary:  "all good",
	})
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/v1/reports/"+rep.ID.String(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got entity.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, rep.ID, got.ID)
	assert.Equal(t, "all good", got.Summary)
}

func TestSetMedicationActive(t *testing.T) {
	f := newFixture(t)
	med, err := f.stores.Medications.Create(context.Background(), &entity.Medication{
		UserID:   f.userID,
		Name:     "Metformin",
		IsActive: true,
	})
	require.NoError(t, err)

	body := bytes.NewBufferString(`{"is_active": false}`)
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	w := f.do(t, http.MethodPatch, "/api/v1/medications/"+med.ID.String(), body, header)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got entity.Medication
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.False(t, got.IsActive)
}

func TestSetMedicationActiveForeignUserCannotMutate(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	med, err := f.stores.Medications.Create(context.Background(), &entity.Medication{
		UserID:   owner,
		Name:     "Metformin",
		IsActive: true,
	})
	require.NoError(t, err)

	// f.userID is not the owner.
	body := bytes.NewBufferString(`{"is_active": false}`)
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	w := f.do(t, http.MethodPatch, "/api/v1/medications/"+med.ID.String(), body, header)
	assert.Equal(t, http.StatusNotFound, w.Code)

	meds, err := f.stores.Medications.ListByUser(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.True(t, meds[0].IsActive, "the owner's medication must be untouched")
}

func TestShareCreateAndPublicResolve(t *testing.T) {
	f := newFixture(t)
	_, err := f.stores.Timeline.Create(context.Background(), &entity.TimelineEntry{
		UserID:    f.userID,
		EventType: constants.EventLabResult,
		Title:     "Blood Test: labs.pdf",
	})
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, "/api/v1/share", nil, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Token string `json:"token"`
		URL   string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Token)

	// Resolution needs no user header: the token is the capability.
	req := httptest.NewRequest(http.MethodGet, created.URL, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var view share.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, f.userID, view.UserID)
	require.Len(t, view.Timeline, 1)
}

func TestResolveUnknownShareToken(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/shared/bogus", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportXLSX(t *testing.T) {
	f := newFixture(t)
	_, err := f.stores.Medications.Create(context.Background(), &entity.Medication{
		UserID:   f.userID,
		Name:     "Metformin",
		IsActive: true,
	})
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/v1/export/xlsx", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(w.Header().Get("Content-Disposition"), ".xlsx"))
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
