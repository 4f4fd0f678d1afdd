package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"teleplay/internal/domain"
	"teleplay/internal/transfer"
)

// ---- fake download index ----

type fakeDownloadIndex struct {
	records   []domain.DownloadRecord
	deleted   []string
	listErr   error
	deleteErr error
}

func (f *fakeDownloadIndex) ListAll(_ context.Context) ([]domain.DownloadRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

func (f *fakeDownloadIndex) Lookup(_ context.Context, title string) (domain.DownloadRecord, bool) {
	for _, record := range f.records {
		if record.Title == title {
			return record, true
		}
	}
	return domain.DownloadRecord{}, false
}

func (f *fakeDownloadIndex) Delete(_ context.Context, location string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, location)
	return nil
}

// ---- fake transfer controller ----

type fakeTransferController struct {
	state     domain.TransferState
	startErr  error
	cancelErr error
	started   []string
	cancels   int
}

func (f *fakeTransferController) Start(_ context.Context, source, title string, _ transfer.ProgressFunc) (domain.TransferState, error) {
	if f.startErr != nil {
		return domain.TransferState{}, f.startErr
	}
	f.started = append(f.started, source)
	return domain.TransferState{
		ID:        "session-1",
		Title:     title,
		Source:    source,
		Status:    domain.TransferActive,
		StartedAt: time.Now(),
	}, nil
}

func (f *fakeTransferController) Cancel() error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancels++
	return nil
}

func (f *fakeTransferController) State() domain.TransferState {
	return f.state
}

func makeDownloadServer(index DownloadIndex, ctrl TransferController) *Server {
	var opts []ServerOption
	if index != nil {
		opts = append(opts, WithDownloads(index))
	}
	if ctrl != nil {
		opts = append(opts, WithTransfers(ctrl))
	}
	return NewServer(opts...)
}

// ---- Tests: GET /downloads ----

func TestListDownloads_ReturnsRecords(t *testing.T) {
	index := &fakeDownloadIndex{records: []domain.DownloadRecord{
		{Title: "Movie One", Location: "/data/Movie_One.mp4"},
		{Title: "Movie Two", Location: "/data/Movie_Two.mp4"},
	}}
	s := makeDownloadServer(index, nil)

	rec := doRequest(s, http.MethodGet, "/downloads", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var records []domain.DownloadRecord
	if err := json.NewDecoder(rec.Body).Decode(&records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Location != "/data/Movie_One.mp4" {
		t.Errorf("unexpected location %q", records[0].Location)
	}
}

func TestListDownloads_IndexError(t *testing.T) {
	index := &fakeDownloadIndex{listErr: errors.New("db down")}
	s := makeDownloadServer(index, nil)

	rec := doRequest(s, http.MethodGet, "/downloads", nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestListDownloads_NotConfigured(t *testing.T) {
	s := makeDownloadServer(nil, nil)

	rec := doRequest(s, http.MethodGet, "/downloads", nil)

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}
}

// ---- Tests: POST /downloads (start) ----

func TestStartDownload_Accepted(t *testing.T) {
	index := &fakeDownloadIndex{}
	ctrl := &fakeTransferController{}
	s := makeDownloadServer(index, ctrl)

	body, _ := json.Marshal(map[string]string{
		"source": "http://cdn.example.com/movie.mp4",
		"title":  "My Movie",
	})
	rec := doRequest(s, http.MethodPost, "/downloads", body)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var state domain.TransferState
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Status != domain.TransferActive {
		t.Errorf("expected active status, got %q", state.Status)
	}
	if len(ctrl.started) != 1 {
		t.Fatalf("expected 1 start, got %d", len(ctrl.started))
	}
}

func TestStartDownload_Busy(t *testing.T) {
	index := &fakeDownloadIndex{}
	ctrl := &fakeTransferController{startErr: transfer.ErrBusy}
	s := makeDownloadServer(index, ctrl)

	body, _ := json.Marshal(map[string]string{"source": "http://cdn.example.com/movie.mp4"})
	rec := doRequest(s, http.MethodPost, "/downloads", body)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestStartDownload_MissingSource(t *testing.T) {
	index := &fakeDownloadIndex{}
	ctrl := &fakeTransferController{}
	s := makeDownloadServer(index, ctrl)

	body, _ := json.Marshal(map[string]string{"title": "No Source"})
	rec := doRequest(s, http.MethodPost, "/downloads", body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(ctrl.started) != 0 {
		t.Fatalf("controller should not have been called")
	}
}

func TestStartDownload_InvalidJSON(t *testing.T) {
	index := &fakeDownloadIndex{}
	ctrl := &fakeTransferController{}
	s := makeDownloadServer(index, ctrl)

	rec := doRequest(s, http.MethodPost, "/downloads", []byte("not json"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// ---- Tests: DELETE /downloads?uri= ----

func TestDeleteDownload_Success(t *testing.T) {
	index := &fakeDownloadIndex{}
	s := makeDownloadServer(index, nil)

	rec := doRequest(s, http.MethodDelete, "/downloads?uri=/data/Movie_One.mp4", nil)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(index.deleted) != 1 || index.deleted[0] != "/data/Movie_One.mp4" {
		t.Fatalf("expected delete of location, got %v", index.deleted)
	}
}

func TestDeleteDownload_MissingURI(t *testing.T) {
	index := &fakeDownloadIndex{}
	s := makeDownloadServer(index, nil)

	rec := doRequest(s, http.MethodDelete, "/downloads", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDeleteDownload_IndexError(t *testing.T) {
	index := &fakeDownloadIndex{deleteErr: errors.New("file locked")}
	s := makeDownloadServer(index, nil)

	rec := doRequest(s, http.MethodDelete, "/downloads?uri=/data/Movie_One.mp4", nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

// ---- Tests: POST /downloads/cancel ----

func TestCancelDownload_Success(t *testing.T) {
	ctrl := &fakeTransferController{}
	s := makeDownloadServer(&fakeDownloadIndex{}, ctrl)

	rec := doRequest(s, http.MethodPost, "/downloads/cancel", nil)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if ctrl.cancels != 1 {
		t.Fatalf("expected 1 cancel, got %d", ctrl.cancels)
	}
}

func TestCancelDownload_NoneActive(t *testing.T) {
	ctrl := &fakeTransferController{cancelErr: transfer.ErrNoActiveTransfer}
	s := makeDownloadServer(&fakeDownloadIndex{}, ctrl)

	rec := doRequest(s, http.MethodPost, "/downloads/cancel", nil)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestCancelDownload_MethodNotAllowed(t *testing.T) {
	ctrl := &fakeTransferController{}
	s := makeDownloadServer(&fakeDownloadIndex{}, ctrl)

	rec := doRequest(s, http.MethodGet, "/downloads/cancel", nil)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

// ---- Tests: GET /downloads/active ----

func TestActiveDownload_ReturnsState(t *testing.T) {
	ctrl := &fakeTransferController{state: domain.TransferState{
		ID:       "session-1",
		Title:    "My Movie",
		Status:   domain.TransferActive,
		Progress: 0.42,
	}}
	s := makeDownloadServer(&fakeDownloadIndex{}, ctrl)

	rec := doRequest(s, http.MethodGet, "/downloads/active", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var state domain.TransferState
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Progress != 0.42 {
		t.Errorf("expected progress 0.42, got %f", state.Progress)
	}
}

func TestActiveDownload_IdleState(t *testing.T) {
	ctrl := &fakeTransferController{state: domain.TransferState{Status: domain.TransferIdle}}
	s := makeDownloadServer(&fakeDownloadIndex{}, ctrl)

	rec := doRequest(s, http.MethodGet, "/downloads/active", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var state domain.TransferState
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Status != domain.TransferIdle {
		t.Errorf("expected idle, got %q", state.Status)
	}
}
