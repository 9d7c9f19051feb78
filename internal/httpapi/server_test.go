package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/janiceparkk/281-SmartCar-sub000/internal/models"
	"github.com/janiceparkk/281-SmartCar-sub000/internal/store"
)

type fakeProcessor struct {
	record  *models.AlertRecord
	err     error
	lastMsg *models.DetectionMessage
}

func (p *fakeProcessor) HandleDetection(ctx context.Context, msg *models.DetectionMessage) (*models.AlertRecord, error) {
	p.lastMsg = msg
	return p.record, p.err
}

type fakeAlerts struct {
	records map[string]*models.AlertRecord
}

func newFakeAlerts(records ...*models.AlertRecord) *fakeAlerts {
	f := &fakeAlerts{records: map[string]*models.AlertRecord{}}
	for _, r := range records {
		f.records[r.AlertID] = r
	}
	return f
}

func (f *fakeAlerts) GetByID(ctx context.Context, alertID string) (*models.AlertRecord, error) {
	r, ok := f.records[alertID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, alertID)
	}
	return r, nil
}

func (f *fakeAlerts) List(ctx context.Context, filter store.AlertFilter) ([]*models.AlertRecord, error) {
	var out []*models.AlertRecord
	for _, r := range f.records {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeAlerts) Acknowledge(ctx context.Context, alertID, assignedTo string) (*models.AlertRecord, error) {
	r, ok := f.records[alertID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, alertID)
	}
	if !r.Status.CanTransition(models.StatusAcknowledged) {
		return nil, fmt.Errorf("%w: alert %s: %s -> %s", store.ErrInvalidTransition, alertID, r.Status, models.StatusAcknowledged)
	}
	r.Status = models.StatusAcknowledged
	r.AssignedTo = assignedTo
	return r, nil
}

func (f *fakeAlerts) Resolve(ctx context.Context, alertID, notes string, falsePositive bool) (*models.AlertRecord, error) {
	r, ok := f.records[alertID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, alertID)
	}
	r.Status = models.StatusResolved
	r.ResolutionNotes = notes
	return r, nil
}

type fakeActive struct {
	ids map[string][]string
	err error
}

func (f *fakeActive) ActiveAlerts(ctx context.Context, carID string) ([]string, error) {
	return f.ids[carID], f.err
}

func sampleRecord() *models.AlertRecord {
	return &models.AlertRecord{
		AlertID:         "alert-1",
		CarID:           "car-1",
		AlertType:       models.AlertCollision,
		ConfidenceScore: 0.95,
		Severity:        models.SeverityCritical,
		Status:          models.StatusActive,
		CreatedAt:       time.Now().UTC(),
	}
}

func doRequest(s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.setupRouter().ServeHTTP(w, req)
	return w
}

func TestIngestDetection_Created(t *testing.T) {
	proc := &fakeProcessor{record: sampleRecord()}
	s := NewServer(proc, newFakeAlerts(), nil)

	w := doRequest(s, http.MethodPost, "/api/detections", map[string]interface{}{
		"car_id": "car-1",
		"primary": map[string]interface{}{
			"predicted_label": "car_crash", "confidence": 0.95, "model_name": "yamnet",
		},
		"secondary": map[string]interface{}{
			"predicted_label": "horn", "confidence": 0.4, "model_name": "panns",
		},
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotNil(t, proc.lastMsg)
	assert.Equal(t, "car-1", proc.lastMsg.CarID)

	var record models.AlertRecord
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, "alert-1", record.AlertID)
}

func TestIngestDetection_MissingCarID(t *testing.T) {
	s := NewServer(&fakeProcessor{}, newFakeAlerts(), nil)

	w := doRequest(s, http.MethodPost, "/api/detections", map[string]interface{}{
		"primary": map[string]interface{}{"predicted_label": "horn", "confidence": 0.5},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestDetection_ProcessorError(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("mongo down")}
	s := NewServer(proc, newFakeAlerts(), nil)

	w := doRequest(s, http.MethodPost, "/api/detections", map[string]interface{}{
		"car_id": "car-1",
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetAlert_NotFound(t *testing.T) {
	s := NewServer(&fakeProcessor{}, newFakeAlerts(), nil)

	w := doRequest(s, http.MethodGet, "/api/alerts/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAlerts(t *testing.T) {
	s := NewServer(&fakeProcessor{}, newFakeAlerts(sampleRecord()), nil)

	w := doRequest(s, http.MethodGet, "/api/alerts?severity=Critical", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alert-1")
}

func TestAcknowledgeAlert(t *testing.T) {
	s := NewServer(&fakeProcessor{}, newFakeAlerts(sampleRecord()), nil)

	w := doRequest(s, http.MethodPost, "/api/alerts/alert-1/acknowledge", map[string]interface{}{
		"assigned_to": "tech-7",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Acknowledged")
}

func TestAcknowledgeAlert_InvalidTransition(t *testing.T) {
	record := sampleRecord()
	record.Status = models.StatusResolved
	s := NewServer(&fakeProcessor{}, newFakeAlerts(record), nil)

	w := doRequest(s, http.MethodPost, "/api/alerts/alert-1/acknowledge", map[string]interface{}{
		"assigned_to": "tech-7",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestResolveAlert(t *testing.T) {
	s := NewServer(&fakeProcessor{}, newFakeAlerts(sampleRecord()), nil)

	w := doRequest(s, http.MethodPost, "/api/alerts/alert-1/resolve", map[string]interface{}{
		"notes": "false alarm from road work",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Resolved")
}

func TestActiveAlerts_ReturnsIDs(t *testing.T) {
	s := NewServer(&fakeProcessor{}, newFakeAlerts(), nil)
	s.SetActiveAlerts(&fakeActive{ids: map[string][]string{
		"car-1": {"alert-1", "alert-2"},
	}})

	w := doRequest(s, http.MethodGet, "/api/cars/car-1/alerts/active", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alert-1")
	assert.Contains(t, w.Body.String(), "alert-2")
	assert.Contains(t, w.Body.String(), `"count":2`)
}

func TestActiveAlerts_RouteAbsentWhenUnconfigured(t *testing.T) {
	s := NewServer(&fakeProcessor{}, newFakeAlerts(), nil)

	w := doRequest(s, http.MethodGet, "/api/cars/car-1/alerts/active", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusForStoreError_UnwrapsSentinels(t *testing.T) {
	assert.Equal(t, http.StatusNotFound,
		statusForStoreError(fmt.Errorf("%w: alert-9", store.ErrNotFound)))
	assert.Equal(t, http.StatusConflict,
		statusForStoreError(fmt.Errorf("%w: alert alert-9: Resolved -> Acknowledged", store.ErrInvalidTransition)))
	assert.Equal(t, http.StatusInternalServerError,
		statusForStoreError(errors.New("mongo down")))
}

func TestHealth_ReportsCheckFailures(t *testing.T) {
	s := NewServer(&fakeProcessor{}, newFakeAlerts(), nil)
	s.AddHealthCheck("mongo", func(ctx context.Context) error { return nil })
	s.AddHealthCheck("redis", func(ctx context.Context) error { return errors.New("connection refused") })

	w := doRequest(s, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unhealthy")
	assert.Contains(t, w.Body.String(), "connection refused")
}
