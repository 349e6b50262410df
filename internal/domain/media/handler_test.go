package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/motorline/media-api/internal/middleware"
)

func testActor(next http.Handler) http.Handler {
	return actorWithRole("user-1", "admin")(next)
}

func actorWithRole(id, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.ActorIDKey, id)
			ctx = context.WithValue(ctx, middleware.RoleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *Service) {
	t.Helper()
	svc, _, _ := newTestService(t, Config{})
	handler := NewHandler(svc, 10*1024*1024)
	ts := httptest.NewServer(handler.Routes(testActor))
	t.Cleanup(ts.Close)
	return ts, svc
}

func multipartUpload(t *testing.T, file File, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", file.Name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestHandlerIngest(t *testing.T) {
	ts, _ := newTestServer(t)

	body, contentType := multipartUpload(t, jpegFile(t, "car.jpg", 400, 300), map[string]string{
		"category":   "vehicle",
		"entity_id":  "car-42",
		"tags":       "sedan, red",
		"thumbnails": "true",
	})
	resp, err := http.Post(ts.URL+"/", contentType, body)
	if err != nil {
		t.Fatalf("POST /: %v", err)
	}
	env := decodeEnvelope(t, resp)

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var asset Asset
	if err := json.Unmarshal(env.Data, &asset); err != nil {
		t.Fatalf("decode asset: %v", err)
	}
	if asset.Category != CategoryVehicle || asset.EntityID != "car-42" {
		t.Errorf("asset = %+v", asset)
	}
	if asset.UploadedBy != "user-1" {
		t.Errorf("UploadedBy = %q, want actor from context", asset.UploadedBy)
	}
}

func TestHandlerIngestValidation(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name   string
		fields map[string]string
		status int
	}{
		{"missing category", map[string]string{}, http.StatusUnprocessableEntity},
		{"unknown category", map[string]string{"category": "spaceship"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartUpload(t, jpegFile(t, "a.jpg", 50, 50), tt.fields)
			resp, err := http.Post(ts.URL+"/", contentType, body)
			if err != nil {
				t.Fatalf("POST /: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

func TestHandlerIngestNoFile(t *testing.T) {
	ts, _ := newTestServer(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("category", "vehicle"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	writer.Close()

	resp, err := http.Post(ts.URL+"/", writer.FormDataContentType(), body)
	if err != nil {
		t.Fatalf("POST /: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandlerGetByID(t *testing.T) {
	ts, svc := newTestServer(t)

	asset, err := svc.Ingest(context.Background(), jpegFile(t, "car.jpg", 200, 150), IngestOptions{Category: CategoryVehicle})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	resp, err := http.Get(ts.URL + "/" + asset.ID)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/m0_missing")
	if err != nil {
		t.Fatalf("GET missing: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandlerList(t *testing.T) {
	ts, svc := newTestServer(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Ingest(ctx, jpegFile(t, fmt.Sprintf("f%d.jpg", i), 100, 100), IngestOptions{Category: CategoryVehicle}); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
	}

	resp, err := http.Get(ts.URL + "/?category=vehicle&limit=2")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var payload struct {
		Data []json.RawMessage `json:"data"`
		Meta struct {
			Total   int  `json:"total"`
			HasMore bool `json:"has_more"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Data) != 2 || payload.Meta.Total != 3 || !payload.Meta.HasMore {
		t.Errorf("got %d items, total %d, hasMore %v; want 2/3/true",
			len(payload.Data), payload.Meta.Total, payload.Meta.HasMore)
	}
}

func TestHandlerUpdate(t *testing.T) {
	ts, svc := newTestServer(t)

	asset, err := svc.Ingest(context.Background(), jpegFile(t, "car.jpg", 200, 150), IngestOptions{Category: CategoryVehicle})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	req, err := http.NewRequest(http.MethodPatch, ts.URL+"/"+asset.ID,
		strings.NewReader(`{"alt_text":"New alt","is_featured":true}`))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PATCH: %v", err)
	}
	env := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var updated Asset
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("decode asset: %v", err)
	}
	if updated.AltText != "New alt" || !updated.IsFeatured {
		t.Errorf("updated = %+v", updated)
	}
}

func TestHandlerDelete(t *testing.T) {
	ts, svc := newTestServer(t)

	asset, err := svc.Ingest(context.Background(), jpegFile(t, "car.jpg", 200, 150), IngestOptions{Category: CategoryVehicle})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/"+asset.ID, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}

	resp, err = http.DefaultClient.Do(req.Clone(context.Background()))
	if err != nil {
		t.Fatalf("second DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestHandlerStats(t *testing.T) {
	ts, svc := newTestServer(t)

	if _, err := svc.Ingest(context.Background(), jpegFile(t, "car.jpg", 200, 150), IngestOptions{Category: CategoryVehicle}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	resp, err := http.Get(ts.URL + "/stats")
	if err != nil {
		t.Fatalf("GET /stats: %v", err)
	}
	env := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var stats Stats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalAssets != 1 || stats.Storage.Total == 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestHandlerIngestFileTooLarge(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})
	handler := NewHandler(svc, 64)
	ts := httptest.NewServer(handler.Routes(testActor))
	t.Cleanup(ts.Close)

	body, contentType := multipartUpload(t, jpegFile(t, "car.jpg", 100, 100), map[string]string{
		"category": "vehicle",
	})
	resp, err := http.Post(ts.URL+"/", contentType, body)
	if err != nil {
		t.Fatalf("POST /: %v", err)
	}
	env := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "FILE_TOO_LARGE" {
		t.Errorf("error = %+v, want FILE_TOO_LARGE", env.Error)
	}
}

type memUpload struct{ *bytes.Reader }

func (memUpload) Close() error { return nil }

type brokenUpload struct{ err error }

func (u brokenUpload) Read([]byte) (int, error)          { return 0, u.err }
func (u brokenUpload) ReadAt([]byte, int64) (int, error) { return 0, u.err }
func (brokenUpload) Seek(int64, int) (int64, error)      { return 0, nil }
func (brokenUpload) Close() error                        { return nil }

func TestReadUpload(t *testing.T) {
	header := &multipart.FileHeader{Filename: "car.jpg"}

	t.Run("within limit", func(t *testing.T) {
		upload, err := readUpload(header, memUpload{bytes.NewReader(make([]byte, 10))}, 10)
		if err != nil {
			t.Fatalf("readUpload: %v", err)
		}
		if upload.Size != 10 {
			t.Errorf("Size = %d, want 10", upload.Size)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		_, err := readUpload(header, memUpload{bytes.NewReader(make([]byte, 11))}, 10)
		if !errors.Is(err, errUploadTooLarge) {
			t.Errorf("err = %v, want errUploadTooLarge", err)
		}
	})

	t.Run("read failure", func(t *testing.T) {
		readErr := errors.New("disk error")
		_, err := readUpload(header, brokenUpload{err: readErr}, 10)
		if err == nil || errors.Is(err, errUploadTooLarge) {
			t.Errorf("err = %v, want wrapped read error", err)
		}
		if !errors.Is(err, readErr) {
			t.Errorf("err = %v, want it to wrap %v", err, readErr)
		}
	})
}

func TestHandlerBulkReoptimizeRequiresAdmin(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})
	handler := NewHandler(svc, 10*1024*1024)

	editor := httptest.NewServer(handler.Routes(actorWithRole("user-2", "editor")))
	t.Cleanup(editor.Close)

	resp, err := http.Post(editor.URL+"/reoptimize?category=vehicle", "", nil)
	if err != nil {
		t.Fatalf("POST /reoptimize: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("editor status = %d, want 403", resp.StatusCode)
	}

	admin := httptest.NewServer(handler.Routes(testActor))
	t.Cleanup(admin.Close)

	resp, err = http.Post(admin.URL+"/reoptimize?category=vehicle", "", nil)
	if err != nil {
		t.Fatalf("POST /reoptimize: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("admin status = %d, want 200", resp.StatusCode)
	}
}

func TestHandlerQuotaStatus(t *testing.T) {
	svc, repo, _ := newTestService(t, Config{Quota: 100})
	repo.assets = append(repo.assets, &Asset{ID: "m1_full", Size: 100})
	handler := NewHandler(svc, 10*1024*1024)
	ts := httptest.NewServer(handler.Routes(testActor))
	t.Cleanup(ts.Close)

	body, contentType := multipartUpload(t, jpegFile(t, "car.jpg", 100, 100), map[string]string{
		"category": "vehicle",
	})
	resp, err := http.Post(ts.URL+"/", contentType, body)
	if err != nil {
		t.Fatalf("POST /: %v", err)
	}
	env := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusInsufficientStorage {
		t.Errorf("status = %d, want 507", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "QUOTA_EXCEEDED" {
		t.Errorf("error = %+v, want QUOTA_EXCEEDED", env.Error)
	}
}
