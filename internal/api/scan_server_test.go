package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/calscan/internal/logger"
	"github.com/samcharles93/calscan/pkg/lut"
)

// tableImage holds a 3x2 compact table at 0x10 surrounded by 0xff.
func tableImage() []byte {
	buf := bytes.Repeat([]byte{0xff}, 0x10)
	buf = append(buf,
		0x03, 0x02,
		0x01, 0x05, 0x09,
		0x00, 0xaa, 0xbb, 0xcc,
		0x02, 0xdd, 0xee, 0xef,
	)
	return append(buf, bytes.Repeat([]byte{0xff}, 0x10)...)
}

func newTestEcho(t *testing.T, defaults ScanDefaults) (*echo.Echo, *Server) {
	t.Helper()
	server := NewServer(NewScanStore(0), defaults, logger.Discard())
	n := 0
	server.newID = func() string {
		n++
		return fmt.Sprintf("scan-%d", n)
	}
	server.clock = func() time.Time { return time.Unix(1700000000+int64(n), 0) }
	e := echo.New()
	server.Register(e)
	return e, server
}

func do(t *testing.T, e *echo.Echo, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEOctetStream)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

func TestScanLifecycle(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t, ScanDefaults{})
	rec := do(t, e, http.MethodPost, "/v1/scans?name=fw.bin", bytes.NewReader(tableImage()))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status: got %d body=%s", rec.Code, rec.Body.String())
	}
	created := decode[ScanResponse](t, rec)
	if created.ScanID != "scan-1" || created.Object != "scan" || created.Input != "fw.bin" {
		t.Fatalf("unexpected scan: %+v", created)
	}
	if len(created.Tables) != 1 || created.Tables[0].Start != 0x10 || created.Tables[0].Size != 13 {
		t.Fatalf("tables: %+v", created.Tables)
	}

	rec = do(t, e, http.MethodGet, "/v1/scans/scan-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status: got %d", rec.Code)
	}
	if got := decode[ScanResponse](t, rec); len(got.Tables) != 1 || got.CreatedAt != created.CreatedAt {
		t.Fatalf("get: %+v", got)
	}

	rec = do(t, e, http.MethodGet, "/v1/scans/scan-1/lines", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("lines status: got %d", rec.Code)
	}
	if got, want := rec.Body.String(), "Valid Table! 0x10 0x1d 0xd 0x3 0x2\n"; got != want {
		t.Fatalf("lines: got %q want %q", got, want)
	}

	rec = do(t, e, http.MethodGet, "/v1/scans", nil)
	list := decode[ScanListResponse](t, rec)
	if len(list.Data) != 1 || list.Data[0].ID != "scan-1" || list.Data[0].Tables != 1 {
		t.Fatalf("list: %+v", list)
	}

	rec = do(t, e, http.MethodDelete, "/v1/scans/scan-1", nil)
	if rec.Code != http.StatusOK || !decode[DeleteScanResponse](t, rec).Deleted {
		t.Fatalf("delete: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, e, http.MethodGet, "/v1/scans/scan-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: got %d", rec.Code)
	}
}

func TestScanQueryOptions(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t, ScanDefaults{})

	rec := do(t, e, http.MethodPost, "/v1/scans?max=0x10", bytes.NewReader(tableImage()))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	if got := decode[ScanResponse](t, rec); len(got.Tables) != 0 || got.Limit != 0x10 {
		t.Fatalf("bounded scan should stop before the table: %+v", got)
	}

	rec = do(t, e, http.MethodPost, "/v1/scans?max=0x0", bytes.NewReader(tableImage()))
	if got := decode[ScanResponse](t, rec); len(got.Tables) != 0 || got.Stats.Examined != 0 {
		t.Fatalf("max=0x0 should examine nothing: %+v", got)
	}

	rec = do(t, e, http.MethodPost, "/v1/scans?variant=both&leniency=strict", bytes.NewReader(tableImage()))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[ScanResponse](t, rec)
	if len(got.Variants) != 2 || got.Leniency != lut.Strict.String() {
		t.Fatalf("options not applied: %+v", got)
	}
	// The Y-axis starts with a zero, which strict mode still accepts as the
	// first value.
	if len(got.Tables) != 1 {
		t.Fatalf("strict scan: %+v", got.Tables)
	}
}

func TestScanCompressedUpload(t *testing.T) {
	t.Parallel()

	var packed bytes.Buffer
	zw := gzip.NewWriter(&packed)
	if _, err := zw.Write(tableImage()); err != nil {
		t.Fatalf("gzip: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	e, _ := newTestEcho(t, ScanDefaults{})
	rec := do(t, e, http.MethodPost, "/v1/scans", bytes.NewReader(packed.Bytes()))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[ScanResponse](t, rec)
	if got.Compression != "gzip" || got.InputSize != len(tableImage()) || len(got.Tables) != 1 {
		t.Fatalf("compressed upload: %+v", got)
	}
}

func TestScanBadRequests(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t, ScanDefaults{MaxUpload: 16})
	tests := []struct {
		path   string
		body   []byte
		status int
	}{
		{"/v1/scans?max=100", tableImage()[:8], http.StatusBadRequest},
		{"/v1/scans?variant=wide", tableImage()[:8], http.StatusBadRequest},
		{"/v1/scans?leniency=loose", tableImage()[:8], http.StatusBadRequest},
		{"/v1/scans?max_axis=99", tableImage()[:8], http.StatusBadRequest},
		{"/v1/scans?raw=maybe", tableImage()[:8], http.StatusBadRequest},
		{"/v1/scans", nil, http.StatusBadRequest},
		{"/v1/scans", tableImage(), http.StatusRequestEntityTooLarge},
	}
	for _, tc := range tests {
		rec := do(t, e, http.MethodPost, tc.path, bytes.NewReader(tc.body))
		if rec.Code != tc.status {
			t.Errorf("%s: status %d want %d body=%s", tc.path, rec.Code, tc.status, rec.Body.String())
			continue
		}
		if !strings.Contains(rec.Body.String(), `"error"`) {
			t.Errorf("%s: expected error body, got %s", tc.path, rec.Body.String())
		}
	}

	rec := do(t, e, http.MethodPost, "/v1/scans?leniency=loose", bytes.NewReader(tableImage()))
	var body struct {
		Error ResponseError `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error.Param != "leniency" || body.Error.Type != "invalid_request_error" {
		t.Fatalf("error body: %+v", body.Error)
	}

	rec = do(t, e, http.MethodDelete, "/v1/scans/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete unknown: got %d", rec.Code)
	}
}

func TestScanStoreEviction(t *testing.T) {
	t.Parallel()

	s := NewScanStore(2)
	for i := 0; i < 3; i++ {
		s.Put(fmt.Sprintf("id-%d", i), &scanRecord{CreatedAt: time.Unix(int64(i), 0)})
	}
	if _, ok := s.Get("id-0"); ok {
		t.Fatal("oldest scan should have been evicted")
	}
	list := s.List()
	if len(list) != 2 || list[0].ID != "id-2" || list[1].ID != "id-1" {
		t.Fatalf("list order: %+v", list)
	}
	if !s.Delete("id-1") || s.Delete("id-1") {
		t.Fatal("delete should succeed exactly once")
	}
}

func TestInvalidRequestError(t *testing.T) {
	t.Parallel()

	err := newInvalidRequest("max", "missing 0x prefix")
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatal("expected ErrInvalidRequest in chain")
	}
	if err.Error() != "max: missing 0x prefix" {
		t.Fatalf("message: %q", err.Error())
	}
	if got := newInvalidRequest("", "bad").Error(); got != "bad" {
		t.Fatalf("message without param: %q", got)
	}
}

func TestScanStoreListOrderWithinOneSecond(t *testing.T) {
	t.Parallel()

	s := NewScanStore(0)
	at := time.Unix(1700000000, 0)
	for _, id := range []string{"b", "a", "c"} {
		s.Put(id, &scanRecord{CreatedAt: at})
	}
	list := s.List()
	if len(list) != 3 || list[0].ID != "c" || list[1].ID != "a" || list[2].ID != "b" {
		t.Fatalf("list should be newest first by insertion: %+v", list)
	}
}
