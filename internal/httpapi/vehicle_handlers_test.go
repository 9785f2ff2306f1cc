package httpapi

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"larrosacamiones.com/internal/vehicles"
)

func TestListVehiclesPublic(t *testing.T) {
	env := newTestEnv(t)
	env.addVehicle(t, "Volvo", "FH 500", "available", true)
	env.addVehicle(t, "Scania", "R450", "available", false)
	env.addVehicle(t, "MAN", "TGX", "sold", false)

	rec := env.do(t, http.MethodGet, "/api/v1/vehicles", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp vehicleListResponse
	decodeBody(t, rec, &resp)
	if resp.Total != 3 || len(resp.Vehicles) != 3 {
		t.Fatalf("expected 3 vehicles, got total=%d len=%d", resp.Total, len(resp.Vehicles))
	}
	if resp.Page != 1 || resp.Size != 20 || resp.Pages != 1 {
		t.Fatalf("unexpected pagination metadata: %+v", resp)
	}
}

func TestListVehiclesFilters(t *testing.T) {
	env := newTestEnv(t)
	env.addVehicle(t, "Volvo", "FH 500", "available", true)
	env.addVehicle(t, "Scania", "R450", "available", false)
	env.addVehicle(t, "MAN", "TGX", "sold", false)

	cases := []struct {
		query string
		want  int64
	}{
		{"?brand=Volvo", 1},
		{"?status=available", 2},
		{"?featured=true", 1},
		{"?search=r450", 1},
		{"?brand=Iveco", 0},
	}
	for _, tc := range cases {
		rec := env.do(t, http.MethodGet, "/api/v1/vehicles"+tc.query, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tc.query, rec.Code)
		}
		var resp vehicleListResponse
		decodeBody(t, rec, &resp)
		if resp.Total != tc.want {
			t.Errorf("%s: expected total %d, got %d", tc.query, tc.want, resp.Total)
		}
	}

	if rec := env.do(t, http.MethodGet, "/api/v1/vehicles?year_min=nope", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad year_min: expected 400, got %d", rec.Code)
	}
}

func TestListVehiclesPagination(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 5; i++ {
		env.addVehicle(t, "Volvo", fmt.Sprintf("FH %d", i), "available", false)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/vehicles?page=2&size=2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp vehicleListResponse
	decodeBody(t, rec, &resp)
	if resp.Total != 5 || len(resp.Vehicles) != 2 || resp.Pages != 3 {
		t.Fatalf("unexpected page: total=%d len=%d pages=%d", resp.Total, len(resp.Vehicles), resp.Pages)
	}
}

func TestFeaturedVehicles(t *testing.T) {
	env := newTestEnv(t)
	env.addVehicle(t, "Volvo", "FH 500", "available", true)
	env.addVehicle(t, "Scania", "R450", "sold", true)
	env.addVehicle(t, "MAN", "TGX", "available", false)

	rec := env.do(t, http.MethodGet, "/api/v1/vehicles/featured", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var items []vehicles.Vehicle
	decodeBody(t, rec, &items)
	if len(items) != 1 || items[0].Brand != "Volvo" {
		t.Fatalf("expected only the available featured vehicle, got %+v", items)
	}
}

func TestVehicleStats(t *testing.T) {
	env := newTestEnv(t)
	env.addVehicle(t, "Volvo", "FH 500", "available", true)
	env.addVehicle(t, "Scania", "R450", "sold", false)

	rec := env.do(t, http.MethodGet, "/api/v1/vehicles/stats", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var st vehicles.Stats
	decodeBody(t, rec, &st)
	if st.Total != 2 || st.Available != 1 || st.Sold != 1 || st.Featured != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestGetVehicle(t *testing.T) {
	env := newTestEnv(t)
	v := env.addVehicle(t, "Volvo", "FH 500", "available", false)

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/vehicles/%d", v.ID), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got vehicles.Vehicle
	decodeBody(t, rec, &got)
	if got.FullName != "Volvo FH 500" {
		t.Fatalf("unexpected vehicle: %+v", got)
	}

	if rec := env.do(t, http.MethodGet, "/api/v1/vehicles/999", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing id: expected 404, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/vehicles/abc", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("bad id: expected 404, got %d", rec.Code)
	}
}

func TestCreateVehicleAuthz(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "ana", "correct-horse", true, false)

	body := map[string]any{"brand": "Volvo", "model": "FH 500", "type": "tractor", "type_name": "Tractora", "year": 2021}
	if rec := env.do(t, http.MethodPost, "/api/v1/vehicles", "", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/vehicles", env.tokenFor(t, "ana"), body); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", rec.Code)
	}
}

func TestCreateVehicle(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "boss", "correct-horse", true, true)
	token := env.tokenFor(t, "boss")

	rec := env.do(t, http.MethodPost, "/api/v1/vehicles", token, map[string]any{
		"brand": "Volvo", "model": "FH 500", "type": "tractor", "type_name": "Tractora", "year": 2021,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created vehicles.Vehicle
	decodeBody(t, rec, &created)
	if created.ID == 0 || created.Status != "available" {
		t.Fatalf("unexpected created vehicle: %+v", created)
	}
	if created.CreatedBy == nil || *created.CreatedBy != admin.ID {
		t.Fatalf("created_by not attributed: %+v", created.CreatedBy)
	}

	bad := env.do(t, http.MethodPost, "/api/v1/vehicles", token, map[string]any{
		"model": "no brand",
	})
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("invalid input: expected 400, got %d", bad.Code)
	}
}

func TestUpdateVehicle(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "boss", "correct-horse", true, true)
	token := env.tokenFor(t, "boss")
	v := env.addVehicle(t, "Volvo", "FH 500", "available", false)

	rec := env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/vehicles/%d", v.ID), token, map[string]any{
		"status": "reserved", "price": 59900.0,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got vehicles.Vehicle
	decodeBody(t, rec, &got)
	if got.Status != "reserved" || got.Price == nil || *got.Price != 59900 {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.Brand != "Volvo" {
		t.Fatalf("untouched field changed: %+v", got)
	}

	if rec := env.do(t, http.MethodPut, "/api/v1/vehicles/999", token, map[string]any{"status": "sold"}); rec.Code != http.StatusNotFound {
		t.Fatalf("missing id: expected 404, got %d", rec.Code)
	}
}

func TestDeleteVehicle(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "boss", "correct-horse", true, true)
	token := env.tokenFor(t, "boss")
	v := env.addVehicle(t, "Volvo", "FH 500", "available", false)

	rec := env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/vehicles/%d", v.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/vehicles/%d", v.ID), "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("deleted vehicle still visible: %d", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/vehicles/%d", v.ID), token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("double delete: expected 404, got %d", rec.Code)
	}
}

func TestToggleFeatured(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "boss", "correct-horse", true, true)
	token := env.tokenFor(t, "boss")
	v := env.addVehicle(t, "Volvo", "FH 500", "available", false)

	path := fmt.Sprintf("/api/v1/vehicles/%d/toggle-featured", v.ID)
	rec := env.do(t, http.MethodPatch, path, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got vehicles.Vehicle
	decodeBody(t, rec, &got)
	if !got.IsFeatured {
		t.Fatal("expected is_featured to flip to true")
	}

	rec = env.do(t, http.MethodPatch, path, token, nil)
	decodeBody(t, rec, &got)
	if got.IsFeatured {
		t.Fatal("expected is_featured to flip back to false")
	}
}

func TestAdminListVehicles(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "ana", "correct-horse", true, false)
	env.addUser(t, "boss", "correct-horse", true, true)
	env.addVehicle(t, "Volvo", "FH 500", "available", false)

	if rec := env.do(t, http.MethodGet, "/api/v1/vehicles/admin/all", env.tokenFor(t, "ana"), nil); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", rec.Code)
	}
	rec := env.do(t, http.MethodGet, "/api/v1/vehicles/admin/all", env.tokenFor(t, "boss"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", rec.Code)
	}
	var resp vehicleListResponse
	decodeBody(t, rec, &resp)
	if resp.Total != 1 {
		t.Fatalf("expected 1 vehicle, got %d", resp.Total)
	}
}

func TestDashboardStats(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "boss", "correct-horse", true, true)
	env.addVehicle(t, "Volvo", "FH 500", "available", true)
	env.addVehicle(t, "Scania", "R450", "sold", false)

	rec := env.do(t, http.MethodGet, "/api/v1/admin/dashboard-stats", env.tokenFor(t, "boss"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp dashboardResponse
	decodeBody(t, rec, &resp)
	if resp.Stats.Total != 2 {
		t.Fatalf("unexpected stats: %+v", resp.Stats)
	}
	if len(resp.RecentVehicles) != 2 {
		t.Fatalf("expected 2 recent vehicles, got %d", len(resp.RecentVehicles))
	}
}

func TestUploadVehicleImages(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "boss", "correct-horse", true, true)
	token := env.tokenFor(t, "boss")
	v := env.addVehicle(t, "Volvo", "FH 500", "available", false)

	body, contentType := multipartImages(t, "front.jpg", testJPEG(t))
	rec := env.doMultipart(t, fmt.Sprintf("/api/v1/vehicles/%d/images", v.ID), token, body, contentType)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Uploaded int              `json:"uploaded"`
		Images   []vehicles.Image `json:"images"`
	}
	decodeBody(t, rec, &resp)
	if resp.Uploaded != 1 || len(resp.Images) != 1 {
		t.Fatalf("unexpected upload response: %+v", resp)
	}
	if !resp.Images[0].IsPrimary {
		t.Fatal("first image must be primary")
	}

	// The image now rides along on the vehicle detail.
	detail := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/vehicles/%d", v.ID), "", nil)
	var got vehicles.Vehicle
	decodeBody(t, detail, &got)
	if len(got.Images) != 1 {
		t.Fatalf("expected 1 attached image, got %d", len(got.Images))
	}
}

func TestUploadVehicleImagesErrors(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "boss", "correct-horse", true, true)
	token := env.tokenFor(t, "boss")
	v := env.addVehicle(t, "Volvo", "FH 500", "available", false)

	body, contentType := multipartImages(t, "front.jpg", testJPEG(t))
	rec := env.doMultipart(t, "/api/v1/vehicles/999/images", token, body, contentType)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown vehicle: expected 404, got %d", rec.Code)
	}

	var empty bytes.Buffer
	mw := multipart.NewWriter(&empty)
	_ = mw.Close()
	rec = env.doMultipart(t, fmt.Sprintf("/api/v1/vehicles/%d/images", v.ID), token, &empty, mw.FormDataContentType())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("no files: expected 400, got %d", rec.Code)
	}
}

func TestDeleteVehicleImage(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "boss", "correct-horse", true, true)
	token := env.tokenFor(t, "boss")
	v := env.addVehicle(t, "Volvo", "FH 500", "available", false)

	body, contentType := multipartImages(t, "front.jpg", testJPEG(t))
	rec := env.doMultipart(t, fmt.Sprintf("/api/v1/vehicles/%d/images", v.ID), token, body, contentType)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed upload failed: %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Images []vehicles.Image `json:"images"`
	}
	decodeBody(t, rec, &resp)

	path := fmt.Sprintf("/api/v1/vehicles/images/%d", resp.Images[0].ID)
	if rec := env.do(t, http.MethodDelete, path, token, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, path, token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rec.Code)
	}
}

// doMultipart mirrors do for multipart bodies.
func (e *testEnv) doMultipart(t *testing.T, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body.Bytes()))
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func multipartImages(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, filename))
	hdr.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 8), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}
