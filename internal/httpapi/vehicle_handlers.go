package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"larrosacamiones.com/internal/audit"
	"larrosacamiones.com/internal/cache"
	"larrosacamiones.com/internal/images"
	"larrosacamiones.com/internal/vehicles"
)

type vehicleListResponse struct {
	Vehicles []vehicles.Vehicle `json:"vehicles"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	Size     int                `json:"size"`
	Pages    int                `json:"pages"`
}

type dashboardResponse struct {
	Stats          vehicles.Stats     `json:"stats"`
	RecentVehicles []vehicles.Vehicle `json:"recent_vehicles"`
}

func (a *API) handleVehiclesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listVehicles(w, r)
	case http.MethodPost:
		a.createVehicle(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleVehicleResource dispatches /api/v1/vehicles/... subpaths.
func (a *API) handleVehicleResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, apiPrefix+"/vehicles/")
	switch {
	case path == "featured":
		a.featuredVehicles(w, r)
	case path == "stats":
		a.vehicleStats(w, r)
	case path == "admin/all":
		a.adminListVehicles(w, r)
	case strings.HasPrefix(path, "images/"):
		a.deleteVehicleImage(w, r, strings.TrimPrefix(path, "images/"))
	case strings.HasSuffix(path, "/toggle-featured"):
		a.toggleFeatured(w, r, strings.TrimSuffix(path, "/toggle-featured"))
	case strings.HasSuffix(path, "/images"):
		a.uploadVehicleImages(w, r, strings.TrimSuffix(path, "/images"))
	case !strings.Contains(path, "/"):
		a.vehicleByID(w, r, path)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func parseFilter(r *http.Request) (vehicles.Filter, int, int, error) {
	var f vehicles.Filter
	f.Search = strings.TrimSpace(r.URL.Query().Get("search"))
	f.Type = strings.TrimSpace(r.URL.Query().Get("type"))
	f.Brand = strings.TrimSpace(r.URL.Query().Get("brand"))
	f.Status = strings.TrimSpace(r.URL.Query().Get("status"))

	var err error
	if f.YearMin, err = queryIntPtr(r, "year_min"); err != nil {
		return f, 0, 0, err
	}
	if f.YearMax, err = queryIntPtr(r, "year_max"); err != nil {
		return f, 0, 0, err
	}
	if f.KmMin, err = queryIntPtr(r, "km_min"); err != nil {
		return f, 0, 0, err
	}
	if f.KmMax, err = queryIntPtr(r, "km_max"); err != nil {
		return f, 0, 0, err
	}
	if f.IsFeatured, err = queryBoolPtr(r, "featured"); err != nil {
		return f, 0, 0, err
	}

	page, err := queryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return f, 0, 0, err
	}
	size, err := queryInt(r, "size", 20, 1, 100)
	if err != nil {
		return f, 0, 0, err
	}
	f.Limit = size
	f.Offset = (page - 1) * size
	return f, page, size, nil
}

func (a *API) listVehicles(w http.ResponseWriter, r *http.Request) {
	f, page, size, err := parseFilter(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	items, total, err := a.catalog.List(r.Context(), f)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, vehicleListResponse{
		Vehicles: items,
		Total:    total,
		Page:     page,
		Size:     size,
		Pages:    pageCount(total, size),
	})
}

func pageCount(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

func (a *API) featuredVehicles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	limit, err := queryInt(r, "limit", 4, 1, 10)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	items, err := a.catalog.Featured(r.Context(), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) vehicleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if st, err := a.statsCache.Get(r.Context()); err == nil {
		writeJSON(w, http.StatusOK, st)
		return
	} else if !errors.Is(err, cache.ErrMiss) {
		// Redis being down must not take the endpoint with it.
		_ = audit.LogEvent(r.Context(), "cache.stats.error", map[string]any{"error": err.Error()})
	}
	st, err := a.catalog.Stats(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	_ = a.statsCache.Set(r.Context(), st)
	writeJSON(w, http.StatusOK, st)
}

func (a *API) vehicleByID(w http.ResponseWriter, r *http.Request, raw string) {
	id, err := pathID(raw)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "vehicle not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getVehicle(w, r, id)
	case http.MethodPut:
		a.updateVehicle(w, r, id)
	case http.MethodDelete:
		a.deleteVehicle(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) getVehicle(w http.ResponseWriter, r *http.Request, id int64) {
	v, err := a.catalog.Get(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// createVehicle accepts either a JSON body or a multipart form with a
// vehicle_data field and optional image files. Image failures never sink
// the vehicle itself.
func (a *API) createVehicle(w http.ResponseWriter, r *http.Request) {
	user, r, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}

	var v vehicles.Vehicle
	var uploads []images.Upload
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid multipart body")
			return
		}
		raw := r.FormValue("vehicle_data")
		if raw == "" {
			writeError(w, r, http.StatusBadRequest, "vehicle_data is required")
			return
		}
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid vehicle_data")
			return
		}
		var err error
		uploads, err = collectUploads(r.MultipartForm.File["images"])
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		if err := decodeJSON(w, r, &v); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	v.CreatedBy = &user.ID
	created, err := a.catalog.Create(r.Context(), v)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}

	if len(uploads) > 0 && a.images != nil {
		saved := a.images.SaveBatch(r.Context(), created.ID, uploads)
		created.Images = saved
	}
	_ = a.statsCache.Invalidate(r.Context())

	_ = audit.LogEvent(r.Context(), "vehicles.create", map[string]any{
		"vehicle_id": created.ID,
		"brand":      created.Brand,
		"model":      created.Model,
	})
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) updateVehicle(w http.ResponseWriter, r *http.Request, id int64) {
	_, r, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	var upd vehicles.Update
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	v, err := a.catalog.Update(r.Context(), id, upd)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	_ = a.statsCache.Invalidate(r.Context())
	_ = audit.LogEvent(r.Context(), "vehicles.update", map[string]any{
		"vehicle_id": id,
	})
	writeJSON(w, http.StatusOK, v)
}

func (a *API) deleteVehicle(w http.ResponseWriter, r *http.Request, id int64) {
	_, r, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	if err := a.catalog.SoftDelete(r.Context(), id); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	_ = a.statsCache.Invalidate(r.Context())
	_ = audit.LogEvent(r.Context(), "vehicles.delete", map[string]any{
		"vehicle_id": id,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "vehicle deleted",
	})
}

func (a *API) toggleFeatured(w http.ResponseWriter, r *http.Request, raw string) {
	if r.Method != http.MethodPatch && r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPatch, http.MethodPost)
		return
	}
	_, r, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	id, err := pathID(raw)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "vehicle not found")
		return
	}
	current, err := a.catalog.Get(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	flipped := !current.IsFeatured
	v, err := a.catalog.Update(r.Context(), id, vehicles.Update{IsFeatured: &flipped})
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	_ = a.statsCache.Invalidate(r.Context())
	writeJSON(w, http.StatusOK, v)
}

// adminListVehicles serves the dashboard table. Soft-deleted vehicles stay
// hidden here as well.
func (a *API) adminListVehicles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	_, r, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	a.listVehicles(w, r)
}

func (a *API) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	_, r, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	st, err := a.catalog.Stats(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	recent, err := a.catalog.Recent(r.Context(), 5)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if recent == nil {
		recent = []vehicles.Vehicle{}
	}
	writeJSON(w, http.StatusOK, dashboardResponse{
		Stats:          st,
		RecentVehicles: recent,
	})
}

func (a *API) uploadVehicleImages(w http.ResponseWriter, r *http.Request, raw string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	_, r, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	if a.images == nil {
		writeError(w, r, http.StatusServiceUnavailable, "image storage is not configured")
		return
	}
	id, err := pathID(raw)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "vehicle not found")
		return
	}
	if _, err := a.catalog.Get(r.Context(), id); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid multipart body")
		return
	}
	uploads, err := collectUploads(r.MultipartForm.File["images"])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(uploads) == 0 {
		writeError(w, r, http.StatusBadRequest, "no images provided")
		return
	}

	saved := a.images.SaveBatch(r.Context(), id, uploads)
	_ = audit.LogEvent(r.Context(), "vehicles.images.upload", map[string]any{
		"vehicle_id": id,
		"received":   len(uploads),
		"saved":      len(saved),
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"uploaded": len(saved),
		"images":   saved,
	})
}

func (a *API) deleteVehicleImage(w http.ResponseWriter, r *http.Request, raw string) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	_, r, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	if a.images == nil {
		writeError(w, r, http.StatusServiceUnavailable, "image storage is not configured")
		return
	}
	id, err := pathID(raw)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "image not found")
		return
	}
	if err := a.images.Delete(r.Context(), id); err != nil {
		if errors.Is(err, vehicles.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "image not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	_ = audit.LogEvent(r.Context(), "vehicles.images.delete", map[string]any{
		"image_id": id,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "image deleted",
	})
}

func collectUploads(headers []*multipart.FileHeader) ([]images.Upload, error) {
	uploads := make([]images.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, errors.New("could not read uploaded file")
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, errors.New("could not read uploaded file")
		}
		uploads = append(uploads, images.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

func handleCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, vehicles.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "vehicle not found")
	case errors.Is(err, vehicles.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "invalid vehicle data")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
