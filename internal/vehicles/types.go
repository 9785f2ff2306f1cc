package vehicles

import (
	"errors"
	"strings"
	"time"
)

// Vehicle lifecycle statuses.
const (
	StatusAvailable = "available"
	StatusReserved  = "reserved"
	StatusSold      = "sold"
)

var (
	ErrNotFound     = errors.New("vehicles: not found")
	ErrInvalidInput = errors.New("vehicles: invalid input")
)

// Vehicle is a catalog entry. IsActive doubles as the soft-delete flag:
// deactivated vehicles are invisible to every read path.
type Vehicle struct {
	ID             int64      `json:"id"`
	Brand          string     `json:"brand"`
	Model          string     `json:"model"`
	FullName       string     `json:"full_name"`
	Type           string     `json:"type"`
	TypeName       string     `json:"type_name"`
	Year           int        `json:"year"`
	Kilometers     int        `json:"kilometers"`
	Power          int        `json:"power,omitempty"`
	Traction       string     `json:"traction,omitempty"`
	Transmission   string     `json:"transmission,omitempty"`
	Color          string     `json:"color,omitempty"`
	Status         string     `json:"status"`
	Price          *float64   `json:"price,omitempty"`
	IsActive       bool       `json:"is_active"`
	IsFeatured     bool       `json:"is_featured"`
	Location       string     `json:"location,omitempty"`
	Description    string     `json:"description,omitempty"`
	Observations   string     `json:"observations,omitempty"`
	DateRegistered string     `json:"date_registered,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
	CreatedBy      *int64     `json:"created_by,omitempty"`
	Images         []Image    `json:"images"`
}

// Image is a stored photo of a vehicle. The first image uploaded for a
// vehicle becomes the primary one.
type Image struct {
	ID               int64     `json:"id"`
	VehicleID        int64     `json:"vehicle_id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	FilePath         string    `json:"file_path"`
	ThumbnailPath    string    `json:"thumbnail_path,omitempty"`
	FileSize         int64     `json:"file_size,omitempty"`
	MimeType         string    `json:"mime_type,omitempty"`
	Width            int       `json:"width,omitempty"`
	Height           int       `json:"height,omitempty"`
	IsPrimary        bool      `json:"is_primary"`
	AltText          string    `json:"alt_text,omitempty"`
	DisplayOrder     int       `json:"display_order"`
	CreatedAt        time.Time `json:"created_at"`
}

// Filter narrows catalog listings. Zero values mean "no constraint".
type Filter struct {
	Search     string
	Type       string
	Brand      string
	Status     string
	YearMin    *int
	YearMax    *int
	KmMin      *int
	KmMax      *int
	IsFeatured *bool
	Limit      int
	Offset     int
}

// Normalize clamps pagination to sane bounds.
func (f *Filter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// Matches reports whether an active vehicle satisfies the filter. The
// in-memory service uses it directly; the Postgres store builds the same
// predicate in SQL.
func (f Filter) Matches(v Vehicle) bool {
	if !v.IsActive {
		return false
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		needle := strings.ToLower(s)
		if !strings.Contains(strings.ToLower(v.Brand), needle) &&
			!strings.Contains(strings.ToLower(v.Model), needle) &&
			!strings.Contains(strings.ToLower(v.FullName), needle) {
			return false
		}
	}
	if f.Type != "" && v.Type != f.Type {
		return false
	}
	if f.Brand != "" && !strings.Contains(strings.ToLower(v.Brand), strings.ToLower(f.Brand)) {
		return false
	}
	if f.Status != "" && v.Status != f.Status {
		return false
	}
	if f.YearMin != nil && v.Year < *f.YearMin {
		return false
	}
	if f.YearMax != nil && v.Year > *f.YearMax {
		return false
	}
	if f.KmMin != nil && v.Kilometers < *f.KmMin {
		return false
	}
	if f.KmMax != nil && v.Kilometers > *f.KmMax {
		return false
	}
	if f.IsFeatured != nil && v.IsFeatured != *f.IsFeatured {
		return false
	}
	return true
}

// Update is a partial vehicle patch; nil fields stay untouched.
type Update struct {
	Brand          *string  `json:"brand"`
	Model          *string  `json:"model"`
	FullName       *string  `json:"full_name"`
	Type           *string  `json:"type"`
	TypeName       *string  `json:"type_name"`
	Year           *int     `json:"year"`
	Kilometers     *int     `json:"kilometers"`
	Power          *int     `json:"power"`
	Traction       *string  `json:"traction"`
	Transmission   *string  `json:"transmission"`
	Color          *string  `json:"color"`
	Status         *string  `json:"status"`
	Price          *float64 `json:"price"`
	IsFeatured     *bool    `json:"is_featured"`
	Location       *string  `json:"location"`
	Description    *string  `json:"description"`
	Observations   *string  `json:"observations"`
	DateRegistered *string  `json:"date_registered"`
}

// Stats are dashboard counters over active vehicles.
type Stats struct {
	Total     int64 `json:"total"`
	Available int64 `json:"available"`
	Reserved  int64 `json:"reserved"`
	Sold      int64 `json:"sold"`
	Featured  int64 `json:"featured"`
}

// Validate checks a vehicle before it enters the catalog and fills in the
// defaults the original records carry.
func (v *Vehicle) Validate() error {
	if strings.TrimSpace(v.Brand) == "" || strings.TrimSpace(v.Model) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(v.FullName) == "" {
		v.FullName = strings.TrimSpace(v.Brand + " " + v.Model)
	}
	if strings.TrimSpace(v.Type) == "" || strings.TrimSpace(v.TypeName) == "" {
		return ErrInvalidInput
	}
	if v.Year <= 0 || v.Kilometers < 0 {
		return ErrInvalidInput
	}
	if v.Status == "" {
		v.Status = StatusAvailable
	}
	switch v.Status {
	case StatusAvailable, StatusReserved, StatusSold:
	default:
		return ErrInvalidInput
	}
	return nil
}

// Apply copies the non-nil patch fields onto the vehicle.
func (u Update) Apply(v *Vehicle) {
	if u.Brand != nil {
		v.Brand = *u.Brand
	}
	if u.Model != nil {
		v.Model = *u.Model
	}
	if u.FullName != nil {
		v.FullName = *u.FullName
	}
	if u.Type != nil {
		v.Type = *u.Type
	}
	if u.TypeName != nil {
		v.TypeName = *u.TypeName
	}
	if u.Year != nil {
		v.Year = *u.Year
	}
	if u.Kilometers != nil {
		v.Kilometers = *u.Kilometers
	}
	if u.Power != nil {
		v.Power = *u.Power
	}
	if u.Traction != nil {
		v.Traction = *u.Traction
	}
	if u.Transmission != nil {
		v.Transmission = *u.Transmission
	}
	if u.Color != nil {
		v.Color = *u.Color
	}
	if u.Status != nil {
		v.Status = *u.Status
	}
	if u.Price != nil {
		v.Price = u.Price
	}
	if u.IsFeatured != nil {
		v.IsFeatured = *u.IsFeatured
	}
	if u.Location != nil {
		v.Location = *u.Location
	}
	if u.Description != nil {
		v.Description = *u.Description
	}
	if u.Observations != nil {
		v.Observations = *u.Observations
	}
	if u.DateRegistered != nil {
		v.DateRegistered = *u.DateRegistered
	}
}
