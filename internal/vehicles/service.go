package vehicles

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Service defines catalog operations. Reads only ever see active vehicles.
type Service interface {
	List(ctx context.Context, f Filter) ([]Vehicle, int64, error)
	Featured(ctx context.Context, limit int) ([]Vehicle, error)
	Get(ctx context.Context, id int64) (Vehicle, error)
	Create(ctx context.Context, v Vehicle) (Vehicle, error)
	Update(ctx context.Context, id int64, upd Update) (Vehicle, error)
	SoftDelete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (Stats, error)
	Recent(ctx context.Context, limit int) ([]Vehicle, error)

	AddImage(ctx context.Context, img Image) (Image, error)
	Images(ctx context.Context, vehicleID int64) ([]Image, error)
	GetImage(ctx context.Context, imageID int64) (Image, error)
	DeleteImage(ctx context.Context, imageID int64) error
}

// InMemory implements Service with in-process concurrency safety.
// Handler tests run against it; production wires the Postgres store.
type InMemory struct {
	mu          sync.RWMutex
	nextID      int64
	nextImageID int64
	byID        map[int64]*Vehicle
	images      map[int64]*Image
}

// NewInMemory creates an empty catalog.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[int64]*Vehicle),
		images: make(map[int64]*Image),
	}
}

func (s *InMemory) List(ctx context.Context, f Filter) ([]Vehicle, int64, error) {
	f.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Vehicle
	for _, v := range s.byID {
		if f.Matches(*v) {
			matched = append(matched, s.withImagesLocked(*v))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	if f.Offset >= len(matched) {
		return []Vehicle{}, total, nil
	}
	end := f.Offset + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[f.Offset:end], total, nil
}

func (s *InMemory) Featured(ctx context.Context, limit int) ([]Vehicle, error) {
	if limit <= 0 {
		limit = 4
	}
	if limit > 10 {
		limit = 10
	}
	featured := true
	status := StatusAvailable
	out, _, err := s.List(ctx, Filter{IsFeatured: &featured, Status: status, Limit: limit})
	return out, err
}

func (s *InMemory) Get(ctx context.Context, id int64) (Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.byID[id]
	if !ok || !v.IsActive {
		return Vehicle{}, ErrNotFound
	}
	return s.withImagesLocked(*v), nil
}

func (s *InMemory) Create(ctx context.Context, v Vehicle) (Vehicle, error) {
	if err := v.Validate(); err != nil {
		return Vehicle{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	v.ID = s.nextID
	v.IsActive = true
	v.CreatedAt = time.Now().UTC()
	v.Images = nil
	cp := v
	s.byID[v.ID] = &cp
	return s.withImagesLocked(v), nil
}

func (s *InMemory) Update(ctx context.Context, id int64, upd Update) (Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.byID[id]
	if !ok || !v.IsActive {
		return Vehicle{}, ErrNotFound
	}
	upd.Apply(v)
	if err := v.Validate(); err != nil {
		return Vehicle{}, err
	}
	now := time.Now().UTC()
	v.UpdatedAt = &now
	return s.withImagesLocked(*v), nil
}

func (s *InMemory) SoftDelete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.byID[id]
	if !ok || !v.IsActive {
		return ErrNotFound
	}
	v.IsActive = false
	return nil
}

func (s *InMemory) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	for _, v := range s.byID {
		if !v.IsActive {
			continue
		}
		st.Total++
		switch v.Status {
		case StatusAvailable:
			st.Available++
		case StatusReserved:
			st.Reserved++
		case StatusSold:
			st.Sold++
		}
		if v.IsFeatured {
			st.Featured++
		}
	}
	return st, nil
}

func (s *InMemory) Recent(ctx context.Context, limit int) ([]Vehicle, error) {
	if limit <= 0 {
		limit = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []Vehicle
	for _, v := range s.byID {
		if v.IsActive {
			active = append(active, s.withImagesLocked(*v))
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].CreatedAt.Equal(active[j].CreatedAt) {
			return active[i].ID > active[j].ID
		}
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	if len(active) > limit {
		active = active[:limit]
	}
	return active, nil
}

func (s *InMemory) AddImage(ctx context.Context, img Image) (Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.byID[img.VehicleID]
	if !ok || !v.IsActive {
		return Image{}, ErrNotFound
	}

	existing := 0
	for _, i := range s.images {
		if i.VehicleID == img.VehicleID {
			existing++
		}
	}
	s.nextImageID++
	img.ID = s.nextImageID
	img.IsPrimary = existing == 0
	img.DisplayOrder = existing
	img.CreatedAt = time.Now().UTC()
	cp := img
	s.images[img.ID] = &cp
	return img, nil
}

func (s *InMemory) Images(ctx context.Context, vehicleID int64) ([]Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.imagesLocked(vehicleID), nil
}

func (s *InMemory) GetImage(ctx context.Context, imageID int64) (Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[imageID]
	if !ok {
		return Image{}, ErrNotFound
	}
	return *img, nil
}

func (s *InMemory) DeleteImage(ctx context.Context, imageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.images[imageID]; !ok {
		return ErrNotFound
	}
	delete(s.images, imageID)
	return nil
}

func (s *InMemory) imagesLocked(vehicleID int64) []Image {
	out := []Image{}
	for _, img := range s.images {
		if img.VehicleID == vehicleID {
			out = append(out, *img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out
}

func (s *InMemory) withImagesLocked(v Vehicle) Vehicle {
	v.Images = s.imagesLocked(v.ID)
	return v
}
