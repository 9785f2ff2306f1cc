package vehicles

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seedVehicle(t *testing.T, s *InMemory, brand, model, status string, year, km int, featured bool) Vehicle {
	t.Helper()
	v, err := s.Create(context.Background(), Vehicle{
		Brand:      brand,
		Model:      model,
		Type:       "tractor",
		TypeName:   "Cabeza tractora",
		Year:       year,
		Kilometers: km,
		Status:     status,
		IsFeatured: featured,
	})
	if err != nil {
		t.Fatalf("seed %s %s: %v", brand, model, err)
	}
	return v
}

func TestCreateValidation(t *testing.T) {
	s := NewInMemory()
	_, err := s.Create(context.Background(), Vehicle{Model: "FH"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing brand: expected ErrInvalidInput, got %v", err)
	}
	_, err = s.Create(context.Background(), Vehicle{
		Brand: "Volvo", Model: "FH", Type: "tractor", TypeName: "Tractora", Year: 2020, Status: "scrapped",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad status: expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateDefaults(t *testing.T) {
	s := NewInMemory()
	v := seedVehicle(t, s, "Volvo", "FH 500", "", 2020, 100, false)
	if v.FullName != "Volvo FH 500" {
		t.Fatalf("full name not derived: %q", v.FullName)
	}
	if v.Status != StatusAvailable {
		t.Fatalf("status not defaulted: %q", v.Status)
	}
	if !v.IsActive {
		t.Fatal("new vehicle must be active")
	}
}

func TestListFilters(t *testing.T) {
	s := NewInMemory()
	seedVehicle(t, s, "Volvo", "FH 500", StatusAvailable, 2020, 400000, true)
	seedVehicle(t, s, "Scania", "R450", StatusAvailable, 2017, 700000, false)
	seedVehicle(t, s, "MAN", "TGX", StatusSold, 2015, 900000, false)

	cases := []struct {
		name   string
		filter Filter
		want   int64
	}{
		{"no filter", Filter{}, 3},
		{"search brand", Filter{Search: "volvo"}, 1},
		{"search model", Filter{Search: "r450"}, 1},
		{"status", Filter{Status: StatusSold}, 1},
		{"year range", Filter{YearMin: intPtr(2016), YearMax: intPtr(2021)}, 2},
		{"km max", Filter{KmMax: intPtr(500000)}, 1},
		{"featured", Filter{IsFeatured: boolPtr(true)}, 1},
		{"brand fragment", Filter{Brand: "sca"}, 1},
		{"no match", Filter{Search: "daf"}, 0},
	}
	for _, tc := range cases {
		_, total, err := s.List(context.Background(), tc.filter)
		if err != nil {
			t.Fatalf("%s: List failed: %v", tc.name, err)
		}
		if total != tc.want {
			t.Errorf("%s: got %d, want %d", tc.name, total, tc.want)
		}
	}
}

func TestListPagination(t *testing.T) {
	s := NewInMemory()
	for i := 0; i < 25; i++ {
		seedVehicle(t, s, "Volvo", "FH", StatusAvailable, 2020, i, false)
	}

	page1, total, err := s.List(context.Background(), Filter{Limit: 10, Offset: 0})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 25 || len(page1) != 10 {
		t.Fatalf("page 1: total=%d len=%d", total, len(page1))
	}
	page3, _, err := s.List(context.Background(), Filter{Limit: 10, Offset: 20})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page3) != 5 {
		t.Fatalf("page 3: len=%d", len(page3))
	}
	beyond, _, err := s.List(context.Background(), Filter{Limit: 10, Offset: 100})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(beyond) != 0 {
		t.Fatalf("offset beyond total must yield empty page, got %d", len(beyond))
	}
}

func TestSoftDeleteHidesEverywhere(t *testing.T) {
	s := NewInMemory()
	v := seedVehicle(t, s, "Volvo", "FH", StatusAvailable, 2020, 100, true)

	if err := s.SoftDelete(context.Background(), v.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if _, err := s.Get(context.Background(), v.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete: expected ErrNotFound, got %v", err)
	}
	_, total, err := s.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("deleted vehicle still listed: total=%d", total)
	}
	st, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if st.Total != 0 {
		t.Fatalf("deleted vehicle still counted: %+v", st)
	}
	if err := s.SoftDelete(context.Background(), v.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePartial(t *testing.T) {
	s := NewInMemory()
	v := seedVehicle(t, s, "Volvo", "FH", StatusAvailable, 2020, 100, false)

	price := 38500.0
	status := StatusReserved
	updated, err := s.Update(context.Background(), v.ID, Update{Price: &price, Status: &status})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Price == nil || *updated.Price != price {
		t.Fatalf("price not applied: %v", updated.Price)
	}
	if updated.Status != StatusReserved {
		t.Fatalf("status not applied: %q", updated.Status)
	}
	if updated.Brand != "Volvo" || updated.Year != 2020 {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if updated.UpdatedAt == nil {
		t.Fatal("UpdatedAt not set")
	}

	if _, err := s.Update(context.Background(), 999, Update{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id: expected ErrNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	s := NewInMemory()
	seedVehicle(t, s, "Volvo", "A", StatusAvailable, 2020, 0, true)
	seedVehicle(t, s, "Volvo", "B", StatusAvailable, 2020, 0, false)
	seedVehicle(t, s, "Volvo", "C", StatusReserved, 2020, 0, true)
	seedVehicle(t, s, "Volvo", "D", StatusSold, 2020, 0, false)

	st, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	want := Stats{Total: 4, Available: 2, Reserved: 1, Sold: 1, Featured: 2}
	if st != want {
		t.Fatalf("got %+v, want %+v", st, want)
	}
}

func TestFeaturedOnlyAvailable(t *testing.T) {
	s := NewInMemory()
	seedVehicle(t, s, "Volvo", "A", StatusAvailable, 2020, 0, true)
	seedVehicle(t, s, "Volvo", "B", StatusSold, 2020, 0, true)
	seedVehicle(t, s, "Volvo", "C", StatusAvailable, 2020, 0, false)

	out, err := s.Featured(context.Background(), 0)
	if err != nil {
		t.Fatalf("Featured failed: %v", err)
	}
	if len(out) != 1 || out[0].Model != "A" {
		t.Fatalf("unexpected featured set: %+v", out)
	}
}

func TestRecentOrder(t *testing.T) {
	s := NewInMemory()
	for i := 0; i < 7; i++ {
		seedVehicle(t, s, "Volvo", "M", StatusAvailable, 2020, i, false)
		time.Sleep(time.Millisecond)
	}
	recent, err := s.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 5 {
		t.Fatalf("expected 5 recent, got %d", len(recent))
	}
	for i := 1; i < len(recent); i++ {
		if recent[i].CreatedAt.After(recent[i-1].CreatedAt) {
			t.Fatal("recent vehicles not in newest-first order")
		}
	}
}

func TestImageLifecycle(t *testing.T) {
	s := NewInMemory()
	v := seedVehicle(t, s, "Volvo", "FH", StatusAvailable, 2020, 0, false)

	first, err := s.AddImage(context.Background(), Image{VehicleID: v.ID, Filename: "a.jpg"})
	if err != nil {
		t.Fatalf("AddImage failed: %v", err)
	}
	second, err := s.AddImage(context.Background(), Image{VehicleID: v.ID, Filename: "b.jpg"})
	if err != nil {
		t.Fatalf("AddImage failed: %v", err)
	}
	if !first.IsPrimary || second.IsPrimary {
		t.Fatalf("only the first image may be primary: %+v, %+v", first, second)
	}
	if first.DisplayOrder != 0 || second.DisplayOrder != 1 {
		t.Fatalf("display order wrong: %d, %d", first.DisplayOrder, second.DisplayOrder)
	}

	got, err := s.Get(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Images) != 2 || got.Images[0].Filename != "a.jpg" {
		t.Fatalf("images not attached in order: %+v", got.Images)
	}

	if err := s.DeleteImage(context.Background(), first.ID); err != nil {
		t.Fatalf("DeleteImage failed: %v", err)
	}
	if _, err := s.GetImage(context.Background(), first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	if _, err := s.AddImage(context.Background(), Image{VehicleID: 999, Filename: "x.jpg"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown vehicle: expected ErrNotFound, got %v", err)
	}
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
