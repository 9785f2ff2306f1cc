package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"larrosacamiones.com/internal/vehicles"
)

// Vehicles implements vehicles.Service over Postgres.
type Vehicles struct {
	db *sql.DB
}

var _ vehicles.Service = (*Vehicles)(nil)

const vehicleColumns = `id, brand, model, full_name, type, type_name, year, kilometers,
	power, traction, transmission, color, status, price, is_active, is_featured,
	location, description, observations, date_registered, created_at, updated_at, created_by`

// filterClauses renders the filter as SQL predicates with positional args.
// Active-only is always enforced.
func filterClauses(f vehicles.Filter) (string, []any) {
	where := []string{"is_active"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if s := strings.TrimSpace(f.Search); s != "" {
		p := arg("%" + s + "%")
		where = append(where, fmt.Sprintf("(brand ilike %s or model ilike %s or full_name ilike %s)", p, p, p))
	}
	if f.Type != "" {
		where = append(where, "type = "+arg(f.Type))
	}
	if f.Brand != "" {
		where = append(where, "brand ilike "+arg("%"+f.Brand+"%"))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(f.Status))
	}
	if f.YearMin != nil {
		where = append(where, "year >= "+arg(*f.YearMin))
	}
	if f.YearMax != nil {
		where = append(where, "year <= "+arg(*f.YearMax))
	}
	if f.KmMin != nil {
		where = append(where, "kilometers >= "+arg(*f.KmMin))
	}
	if f.KmMax != nil {
		where = append(where, "kilometers <= "+arg(*f.KmMax))
	}
	if f.IsFeatured != nil {
		where = append(where, "is_featured = "+arg(*f.IsFeatured))
	}
	return strings.Join(where, " and "), args
}

func (s *Vehicles) List(ctx context.Context, f vehicles.Filter) ([]vehicles.Vehicle, int64, error) {
	f.Normalize()
	where, args := filterClauses(f)

	var total int64
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from vehicles where `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`select %s from vehicles where %s order by id asc limit $%d offset $%d`,
		vehicleColumns, where, len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := scanVehicles(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := s.attachImages(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Vehicles) Featured(ctx context.Context, limit int) ([]vehicles.Vehicle, error) {
	if limit <= 0 {
		limit = 4
	}
	if limit > 10 {
		limit = 10
	}
	featured := true
	out, _, err := s.List(ctx, vehicles.Filter{
		IsFeatured: &featured,
		Status:     vehicles.StatusAvailable,
		Limit:      limit,
	})
	return out, err
}

func (s *Vehicles) Get(ctx context.Context, id int64) (vehicles.Vehicle, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+vehicleColumns+` from vehicles where id=$1 and is_active`, id)
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return vehicles.Vehicle{}, vehicles.ErrNotFound
	}
	if err != nil {
		return vehicles.Vehicle{}, err
	}
	imgs, err := s.Images(ctx, id)
	if err != nil {
		return vehicles.Vehicle{}, err
	}
	v.Images = imgs
	return v, nil
}

func (s *Vehicles) Create(ctx context.Context, v vehicles.Vehicle) (vehicles.Vehicle, error) {
	if err := v.Validate(); err != nil {
		return vehicles.Vehicle{}, err
	}
	v.IsActive = true
	err := s.db.QueryRowContext(ctx, `
		insert into vehicles(brand, model, full_name, type, type_name, year, kilometers,
			power, traction, transmission, color, status, price, is_active, is_featured,
			location, description, observations, date_registered, created_by)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		returning id, created_at
	`, v.Brand, v.Model, v.FullName, v.Type, v.TypeName, v.Year, v.Kilometers,
		v.Power, v.Traction, v.Transmission, v.Color, v.Status, nullFloat(v.Price),
		v.IsActive, v.IsFeatured, v.Location, v.Description, v.Observations,
		v.DateRegistered, nullInt(v.CreatedBy)).
		Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return vehicles.Vehicle{}, err
	}
	v.Images = []vehicles.Image{}
	return v, nil
}

func (s *Vehicles) Update(ctx context.Context, id int64, upd vehicles.Update) (vehicles.Vehicle, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return vehicles.Vehicle{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`select `+vehicleColumns+` from vehicles where id=$1 and is_active for update`, id)
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return vehicles.Vehicle{}, vehicles.ErrNotFound
	}
	if err != nil {
		return vehicles.Vehicle{}, err
	}

	upd.Apply(&v)
	if err := v.Validate(); err != nil {
		return vehicles.Vehicle{}, err
	}

	err = tx.QueryRowContext(ctx, `
		update vehicles set brand=$2, model=$3, full_name=$4, type=$5, type_name=$6,
			year=$7, kilometers=$8, power=$9, traction=$10, transmission=$11, color=$12,
			status=$13, price=$14, is_featured=$15, location=$16, description=$17,
			observations=$18, date_registered=$19, updated_at=now()
		where id=$1
		returning updated_at
	`, id, v.Brand, v.Model, v.FullName, v.Type, v.TypeName, v.Year, v.Kilometers,
		v.Power, v.Traction, v.Transmission, v.Color, v.Status, nullFloat(v.Price),
		v.IsFeatured, v.Location, v.Description, v.Observations, v.DateRegistered).
		Scan(&v.UpdatedAt)
	if err != nil {
		return vehicles.Vehicle{}, err
	}
	if err := tx.Commit(); err != nil {
		return vehicles.Vehicle{}, err
	}

	imgs, err := s.Images(ctx, id)
	if err != nil {
		return vehicles.Vehicle{}, err
	}
	v.Images = imgs
	return v, nil
}

func (s *Vehicles) SoftDelete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`update vehicles set is_active=false, updated_at=now() where id=$1 and is_active`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return vehicles.ErrNotFound
	}
	return nil
}

func (s *Vehicles) Stats(ctx context.Context) (vehicles.Stats, error) {
	var st vehicles.Stats
	err := s.db.QueryRowContext(ctx, `
		select count(*),
			count(*) filter (where status = 'available'),
			count(*) filter (where status = 'reserved'),
			count(*) filter (where status = 'sold'),
			count(*) filter (where is_featured)
		from vehicles where is_active
	`).Scan(&st.Total, &st.Available, &st.Reserved, &st.Sold, &st.Featured)
	return st, err
}

func (s *Vehicles) Recent(ctx context.Context, limit int) ([]vehicles.Vehicle, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx,
		`select `+vehicleColumns+` from vehicles where is_active order by created_at desc, id desc limit $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out, err := scanVehicles(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachImages(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func scanVehicle(r rowScanner) (vehicles.Vehicle, error) {
	var v vehicles.Vehicle
	var price sql.NullFloat64
	var updated sql.NullTime
	var createdBy sql.NullInt64
	err := r.Scan(&v.ID, &v.Brand, &v.Model, &v.FullName, &v.Type, &v.TypeName,
		&v.Year, &v.Kilometers, &v.Power, &v.Traction, &v.Transmission, &v.Color,
		&v.Status, &price, &v.IsActive, &v.IsFeatured, &v.Location, &v.Description,
		&v.Observations, &v.DateRegistered, &v.CreatedAt, &updated, &createdBy)
	if err != nil {
		return vehicles.Vehicle{}, err
	}
	if price.Valid {
		p := price.Float64
		v.Price = &p
	}
	if updated.Valid {
		t := updated.Time
		v.UpdatedAt = &t
	}
	if createdBy.Valid {
		id := createdBy.Int64
		v.CreatedBy = &id
	}
	v.Images = []vehicles.Image{}
	return v, nil
}

func scanVehicles(rows *sql.Rows) ([]vehicles.Vehicle, error) {
	out := []vehicles.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// attachImages loads images for a page of vehicles in one query.
func (s *Vehicles) attachImages(ctx context.Context, vs []vehicles.Vehicle) error {
	if len(vs) == 0 {
		return nil
	}
	ids := make([]int64, len(vs))
	index := make(map[int64]int, len(vs))
	for i, v := range vs {
		ids[i] = v.ID
		index[v.ID] = i
	}
	rows, err := s.db.QueryContext(ctx,
		`select `+imageColumns+` from vehicle_images where vehicle_id = any($1) order by vehicle_id, display_order`,
		ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return err
		}
		if i, ok := index[img.VehicleID]; ok {
			vs[i].Images = append(vs[i].Images, img)
		}
	}
	return rows.Err()
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}
