package pg

import (
	"context"
	"database/sql"
	"errors"

	"larrosacamiones.com/internal/vehicles"
)

const imageColumns = `id, vehicle_id, filename, original_filename, file_path, thumbnail_path,
	file_size, mime_type, width, height, is_primary, alt_text, display_order, created_at`

// AddImage records an uploaded image. The first image of a vehicle becomes
// primary and ordering follows insertion.
func (s *Vehicles) AddImage(ctx context.Context, img vehicles.Image) (vehicles.Image, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return vehicles.Image{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`select true from vehicles where id=$1 and is_active for update`, img.VehicleID).
		Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return vehicles.Image{}, vehicles.ErrNotFound
	}
	if err != nil {
		return vehicles.Image{}, err
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		`select count(*) from vehicle_images where vehicle_id=$1`, img.VehicleID).
		Scan(&count); err != nil {
		return vehicles.Image{}, err
	}
	img.IsPrimary = count == 0
	img.DisplayOrder = count

	err = tx.QueryRowContext(ctx, `
		insert into vehicle_images(vehicle_id, filename, original_filename, file_path,
			thumbnail_path, file_size, mime_type, width, height, is_primary, alt_text, display_order)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		returning id, created_at
	`, img.VehicleID, img.Filename, img.OriginalFilename, img.FilePath, img.ThumbnailPath,
		img.FileSize, img.MimeType, img.Width, img.Height, img.IsPrimary, img.AltText,
		img.DisplayOrder).
		Scan(&img.ID, &img.CreatedAt)
	if err != nil {
		return vehicles.Image{}, err
	}
	if err := tx.Commit(); err != nil {
		return vehicles.Image{}, err
	}
	return img, nil
}

func (s *Vehicles) Images(ctx context.Context, vehicleID int64) ([]vehicles.Image, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+imageColumns+` from vehicle_images where vehicle_id=$1 order by display_order asc`,
		vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []vehicles.Image{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

func (s *Vehicles) GetImage(ctx context.Context, imageID int64) (vehicles.Image, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+imageColumns+` from vehicle_images where id=$1`, imageID)
	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return vehicles.Image{}, vehicles.ErrNotFound
	}
	return img, err
}

func (s *Vehicles) DeleteImage(ctx context.Context, imageID int64) error {
	res, err := s.db.ExecContext(ctx,
		`delete from vehicle_images where id=$1`, imageID)
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

func scanImage(r rowScanner) (vehicles.Image, error) {
	var img vehicles.Image
	err := r.Scan(&img.ID, &img.VehicleID, &img.Filename, &img.OriginalFilename,
		&img.FilePath, &img.ThumbnailPath, &img.FileSize, &img.MimeType,
		&img.Width, &img.Height, &img.IsPrimary, &img.AltText, &img.DisplayOrder,
		&img.CreatedAt)
	return img, err
}
