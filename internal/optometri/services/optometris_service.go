package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/optometri/models"
)

type OptometrisService struct {
	DB *sql.DB
}

func NewOptometrisService(db *sql.DB) *OptometrisService {
	return &OptometrisService{DB: db}
}

// ListOptometris mengembalikan karyawan aktif dengan role Optometris.
func (s *OptometrisService) ListOptometris(ctx context.Context) ([]models.Optometris, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id_karyawan, nama, username FROM Karyawan
		WHERE role = ? AND deleted_at IS NULL
		ORDER BY nama`, models.RoleOptometris)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Optometris{}
	for rows.Next() {
		var o models.Optometris
		if err := rows.Scan(&o.ID, &o.Nama, &o.Username); err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// GetOptometris mengembalikan ErrNotFound bila id bukan optometris aktif.
func (s *OptometrisService) GetOptometris(ctx context.Context, id int) (*models.Optometris, error) {
	var o models.Optometris
	err := s.DB.QueryRowContext(ctx, `
		SELECT id_karyawan, nama, username FROM Karyawan
		WHERE id_karyawan = ? AND role = ? AND deleted_at IS NULL`,
		id, models.RoleOptometris,
	).Scan(&o.ID, &o.Nama, &o.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("optometris %d: %w", id, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
