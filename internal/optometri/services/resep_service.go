package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/optometri/models"
)

var (
	quarter = decimal.RequireFromString("0.25")
	sphMax  = decimal.NewFromInt(30)
	cylMin  = decimal.NewFromInt(-10)
	addMax  = decimal.NewFromInt(4)
	pdMin   = decimal.NewFromInt(40)
	pdMax   = decimal.NewFromInt(80)
)

type ResepService struct {
	DB         *sql.DB
	Optometris *OptometrisService
	Now        func() time.Time
}

func NewResepService(db *sql.DB, optometris *OptometrisService) *ResepService {
	return &ResepService{DB: db, Optometris: optometris, Now: time.Now}
}

func between(d, lo, hi decimal.Decimal) bool {
	return d.GreaterThanOrEqual(lo) && d.LessThanOrEqual(hi)
}

// validateMata memeriksa rentang dan kelipatan 0.25 untuk satu mata.
func validateMata(name string, m models.Mata) []string {
	var errs []string
	if !between(m.Sph, sphMax.Neg(), sphMax) || !m.Sph.Mod(quarter).IsZero() {
		errs = append(errs, name+".sph harus -30..30 kelipatan 0.25")
	}
	if !between(m.Cyl, cylMin, decimal.Zero) || !m.Cyl.Mod(quarter).IsZero() {
		errs = append(errs, name+".cyl harus -10..0 kelipatan 0.25")
	}
	switch {
	case !m.Cyl.IsZero() && m.Axis == nil:
		errs = append(errs, name+".axis wajib bila cyl tidak 0")
	case m.Axis != nil && (*m.Axis < 0 || *m.Axis > 180):
		errs = append(errs, name+".axis harus 0..180")
	}
	if !between(m.Add, decimal.Zero, addMax) || !m.Add.Mod(quarter).IsZero() {
		errs = append(errs, name+".add harus 0..4 kelipatan 0.25")
	}
	return errs
}

func ValidateResep(req models.ResepRequest) error {
	errs := append(validateMata("od", req.OD), validateMata("os", req.OS)...)
	if !between(req.PD, pdMin, pdMax) {
		errs = append(errs, "pd harus 40..80 mm")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", strings.Join(errs, "; "), apperror.ErrInvalidInput)
	}
	return nil
}

func (s *ResepService) pasienExists(ctx context.Context, idPasien int) error {
	var one int
	err := s.DB.QueryRowContext(ctx,
		"SELECT 1 FROM Pasien WHERE id_pasien = ? AND deleted_at IS NULL", idPasien).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("pasien %d: %w", idPasien, apperror.ErrNotFound)
	}
	return err
}

// CreateResep mencatat resep baru untuk pasien.
func (s *ResepService) CreateResep(ctx context.Context, idPasien int, req models.ResepRequest) (*models.Resep, error) {
	if err := ValidateResep(req); err != nil {
		return nil, err
	}
	if err := s.pasienExists(ctx, idPasien); err != nil {
		return nil, err
	}
	var namaOptometris *string
	if req.IDOptometris != nil {
		o, err := s.Optometris.GetOptometris(ctx, *req.IDOptometris)
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("optometris %d tidak terdaftar: %w", *req.IDOptometris, apperror.ErrInvalidInput)
		}
		if err != nil {
			return nil, err
		}
		namaOptometris = &o.Nama
	}

	r := &models.Resep{
		IDPasien:       idPasien,
		IDOptometris:   req.IDOptometris,
		NamaOptometris: namaOptometris,
		OD:             req.OD,
		OS:             req.OS,
		PD:             req.PD,
		CreatedAt:      s.Now(),
	}
	if c := strings.TrimSpace(req.Catatan); c != "" {
		r.Catatan = &c
	}
	// axis tidak disimpan untuk silinder 0
	if r.OD.Cyl.IsZero() {
		r.OD.Axis = nil
	}
	if r.OS.Cyl.IsZero() {
		r.OS.Axis = nil
	}

	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO Resep (id_pasien, id_optometris, od_sph, od_cyl, od_axis, od_add,
			os_sph, os_cyl, os_axis, os_add, pd, catatan, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		idPasien, r.IDOptometris, r.OD.Sph, r.OD.Cyl, r.OD.Axis, r.OD.Add,
		r.OS.Sph, r.OS.Cyl, r.OS.Axis, r.OS.Add, r.PD, r.Catatan, r.CreatedAt)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	r.ID = int(id)
	return r, nil
}

const resepSelect = `SELECT r.id_resep, r.id_pasien, r.id_optometris, k.nama,
		r.od_sph, r.od_cyl, r.od_axis, r.od_add, r.os_sph, r.os_cyl, r.os_axis, r.os_add,
		r.pd, r.catatan, r.created_at
	FROM Resep r LEFT JOIN Karyawan k ON k.id_karyawan = r.id_optometris`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResep(row rowScanner) (models.Resep, error) {
	var r models.Resep
	var idOpt, odAxis, osAxis sql.NullInt64
	var nama, catatan sql.NullString
	err := row.Scan(&r.ID, &r.IDPasien, &idOpt, &nama,
		&r.OD.Sph, &r.OD.Cyl, &odAxis, &r.OD.Add, &r.OS.Sph, &r.OS.Cyl, &osAxis, &r.OS.Add,
		&r.PD, &catatan, &r.CreatedAt)
	if err != nil {
		return r, err
	}
	r.IDOptometris = nullInt(idOpt)
	r.OD.Axis = nullInt(odAxis)
	r.OS.Axis = nullInt(osAxis)
	if nama.Valid {
		r.NamaOptometris = &nama.String
	}
	if catatan.Valid {
		r.Catatan = &catatan.String
	}
	return r, nil
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

// ListByPasien mengembalikan resep pasien, terbaru dulu.
func (s *ResepService) ListByPasien(ctx context.Context, idPasien int) ([]models.Resep, error) {
	if err := s.pasienExists(ctx, idPasien); err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx,
		resepSelect+" WHERE r.id_pasien = ? ORDER BY r.created_at DESC, r.id_resep DESC", idPasien)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Resep{}
	for rows.Next() {
		r, err := scanResep(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

func (s *ResepService) GetResep(ctx context.Context, id int) (*models.Resep, error) {
	r, err := scanResep(s.DB.QueryRowContext(ctx, resepSelect+" WHERE r.id_resep = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resep %d: %w", id, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
