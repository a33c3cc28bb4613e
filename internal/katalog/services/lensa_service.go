package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/katalog/models"
	"github.com/c14220110/optik-backend/pkg/storage/objectstore"
	"github.com/c14220110/optik-backend/pkg/utils"
)

const lensaColumns = `id_lensa, sku, nama, merek, tipe, material, indeks, lapisan, sph_min, sph_max,
	cyl_min, harga, stok, aktif, image_key, created_at, updated_at`

// LensaService menangani katalog lensa.
type LensaService struct {
	DB      *sql.DB
	Storage objectstore.Storage
}

func NewLensaService(db *sql.DB, storage objectstore.Storage) *LensaService {
	return &LensaService{DB: db, Storage: storage}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLensa(row rowScanner) (models.Lensa, error) {
	var l models.Lensa
	var lapisan string
	var imageKey sql.NullString
	err := row.Scan(&l.ID, &l.SKU, &l.Nama, &l.Merek, &l.Tipe, &l.Material, &l.Indeks, &lapisan,
		&l.SphMin, &l.SphMax, &l.CylMin, &l.Harga, &l.Stok, &l.Aktif, &imageKey, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return l, err
	}
	l.Lapisan = splitLapisan(lapisan)
	if imageKey.Valid {
		l.ImageKey = &imageKey.String
	}
	return l, nil
}

func splitLapisan(s string) []string {
	out := []string{}
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

var sortColumns = map[string]string{
	"":       "nama ASC",
	"nama":   "nama ASC",
	"-nama":  "nama DESC",
	"harga":  "harga ASC",
	"-harga": "harga DESC",
}

func buildLensaWhere(f models.LensaFilter) (string, []interface{}) {
	clauses := []string{"1=1"}
	var args []interface{}
	if f.OnlyAktif {
		clauses = append(clauses, "aktif = 1")
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		clauses = append(clauses, "(nama LIKE ? OR merek LIKE ? OR sku LIKE ?)")
		args = append(args, like, like, like)
	}
	if f.Tipe != "" {
		clauses = append(clauses, "tipe = ?")
		args = append(args, f.Tipe)
	}
	if f.Material != "" {
		clauses = append(clauses, "material = ?")
		args = append(args, f.Material)
	}
	if f.Lapisan != "" {
		clauses = append(clauses, "FIND_IN_SET(?, lapisan) > 0")
		args = append(args, f.Lapisan)
	}
	if f.MinHarga != nil {
		clauses = append(clauses, "harga >= ?")
		args = append(args, *f.MinHarga)
	}
	if f.MaxHarga != nil {
		clauses = append(clauses, "harga <= ?")
		args = append(args, *f.MaxHarga)
	}
	return strings.Join(clauses, " AND "), args
}

// ListLensa mengembalikan katalog terfilter dan jumlah totalnya.
func (s *LensaService) ListLensa(ctx context.Context, f models.LensaFilter, p utils.Page) ([]models.Lensa, int, error) {
	order, ok := sortColumns[f.Sort]
	if !ok {
		return nil, 0, fmt.Errorf("sort %q: %w", f.Sort, apperror.ErrInvalidInput)
	}
	where, args := buildLensaWhere(f)

	var total int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM Lensa WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + lensaColumns + " FROM Lensa WHERE " + where + " ORDER BY " + order + " LIMIT ? OFFSET ?"
	rows, err := s.DB.QueryContext(ctx, query, append(args, p.Limit, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []models.Lensa
	for rows.Next() {
		l, err := scanLensa(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, l)
	}
	return result, total, rows.Err()
}

func (s *LensaService) GetLensa(ctx context.Context, id int) (*models.Lensa, error) {
	row := s.DB.QueryRowContext(ctx, "SELECT "+lensaColumns+" FROM Lensa WHERE id_lensa = ?", id)
	l, err := scanLensa(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lensa %d: %w", id, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func validateLensa(req models.LensaRequest) error {
	if !req.Harga.IsPositive() {
		return fmt.Errorf("harga harus lebih dari 0: %w", apperror.ErrInvalidInput)
	}
	if req.SphMin.GreaterThan(req.SphMax) {
		return fmt.Errorf("sph_min lebih besar dari sph_max: %w", apperror.ErrInvalidInput)
	}
	if req.CylMin.IsPositive() {
		return fmt.Errorf("cyl_min harus <= 0: %w", apperror.ErrInvalidInput)
	}
	if req.Indeks.LessThan(decimal.NewFromFloat(1.4)) || req.Indeks.GreaterThan(decimal.NewFromFloat(1.9)) {
		return fmt.Errorf("indeks %s di luar rentang 1.40-1.90: %w", req.Indeks, apperror.ErrInvalidInput)
	}
	return nil
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

func (s *LensaService) CreateLensa(ctx context.Context, req models.LensaRequest) (int64, error) {
	if err := validateLensa(req); err != nil {
		return 0, err
	}
	aktif := true
	if req.Aktif != nil {
		aktif = *req.Aktif
	}
	now := time.Now()
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO Lensa (sku, nama, merek, tipe, material, indeks, lapisan, sph_min, sph_max, cyl_min, harga, stok, aktif, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.SKU, req.Nama, req.Merek, req.Tipe, req.Material, req.Indeks, strings.Join(req.Lapisan, ","),
		req.SphMin, req.SphMax, req.CylMin, req.Harga, req.Stok, aktif, now, now)
	if isDuplicate(err) {
		return 0, fmt.Errorf("SKU %s sudah ada: %w", req.SKU, apperror.ErrConflict)
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *LensaService) UpdateLensa(ctx context.Context, id int, req models.LensaRequest) error {
	if err := validateLensa(req); err != nil {
		return err
	}
	aktif := true
	if req.Aktif != nil {
		aktif = *req.Aktif
	}
	res, err := s.DB.ExecContext(ctx, `
		UPDATE Lensa SET sku = ?, nama = ?, merek = ?, tipe = ?, material = ?, indeks = ?, lapisan = ?,
			sph_min = ?, sph_max = ?, cyl_min = ?, harga = ?, stok = ?, aktif = ?, updated_at = ?
		WHERE id_lensa = ?`,
		req.SKU, req.Nama, req.Merek, req.Tipe, req.Material, req.Indeks, strings.Join(req.Lapisan, ","),
		req.SphMin, req.SphMax, req.CylMin, req.Harga, req.Stok, aktif, time.Now(), id)
	if isDuplicate(err) {
		return fmt.Errorf("SKU %s sudah ada: %w", req.SKU, apperror.ErrConflict)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("lensa %d: %w", id, apperror.ErrNotFound)
	}
	return nil
}

// UploadImage menyimpan foto lensa ke object storage lalu mencatat key-nya.
func (s *LensaService) UploadImage(ctx context.Context, id int, data []byte, contentType string) (string, error) {
	if _, err := s.GetLensa(ctx, id); err != nil {
		return "", err
	}
	key, err := objectstore.ImageKey("lensa", id, contentType)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, apperror.ErrInvalidInput)
	}
	if err := s.Storage.Upload(ctx, key, data, contentType); err != nil {
		if errors.Is(err, objectstore.ErrDisabled) {
			return "", fmt.Errorf("%v: %w", err, apperror.ErrUnprocessable)
		}
		return "", err
	}
	if _, err := s.DB.ExecContext(ctx, "UPDATE Lensa SET image_key = ?, updated_at = ? WHERE id_lensa = ?", key, time.Now(), id); err != nil {
		return "", err
	}
	return key, nil
}

// ImageURL mengisi URL unduhan sementara bila lensa punya foto.
func (s *LensaService) ImageURL(ctx context.Context, l *models.Lensa) {
	if l.ImageKey == nil {
		return
	}
	if url, err := s.Storage.DownloadURL(ctx, *l.ImageKey); err == nil {
		l.ImageURL = url
	}
}

// EyePower adalah nilai resep satu mata yang relevan untuk pemilihan lensa.
type EyePower struct {
	Sph decimal.Decimal
	Cyl decimal.Decimal
	Add decimal.Decimal
}

// Compatible mengembalikan lensa aktif dengan stok tersisa yang rentangnya mencakup kedua mata.
// Resep dengan adisi hanya cocok dengan lensa progresif atau bifokal.
func (s *LensaService) Compatible(ctx context.Context, od, os EyePower) ([]models.Lensa, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT "+lensaColumns+` FROM Lensa
		WHERE aktif = 1 AND stok > 0
		  AND sph_min <= ? AND sph_max >= ? AND cyl_min <= ?
		ORDER BY harga ASC`,
		decimal.Min(od.Sph, os.Sph), decimal.Max(od.Sph, os.Sph), decimal.Min(od.Cyl, os.Cyl))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	needsAdd := od.Add.IsPositive() || os.Add.IsPositive()
	result := []models.Lensa{}
	for rows.Next() {
		l, err := scanLensa(rows)
		if err != nil {
			return nil, err
		}
		if !l.Covers(od.Sph, od.Cyl) || !l.Covers(os.Sph, os.Cyl) {
			continue
		}
		if needsAdd && !l.Multifocal() {
			continue
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
