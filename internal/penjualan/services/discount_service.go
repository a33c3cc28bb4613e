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
	"github.com/c14220110/optik-backend/internal/penjualan/models"
)

const diskonColumns = `id_diskon, kode, nama, tipe, nilai, min_subtotal, kategori, mulai, berakhir,
	max_uses, used, stackable, aktif, created_at`

type DiscountService struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewDiscountService(db *sql.DB) *DiscountService {
	return &DiscountService{DB: db, Now: time.Now}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDiscount(row rowScanner) (models.Discount, error) {
	var d models.Discount
	var mulai, berakhir sql.NullTime
	err := row.Scan(&d.ID, &d.Kode, &d.Nama, &d.Tipe, &d.Nilai, &d.MinSubtotal, &d.Kategori,
		&mulai, &berakhir, &d.MaxUses, &d.Used, &d.Stackable, &d.Aktif, &d.CreatedAt)
	if err != nil {
		return d, err
	}
	if mulai.Valid {
		d.Mulai = &mulai.Time
	}
	if berakhir.Valid {
		d.Berakhir = &berakhir.Time
	}
	return d, nil
}

// ListActive mengembalikan diskon aktif yang belum berakhir.
func (s *DiscountService) ListActive(ctx context.Context) ([]models.Discount, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT "+diskonColumns+` FROM Diskon
		WHERE aktif = 1 AND (berakhir IS NULL OR berakhir >= ?)
		ORDER BY kode ASC`, s.Now())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Discount{}
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

func (s *DiscountService) GetByCode(ctx context.Context, kode string) (*models.Discount, error) {
	row := s.DB.QueryRowContext(ctx, "SELECT "+diskonColumns+" FROM Diskon WHERE kode = ?", strings.ToUpper(kode))
	d, err := scanDiscount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("kode diskon %s: %w", kode, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetByCodes memuat diskon sesuai urutan kode. Kode yang sudah dihapus dari tabel
// dilaporkan sebagai dropped.
func (s *DiscountService) GetByCodes(ctx context.Context, codes []string) ([]models.Discount, []models.DroppedDiscount, error) {
	var found []models.Discount
	var dropped []models.DroppedDiscount
	for _, kode := range codes {
		d, err := s.GetByCode(ctx, kode)
		if errors.Is(err, apperror.ErrNotFound) {
			dropped = append(dropped, models.DroppedDiscount{Kode: kode, Alasan: err.Error()})
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		found = append(found, *d)
	}
	return found, dropped, nil
}

// EligibleDiscount adalah diskon aktif beserta nominalnya untuk keranjang tertentu.
type EligibleDiscount struct {
	models.Discount
	Jumlah decimal.Decimal `json:"jumlah"`
}

// Eligible mengevaluasi semua diskon aktif terhadap baris keranjang.
func (s *DiscountService) Eligible(ctx context.Context, items []models.LineItem) ([]EligibleDiscount, error) {
	active, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	result := []EligibleDiscount{}
	for _, d := range active {
		amount, err := EvaluateDiscount(d, items, now)
		if err != nil {
			continue
		}
		result = append(result, EligibleDiscount{Discount: d, Jumlah: amount})
	}
	return result, nil
}

func validateDiscount(req models.DiscountRequest) error {
	if !req.Nilai.IsPositive() {
		return fmt.Errorf("nilai diskon harus lebih dari 0: %w", apperror.ErrInvalidInput)
	}
	if req.Tipe == models.DiscountPercentage && req.Nilai.GreaterThan(hundred) {
		return fmt.Errorf("persentase diskon maksimal 100: %w", apperror.ErrInvalidInput)
	}
	if req.MinSubtotal.IsNegative() {
		return fmt.Errorf("min_subtotal tidak boleh negatif: %w", apperror.ErrInvalidInput)
	}
	if req.Mulai != nil && req.Berakhir != nil && !req.Berakhir.After(*req.Mulai) {
		return fmt.Errorf("berakhir harus setelah mulai: %w", apperror.ErrInvalidInput)
	}
	return nil
}

func discountArgs(req models.DiscountRequest) []interface{} {
	kategori := req.Kategori
	if kategori == "" {
		kategori = models.KategoriAll
	}
	aktif := true
	if req.Aktif != nil {
		aktif = *req.Aktif
	}
	return []interface{}{strings.ToUpper(req.Kode), req.Nama, req.Tipe, req.Nilai, req.MinSubtotal, kategori,
		req.Mulai, req.Berakhir, req.MaxUses, req.Stackable, aktif}
}

func (s *DiscountService) Create(ctx context.Context, req models.DiscountRequest) (int64, error) {
	if err := validateDiscount(req); err != nil {
		return 0, err
	}
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO Diskon (kode, nama, tipe, nilai, min_subtotal, kategori, mulai, berakhir, max_uses, stackable, aktif, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		append(discountArgs(req), s.Now())...)
	if isDuplicate(err) {
		return 0, fmt.Errorf("kode diskon %s sudah ada: %w", req.Kode, apperror.ErrConflict)
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *DiscountService) Update(ctx context.Context, id int, req models.DiscountRequest) error {
	if err := validateDiscount(req); err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx, `
		UPDATE Diskon SET kode = ?, nama = ?, tipe = ?, nilai = ?, min_subtotal = ?, kategori = ?,
			mulai = ?, berakhir = ?, max_uses = ?, stackable = ?, aktif = ?
		WHERE id_diskon = ?`,
		append(discountArgs(req), id)...)
	if isDuplicate(err) {
		return fmt.Errorf("kode diskon %s sudah ada: %w", req.Kode, apperror.ErrConflict)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("diskon %d: %w", id, apperror.ErrNotFound)
	}
	return nil
}
