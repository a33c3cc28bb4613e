package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/c14220110/optik-backend/internal/administrasi/models"
	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/pkg/storage/objectstore"
	"github.com/c14220110/optik-backend/pkg/utils"
)

type PasienService struct {
	DB      *sql.DB
	Storage objectstore.Storage
	Now     func() time.Time
}

func NewPasienService(db *sql.DB, storage objectstore.Storage) *PasienService {
	return &PasienService{DB: db, Storage: storage, Now: time.Now}
}

const pasienColumns = `id_pasien, nama, tanggal_lahir, jenis_kelamin, no_telp, email, alamat, nik, catatan,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPasien(row rowScanner) (models.Pasien, error) {
	var p models.Pasien
	var lahir sql.NullTime
	var jk, email, alamat, nik, catatan sql.NullString
	err := row.Scan(&p.ID, &p.Nama, &lahir, &jk, &p.NoTelp, &email, &alamat, &nik, &catatan, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	if lahir.Valid {
		p.TanggalLahir = &lahir.Time
	}
	p.JenisKelamin = nullString(jk)
	p.Email = nullString(email)
	p.Alamat = nullString(alamat)
	p.NIK = nullString(nik)
	p.Catatan = nullString(catatan)
	return p, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

// optional mengubah string kosong menjadi NULL.
func optional(s string) interface{} {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return s
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// pasienArgs mengembalikan nilai kolom dari request dalam urutan
// nama, tanggal_lahir, jenis_kelamin, no_telp, email, alamat, nik, catatan.
func pasienArgs(req models.PasienRequest) ([]interface{}, error) {
	var lahir interface{}
	if req.TanggalLahir != "" {
		t, err := time.ParseInLocation("2006-01-02", req.TanggalLahir, time.Local)
		if err != nil {
			return nil, fmt.Errorf("tanggal_lahir: %v: %w", err, apperror.ErrInvalidInput)
		}
		lahir = t
	}
	nama := strings.TrimSpace(req.Nama)
	telp := strings.TrimSpace(req.NoTelp)
	if nama == "" || telp == "" {
		return nil, fmt.Errorf("nama dan no_telp wajib diisi: %w", apperror.ErrInvalidInput)
	}
	return []interface{}{nama, lahir, optional(req.JenisKelamin), telp, optional(req.Email),
		optional(req.Alamat), optional(req.NIK), optional(req.Catatan)}, nil
}

// checkNIK memastikan NIK belum dipakai pasien lain.
func (s *PasienService) checkNIK(ctx context.Context, nik string, exclude int) error {
	if nik = strings.TrimSpace(nik); nik == "" {
		return nil
	}
	var id int
	err := s.DB.QueryRowContext(ctx, "SELECT id_pasien FROM Pasien WHERE nik = ? AND id_pasien <> ?", nik, exclude).Scan(&id)
	if err == nil {
		return fmt.Errorf("NIK %s sudah terdaftar: %w", nik, apperror.ErrConflict)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

func (s *PasienService) CreatePasien(ctx context.Context, req models.PasienRequest) (*models.Pasien, error) {
	args, err := pasienArgs(req)
	if err != nil {
		return nil, err
	}
	if err := s.checkNIK(ctx, req.NIK, 0); err != nil {
		return nil, err
	}
	now := s.Now()
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO Pasien (nama, tanggal_lahir, jenis_kelamin, no_telp, email, alamat, nik, catatan, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, append(args, now, now)...)
	if isDuplicate(err) {
		return nil, fmt.Errorf("NIK %s sudah terdaftar: %w", req.NIK, apperror.ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetPasien(ctx, int(id))
}

// ListPasien mencari pasien berdasarkan nama, no telp atau NIK, terbaru dulu.
func (s *PasienService) ListPasien(ctx context.Context, q string, p utils.Page) ([]models.Pasien, int, error) {
	where := " WHERE deleted_at IS NULL"
	var args []interface{}
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + q + "%"
		where += " AND (nama LIKE ? OR no_telp LIKE ? OR nik LIKE ?)"
		args = append(args, like, like, like)
	}

	var total int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM Pasien"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.DB.QueryContext(ctx,
		"SELECT "+pasienColumns+" FROM Pasien"+where+" ORDER BY created_at DESC, id_pasien DESC LIMIT ? OFFSET ?",
		append(args, p.Limit, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.Pasien
	for rows.Next() {
		ps, err := scanPasien(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, ps)
	}
	return list, total, rows.Err()
}

func (s *PasienService) GetPasien(ctx context.Context, id int) (*models.Pasien, error) {
	p, err := scanPasien(s.DB.QueryRowContext(ctx,
		"SELECT "+pasienColumns+" FROM Pasien WHERE id_pasien = ? AND deleted_at IS NULL", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pasien %d: %w", id, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PasienService) UpdatePasien(ctx context.Context, id int, req models.PasienRequest) (*models.Pasien, error) {
	args, err := pasienArgs(req)
	if err != nil {
		return nil, err
	}
	if err := s.checkNIK(ctx, req.NIK, id); err != nil {
		return nil, err
	}
	res, err := s.DB.ExecContext(ctx, `
		UPDATE Pasien SET nama = ?, tanggal_lahir = ?, jenis_kelamin = ?, no_telp = ?, email = ?, alamat = ?,
			nik = ?, catatan = ?, updated_at = ?
		WHERE id_pasien = ? AND deleted_at IS NULL`, append(args, s.Now(), id)...)
	if isDuplicate(err) {
		return nil, fmt.Errorf("NIK %s sudah terdaftar: %w", req.NIK, apperror.ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("pasien %d: %w", id, apperror.ErrNotFound)
	}
	return s.GetPasien(ctx, id)
}

// DeletePasien hanya menandai deleted_at; riwayat penjualan tetap utuh.
// NIK dikosongkan agar pasien yang sama bisa didaftarkan ulang.
func (s *PasienService) DeletePasien(ctx context.Context, id int) error {
	res, err := s.DB.ExecContext(ctx,
		"UPDATE Pasien SET deleted_at = ?, nik = NULL WHERE id_pasien = ? AND deleted_at IS NULL", s.Now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("pasien %d: %w", id, apperror.ErrNotFound)
	}
	return nil
}

func (s *PasienService) History(ctx context.Context, id int) (*models.History, error) {
	p, err := s.GetPasien(ctx, id)
	if err != nil {
		return nil, err
	}
	h := &models.History{
		Pasien:    *p,
		Janji:     []models.HistoryJanji{},
		Penawaran: []models.HistoryDokumen{},
		Penjualan: []models.HistoryDokumen{},
	}

	rows, err := s.DB.QueryContext(ctx,
		"SELECT id_janji, jenis, mulai, status FROM Janji_Temu WHERE id_pasien = ? ORDER BY mulai DESC", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var j models.HistoryJanji
		if err := rows.Scan(&j.ID, &j.Jenis, &j.Mulai, &j.Status); err != nil {
			return nil, err
		}
		h.Janji = append(h.Janji, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if h.Penawaran, err = s.historyDocs(ctx,
		"SELECT id_penawaran, folio, total, status, created_at FROM Penawaran WHERE id_pasien = ? ORDER BY created_at DESC", id); err != nil {
		return nil, err
	}
	if h.Penjualan, err = s.historyDocs(ctx,
		"SELECT id_penjualan, folio, total, status, created_at FROM Penjualan WHERE id_pasien = ? ORDER BY created_at DESC", id); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *PasienService) historyDocs(ctx context.Context, query string, id int) ([]models.HistoryDokumen, error) {
	rows, err := s.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.HistoryDokumen{}
	for rows.Next() {
		var d models.HistoryDokumen
		if err := rows.Scan(&d.ID, &d.Folio, &d.Total, &d.Status, &d.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

func validDokumenType(jenis string) bool {
	for _, t := range models.DokumenTypes {
		if t == jenis {
			return true
		}
	}
	return false
}

// UploadDokumen menyimpan gambar dokumen pasien ke object storage.
func (s *PasienService) UploadDokumen(ctx context.Context, id int, jenis string, data []byte, contentType string) (*models.Dokumen, error) {
	if !validDokumenType(jenis) {
		return nil, fmt.Errorf("jenis dokumen %q: %w", jenis, apperror.ErrInvalidInput)
	}
	if _, err := s.GetPasien(ctx, id); err != nil {
		return nil, err
	}
	key, err := objectstore.ImageKey("pasien", id, contentType)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperror.ErrInvalidInput)
	}
	if err := s.Storage.Upload(ctx, key, data, contentType); err != nil {
		if errors.Is(err, objectstore.ErrDisabled) {
			return nil, fmt.Errorf("%v: %w", err, apperror.ErrUnprocessable)
		}
		return nil, err
	}

	d := &models.Dokumen{IDPasien: id, Jenis: jenis, ObjectKey: key, ContentType: contentType, CreatedAt: s.Now()}
	res, err := s.DB.ExecContext(ctx,
		"INSERT INTO Dokumen_Pasien (id_pasien, jenis, object_key, content_type, created_at) VALUES (?, ?, ?, ?, ?)",
		id, jenis, key, contentType, d.CreatedAt)
	if err != nil {
		return nil, err
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	d.ID = int(newID)
	if url, err := s.Storage.DownloadURL(ctx, key); err == nil {
		d.URL = url
	}
	return d, nil
}

func (s *PasienService) ListDokumen(ctx context.Context, id int) ([]models.Dokumen, error) {
	if _, err := s.GetPasien(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id_dokumen, id_pasien, jenis, object_key, content_type, created_at
		FROM Dokumen_Pasien WHERE id_pasien = ? ORDER BY created_at DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Dokumen{}
	for rows.Next() {
		var d models.Dokumen
		if err := rows.Scan(&d.ID, &d.IDPasien, &d.Jenis, &d.ObjectKey, &d.ContentType, &d.CreatedAt); err != nil {
			return nil, err
		}
		if url, err := s.Storage.DownloadURL(ctx, d.ObjectKey); err == nil {
			d.URL = url
		}
		list = append(list, d)
	}
	return list, rows.Err()
}
