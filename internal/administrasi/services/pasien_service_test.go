package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c14220110/optik-backend/internal/administrasi/models"
	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/pkg/storage/objectstore"
	"github.com/c14220110/optik-backend/pkg/utils"
)

var fixedNow = time.Date(2026, 5, 10, 10, 30, 0, 0, time.Local)

type fakeStorage struct {
	keys []string
	err  error
}

func (f *fakeStorage) Upload(_ context.Context, key string, _ []byte, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakeStorage) DownloadURL(_ context.Context, key string) (string, error) {
	return "https://cdn.test/" + key, nil
}

func newPasienService(t *testing.T) (*PasienService, sqlmock.Sqlmock, *fakeStorage) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := &fakeStorage{}
	svc := NewPasienService(db, st)
	svc.Now = func() time.Time { return fixedNow }
	return svc, mock, st
}

var pasienCols = []string{"id_pasien", "nama", "tanggal_lahir", "jenis_kelamin", "no_telp", "email", "alamat", "nik",
	"catatan", "created_at", "updated_at"}

func pasienRow(id int) *sqlmock.Rows {
	return sqlmock.NewRows(pasienCols).AddRow(id, "Sari Dewi", time.Date(1990, 3, 2, 0, 0, 0, 0, time.Local), "P",
		"08123456789", nil, "Jl. Mawar 3", "3578011203900001", nil, fixedNow, fixedNow)
}

func TestCreatePasien(t *testing.T) {
	svc, mock, _ := newPasienService(t)
	mock.ExpectQuery(`SELECT id_pasien FROM Pasien WHERE nik = \?`).WithArgs("3578011203900001", 0).
		WillReturnRows(sqlmock.NewRows([]string{"id_pasien"}))
	mock.ExpectExec(`INSERT INTO Pasien`).
		WithArgs("Sari Dewi", time.Date(1990, 3, 2, 0, 0, 0, 0, time.Local), "P", "08123456789", nil, "Jl. Mawar 3",
			"3578011203900001", nil, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery(`WHERE id_pasien = \? AND deleted_at IS NULL`).WithArgs(3).WillReturnRows(pasienRow(3))

	p, err := svc.CreatePasien(context.Background(), models.PasienRequest{
		Nama: " Sari Dewi ", TanggalLahir: "1990-03-02", JenisKelamin: "P", NoTelp: "08123456789",
		Alamat: "Jl. Mawar 3", NIK: "3578011203900001",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, p.ID)
	assert.Nil(t, p.Email)
	assert.Equal(t, "P", *p.JenisKelamin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePasienDuplicateNIK(t *testing.T) {
	svc, mock, _ := newPasienService(t)
	mock.ExpectQuery(`SELECT id_pasien FROM Pasien WHERE nik = \?`).
		WillReturnRows(sqlmock.NewRows([]string{"id_pasien"}).AddRow(1))

	_, err := svc.CreatePasien(context.Background(), models.PasienRequest{Nama: "A", NoTelp: "1", NIK: "123"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	// balapan antar request tetap tertangkap oleh unique index
	mock.ExpectQuery(`SELECT id_pasien FROM Pasien WHERE nik = \?`).WillReturnRows(sqlmock.NewRows([]string{"id_pasien"}))
	mock.ExpectExec(`INSERT INTO Pasien`).WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	_, err = svc.CreatePasien(context.Background(), models.PasienRequest{Nama: "A", NoTelp: "1", NIK: "123"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestListPasienSearch(t *testing.T) {
	svc, mock, _ := newPasienService(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM Pasien WHERE deleted_at IS NULL AND \(nama LIKE \? OR no_telp LIKE \? OR nik LIKE \?\)`).
		WithArgs("%0812%", "%0812%", "%0812%").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(21))
	mock.ExpectQuery(`ORDER BY created_at DESC, id_pasien DESC LIMIT \? OFFSET \?`).
		WithArgs("%0812%", "%0812%", "%0812%", 20, 20).
		WillReturnRows(pasienRow(3))

	list, total, err := svc.ListPasien(context.Background(), "0812", utils.Page{Page: 2, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	require.Len(t, list, 1)
	assert.Equal(t, 1990, list[0].TanggalLahir.Year())
}

func TestUpdateAndDeletePasienNotFound(t *testing.T) {
	svc, mock, _ := newPasienService(t)
	mock.ExpectExec(`UPDATE Pasien SET nama = \?`).WillReturnResult(sqlmock.NewResult(0, 0))
	_, err := svc.UpdatePasien(context.Background(), 9, models.PasienRequest{Nama: "A", NoTelp: "1"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	mock.ExpectExec(`UPDATE Pasien SET deleted_at = \?`).WithArgs(fixedNow, 9).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, svc.DeletePasien(context.Background(), 9), apperror.ErrNotFound)
}

func TestDeletePasienReleasesNIK(t *testing.T) {
	svc, mock, _ := newPasienService(t)
	mock.ExpectExec(`UPDATE Pasien SET deleted_at = \?, nik = NULL WHERE id_pasien = \? AND deleted_at IS NULL`).
		WithArgs(fixedNow, 3).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, svc.DeletePasien(context.Background(), 3))

	// NIK yang sama lolos pengecekan karena baris lama sudah NULL
	mock.ExpectQuery(`SELECT id_pasien FROM Pasien WHERE nik = \?`).WithArgs("3578010101900001", 0).
		WillReturnRows(sqlmock.NewRows([]string{"id_pasien"}))
	require.NoError(t, svc.checkNIK(context.Background(), "3578010101900001", 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePasienRejectsInvalidDate(t *testing.T) {
	svc, _, _ := newPasienService(t)
	_, err := svc.UpdatePasien(context.Background(), 3, models.PasienRequest{Nama: "A", NoTelp: "1", TanggalLahir: "02/03/1990"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestHistory(t *testing.T) {
	svc, mock, _ := newPasienService(t)
	mock.ExpectQuery(`WHERE id_pasien = \? AND deleted_at IS NULL`).WithArgs(3).WillReturnRows(pasienRow(3))
	mock.ExpectQuery(`FROM Janji_Temu WHERE id_pasien = \?`).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id_janji", "jenis", "mulai", "status"}).AddRow(21, "exam", fixedNow, "completed"))
	mock.ExpectQuery(`FROM Penawaran WHERE id_pasien = \?`).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id_penawaran", "folio", "total", "status", "created_at"}))
	mock.ExpectQuery(`FROM Penjualan WHERE id_pasien = \?`).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id_penjualan", "folio", "total", "status", "created_at"}).
			AddRow(41, "VTA-20260510-0004", "3943.88", "partial", fixedNow))

	h, err := svc.History(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, h.Janji, 1)
	assert.Empty(t, h.Penawaran)
	require.Len(t, h.Penjualan, 1)
	assert.Equal(t, "3943.88", h.Penjualan[0].Total.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadDokumen(t *testing.T) {
	svc, mock, st := newPasienService(t)

	_, err := svc.UploadDokumen(context.Background(), 3, "foto", []byte("x"), "image/png")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	mock.ExpectQuery(`WHERE id_pasien = \? AND deleted_at IS NULL`).WithArgs(3).WillReturnRows(pasienRow(3))
	mock.ExpectExec(`INSERT INTO Dokumen_Pasien`).
		WithArgs(3, "ktp", sqlmock.AnyArg(), "image/jpeg", fixedNow).
		WillReturnResult(sqlmock.NewResult(5, 1))

	d, err := svc.UploadDokumen(context.Background(), 3, "ktp", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	require.Len(t, st.keys, 1)
	assert.Equal(t, st.keys[0], d.ObjectKey)
	assert.Equal(t, "https://cdn.test/"+d.ObjectKey, d.URL)
	assert.Equal(t, 5, d.ID)

	svc.Storage = objectstore.Disabled{}
	mock.ExpectQuery(`WHERE id_pasien = \? AND deleted_at IS NULL`).WithArgs(3).WillReturnRows(pasienRow(3))
	_, err = svc.UploadDokumen(context.Background(), 3, "ktp", []byte("jpeg"), "image/jpeg")
	assert.ErrorIs(t, err, apperror.ErrUnprocessable)
}
