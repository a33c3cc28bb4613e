package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/optometri/models"
)

var fixedNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.Local)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(v int) *int { return &v }

func newResepService(t *testing.T) (*ResepService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	svc := NewResepService(db, NewOptometrisService(db))
	svc.Now = func() time.Time { return fixedNow }
	return svc, mock
}

func validRequest() models.ResepRequest {
	return models.ResepRequest{
		OD: models.Mata{Sph: dec("-2.25"), Cyl: dec("-0.75"), Axis: intPtr(90), Add: dec("1.50")},
		OS: models.Mata{Sph: dec("-2.00"), Cyl: dec("0"), Axis: intPtr(10), Add: dec("1.50")},
		PD: dec("63.5"),
	}
}

func TestValidateResep(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *models.ResepRequest)
		ok     bool
	}{
		{"valid", func(r *models.ResepRequest) {}, true},
		{"sph bukan kelipatan", func(r *models.ResepRequest) { r.OD.Sph = dec("-2.10") }, false},
		{"sph di luar rentang", func(r *models.ResepRequest) { r.OS.Sph = dec("30.25") }, false},
		{"cyl positif", func(r *models.ResepRequest) { r.OD.Cyl = dec("0.50") }, false},
		{"cyl batas bawah", func(r *models.ResepRequest) { r.OD.Cyl = dec("-10") }, true},
		{"axis wajib", func(r *models.ResepRequest) { r.OD.Axis = nil }, false},
		{"axis di luar rentang", func(r *models.ResepRequest) { r.OD.Axis = intPtr(181) }, false},
		{"axis tidak wajib untuk cyl 0", func(r *models.ResepRequest) { r.OS.Axis = nil }, true},
		{"add terlalu besar", func(r *models.ResepRequest) { r.OD.Add = dec("4.25") }, false},
		{"pd terlalu kecil", func(r *models.ResepRequest) { r.PD = dec("39.5") }, false},
		{"pd batas atas", func(r *models.ResepRequest) { r.PD = dec("80") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.modify(&req)
			err := ValidateResep(req)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperror.ErrInvalidInput)
			}
		})
	}
}

func TestCreateResep(t *testing.T) {
	svc, mock := newResepService(t)
	mock.ExpectQuery(`SELECT 1 FROM Pasien`).WithArgs(3).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(`FROM Karyawan\s+WHERE id_karyawan = \? AND role = \?`).WithArgs(4, models.RoleOptometris).
		WillReturnRows(sqlmock.NewRows([]string{"id_karyawan", "nama", "username"}).AddRow(4, "Rina", "rina"))
	mock.ExpectExec(`INSERT INTO Resep`).
		WithArgs(3, 4, dec("-2.25"), dec("-0.75"), 90, dec("1.50"),
			dec("-2.00"), dec("0"), nil, dec("1.50"), dec("63.5"), "kontrol 6 bulan", fixedNow).
		WillReturnResult(sqlmock.NewResult(11, 1))

	req := validRequest()
	req.IDOptometris = intPtr(4)
	req.Catatan = " kontrol 6 bulan "
	r, err := svc.CreateResep(context.Background(), 3, req)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 11, r.ID)
	assert.Equal(t, "Rina", *r.NamaOptometris)
	assert.Nil(t, r.OS.Axis, "axis dibuang untuk cyl 0")
}

func TestCreateResepUnknownPatientOrOptometrist(t *testing.T) {
	svc, mock := newResepService(t)
	mock.ExpectQuery(`SELECT 1 FROM Pasien`).WithArgs(3).WillReturnRows(sqlmock.NewRows([]string{"1"}))

	_, err := svc.CreateResep(context.Background(), 3, validRequest())
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	mock.ExpectQuery(`SELECT 1 FROM Pasien`).WithArgs(3).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(`FROM Karyawan`).WillReturnRows(sqlmock.NewRows([]string{"id_karyawan", "nama", "username"}))
	req := validRequest()
	req.IDOptometris = intPtr(2)
	_, err = svc.CreateResep(context.Background(), 3, req)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

var resepCols = []string{"id_resep", "id_pasien", "id_optometris", "nama", "od_sph", "od_cyl", "od_axis", "od_add",
	"os_sph", "os_cyl", "os_axis", "os_add", "pd", "catatan", "created_at"}

func TestListResepNewestFirst(t *testing.T) {
	svc, mock := newResepService(t)
	mock.ExpectQuery(`SELECT 1 FROM Pasien`).WithArgs(3).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(`WHERE r.id_pasien = \? ORDER BY r.created_at DESC`).WithArgs(3).
		WillReturnRows(sqlmock.NewRows(resepCols).
			AddRow(12, 3, nil, nil, "-1.00", "0.00", nil, "0.00", "-1.25", "-0.50", 180, "0.00", "62.0", nil, fixedNow).
			AddRow(11, 3, 4, "Rina", "-2.25", "-0.75", 90, "1.50", "-2.00", "0.00", nil, "1.50", "63.5", "kontrol", fixedNow.AddDate(-1, 0, 0)))

	list, err := svc.ListByPasien(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 12, list[0].ID)
	assert.Nil(t, list[0].IDOptometris)
	assert.Equal(t, 180, *list[0].OS.Axis)
	assert.Equal(t, "Rina", *list[1].NamaOptometris)
	assert.True(t, list[1].OD.Add.Equal(dec("1.5")))
}

func TestGetResepNotFound(t *testing.T) {
	svc, mock := newResepService(t)
	mock.ExpectQuery(`WHERE r.id_resep = \?`).WithArgs(99).WillReturnRows(sqlmock.NewRows(resepCols))

	_, err := svc.GetResep(context.Background(), 99)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListOptometris(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(`WHERE role = \? AND deleted_at IS NULL`).WithArgs(models.RoleOptometris).
		WillReturnRows(sqlmock.NewRows([]string{"id_karyawan", "nama", "username"}).AddRow(4, "Rina", "rina"))

	list, err := NewOptometrisService(db).ListOptometris(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Optometris{{ID: 4, Nama: "Rina", Username: "rina"}}, list)
}
