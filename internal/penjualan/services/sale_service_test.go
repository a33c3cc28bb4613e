package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/penjualan/models"
)

type recordedEvent struct {
	Type string
	Data interface{}
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Publish(eventType string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Type: eventType, Data: data})
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

var saleCols = []string{"id_penjualan", "folio", "id_pasien", "nama", "id_karyawan", "id_resep", "id_penawaran",
	"subtotal", "diskon", "pajak", "total", "dibayar", "status", "cancel_reason", "created_at"}

func newSaleService(t *testing.T) (*SaleService, sqlmock.Sqlmock, *recorder) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	rec := &recorder{}
	svc := NewSaleService(db, rec)
	svc.Now = func() time.Time { return fixedNow }
	return svc, mock, rec
}

// expectGetSale mendaftarkan query yang dijalankan GetSale.
func expectGetSale(mock sqlmock.Sqlmock, id int, dibayar string, status models.SaleStatus) {
	mock.ExpectQuery(`FROM Penjualan p JOIN Pasien ps ON ps.id_pasien = p.id_pasien\s+WHERE p.id_penjualan = \?`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(saleCols).AddRow(id, "VTA-20260510-0004", 3, "Sari Dewi", 1, 11, nil,
			"3399.90", "0.00", "543.98", "3943.88", dibayar, string(status), nil, fixedNow))
	mock.ExpectQuery(`FROM Penjualan_Item`).WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"kind", "ref_id", "deskripsi", "qty", "harga_satuan"}).
			AddRow("lens", 7, "Progresif 1.67", 2, "1250.00").
			AddRow("frame", nil, "Rangka titanium", 1, "899.90"))
	mock.ExpectQuery(`FROM Penjualan_Diskon`).WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id_diskon", "kode", "nama", "jumlah"}))
	mock.ExpectQuery(`FROM Pembayaran WHERE id_penjualan = \?`).WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id_pembayaran", "metode", "jumlah", "referensi", "id_karyawan", "created_at"}).
			AddRow(5, "cash", "2000.00", "", 1, fixedNow))
	mock.ExpectQuery(`FROM Order_Lab WHERE id_penjualan = \?`).WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id_order"}))
}

func TestGetSaleDetail(t *testing.T) {
	svc, mock, _ := newSaleService(t)
	expectGetSale(mock, 41, "2000.00", models.SalePartial)

	sale, err := svc.GetSale(context.Background(), 41)
	require.NoError(t, err)
	assert.Equal(t, "1943.88", sale.Sisa.String())
	require.Len(t, sale.Items, 2)
	assert.Equal(t, 7, *sale.Items[0].RefID)
	assert.Nil(t, sale.Items[1].RefID)
	assert.Equal(t, 2, sale.Items[1].Line)
	assert.Nil(t, sale.Order)
	assert.Nil(t, sale.IDPenawaran)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSaleNotFound(t *testing.T) {
	svc, mock, _ := newSaleService(t)
	mock.ExpectQuery(`WHERE p.id_penjualan = \?`).WithArgs(99).WillReturnRows(sqlmock.NewRows(saleCols))

	_, err := svc.GetSale(context.Background(), 99)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAddPaymentCompletesSale(t *testing.T) {
	svc, mock, _ := newSaleService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT total, dibayar, status FROM Penjualan WHERE id_penjualan = \? FOR UPDATE`).WithArgs(41).
		WillReturnRows(sqlmock.NewRows([]string{"total", "dibayar", "status"}).AddRow("3943.88", "2000.00", "partial"))
	mock.ExpectExec(`INSERT INTO Pembayaran`).
		WithArgs(41, models.PaymentTransfer, dec("1943.88"), "TRX-1", 2, fixedNow).
		WillReturnResult(sqlmock.NewResult(6, 1))
	mock.ExpectExec(`UPDATE Penjualan SET dibayar = \?, status = \?`).
		WithArgs(dec("3943.88"), models.SalePaid, fixedNow, 41).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectGetSale(mock, 41, "3943.88", models.SalePaid)

	sale, err := svc.AddPayment(context.Background(), 41,
		models.Payment{Metode: models.PaymentTransfer, Jumlah: dec("1943.88"), Referensi: "TRX-1"}, 2)
	require.NoError(t, err)
	assert.Equal(t, models.SalePaid, sale.Status)
	assert.True(t, sale.Sisa.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddPaymentRejected(t *testing.T) {
	tests := []struct {
		name    string
		dibayar string
		status  string
		jumlah  string
		want    error
	}{
		{"melebihi sisa", "50.00", "partial", "60", apperror.ErrUnprocessable},
		{"sudah lunas", "100.00", "paid", "1", apperror.ErrUnprocessable},
		{"dibatalkan", "50.00", "cancelled", "1", apperror.ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock, _ := newSaleService(t)
			mock.ExpectBegin()
			mock.ExpectQuery(`FOR UPDATE`).
				WillReturnRows(sqlmock.NewRows([]string{"total", "dibayar", "status"}).AddRow("100.00", tt.dibayar, tt.status))
			mock.ExpectRollback()

			_, err := svc.AddPayment(context.Background(), 41, models.Payment{Metode: models.PaymentCash, Jumlah: dec(tt.jumlah)}, 1)
			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCancelSaleBlockedByProcessedOrder(t *testing.T) {
	svc, mock, _ := newSaleService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM Penjualan`).WithArgs(41).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("partial"))
	mock.ExpectQuery(`SELECT id_order, status FROM Order_Lab`).WithArgs(41).
		WillReturnRows(sqlmock.NewRows([]string{"id_order", "status"}).AddRow(9, "sent"))
	mock.ExpectRollback()

	_, err := svc.CancelSale(context.Background(), 41, "pasien batal")
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelSaleRestoresStockAndCancelsOrder(t *testing.T) {
	svc, mock, rec := newSaleService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM Penjualan`).WithArgs(41).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("partial"))
	mock.ExpectQuery(`SELECT id_order, status FROM Order_Lab`).WithArgs(41).
		WillReturnRows(sqlmock.NewRows([]string{"id_order", "status"}).AddRow(9, "pending"))
	mock.ExpectQuery(`SELECT ref_id, qty FROM Penjualan_Item`).WithArgs(41, models.KindLens).
		WillReturnRows(sqlmock.NewRows([]string{"ref_id", "qty"}).AddRow(7, 2))
	mock.ExpectExec(`UPDATE Lensa SET stok = stok \+ \?`).WithArgs(2, 7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE Diskon SET used = used - 1`).WithArgs(41).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE Order_Lab SET status = \?`).WithArgs(models.OrderCancelled, fixedNow, 9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE Penjualan SET status = \?, cancel_reason = \?`).
		WithArgs(models.SaleCancelled, "pasien batal", fixedNow, 41).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectGetSale(mock, 41, "2000.00", models.SaleCancelled)

	sale, err := svc.CancelSale(context.Background(), 41, "  pasien batal ")
	require.NoError(t, err)
	assert.Equal(t, models.SaleCancelled, sale.Status)
	assert.Equal(t, []string{"order_update"}, rec.types())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelSaleRequiresReason(t *testing.T) {
	svc, _, _ := newSaleService(t)
	_, err := svc.CancelSale(context.Background(), 41, " ")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}
