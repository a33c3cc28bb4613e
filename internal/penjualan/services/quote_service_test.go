package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/penjualan/models"
)

var quoteCols = []string{"id_penawaran", "folio", "id_pasien", "nama", "id_resep", "id_karyawan", "items", "kode_diskon",
	"subtotal", "diskon", "pajak", "total", "status", "valid_until", "created_at"}

const quoteItemsJSON = `[{"line":1,"kind":"lens","ref_id":7,"deskripsi":"Lensa lama","qty":1,"harga_satuan":"1000"},` +
	`{"line":2,"kind":"frame","deskripsi":"Rangka","qty":1,"harga_satuan":"899.90"}]`

func newQuoteFixture(t *testing.T) (*QuoteService, cartFixture) {
	t.Helper()
	fx := newCartFixture(t)
	svc := NewQuoteService(fx.db, fx.svc, 15)
	svc.Now = func() time.Time { return fixedNow }
	return svc, fx
}

func quoteRow(status string, validUntil time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(quoteCols).AddRow(5, "COT-20260501-0002", 3, "Sari Dewi", 11, 1, quoteItemsJSON, `[]`,
		"1899.90", "0.00", "303.98", "2203.88", status, validUntil, fixedNow.AddDate(0, 0, -9))
}

func TestCreateQuoteFromItems(t *testing.T) {
	svc, fx := newQuoteFixture(t)
	expectPasien(fx.mock, 3)
	fx.mock.ExpectBegin()
	expectFolio(fx.mock, PrefixQuote, 1)
	fx.mock.ExpectExec(`INSERT INTO Penawaran`).WillReturnResult(sqlmock.NewResult(12, 1))
	fx.mock.ExpectCommit()

	q, err := svc.CreateQuote(context.Background(), models.QuoteRequest{
		IDPasien: intPtr(3),
		Items: []models.LineItemRequest{
			{Kind: models.KindLens, RefID: intPtr(7), Qty: 1},
			{Kind: models.KindService, Deskripsi: "Pemeriksaan", Qty: 1, HargaSatuan: decPtr("150")},
		},
	}, 1)
	require.NoError(t, err)
	assert.NoError(t, fx.mock.ExpectationsWereMet())

	assert.Equal(t, 12, q.ID)
	assert.Equal(t, "COT-20260510-0001", q.Folio)
	assert.Equal(t, models.QuoteDraft, q.Status)
	assert.Equal(t, fixedNow.AddDate(0, 0, 15), q.ValidUntil)
	assert.Equal(t, "1400", q.Subtotal.String())
	assert.Equal(t, "1624", q.Total.String())
	assert.Equal(t, []string{}, q.KodeDiskon)
}

func TestCreateQuoteFromCart(t *testing.T) {
	svc, fx := newQuoteFixture(t)
	ctx := context.Background()
	expectPasien(fx.mock, 3)
	cart, err := fx.svc.NewCart(ctx, models.NewCartRequest{IDPasien: intPtr(3)}, 1)
	require.NoError(t, err)
	_, err = fx.svc.AddItem(ctx, cart.ID, models.LineItemRequest{Kind: models.KindFrame, Deskripsi: "Rangka", Qty: 1, HargaSatuan: decPtr("500")})
	require.NoError(t, err)

	expectPasien(fx.mock, 3)
	fx.mock.ExpectBegin()
	expectFolio(fx.mock, PrefixQuote, 5)
	fx.mock.ExpectExec(`INSERT INTO Penawaran`).WillReturnResult(sqlmock.NewResult(13, 1))
	fx.mock.ExpectCommit()

	q, err := svc.CreateQuote(ctx, models.QuoteRequest{IDCart: cart.ID}, 1)
	require.NoError(t, err)
	assert.Equal(t, "COT-20260510-0005", q.Folio)
	assert.Equal(t, 3, q.IDPasien)
	assert.Equal(t, "580", q.Total.String())

	// keranjang tetap ada; penawaran hanya snapshot
	_, err = fx.svc.GetCart(ctx, cart.ID)
	assert.NoError(t, err)
}

func TestCreateQuoteValidation(t *testing.T) {
	svc, _ := newQuoteFixture(t)
	_, err := svc.CreateQuote(context.Background(), models.QuoteRequest{
		Items: []models.LineItemRequest{{Kind: models.KindService, Deskripsi: "Servis", Qty: 1, HargaSatuan: decPtr("10")}},
	}, 1)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput, "pasien wajib")

	_, err = svc.CreateQuote(context.Background(), models.QuoteRequest{IDPasien: intPtr(3)}, 1)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput, "item wajib")
}

func TestCreateQuoteRejectsForeignPrescription(t *testing.T) {
	svc, fx := newQuoteFixture(t)
	expectPasien(fx.mock, 3)
	expectResep(fx.mock, 20, 8)

	_, err := svc.CreateQuote(context.Background(), models.QuoteRequest{
		IDPasien: intPtr(3),
		IDResep:  intPtr(20),
		Items:    []models.LineItemRequest{{Kind: models.KindService, Deskripsi: "Servis", Qty: 1, HargaSatuan: decPtr("10")}},
	}, 1)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.NoError(t, fx.mock.ExpectationsWereMet(), "tidak ada INSERT")
}

func TestGetQuoteExpiresLazily(t *testing.T) {
	svc, fx := newQuoteFixture(t)
	fx.mock.ExpectQuery(`WHERE q.id_penawaran = \?`).WithArgs(5).
		WillReturnRows(quoteRow("sent", fixedNow.Add(-time.Hour)))
	fx.mock.ExpectExec(`UPDATE Penawaran SET status = \?, updated_at = \? WHERE id_penawaran = \?`).
		WithArgs(models.QuoteExpired, fixedNow, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	q, err := svc.GetQuote(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteExpired, q.Status)
	require.Len(t, q.Items, 2)
	assert.Equal(t, "899.9", q.Items[1].HargaSatuan.String())
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestQuoteToCartRefreshesLensPrice(t *testing.T) {
	svc, fx := newQuoteFixture(t)
	fx.mock.ExpectQuery(`WHERE q.id_penawaran = \?`).WithArgs(5).
		WillReturnRows(quoteRow("sent", fixedNow.AddDate(0, 0, 3)))
	fx.mock.ExpectExec(`UPDATE Penawaran SET status = \?, updated_at = \? WHERE id_penawaran = \? AND status = \?`).
		WithArgs(models.QuoteAccepted, fixedNow, 5, models.QuoteSent).
		WillReturnResult(sqlmock.NewResult(0, 1))

	v, err := svc.ToCart(context.Background(), 5, 1)
	require.NoError(t, err)
	assert.NoError(t, fx.mock.ExpectationsWereMet())

	require.NotNil(t, v.IDPenawaran)
	assert.Equal(t, 5, *v.IDPenawaran)
	assert.Equal(t, 3, *v.IDPasien)
	assert.Equal(t, "Progresif 1.67", v.Items[0].Deskripsi)
	assert.Equal(t, "1250", v.Items[0].HargaSatuan.String())
	assert.Equal(t, "2149.9", v.Totals.Subtotal.String())
	assert.Equal(t, 3, v.NextLine)
}

func TestQuoteToCartRejectsClosedQuote(t *testing.T) {
	svc, fx := newQuoteFixture(t)
	fx.mock.ExpectQuery(`WHERE q.id_penawaran = \?`).WithArgs(5).
		WillReturnRows(quoteRow("converted", fixedNow.AddDate(0, 0, 3)))

	_, err := svc.ToCart(context.Background(), 5, 1)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func TestUpdateQuoteStatus(t *testing.T) {
	svc, fx := newQuoteFixture(t)
	fx.mock.ExpectQuery(`WHERE q.id_penawaran = \?`).WithArgs(5).
		WillReturnRows(quoteRow("accepted", fixedNow.AddDate(0, 0, 3)))

	_, err := svc.UpdateStatus(context.Background(), 5, models.QuoteSent)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	fx.mock.ExpectQuery(`WHERE q.id_penawaran = \?`).WithArgs(5).
		WillReturnRows(quoteRow("draft", fixedNow.AddDate(0, 0, 3)))
	fx.mock.ExpectExec(`UPDATE Penawaran SET status = \?`).
		WithArgs(models.QuoteSent, fixedNow, 5, models.QuoteDraft).
		WillReturnResult(sqlmock.NewResult(0, 1))

	q, err := svc.UpdateStatus(context.Background(), 5, models.QuoteSent)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteSent, q.Status)
}

func TestQuoteToCartChecksLensAvailability(t *testing.T) {
	tests := []struct {
		name  string
		items string
	}{
		{"lensa nonaktif", `[{"line":1,"kind":"lens","ref_id":8,"deskripsi":"Lensa lama","qty":1,"harga_satuan":"200"}]`},
		{"stok kurang", `[{"line":1,"kind":"lens","ref_id":7,"deskripsi":"Progresif","qty":2,"harga_satuan":"1250"},` +
			`{"line":2,"kind":"lens","ref_id":7,"deskripsi":"Progresif","qty":2,"harga_satuan":"1250"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, fx := newQuoteFixture(t)
			fx.mock.ExpectQuery(`WHERE q.id_penawaran = \?`).WithArgs(5).
				WillReturnRows(sqlmock.NewRows(quoteCols).AddRow(5, "COT-20260501-0002", 3, "Sari Dewi", nil, 1, tt.items, `[]`,
					"200.00", "0.00", "32.00", "232.00", "sent", fixedNow.AddDate(0, 0, 3), fixedNow.AddDate(0, 0, -9)))

			_, err := svc.ToCart(context.Background(), 5, 1)
			assert.ErrorIs(t, err, apperror.ErrUnprocessable)
			// status penawaran tidak berubah
			assert.NoError(t, fx.mock.ExpectationsWereMet())
		})
	}
}
