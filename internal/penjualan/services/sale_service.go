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
	"github.com/c14220110/optik-backend/pkg/utils"
	"github.com/c14220110/optik-backend/ws"
)

type SaleService struct {
	DB     *sql.DB
	Events ws.Publisher
	Now    func() time.Time
}

func NewSaleService(db *sql.DB, events ws.Publisher) *SaleService {
	if events == nil {
		events = ws.Nop{}
	}
	return &SaleService{DB: db, Events: events, Now: time.Now}
}

const saleColumns = `p.id_penjualan, p.folio, p.id_pasien, ps.nama, p.id_karyawan, p.id_resep, p.id_penawaran,
	p.subtotal, p.diskon, p.pajak, p.total, p.dibayar, p.status, p.cancel_reason, p.created_at`

func scanSale(row rowScanner) (models.Sale, error) {
	var sale models.Sale
	var idResep, idPenawaran sql.NullInt64
	var reason sql.NullString
	err := row.Scan(&sale.ID, &sale.Folio, &sale.IDPasien, &sale.NamaPasien, &sale.IDKaryawan, &idResep, &idPenawaran,
		&sale.Subtotal, &sale.Diskon, &sale.Pajak, &sale.Total, &sale.Dibayar, &sale.Status, &reason, &sale.CreatedAt)
	if err != nil {
		return sale, err
	}
	sale.IDResep = nullInt(idResep)
	sale.IDPenawaran = nullInt(idPenawaran)
	if reason.Valid {
		sale.CancelReason = &reason.String
	}
	sale.Sisa = sale.Total.Sub(sale.Dibayar)
	return sale, nil
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

// ListSales mengembalikan penjualan terbaru lebih dulu.
func (s *SaleService) ListSales(ctx context.Context, f models.SaleFilter, p utils.Page) ([]models.Sale, int, error) {
	clauses := []string{"1=1"}
	var args []interface{}
	if f.From != nil {
		clauses = append(clauses, "p.created_at >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		clauses = append(clauses, "p.created_at < ?")
		args = append(args, *f.To)
	}
	if f.Status != "" {
		clauses = append(clauses, "p.status = ?")
		args = append(args, f.Status)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		clauses = append(clauses, "(p.folio LIKE ? OR ps.nama LIKE ?)")
		args = append(args, like, like)
	}
	where := strings.Join(clauses, " AND ")

	var total int
	err := s.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM Penjualan p JOIN Pasien ps ON ps.id_pasien = p.id_pasien WHERE "+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.DB.QueryContext(ctx, "SELECT "+saleColumns+`
		FROM Penjualan p JOIN Pasien ps ON ps.id_pasien = p.id_pasien
		WHERE `+where+` ORDER BY p.created_at DESC, p.id_penjualan DESC LIMIT ? OFFSET ?`,
		append(args, p.Limit, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, sale)
	}
	return list, total, rows.Err()
}

// GetSale memuat penjualan lengkap: item, diskon, pembayaran dan order lab.
func (s *SaleService) GetSale(ctx context.Context, id int) (*models.Sale, error) {
	row := s.DB.QueryRowContext(ctx, "SELECT "+saleColumns+`
		FROM Penjualan p JOIN Pasien ps ON ps.id_pasien = p.id_pasien
		WHERE p.id_penjualan = ?`, id)
	sale, err := scanSale(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("penjualan %d: %w", id, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if sale.Items, err = s.saleItems(ctx, id); err != nil {
		return nil, err
	}
	if sale.DiskonTerpasang, err = s.saleDiscounts(ctx, id); err != nil {
		return nil, err
	}
	if sale.Payments, err = s.salePayments(ctx, id); err != nil {
		return nil, err
	}
	if sale.Order, err = s.saleOrder(ctx, id); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *SaleService) saleItems(ctx context.Context, id int) ([]models.LineItem, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT kind, ref_id, deskripsi, qty, harga_satuan FROM Penjualan_Item
		WHERE id_penjualan = ? ORDER BY id_item`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.LineItem
	for rows.Next() {
		var it models.LineItem
		var ref sql.NullInt64
		if err := rows.Scan(&it.Kind, &ref, &it.Deskripsi, &it.Qty, &it.HargaSatuan); err != nil {
			return nil, err
		}
		it.RefID = nullInt(ref)
		it.Line = len(items) + 1
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SaleService) saleDiscounts(ctx context.Context, id int) ([]models.AppliedDiscount, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT pd.id_diskon, pd.kode, COALESCE(d.nama, ''), pd.jumlah
		FROM Penjualan_Diskon pd LEFT JOIN Diskon d ON d.id_diskon = pd.id_diskon
		WHERE pd.id_penjualan = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.AppliedDiscount
	for rows.Next() {
		var a models.AppliedDiscount
		if err := rows.Scan(&a.IDDiskon, &a.Kode, &a.Nama, &a.Jumlah); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (s *SaleService) salePayments(ctx context.Context, id int) ([]models.Payment, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id_pembayaran, metode, jumlah, COALESCE(referensi, ''), id_karyawan, created_at
		FROM Pembayaran WHERE id_penjualan = ? ORDER BY created_at, id_pembayaran`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.Metode, &p.Jumlah, &p.Referensi, &p.IDKaryawan, &p.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (s *SaleService) saleOrder(ctx context.Context, id int) (*models.LabOrder, error) {
	var o models.LabOrder
	var catatan sql.NullString
	err := s.DB.QueryRowContext(ctx, `
		SELECT id_order, folio, id_penjualan, id_resep, status, catatan, created_at, updated_at
		FROM Order_Lab WHERE id_penjualan = ?`, id,
	).Scan(&o.ID, &o.Folio, &o.IDPenjualan, &o.IDResep, &o.Status, &catatan, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if catatan.Valid {
		o.Catatan = &catatan.String
	}
	return &o, nil
}

// AddPayment mencatat cicilan. Saldo yang mencapai nol mengubah status menjadi paid.
func (s *SaleService) AddPayment(ctx context.Context, id int, p models.Payment, idKaryawan int) (*models.Sale, error) {
	if !p.Jumlah.IsPositive() {
		return nil, fmt.Errorf("jumlah harus lebih dari 0: %w", apperror.ErrInvalidInput)
	}
	switch p.Metode {
	case models.PaymentCash, models.PaymentCard, models.PaymentTransfer:
	default:
		return nil, fmt.Errorf("metode %q: %w", p.Metode, apperror.ErrInvalidInput)
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var total, dibayar decimal.Decimal
	var status models.SaleStatus
	err = tx.QueryRowContext(ctx,
		"SELECT total, dibayar, status FROM Penjualan WHERE id_penjualan = ? FOR UPDATE", id,
	).Scan(&total, &dibayar, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("penjualan %d: %w", id, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	switch status {
	case models.SaleCancelled:
		return nil, fmt.Errorf("penjualan sudah dibatalkan: %w", apperror.ErrInvalidTransition)
	case models.SalePaid:
		return nil, fmt.Errorf("penjualan sudah lunas: %w", apperror.ErrUnprocessable)
	}

	newPaid := round(dibayar.Add(p.Jumlah))
	if newPaid.GreaterThan(total) {
		return nil, fmt.Errorf("pembayaran melebihi sisa %s: %w", total.Sub(dibayar).StringFixed(2), apperror.ErrUnprocessable)
	}
	newStatus := models.SalePartial
	if newPaid.Equal(total) {
		newStatus = models.SalePaid
	}

	now := s.Now()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO Pembayaran (id_penjualan, metode, jumlah, referensi, id_karyawan, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, p.Metode, p.Jumlah, p.Referensi, idKaryawan, now); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE Penjualan SET dibayar = ?, status = ?, updated_at = ? WHERE id_penjualan = ?",
		newPaid, newStatus, now, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetSale(ctx, id)
}

// CancelSale membatalkan penjualan selama order lab belum diproses. Stok lensa dan
// kuota diskon dikembalikan, order lab ikut dibatalkan.
func (s *SaleService) CancelSale(ctx context.Context, id int, reason string) (*models.Sale, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("alasan pembatalan wajib diisi: %w", apperror.ErrInvalidInput)
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var status models.SaleStatus
	err = tx.QueryRowContext(ctx, "SELECT status FROM Penjualan WHERE id_penjualan = ? FOR UPDATE", id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("penjualan %d: %w", id, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if status == models.SaleCancelled {
		return nil, fmt.Errorf("penjualan sudah dibatalkan: %w", apperror.ErrInvalidTransition)
	}

	var orderID int
	var orderStatus models.OrderStatus
	err = tx.QueryRowContext(ctx,
		"SELECT id_order, status FROM Order_Lab WHERE id_penjualan = ? FOR UPDATE", id,
	).Scan(&orderID, &orderStatus)
	hasOrder := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if hasOrder && orderStatus != models.OrderPending && orderStatus != models.OrderCancelled {
		return nil, fmt.Errorf("order lab sudah %s: %w", orderStatus, apperror.ErrInvalidTransition)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT ref_id, qty FROM Penjualan_Item
		WHERE id_penjualan = ? AND kind = ? AND ref_id IS NOT NULL`, id, models.KindLens)
	if err != nil {
		return nil, err
	}
	type restock struct{ id, qty int }
	var lenses []restock
	for rows.Next() {
		var r restock
		if err := rows.Scan(&r.id, &r.qty); err != nil {
			rows.Close()
			return nil, err
		}
		lenses = append(lenses, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, r := range lenses {
		if _, err := tx.ExecContext(ctx, "UPDATE Lensa SET stok = stok + ? WHERE id_lensa = ?", r.qty, r.id); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE Diskon SET used = used - 1
		WHERE used > 0 AND id_diskon IN (SELECT id_diskon FROM Penjualan_Diskon WHERE id_penjualan = ?)`, id); err != nil {
		return nil, err
	}

	now := s.Now()
	if hasOrder && orderStatus == models.OrderPending {
		if _, err := tx.ExecContext(ctx,
			"UPDATE Order_Lab SET status = ?, updated_at = ? WHERE id_order = ?",
			models.OrderCancelled, now, orderID); err != nil {
			return nil, err
		}
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE Penjualan SET status = ?, cancel_reason = ?, updated_at = ? WHERE id_penjualan = ?",
		models.SaleCancelled, reason, now, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if hasOrder && orderStatus == models.OrderPending {
		s.Events.Publish(ws.EventOrderUpdate, map[string]interface{}{
			"id_order": orderID,
			"status":   models.OrderCancelled,
		})
	}
	return s.GetSale(ctx, id)
}
