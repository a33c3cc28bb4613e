package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/penjualan/models"
	"github.com/c14220110/optik-backend/pkg/utils"
	"github.com/c14220110/optik-backend/ws"
)

// OrderService mengelola order lab yang dibuat saat checkout.
type OrderService struct {
	DB     *sql.DB
	Events ws.Publisher
	Now    func() time.Time
}

func NewOrderService(db *sql.DB, events ws.Publisher) *OrderService {
	if events == nil {
		events = ws.Nop{}
	}
	return &OrderService{DB: db, Events: events, Now: time.Now}
}

const orderColumns = `o.id_order, o.folio, o.id_penjualan, p.folio, o.id_resep, ps.nama, o.status, o.catatan,
	o.created_at, o.updated_at`

const orderFrom = ` FROM Order_Lab o
	JOIN Penjualan p ON p.id_penjualan = o.id_penjualan
	JOIN Pasien ps ON ps.id_pasien = p.id_pasien`

func scanOrder(row rowScanner) (models.LabOrder, error) {
	var o models.LabOrder
	var catatan sql.NullString
	err := row.Scan(&o.ID, &o.Folio, &o.IDPenjualan, &o.FolioJual, &o.IDResep, &o.NamaPasien, &o.Status, &catatan,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return o, err
	}
	if catatan.Valid {
		o.Catatan = &catatan.String
	}
	return o, nil
}

func (s *OrderService) ListOrders(ctx context.Context, status string, p utils.Page) ([]models.LabOrder, int, error) {
	clauses := []string{"1=1"}
	var args []interface{}
	if status != "" {
		if !models.OrderStatus(status).Valid() {
			return nil, 0, fmt.Errorf("status %q: %w", status, apperror.ErrInvalidInput)
		}
		clauses = append(clauses, "o.status = ?")
		args = append(args, status)
	}
	where := " WHERE " + strings.Join(clauses, " AND ")

	var total int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*)"+orderFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.DB.QueryContext(ctx,
		"SELECT "+orderColumns+orderFrom+where+" ORDER BY o.created_at ASC, o.id_order ASC LIMIT ? OFFSET ?",
		append(args, p.Limit, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.LabOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, o)
	}
	return list, total, rows.Err()
}

func (s *OrderService) GetOrder(ctx context.Context, id int) (*models.LabOrder, error) {
	o, err := scanOrder(s.DB.QueryRowContext(ctx, "SELECT "+orderColumns+orderFrom+" WHERE o.id_order = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateStatus memindahkan order sesuai alur pending → sent → received → delivered.
// Penyerahan ke pasien hanya boleh bila penjualan sudah lunas.
func (s *OrderService) UpdateStatus(ctx context.Context, id int, req models.OrderStatusRequest) (*models.LabOrder, error) {
	if !req.Status.Valid() {
		return nil, fmt.Errorf("status %q: %w", req.Status, apperror.ErrInvalidInput)
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var current models.OrderStatus
	var saleStatus models.SaleStatus
	err = tx.QueryRowContext(ctx, `
		SELECT o.status, p.status FROM Order_Lab o
		JOIN Penjualan p ON p.id_penjualan = o.id_penjualan
		WHERE o.id_order = ? FOR UPDATE`, id,
	).Scan(&current, &saleStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !current.CanTransitionTo(req.Status) {
		return nil, fmt.Errorf("order %s ke %s: %w", current, req.Status, apperror.ErrInvalidTransition)
	}
	if req.Status == models.OrderDelivered && saleStatus != models.SalePaid {
		return nil, fmt.Errorf("penjualan belum lunas: %w", apperror.ErrUnprocessable)
	}

	var catatan interface{}
	if c := strings.TrimSpace(req.Catatan); c != "" {
		catatan = c
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE Order_Lab SET status = ?, catatan = COALESCE(?, catatan), updated_at = ? WHERE id_order = ?",
		req.Status, catatan, s.Now(), id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Events.Publish(ws.EventOrderUpdate, o)
	return o, nil
}
