package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/penjualan/models"
	"github.com/c14220110/optik-backend/pkg/utils"
)

// QuoteService mengelola penawaran (cotización) dan serah terimanya ke POS.
type QuoteService struct {
	DB        *sql.DB
	Carts     *CartService
	ValidDays int
	Now       func() time.Time
}

func NewQuoteService(db *sql.DB, carts *CartService, validDays int) *QuoteService {
	return &QuoteService{DB: db, Carts: carts, ValidDays: validDays, Now: time.Now}
}

const quoteColumns = `q.id_penawaran, q.folio, q.id_pasien, ps.nama, q.id_resep, q.id_karyawan, q.items, q.kode_diskon,
	q.subtotal, q.diskon, q.pajak, q.total, q.status, q.valid_until, q.created_at`

const quoteFrom = " FROM Penawaran q JOIN Pasien ps ON ps.id_pasien = q.id_pasien"

var openQuoteStatuses = []interface{}{models.QuoteDraft, models.QuoteSent, models.QuoteAccepted}

func scanQuote(row rowScanner) (models.Quote, error) {
	var q models.Quote
	var idResep sql.NullInt64
	var items, codes []byte
	err := row.Scan(&q.ID, &q.Folio, &q.IDPasien, &q.NamaPasien, &idResep, &q.IDKaryawan, &items, &codes,
		&q.Subtotal, &q.Diskon, &q.Pajak, &q.Total, &q.Status, &q.ValidUntil, &q.CreatedAt)
	if err != nil {
		return q, err
	}
	q.IDResep = nullInt(idResep)
	if err := json.Unmarshal(items, &q.Items); err != nil {
		return q, fmt.Errorf("decode items penawaran %d: %w", q.ID, err)
	}
	if err := json.Unmarshal(codes, &q.KodeDiskon); err != nil {
		return q, fmt.Errorf("decode kode diskon penawaran %d: %w", q.ID, err)
	}
	return q, nil
}

// expireOverdue menandai penawaran terbuka yang sudah lewat valid_until.
func (s *QuoteService) expireOverdue(ctx context.Context) error {
	args := append([]interface{}{models.QuoteExpired, s.Now()}, openQuoteStatuses...)
	args = append(args, s.Now())
	_, err := s.DB.ExecContext(ctx, `
		UPDATE Penawaran SET status = ?, updated_at = ?
		WHERE status IN (?, ?, ?) AND valid_until < ?`, args...)
	return err
}

// CreateQuote membuat penawaran dari keranjang (id_cart) atau dari daftar item.
func (s *QuoteService) CreateQuote(ctx context.Context, req models.QuoteRequest, idKaryawan int) (*models.Quote, error) {
	now := s.Now()
	q := &models.Quote{
		IDKaryawan: idKaryawan,
		Status:     models.QuoteDraft,
		ValidUntil: now.AddDate(0, 0, s.ValidDays),
		CreatedAt:  now,
	}

	if req.IDCart != "" {
		v, err := s.Carts.GetCart(ctx, req.IDCart)
		if err != nil {
			return nil, err
		}
		q.Items = v.Items
		q.KodeDiskon = v.KodeDiskon
		q.DiskonTerpasang = v.Diskon
		q.Totals = v.Totals
		q.IDResep = v.IDResep
		if v.IDPasien != nil {
			q.IDPasien = *v.IDPasien
		}
	} else {
		for i, r := range req.Items {
			item, _, err := s.Carts.lineFromRequest(ctx, r)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i+1, err)
			}
			item.Line = i + 1
			q.Items = append(q.Items, item)
		}
		discounts, missing, err := s.Carts.Discounts.GetByCodes(ctx, req.KodeDiskon)
		if err != nil {
			return nil, err
		}
		applied, dropped := ApplyDiscounts(q.Items, discounts, now)
		if dropped = append(missing, dropped...); len(dropped) > 0 {
			return nil, fmt.Errorf("diskon %s: %s: %w", dropped[0].Kode, dropped[0].Alasan, apperror.ErrUnprocessable)
		}
		q.KodeDiskon = KeptCodes(applied)
		q.DiskonTerpasang = applied
		q.Totals = s.Carts.Pricing.Totals(q.Items, applied)
		q.IDResep = req.IDResep
	}
	if req.IDPasien != nil {
		q.IDPasien = *req.IDPasien
	}
	if req.IDResep != nil {
		q.IDResep = req.IDResep
	}
	if q.IDPasien == 0 {
		return nil, fmt.Errorf("id_pasien wajib diisi: %w", apperror.ErrInvalidInput)
	}
	if len(q.Items) == 0 {
		return nil, fmt.Errorf("penawaran harus memiliki minimal satu item: %w", apperror.ErrInvalidInput)
	}
	if err := checkParties(ctx, s.DB, &q.IDPasien, q.IDResep); err != nil {
		return nil, err
	}
	if q.KodeDiskon == nil {
		q.KodeDiskon = []string{}
	}

	items, err := json.Marshal(q.Items)
	if err != nil {
		return nil, err
	}
	codes, err := json.Marshal(q.KodeDiskon)
	if err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if q.Folio, err = nextFolio(ctx, tx, PrefixQuote, now); err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO Penawaran (folio, id_pasien, id_resep, id_karyawan, items, kode_diskon, subtotal, diskon, pajak, total,
			status, valid_until, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.Folio, q.IDPasien, q.IDResep, idKaryawan, items, codes, q.Subtotal, q.Diskon, q.Pajak, q.Total,
		q.Status, q.ValidUntil, now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	q.ID = int(id)
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuoteService) ListQuotes(ctx context.Context, f models.QuoteFilter, p utils.Page) ([]models.Quote, int, error) {
	if err := s.expireOverdue(ctx); err != nil {
		return nil, 0, err
	}
	clauses := []string{"1=1"}
	var args []interface{}
	if f.IDPasien != nil {
		clauses = append(clauses, "q.id_pasien = ?")
		args = append(args, *f.IDPasien)
	}
	if f.Status != "" {
		clauses = append(clauses, "q.status = ?")
		args = append(args, f.Status)
	}
	where := " WHERE " + strings.Join(clauses, " AND ")

	var total int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*)"+quoteFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.DB.QueryContext(ctx,
		"SELECT "+quoteColumns+quoteFrom+where+" ORDER BY q.created_at DESC, q.id_penawaran DESC LIMIT ? OFFSET ?",
		append(args, p.Limit, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, q)
	}
	return list, total, rows.Err()
}

// GetQuote memuat penawaran; penawaran terbuka yang lewat masa berlaku ditandai expired.
func (s *QuoteService) GetQuote(ctx context.Context, id int) (*models.Quote, error) {
	q, err := scanQuote(s.DB.QueryRowContext(ctx, "SELECT "+quoteColumns+quoteFrom+" WHERE q.id_penawaran = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("penawaran %d: %w", id, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	now := s.Now()
	if q.Status.Open() && now.After(q.ValidUntil) {
		if _, err := s.DB.ExecContext(ctx,
			"UPDATE Penawaran SET status = ?, updated_at = ? WHERE id_penawaran = ?",
			models.QuoteExpired, now, id); err != nil {
			return nil, err
		}
		q.Status = models.QuoteExpired
	}
	return &q, nil
}

func (s *QuoteService) setStatus(ctx context.Context, q *models.Quote, target models.QuoteStatus) error {
	if !q.Status.CanTransitionTo(target) {
		return fmt.Errorf("penawaran %s ke %s: %w", q.Status, target, apperror.ErrInvalidTransition)
	}
	res, err := s.DB.ExecContext(ctx,
		"UPDATE Penawaran SET status = ?, updated_at = ? WHERE id_penawaran = ? AND status = ?",
		target, s.Now(), q.ID, q.Status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("penawaran %d berubah, muat ulang: %w", q.ID, apperror.ErrConflict)
	}
	q.Status = target
	return nil
}

func (s *QuoteService) UpdateStatus(ctx context.Context, id int, target models.QuoteStatus) (*models.Quote, error) {
	q, err := s.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.setStatus(ctx, q, target); err != nil {
		return nil, err
	}
	return q, nil
}

// ToCart memuat penawaran ke keranjang baru. Harga lensa diambil ulang dari katalog
// dan diskon dievaluasi ulang; penawaran menjadi accepted dan berubah converted saat
// keranjang tersebut di-checkout.
func (s *QuoteService) ToCart(ctx context.Context, id int, idKaryawan int) (*models.CartView, error) {
	q, err := s.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.Status.Open() {
		return nil, fmt.Errorf("penawaran berstatus %s: %w", q.Status, apperror.ErrInvalidTransition)
	}

	items := make([]models.LineItem, 0, len(q.Items))
	lensQty := map[int]int{}
	for _, it := range q.Items {
		if it.Kind == models.KindLens && it.RefID != nil {
			lensa, err := s.Carts.Lenses.GetLensa(ctx, *it.RefID)
			if err != nil {
				return nil, err
			}
			lensQty[*it.RefID] += it.Qty
			if err := checkLensStock(lensa, lensQty[*it.RefID]); err != nil {
				return nil, err
			}
			it.Deskripsi = lensa.Nama
			it.HargaSatuan = lensa.Harga
		}
		it.Line = len(items) + 1
		items = append(items, it)
	}

	if q.Status != models.QuoteAccepted {
		if err := s.setStatus(ctx, q, models.QuoteAccepted); err != nil {
			return nil, err
		}
	}

	idPasien := q.IDPasien
	quoteID := q.ID
	return s.Carts.Create(ctx, &models.Cart{
		IDPasien:    &idPasien,
		IDResep:     q.IDResep,
		IDPenawaran: &quoteID,
		Items:       items,
		NextLine:    len(items) + 1,
		KodeDiskon:  append([]string{}, q.KodeDiskon...),
		CreatedBy:   idKaryawan,
	})
}
