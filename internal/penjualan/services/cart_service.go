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
	katalogModels "github.com/c14220110/optik-backend/internal/katalog/models"
	"github.com/c14220110/optik-backend/internal/penjualan/models"
	"github.com/c14220110/optik-backend/pkg/metrics"
	"github.com/c14220110/optik-backend/pkg/storage/redisstore"
	"github.com/c14220110/optik-backend/ws"
)

const draftCart = "cart"

// Drafts adalah penyimpanan draft sementara (Redis).
type Drafts interface {
	Save(ctx context.Context, kind, id string, v any) error
	Load(ctx context.Context, kind, id string, v any) error
	Delete(ctx context.Context, kind, id string) error
}

// LensLookup mengambil data lensa terbaru dari katalog.
type LensLookup interface {
	GetLensa(ctx context.Context, id int) (*katalogModels.Lensa, error)
}

// CartService mengelola keranjang POS dan checkout.
type CartService struct {
	DB         *sql.DB
	Drafts     Drafts
	Lenses     LensLookup
	Discounts  *DiscountService
	Pricing    Pricing
	MinDeposit decimal.Decimal
	Events     ws.Publisher
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

func NewCartService(db *sql.DB, drafts Drafts, lenses LensLookup, discounts *DiscountService,
	pricing Pricing, minDeposit decimal.Decimal, events ws.Publisher, m *metrics.Metrics) *CartService {
	if events == nil {
		events = ws.Nop{}
	}
	return &CartService{
		DB:         db,
		Drafts:     drafts,
		Lenses:     lenses,
		Discounts:  discounts,
		Pricing:    pricing,
		MinDeposit: minDeposit,
		Events:     events,
		Metrics:    m,
		Now:        time.Now,
	}
}

func (s *CartService) load(ctx context.Context, id string) (*models.Cart, error) {
	var cart models.Cart
	if err := s.Drafts.Load(ctx, draftCart, id, &cart); err != nil {
		if errors.Is(err, redisstore.ErrNotFound) {
			return nil, fmt.Errorf("keranjang %s: %w", id, apperror.ErrNotFound)
		}
		return nil, err
	}
	return &cart, nil
}

func (s *CartService) save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = s.Now()
	return s.Drafts.Save(ctx, draftCart, cart.ID, cart)
}

// view menghitung ulang diskon dan total. Kode diskon yang tidak lagi memenuhi
// syarat dilepas dari keranjang dan dilaporkan.
func (s *CartService) view(ctx context.Context, cart *models.Cart) (*models.CartView, error) {
	discounts, missing, err := s.Discounts.GetByCodes(ctx, cart.KodeDiskon)
	if err != nil {
		return nil, err
	}
	applied, dropped := ApplyDiscounts(cart.Items, discounts, s.Now())
	dropped = append(missing, dropped...)

	if len(dropped) > 0 {
		cart.KodeDiskon = KeptCodes(applied)
		if err := s.save(ctx, cart); err != nil {
			return nil, err
		}
	}
	if cart.Items == nil {
		cart.Items = []models.LineItem{}
	}
	if cart.KodeDiskon == nil {
		cart.KodeDiskon = []string{}
	}
	return &models.CartView{
		Cart:    *cart,
		Diskon:  applied,
		Dropped: dropped,
		Totals:  s.Pricing.Totals(cart.Items, applied),
	}, nil
}

// Create menyimpan keranjang baru. Dipakai langsung oleh POS, wizard dan penawaran.
func (s *CartService) Create(ctx context.Context, cart *models.Cart) (*models.CartView, error) {
	now := s.Now()
	cart.ID = redisstore.NewID()
	cart.CreatedAt = now
	if cart.NextLine == 0 {
		cart.NextLine = len(cart.Items) + 1
	}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *CartService) NewCart(ctx context.Context, req models.NewCartRequest, idKaryawan int) (*models.CartView, error) {
	if err := checkParties(ctx, s.DB, req.IDPasien, req.IDResep); err != nil {
		return nil, err
	}
	return s.Create(ctx, &models.Cart{
		IDPasien:  req.IDPasien,
		IDResep:   req.IDResep,
		NextLine:  1,
		CreatedBy: idKaryawan,
	})
}

func (s *CartService) GetCart(ctx context.Context, id string) (*models.CartView, error) {
	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// Assign mengubah pasien/resep keranjang. Nilai nil tidak mengubah apa pun,
// kecuali resep lama yang ikut dilepas saat pasien berganti.
func (s *CartService) Assign(ctx context.Context, id string, req models.CartAssignRequest) (*models.CartView, error) {
	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.IDPasien != nil {
		if cart.IDPasien == nil || *cart.IDPasien != *req.IDPasien {
			cart.IDResep = nil
		}
		cart.IDPasien = req.IDPasien
	}
	if req.IDResep != nil {
		cart.IDResep = req.IDResep
	}
	if err := checkParties(ctx, s.DB, cart.IDPasien, cart.IDResep); err != nil {
		return nil, err
	}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// checkParties memastikan pasien masih terdaftar dan resep milik pasien tersebut.
// q bisa *sql.DB atau *sql.Tx.
func checkParties(ctx context.Context, q rowQuerier, idPasien, idResep *int) error {
	if idPasien != nil {
		var one int
		err := q.QueryRowContext(ctx,
			"SELECT 1 FROM Pasien WHERE id_pasien = ? AND deleted_at IS NULL", *idPasien).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("pasien %d tidak ditemukan: %w", *idPasien, apperror.ErrInvalidInput)
		}
		if err != nil {
			return err
		}
	}
	if idResep != nil {
		var owner int
		err := q.QueryRowContext(ctx, "SELECT id_pasien FROM Resep WHERE id_resep = ?", *idResep).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("resep %d tidak ditemukan: %w", *idResep, apperror.ErrInvalidInput)
		}
		if err != nil {
			return err
		}
		if idPasien == nil || owner != *idPasien {
			return fmt.Errorf("resep %d bukan milik pasien keranjang: %w", *idResep, apperror.ErrInvalidInput)
		}
	}
	return nil
}

// checkLensStock memastikan lensa aktif dan stok cukup untuk qty total di keranjang.
func checkLensStock(l *katalogModels.Lensa, qty int) error {
	if !l.Aktif {
		return fmt.Errorf("lensa %s tidak aktif: %w", l.Nama, apperror.ErrUnprocessable)
	}
	if l.Stok < qty {
		return fmt.Errorf("stok lensa %s tersisa %d: %w", l.Nama, l.Stok, apperror.ErrUnprocessable)
	}
	return nil
}

// lineFromRequest membentuk baris baru. Baris lensa selalu memakai nama dan harga katalog.
func (s *CartService) lineFromRequest(ctx context.Context, req models.LineItemRequest) (models.LineItem, *katalogModels.Lensa, error) {
	if !req.Kind.Valid() {
		return models.LineItem{}, nil, fmt.Errorf("kind %q: %w", req.Kind, apperror.ErrInvalidInput)
	}
	if req.Qty <= 0 {
		return models.LineItem{}, nil, fmt.Errorf("qty harus lebih dari 0: %w", apperror.ErrInvalidInput)
	}
	item := models.LineItem{Kind: req.Kind, RefID: req.RefID, Qty: req.Qty}

	if req.Kind == models.KindLens {
		if req.RefID == nil {
			return item, nil, fmt.Errorf("ref_id wajib untuk lensa: %w", apperror.ErrInvalidInput)
		}
		lensa, err := s.Lenses.GetLensa(ctx, *req.RefID)
		if err != nil {
			return item, nil, err
		}
		item.Deskripsi = lensa.Nama
		item.HargaSatuan = lensa.Harga
		return item, lensa, nil
	}

	item.Deskripsi = strings.TrimSpace(req.Deskripsi)
	if item.Deskripsi == "" {
		return item, nil, fmt.Errorf("deskripsi wajib diisi: %w", apperror.ErrInvalidInput)
	}
	if req.HargaSatuan == nil || req.HargaSatuan.IsNegative() {
		return item, nil, fmt.Errorf("harga_satuan wajib dan tidak boleh negatif: %w", apperror.ErrInvalidInput)
	}
	item.HargaSatuan = req.HargaSatuan.Round(2)
	return item, nil, nil
}

func lensQty(cart *models.Cart, refID int, exceptLine int) int {
	qty := 0
	for _, it := range cart.Items {
		if it.Kind == models.KindLens && it.RefID != nil && *it.RefID == refID && it.Line != exceptLine {
			qty += it.Qty
		}
	}
	return qty
}

// AddItem menambah baris. Lensa yang sama digabung ke baris yang sudah ada.
func (s *CartService) AddItem(ctx context.Context, id string, req models.LineItemRequest) (*models.CartView, error) {
	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	item, lensa, err := s.lineFromRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if lensa != nil {
		if err := checkLensStock(lensa, lensQty(cart, lensa.ID, 0)+item.Qty); err != nil {
			return nil, err
		}
		for i, it := range cart.Items {
			if it.Kind == models.KindLens && it.RefID != nil && *it.RefID == lensa.ID {
				cart.Items[i].Qty += item.Qty
				cart.Items[i].HargaSatuan = lensa.Harga
				cart.Items[i].Deskripsi = lensa.Nama
				if err := s.save(ctx, cart); err != nil {
					return nil, err
				}
				return s.view(ctx, cart)
			}
		}
	}

	if cart.NextLine == 0 {
		cart.NextLine = len(cart.Items) + 1
	}
	item.Line = cart.NextLine
	cart.NextLine++
	cart.Items = append(cart.Items, item)
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *CartService) UpdateItem(ctx context.Context, id string, line int, qty int) (*models.CartView, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("qty harus lebih dari 0: %w", apperror.ErrInvalidInput)
	}
	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	idx := cart.FindLine(line)
	if idx < 0 {
		return nil, fmt.Errorf("baris %d: %w", line, apperror.ErrNotFound)
	}
	it := cart.Items[idx]
	if it.Kind == models.KindLens && it.RefID != nil {
		lensa, err := s.Lenses.GetLensa(ctx, *it.RefID)
		if err != nil {
			return nil, err
		}
		if err := checkLensStock(lensa, lensQty(cart, lensa.ID, line)+qty); err != nil {
			return nil, err
		}
	}
	cart.Items[idx].Qty = qty
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *CartService) RemoveItem(ctx context.Context, id string, line int) (*models.CartView, error) {
	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	idx := cart.FindLine(line)
	if idx < 0 {
		return nil, fmt.Errorf("baris %d: %w", line, apperror.ErrNotFound)
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// ApplyDiscount memasang kode diskon. Kode yang tidak memenuhi syarat atau bentrok ditolak.
func (s *CartService) ApplyDiscount(ctx context.Context, id string, kode string) (*models.CartView, error) {
	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	candidate, err := s.Discounts.GetByCode(ctx, kode)
	if err != nil {
		return nil, err
	}
	existing, _, err := s.Discounts.GetByCodes(ctx, cart.KodeDiskon)
	if err != nil {
		return nil, err
	}
	if err := CheckCombination(existing, *candidate); err != nil {
		return nil, err
	}
	if _, err := EvaluateDiscount(*candidate, cart.Items, s.Now()); err != nil {
		return nil, err
	}

	cart.KodeDiskon = append(cart.KodeDiskon, candidate.Kode)
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *CartService) RemoveDiscount(ctx context.Context, id string, kode string) (*models.CartView, error) {
	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	kept := cart.KodeDiskon[:0]
	found := false
	for _, k := range cart.KodeDiskon {
		if strings.EqualFold(k, kode) {
			found = true
			continue
		}
		kept = append(kept, k)
	}
	if !found {
		return nil, fmt.Errorf("kode diskon %s tidak terpasang: %w", kode, apperror.ErrNotFound)
	}
	cart.KodeDiskon = kept
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// EligibleFor mengembalikan diskon yang bisa dipasang ke keranjang.
func (s *CartService) EligibleFor(ctx context.Context, id string) ([]EligibleDiscount, error) {
	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Discounts.Eligible(ctx, cart.Items)
}

// validatePayments memeriksa metode, nominal, uang muka minimum dan batas total.
func validatePayments(payments []models.Payment, total, minDeposit decimal.Decimal) (decimal.Decimal, error) {
	sum := decimal.Zero
	for i, p := range payments {
		switch p.Metode {
		case models.PaymentCash, models.PaymentCard, models.PaymentTransfer:
		default:
			return sum, fmt.Errorf("pembayaran %d: metode %q: %w", i+1, p.Metode, apperror.ErrInvalidInput)
		}
		if !p.Jumlah.IsPositive() {
			return sum, fmt.Errorf("pembayaran %d: jumlah harus lebih dari 0: %w", i+1, apperror.ErrInvalidInput)
		}
		sum = sum.Add(p.Jumlah)
	}
	sum = round(sum)
	if sum.GreaterThan(total) {
		return sum, fmt.Errorf("pembayaran %s melebihi total %s: %w", sum.StringFixed(2), total.StringFixed(2), apperror.ErrUnprocessable)
	}
	minimum := round(total.Mul(minDeposit))
	if sum.LessThan(minimum) {
		return sum, fmt.Errorf("uang muka minimal %s: %w", minimum.StringFixed(2), apperror.ErrUnprocessable)
	}
	return sum, nil
}

// Checkout menyimpan penjualan dari keranjang dalam satu transaksi lalu menghapus draft.
func (s *CartService) Checkout(ctx context.Context, id string, payments []models.Payment, idKaryawan int) (*models.Sale, error) {
	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	v, err := s.view(ctx, cart)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, fmt.Errorf("keranjang kosong: %w", apperror.ErrUnprocessable)
	}
	if cart.IDPasien == nil {
		return nil, fmt.Errorf("pasien belum dipilih: %w", apperror.ErrUnprocessable)
	}
	if len(v.Dropped) > 0 {
		return nil, fmt.Errorf("diskon %s dilepas, periksa ulang keranjang: %w", v.Dropped[0].Kode, apperror.ErrConflict)
	}
	paid, err := validatePayments(payments, v.Totals.Total, s.MinDeposit)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	status := models.SalePartial
	if paid.Equal(v.Totals.Total) {
		status = models.SalePaid
	}

	sale := &models.Sale{
		IDPasien:        *cart.IDPasien,
		IDKaryawan:      idKaryawan,
		IDResep:         cart.IDResep,
		IDPenawaran:     cart.IDPenawaran,
		Totals:          v.Totals,
		Dibayar:         paid,
		Sisa:            v.Totals.Total.Sub(paid),
		Status:          status,
		Items:           cart.Items,
		DiskonTerpasang: v.Diskon,
		CreatedAt:       now,
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// cek ulang di dalam transaksi: pasien bisa dihapus setelah keranjang dibuat
	if err := checkParties(ctx, tx, cart.IDPasien, cart.IDResep); err != nil {
		return nil, err
	}
	// satu penawaran hanya boleh dikonversi sekali
	if cart.IDPenawaran != nil {
		res, err := tx.ExecContext(ctx,
			"UPDATE Penawaran SET status = ?, updated_at = ? WHERE id_penawaran = ? AND status = ?",
			models.QuoteConverted, now, *cart.IDPenawaran, models.QuoteAccepted)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("penawaran %d sudah dikonversi atau tidak lagi diterima: %w",
				*cart.IDPenawaran, apperror.ErrConflict)
		}
	}

	if sale.Folio, err = nextFolio(ctx, tx, PrefixSale, now); err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO Penjualan (folio, id_pasien, id_karyawan, id_resep, id_penawaran, subtotal, diskon, pajak, total,
			dibayar, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sale.Folio, sale.IDPasien, idKaryawan, sale.IDResep, sale.IDPenawaran, sale.Subtotal, sale.Diskon, sale.Pajak,
		sale.Total, paid, status, now, now)
	if err != nil {
		return nil, err
	}
	saleID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	sale.ID = int(saleID)

	for _, it := range cart.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO Penjualan_Item (id_penjualan, kind, ref_id, deskripsi, qty, harga_satuan, total)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			saleID, it.Kind, it.RefID, it.Deskripsi, it.Qty, it.HargaSatuan, round(it.Total())); err != nil {
			return nil, err
		}
		if it.Kind != models.KindLens || it.RefID == nil {
			continue
		}
		res, err := tx.ExecContext(ctx,
			"UPDATE Lensa SET stok = stok - ? WHERE id_lensa = ? AND aktif = 1 AND stok >= ?",
			it.Qty, *it.RefID, it.Qty)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("lensa %s tidak aktif atau stok tidak cukup: %w", it.Deskripsi, apperror.ErrConflict)
		}
	}

	for _, d := range v.Diskon {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO Penjualan_Diskon (id_penjualan, id_diskon, kode, jumlah) VALUES (?, ?, ?, ?)",
			saleID, d.IDDiskon, d.Kode, d.Jumlah); err != nil {
			return nil, err
		}
		res, err := tx.ExecContext(ctx,
			"UPDATE Diskon SET used = used + 1 WHERE id_diskon = ? AND (max_uses = 0 OR used < max_uses)", d.IDDiskon)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("kuota diskon %s habis: %w", d.Kode, apperror.ErrConflict)
		}
	}

	for i := range payments {
		p := &payments[i]
		p.IDKaryawan = idKaryawan
		p.CreatedAt = now
		res, err := tx.ExecContext(ctx, `
			INSERT INTO Pembayaran (id_penjualan, metode, jumlah, referensi, id_karyawan, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			saleID, p.Metode, p.Jumlah, p.Referensi, idKaryawan, now)
		if err != nil {
			return nil, err
		}
		pid, _ := res.LastInsertId()
		p.ID = int(pid)
	}
	sale.Payments = payments

	if cart.HasLens() && cart.IDResep != nil {
		order := &models.LabOrder{
			IDPenjualan: sale.ID,
			FolioJual:   sale.Folio,
			IDResep:     *cart.IDResep,
			Status:      models.OrderPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if order.Folio, err = nextFolio(ctx, tx, PrefixOrder, now); err != nil {
			return nil, err
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO Order_Lab (folio, id_penjualan, id_resep, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			order.Folio, saleID, order.IDResep, order.Status, now, now)
		if err != nil {
			return nil, err
		}
		oid, _ := res.LastInsertId()
		order.ID = int(oid)
		sale.Order = order
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	// draft yang gagal dihapus akan kedaluwarsa sendiri
	_ = s.Drafts.Delete(ctx, draftCart, cart.ID)

	s.Metrics.ObserveSale(string(status))
	s.Events.Publish(ws.EventSaleCreated, map[string]interface{}{
		"id_penjualan": sale.ID,
		"folio":        sale.Folio,
		"total":        sale.Total,
		"status":       sale.Status,
	})
	if sale.Order != nil {
		s.Events.Publish(ws.EventOrderUpdate, sale.Order)
	}
	return sale, nil
}
