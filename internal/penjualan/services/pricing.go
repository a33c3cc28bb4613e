package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/penjualan/models"
)

var (
	ErrDiscountNotEligible = fmt.Errorf("diskon tidak memenuhi syarat: %w", apperror.ErrUnprocessable)
	ErrDiscountConflict    = fmt.Errorf("diskon tidak bisa digabung: %w", apperror.ErrConflict)
)

var hundred = decimal.NewFromInt(100)

// Pricing menghitung subtotal, diskon, pajak dan total. Harga katalog belum termasuk pajak;
// pajak dihitung setelah diskon.
type Pricing struct {
	TaxRate decimal.Decimal
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func Subtotal(items []models.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Total())
	}
	return round(sum)
}

// CategoryBase adalah jumlah baris yang masuk kategori diskon.
func CategoryBase(items []models.LineItem, kategori string) decimal.Decimal {
	if kategori == "" || kategori == models.KategoriAll {
		return Subtotal(items)
	}
	sum := decimal.Zero
	for _, it := range items {
		if string(it.Kind) == kategori {
			sum = sum.Add(it.Total())
		}
	}
	return round(sum)
}

// EvaluateDiscount mengembalikan nominal diskon untuk baris yang ada, atau
// ErrDiscountNotEligible beserta alasannya.
func EvaluateDiscount(d models.Discount, items []models.LineItem, now time.Time) (decimal.Decimal, error) {
	if !d.Aktif {
		return decimal.Zero, fmt.Errorf("%s tidak aktif: %w", d.Kode, ErrDiscountNotEligible)
	}
	if d.Mulai != nil && now.Before(*d.Mulai) {
		return decimal.Zero, fmt.Errorf("%s belum berlaku: %w", d.Kode, ErrDiscountNotEligible)
	}
	if d.Berakhir != nil && now.After(*d.Berakhir) {
		return decimal.Zero, fmt.Errorf("%s sudah berakhir: %w", d.Kode, ErrDiscountNotEligible)
	}
	if d.MaxUses > 0 && d.Used >= d.MaxUses {
		return decimal.Zero, fmt.Errorf("kuota %s sudah habis: %w", d.Kode, ErrDiscountNotEligible)
	}

	base := CategoryBase(items, d.Kategori)
	if !base.IsPositive() {
		return decimal.Zero, fmt.Errorf("tidak ada item kategori %s untuk %s: %w", d.Kategori, d.Kode, ErrDiscountNotEligible)
	}
	if base.LessThan(d.MinSubtotal) {
		return decimal.Zero, fmt.Errorf("%s butuh minimal %s: %w", d.Kode, d.MinSubtotal.StringFixed(2), ErrDiscountNotEligible)
	}

	switch d.Tipe {
	case models.DiscountPercentage:
		return round(base.Mul(d.Nilai).Div(hundred)), nil
	case models.DiscountFixed:
		return decimal.Min(d.Nilai, base), nil
	default:
		return decimal.Zero, fmt.Errorf("tipe diskon %q tidak dikenal: %w", d.Tipe, ErrDiscountNotEligible)
	}
}

// CheckCombination menolak kode ganda dan penggabungan dengan diskon non-stackable.
func CheckCombination(existing []models.Discount, candidate models.Discount) error {
	for _, d := range existing {
		if strings.EqualFold(d.Kode, candidate.Kode) {
			return fmt.Errorf("%s sudah dipasang: %w", candidate.Kode, apperror.ErrConflict)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if !candidate.Stackable {
		return fmt.Errorf("%s harus dipakai sendiri: %w", candidate.Kode, ErrDiscountConflict)
	}
	for _, d := range existing {
		if !d.Stackable {
			return fmt.Errorf("%s tidak bisa digabung dengan %s: %w", candidate.Kode, d.Kode, ErrDiscountConflict)
		}
	}
	return nil
}

// ApplyDiscounts mengevaluasi ulang diskon sesuai urutan pemasangan. Diskon yang tidak
// lagi memenuhi syarat dilepas dan dilaporkan. Total diskon tidak pernah melebihi subtotal.
func ApplyDiscounts(items []models.LineItem, discounts []models.Discount, now time.Time) ([]models.AppliedDiscount, []models.DroppedDiscount) {
	applied := []models.AppliedDiscount{}
	var dropped []models.DroppedDiscount
	var kept []models.Discount

	remaining := Subtotal(items)
	for _, d := range discounts {
		if err := CheckCombination(kept, d); err != nil {
			dropped = append(dropped, models.DroppedDiscount{Kode: d.Kode, Alasan: err.Error()})
			continue
		}
		amount, err := EvaluateDiscount(d, items, now)
		if err != nil {
			dropped = append(dropped, models.DroppedDiscount{Kode: d.Kode, Alasan: err.Error()})
			continue
		}
		amount = decimal.Min(amount, remaining)
		remaining = remaining.Sub(amount)
		kept = append(kept, d)
		applied = append(applied, models.AppliedDiscount{
			IDDiskon: d.ID,
			Kode:     d.Kode,
			Nama:     d.Nama,
			Jumlah:   amount,
		})
	}
	return applied, dropped
}

func (p Pricing) Totals(items []models.LineItem, applied []models.AppliedDiscount) models.Totals {
	subtotal := Subtotal(items)
	discount := decimal.Zero
	for _, a := range applied {
		discount = discount.Add(a.Jumlah)
	}
	discount = decimal.Min(round(discount), subtotal)
	taxable := subtotal.Sub(discount)
	tax := round(taxable.Mul(p.TaxRate))
	return models.Totals{
		Subtotal: subtotal,
		Diskon:   discount,
		Pajak:    tax,
		Total:    taxable.Add(tax),
	}
}

// KeptCodes mengembalikan kode diskon yang masih terpasang.
func KeptCodes(applied []models.AppliedDiscount) []string {
	codes := make([]string, 0, len(applied))
	for _, a := range applied {
		codes = append(codes, a.Kode)
	}
	return codes
}
