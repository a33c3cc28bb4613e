package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Prefix folio per dokumen.
const (
	PrefixSale  = "VTA"
	PrefixQuote = "COT"
	PrefixOrder = "ORD"
)

var folioPrefixes = map[string]bool{
	PrefixSale:  true,
	PrefixQuote: true,
	PrefixOrder: true,
}

// nextFolio menaikkan penghitung harian prefix lalu membentuk folio, contoh VTA-20260510-0007.
// Harus dipanggil di dalam transaksi yang juga melakukan INSERT: baris Folio_Counter
// terkunci sampai commit sehingga transaksi lain menunggu nomor berikutnya.
func nextFolio(ctx context.Context, tx *sql.Tx, prefix string, now time.Time) (string, error) {
	if !folioPrefixes[prefix] {
		return "", fmt.Errorf("prefix folio %q tidak dikenal", prefix)
	}
	day := now.Format("2006-01-02")

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO Folio_Counter (prefix, tanggal, nomor) VALUES (?, ?, 1)
		ON DUPLICATE KEY UPDATE nomor = nomor + 1`, prefix, day); err != nil {
		return "", err
	}
	var next int
	if err := tx.QueryRowContext(ctx,
		"SELECT nomor FROM Folio_Counter WHERE prefix = ? AND tanggal = ?", prefix, day,
	).Scan(&next); err != nil {
		return "", err
	}
	// lebih dari 9999 per hari tetap unik, hanya lebih panjang
	return fmt.Sprintf("%s-%s-%04d", prefix, now.Format("20060102"), next), nil
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
