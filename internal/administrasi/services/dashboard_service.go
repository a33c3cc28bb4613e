package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/c14220110/optik-backend/internal/administrasi/models"
	penjualanModels "github.com/c14220110/optik-backend/internal/penjualan/models"
)

type DashboardService struct {
	DB *sql.DB
}

func NewDashboardService(db *sql.DB) *DashboardService {
	return &DashboardService{DB: db}
}

// countBy menjalankan query "SELECT key, COUNT(*) ... GROUP BY key".
func (s *DashboardService) countBy(ctx context.Context, query string, args ...interface{}) (map[string]int, int, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := map[string]int{}
	total := 0
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, 0, err
		}
		out[key] = n
		total += n
	}
	return out, total, rows.Err()
}

// GetDashboard merangkum janji, penjualan, pembayaran dan order lab untuk satu hari.
func (s *DashboardService) GetDashboard(ctx context.Context, day time.Time) (*models.Dashboard, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	d := &models.Dashboard{Tanggal: start.Format("2006-01-02")}

	var err error
	d.JanjiPerStatus, d.TotalJanji, err = s.countBy(ctx,
		"SELECT status, COUNT(*) FROM Janji_Temu WHERE mulai >= ? AND mulai < ? GROUP BY status", start, end)
	if err != nil {
		return nil, err
	}

	if err := s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total), 0) FROM Penjualan
		WHERE created_at >= ? AND created_at < ? AND status <> ?`,
		start, end, penjualanModels.SaleCancelled,
	).Scan(&d.JumlahPenjualan, &d.Pendapatan); err != nil {
		return nil, err
	}

	if err := s.DB.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(jumlah), 0) FROM Pembayaran WHERE created_at >= ? AND created_at < ?", start, end,
	).Scan(&d.PembayaranMasuk); err != nil {
		return nil, err
	}

	d.OrderTerbuka, d.TotalOrderTerbuka, err = s.countBy(ctx,
		"SELECT status, COUNT(*) FROM Order_Lab WHERE status IN (?, ?, ?) GROUP BY status",
		penjualanModels.OrderPending, penjualanModels.OrderSent, penjualanModels.OrderReceived)
	if err != nil {
		return nil, err
	}

	if err := s.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM Pasien WHERE created_at >= ? AND created_at < ? AND deleted_at IS NULL", start, end,
	).Scan(&d.PasienBaru); err != nil {
		return nil, err
	}
	return d, nil
}
