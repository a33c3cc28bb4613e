package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/c14220110/optik-backend/internal/agenda/models"
	"github.com/c14220110/optik-backend/internal/common/apperror"
	optModels "github.com/c14220110/optik-backend/internal/optometri/models"
	"github.com/c14220110/optik-backend/pkg/metrics"
	"github.com/c14220110/optik-backend/pkg/utils"
	"github.com/c14220110/optik-backend/ws"
)

// Hours adalah jam operasional klinik sebagai offset dari tengah malam.
type Hours struct {
	Open     time.Duration
	Close    time.Duration
	Duration time.Duration
}

type OptometrisLookup interface {
	GetOptometris(ctx context.Context, id int) (*optModels.Optometris, error)
	ListOptometris(ctx context.Context) ([]optModels.Optometris, error)
}

type AgendaService struct {
	DB         *sql.DB
	Optometris OptometrisLookup
	Hours      Hours
	Events     ws.Publisher
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

func NewAgendaService(db *sql.DB, opt OptometrisLookup, hours Hours, events ws.Publisher, m *metrics.Metrics) *AgendaService {
	if events == nil {
		events = ws.Nop{}
	}
	return &AgendaService{DB: db, Optometris: opt, Hours: hours, Events: events, Metrics: m, Now: time.Now}
}

const appointmentSelect = `SELECT j.id_janji, j.id_pasien, p.nama, j.id_optometris, k.nama, j.jenis, j.mulai, j.selesai,
		j.status, j.catatan, j.cancel_reason, j.created_by, j.created_at, j.updated_at`

const appointmentFrom = ` FROM Janji_Temu j
	JOIN Pasien p ON p.id_pasien = j.id_pasien
	LEFT JOIN Karyawan k ON k.id_karyawan = j.id_optometris`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (models.Appointment, error) {
	var a models.Appointment
	var idOpt sql.NullInt64
	var namaOpt, catatan, reason sql.NullString
	err := row.Scan(&a.ID, &a.IDPasien, &a.NamaPasien, &idOpt, &namaOpt, &a.Jenis, &a.Mulai, &a.Selesai,
		&a.Status, &catatan, &reason, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return a, err
	}
	if idOpt.Valid {
		id := int(idOpt.Int64)
		a.IDOptometris = &id
	}
	a.NamaOptometris = nullString(namaOpt)
	a.Catatan = nullString(catatan)
	a.CancelReason = nullString(reason)
	return a, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func activeArgs() []interface{} {
	args := make([]interface{}, 0, len(models.ActiveStatuses))
	for _, s := range models.ActiveStatuses {
		args = append(args, s)
	}
	return args
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (s *AgendaService) duration(minutes int) time.Duration {
	if minutes > 0 {
		return time.Duration(minutes) * time.Minute
	}
	return s.Hours.Duration
}

// checkWindow memastikan janji berada di jam klinik dan tidak di masa lalu.
func (s *AgendaService) checkWindow(mulai, selesai time.Time) error {
	if mulai.Before(s.Now()) {
		return fmt.Errorf("jadwal %s sudah lewat: %w", mulai.Format("2006-01-02 15:04"), apperror.ErrUnprocessable)
	}
	day := dayStart(mulai)
	if mulai.Sub(day) < s.Hours.Open || selesai.Sub(day) > s.Hours.Close {
		return fmt.Errorf("jadwal di luar jam klinik: %w", apperror.ErrUnprocessable)
	}
	return nil
}

func (s *AgendaService) checkOptometris(ctx context.Context, id *int) error {
	if id == nil {
		return nil
	}
	_, err := s.Optometris.GetOptometris(ctx, *id)
	if errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("optometris %d tidak terdaftar: %w", *id, apperror.ErrInvalidInput)
	}
	return err
}

// checkOverlap mengunci janji aktif optometris yang beririsan dengan [mulai, selesai).
func checkOverlap(ctx context.Context, tx *sql.Tx, idOpt *int, mulai, selesai time.Time, exclude int) error {
	if idOpt == nil {
		return nil
	}
	args := append([]interface{}{*idOpt}, activeArgs()...)
	args = append(args, selesai, mulai, exclude)
	var n int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM Janji_Temu
		WHERE id_optometris = ? AND status IN (?, ?, ?) AND mulai < ? AND selesai > ? AND id_janji <> ?
		FOR UPDATE`, args...).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("optometris sudah memiliki janji pada jam tersebut: %w", apperror.ErrConflict)
	}
	return nil
}

func (s *AgendaService) publish(ctx context.Context, id int) (*models.Appointment, error) {
	a, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Events.Publish(ws.EventAppointmentUpdate, a)
	s.Metrics.ObserveAppointment(string(a.Status))
	return a, nil
}

// Schedule membuat janji baru berstatus scheduled.
func (s *AgendaService) Schedule(ctx context.Context, req models.AppointmentRequest, idKaryawan int) (*models.Appointment, error) {
	now := s.Now()
	mulai := req.Mulai.In(now.Location())
	selesai := mulai.Add(s.duration(req.DurasiMenit))
	if err := s.checkWindow(mulai, selesai); err != nil {
		return nil, err
	}
	if err := s.checkOptometris(ctx, req.IDOptometris); err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM Pasien WHERE id_pasien = ? AND deleted_at IS NULL", req.IDPasien).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pasien %d tidak terdaftar: %w", req.IDPasien, apperror.ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}
	if err := checkOverlap(ctx, tx, req.IDOptometris, mulai, selesai, 0); err != nil {
		return nil, err
	}

	var catatan interface{}
	if c := strings.TrimSpace(req.Catatan); c != "" {
		catatan = c
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO Janji_Temu (id_pasien, id_optometris, jenis, mulai, selesai, status, catatan, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.IDPasien, req.IDOptometris, req.Jenis, mulai, selesai, models.StatusScheduled, catatan, idKaryawan, now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.publish(ctx, int(id))
}

func (s *AgendaService) ListAppointments(ctx context.Context, f models.AppointmentFilter, p utils.Page) ([]models.Appointment, int, error) {
	clauses := []string{"1=1"}
	var args []interface{}
	if f.From != nil {
		clauses = append(clauses, "j.mulai >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		clauses = append(clauses, "j.mulai < ?")
		args = append(args, *f.To)
	}
	if f.Status != "" {
		if !f.Status.Valid() {
			return nil, 0, fmt.Errorf("status %q: %w", f.Status, apperror.ErrInvalidInput)
		}
		clauses = append(clauses, "j.status = ?")
		args = append(args, f.Status)
	}
	if f.IDOptometris != nil {
		clauses = append(clauses, "j.id_optometris = ?")
		args = append(args, *f.IDOptometris)
	}
	where := " WHERE " + strings.Join(clauses, " AND ")

	var total int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*)"+appointmentFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.DB.QueryContext(ctx,
		appointmentSelect+appointmentFrom+where+" ORDER BY j.mulai ASC, j.id_janji ASC LIMIT ? OFFSET ?",
		append(args, p.Limit, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, a)
	}
	return list, total, rows.Err()
}

func (s *AgendaService) GetAppointment(ctx context.Context, id int) (*models.Appointment, error) {
	a, err := scanAppointment(s.DB.QueryRowContext(ctx, appointmentSelect+appointmentFrom+" WHERE j.id_janji = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("janji %d: %w", id, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Reschedule memindah janji scheduled/confirmed; status kembali ke scheduled.
// Durasi lama dipakai bila durasi_menit kosong.
func (s *AgendaService) Reschedule(ctx context.Context, id int, req models.RescheduleRequest) (*models.Appointment, error) {
	if err := s.checkOptometris(ctx, req.IDOptometris); err != nil {
		return nil, err
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var status models.AppointmentStatus
	var idOpt sql.NullInt64
	var oldMulai, oldSelesai time.Time
	err = tx.QueryRowContext(ctx,
		"SELECT status, id_optometris, mulai, selesai FROM Janji_Temu WHERE id_janji = ? FOR UPDATE", id,
	).Scan(&status, &idOpt, &oldMulai, &oldSelesai)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("janji %d: %w", id, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !status.Reschedulable() {
		return nil, fmt.Errorf("janji berstatus %s tidak bisa dijadwal ulang: %w", status, apperror.ErrInvalidTransition)
	}

	dur := oldSelesai.Sub(oldMulai)
	if req.DurasiMenit > 0 {
		dur = s.duration(req.DurasiMenit)
	}
	optometris := req.IDOptometris
	if optometris == nil && idOpt.Valid {
		v := int(idOpt.Int64)
		optometris = &v
	}
	mulai := req.Mulai.In(s.Now().Location())
	selesai := mulai.Add(dur)
	if err := s.checkWindow(mulai, selesai); err != nil {
		return nil, err
	}
	if err := checkOverlap(ctx, tx, optometris, mulai, selesai, id); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE Janji_Temu SET mulai = ?, selesai = ?, id_optometris = ?, status = ?, updated_at = ?
		WHERE id_janji = ?`,
		mulai, selesai, optometris, models.StatusScheduled, s.Now(), id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.publish(ctx, id)
}

// UpdateStatus menjalankan mesin status janji. Pembatalan wajib disertai alasan.
func (s *AgendaService) UpdateStatus(ctx context.Context, id int, req models.StatusRequest) (*models.Appointment, error) {
	if !req.Status.Valid() {
		return nil, fmt.Errorf("status %q: %w", req.Status, apperror.ErrInvalidInput)
	}
	reason := strings.TrimSpace(req.Reason)
	if req.Status == models.StatusCancelled && reason == "" {
		return nil, fmt.Errorf("alasan pembatalan wajib diisi: %w", apperror.ErrInvalidInput)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var current models.AppointmentStatus
	err = tx.QueryRowContext(ctx, "SELECT status FROM Janji_Temu WHERE id_janji = ? FOR UPDATE", id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("janji %d: %w", id, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !current.CanTransitionTo(req.Status) {
		return nil, fmt.Errorf("janji %s ke %s: %w", current, req.Status, apperror.ErrInvalidTransition)
	}

	var cancelReason interface{}
	if req.Status == models.StatusCancelled {
		cancelReason = reason
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE Janji_Temu SET status = ?, cancel_reason = COALESCE(?, cancel_reason), updated_at = ? WHERE id_janji = ?",
		req.Status, cancelReason, s.Now(), id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.publish(ctx, id)
}

// Slots mengembalikan slot kosong pada tanggal tertentu. Tanpa id_optometris, slot
// dianggap kosong selama jumlah janji aktif di jam itu masih di bawah jumlah optometris.
func (s *AgendaService) Slots(ctx context.Context, date time.Time, idOptometris *int) ([]models.Slot, error) {
	now := s.Now()
	day := dayStart(date.In(now.Location()))
	open, closeAt := day.Add(s.Hours.Open), day.Add(s.Hours.Close)

	capacity := 1
	query := `SELECT mulai, selesai FROM Janji_Temu WHERE status IN (?, ?, ?) AND mulai < ? AND selesai > ?`
	args := append(activeArgs(), closeAt, open)
	if idOptometris != nil {
		if err := s.checkOptometris(ctx, idOptometris); err != nil {
			return nil, err
		}
		query += " AND id_optometris = ?"
		args = append(args, *idOptometris)
	} else {
		list, err := s.Optometris.ListOptometris(ctx)
		if err != nil {
			return nil, err
		}
		if len(list) > capacity {
			capacity = len(list)
		}
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var busy []models.Slot
	for rows.Next() {
		var b models.Slot
		if err := rows.Scan(&b.Mulai, &b.Selesai); err != nil {
			return nil, err
		}
		busy = append(busy, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slots := []models.Slot{}
	for start := open; !start.Add(s.Hours.Duration).After(closeAt); start = start.Add(s.Hours.Duration) {
		end := start.Add(s.Hours.Duration)
		if start.Before(now) {
			continue
		}
		used := 0
		for _, b := range busy {
			if b.Mulai.Before(end) && b.Selesai.After(start) {
				used++
			}
		}
		if used < capacity {
			slots = append(slots, models.Slot{Mulai: start, Selesai: end})
		}
	}
	return slots, nil
}
