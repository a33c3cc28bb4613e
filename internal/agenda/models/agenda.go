package models

import "time"

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCheckedIn AppointmentStatus = "checked_in"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled: {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed: {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn: {StatusCompleted},
}

// ActiveStatuses adalah status yang masih memakai jadwal optometris.
var ActiveStatuses = []AppointmentStatus{StatusScheduled, StatusConfirmed, StatusCheckedIn}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCheckedIn, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

func (s AppointmentStatus) CanTransitionTo(target AppointmentStatus) bool {
	for _, t := range appointmentTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Reschedulable berarti jadwal masih boleh dipindah.
func (s AppointmentStatus) Reschedulable() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

type AppointmentType string

const (
	TypeExam     AppointmentType = "exam"
	TypeFitting  AppointmentType = "fitting"
	TypeDelivery AppointmentType = "delivery"
	TypeFollowup AppointmentType = "followup"
)

// Appointment adalah satu janji temu (tabel Janji_Temu).
type Appointment struct {
	ID             int               `json:"id_janji"`
	IDPasien       int               `json:"id_pasien"`
	NamaPasien     string            `json:"nama_pasien"`
	IDOptometris   *int              `json:"id_optometris"`
	NamaOptometris *string           `json:"nama_optometris,omitempty"`
	Jenis          AppointmentType   `json:"jenis"`
	Mulai          time.Time         `json:"mulai"`
	Selesai        time.Time         `json:"selesai"`
	Status         AppointmentStatus `json:"status"`
	Catatan        *string           `json:"catatan"`
	CancelReason   *string           `json:"cancel_reason,omitempty"`
	CreatedBy      int               `json:"created_by"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type AppointmentRequest struct {
	IDPasien     int             `json:"id_pasien" validate:"required,gt=0"`
	IDOptometris *int            `json:"id_optometris" validate:"omitempty,gt=0"`
	Jenis        AppointmentType `json:"jenis" validate:"required,oneof=exam fitting delivery followup"`
	Mulai        time.Time       `json:"mulai" validate:"required"`
	DurasiMenit  int             `json:"durasi_menit" validate:"gte=0,lte=480"`
	Catatan      string          `json:"catatan" validate:"max=1000"`
}

type RescheduleRequest struct {
	Mulai        time.Time `json:"mulai" validate:"required"`
	DurasiMenit  int       `json:"durasi_menit" validate:"gte=0,lte=480"`
	IDOptometris *int      `json:"id_optometris" validate:"omitempty,gt=0"`
}

type StatusRequest struct {
	Status AppointmentStatus `json:"status" validate:"required"`
	Reason string            `json:"reason" validate:"max=255"`
}

type AppointmentFilter struct {
	From         *time.Time
	To           *time.Time
	Status       AppointmentStatus
	IDOptometris *int
}

type Slot struct {
	Mulai   time.Time `json:"mulai"`
	Selesai time.Time `json:"selesai"`
}
