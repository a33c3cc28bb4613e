package models

import "time"

// Langkah wizard penjualan, berurutan.
type WizardStep string

const (
	StepPatient      WizardStep = "patient"
	StepPrescription WizardStep = "prescription"
	StepProducts     WizardStep = "products"
	StepPayment      WizardStep = "payment"
)

var WizardSteps = []WizardStep{StepPatient, StepPrescription, StepProducts, StepPayment}

func StepIndex(s WizardStep) int {
	for i, v := range WizardSteps {
		if v == s {
			return i
		}
	}
	return -1
}

// Wizard menyimpan progres wizard penjualan; keranjangnya disimpan terpisah.
type Wizard struct {
	ID        string              `json:"id"`
	IDCart    string              `json:"id_cart"`
	Completed map[WizardStep]bool `json:"completed"`
	Current   WizardStep          `json:"current"`
	IDSale    *int                `json:"id_penjualan,omitempty"`
	CreatedBy int                 `json:"created_by"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// WizardStepRequest membawa data untuk satu langkah. Field yang dipakai tergantung langkah.
type WizardStepRequest struct {
	IDPasien         *int      `json:"id_pasien"`
	IDResep          *int      `json:"id_resep"`
	SkipPrescription bool      `json:"skip_resep"`
	Payments         []Payment `json:"pembayaran" validate:"dive"`
}

type WizardView struct {
	Wizard
	Cart CartView `json:"cart"`
}
