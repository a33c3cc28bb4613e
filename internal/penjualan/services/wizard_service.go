package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/penjualan/models"
	"github.com/c14220110/optik-backend/pkg/storage/redisstore"
)

const draftWizard = "wizard"

// WizardService menjaga urutan langkah wizard penjualan:
// patient → prescription → products → payment.
type WizardService struct {
	Drafts Drafts
	Carts  *CartService
	Now    func() time.Time
}

func NewWizardService(drafts Drafts, carts *CartService) *WizardService {
	return &WizardService{Drafts: drafts, Carts: carts, Now: time.Now}
}

func (s *WizardService) load(ctx context.Context, id string) (*models.Wizard, error) {
	var w models.Wizard
	if err := s.Drafts.Load(ctx, draftWizard, id, &w); err != nil {
		if errors.Is(err, redisstore.ErrNotFound) {
			return nil, fmt.Errorf("wizard %s: %w", id, apperror.ErrNotFound)
		}
		return nil, err
	}
	if w.Completed == nil {
		w.Completed = map[models.WizardStep]bool{}
	}
	return &w, nil
}

func (s *WizardService) save(ctx context.Context, w *models.Wizard) error {
	w.UpdatedAt = s.Now()
	return s.Drafts.Save(ctx, draftWizard, w.ID, w)
}

func (s *WizardService) view(ctx context.Context, w *models.Wizard) (*models.WizardView, error) {
	out := &models.WizardView{Wizard: *w}
	if w.IDSale != nil {
		// keranjang sudah dihapus setelah checkout
		return out, nil
	}
	cart, err := s.Carts.GetCart(ctx, w.IDCart)
	if err != nil {
		return nil, err
	}
	out.Cart = *cart
	return out, nil
}

// Start membuat wizard baru beserta keranjangnya.
func (s *WizardService) Start(ctx context.Context, idKaryawan int) (*models.WizardView, error) {
	cart, err := s.Carts.NewCart(ctx, models.NewCartRequest{}, idKaryawan)
	if err != nil {
		return nil, err
	}
	w := &models.Wizard{
		ID:        redisstore.NewID(),
		IDCart:    cart.ID,
		Completed: map[models.WizardStep]bool{},
		Current:   models.StepPatient,
		CreatedBy: idKaryawan,
	}
	if err := s.save(ctx, w); err != nil {
		return nil, err
	}
	return &models.WizardView{Wizard: *w, Cart: *cart}, nil
}

func (s *WizardService) Get(ctx context.Context, id string) (*models.WizardView, error) {
	w, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, w)
}

// CanEnter memeriksa bahwa semua langkah sebelum step sudah selesai.
func CanEnter(w *models.Wizard, step models.WizardStep) error {
	idx := models.StepIndex(step)
	if idx < 0 {
		return fmt.Errorf("langkah %q tidak dikenal: %w", step, apperror.ErrInvalidInput)
	}
	for _, prev := range models.WizardSteps[:idx] {
		if !w.Completed[prev] {
			return fmt.Errorf("langkah %s belum selesai: %w", prev, apperror.ErrInvalidTransition)
		}
	}
	return nil
}

// complete menandai step selesai dan membatalkan langkah sesudahnya.
func complete(w *models.Wizard, step models.WizardStep) {
	idx := models.StepIndex(step)
	for _, later := range models.WizardSteps[idx+1:] {
		delete(w.Completed, later)
	}
	w.Completed[step] = true
	if idx+1 < len(models.WizardSteps) {
		w.Current = models.WizardSteps[idx+1]
	} else {
		w.Current = step
	}
}

// Step menyimpan data satu langkah.
func (s *WizardService) Step(ctx context.Context, id string, step models.WizardStep, req models.WizardStepRequest, idKaryawan int) (*models.WizardView, error) {
	w, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.IDSale != nil {
		return nil, fmt.Errorf("wizard sudah selesai: %w", apperror.ErrInvalidTransition)
	}
	if err := CanEnter(w, step); err != nil {
		return nil, err
	}

	switch step {
	case models.StepPatient:
		if req.IDPasien == nil {
			return nil, fmt.Errorf("id_pasien wajib diisi: %w", apperror.ErrInvalidInput)
		}
		if _, err := s.Carts.Assign(ctx, w.IDCart, models.CartAssignRequest{IDPasien: req.IDPasien}); err != nil {
			return nil, err
		}

	case models.StepPrescription:
		if req.IDResep == nil && !req.SkipPrescription {
			return nil, fmt.Errorf("pilih resep atau lewati langkah ini: %w", apperror.ErrInvalidInput)
		}
		cart, err := s.Carts.load(ctx, w.IDCart)
		if err != nil {
			return nil, err
		}
		cart.IDResep = req.IDResep
		if req.SkipPrescription {
			cart.IDResep = nil
		}
		if err := checkParties(ctx, s.Carts.DB, cart.IDPasien, cart.IDResep); err != nil {
			return nil, err
		}
		if err := s.Carts.save(ctx, cart); err != nil {
			return nil, err
		}

	case models.StepProducts:
		cart, err := s.Carts.load(ctx, w.IDCart)
		if err != nil {
			return nil, err
		}
		if len(cart.Items) == 0 {
			return nil, fmt.Errorf("keranjang masih kosong: %w", apperror.ErrUnprocessable)
		}

	case models.StepPayment:
		sale, err := s.Carts.Checkout(ctx, w.IDCart, req.Payments, idKaryawan)
		if err != nil {
			return nil, err
		}
		w.IDSale = &sale.ID
	}

	complete(w, step)
	if err := s.save(ctx, w); err != nil {
		return nil, err
	}
	return s.view(ctx, w)
}
