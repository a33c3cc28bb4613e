package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/c14220110/optik-backend/internal/administrasi/models"
	"github.com/c14220110/optik-backend/pkg/utils"
)

var (
	ErrInvalidCredentials = errors.New("username atau password salah")
	ErrRoleNotAllowed     = errors.New("role tidak diizinkan login ke layar resepsionis")
)

type AdministrasiService struct {
	DB     *sql.DB
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewAdministrasiService(db *sql.DB, secret []byte, ttl time.Duration) *AdministrasiService {
	return &AdministrasiService{DB: db, Secret: secret, TTL: ttl, Now: time.Now}
}

// Login memverifikasi kredensial karyawan, memastikan rolenya Resepsionis atau Admin,
// lalu menerbitkan JWT berisi role dan privilege.
func (s *AdministrasiService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	var k models.Karyawan
	err := s.DB.QueryRowContext(ctx, `
		SELECT id_karyawan, nama, username, password, role, created_at
		FROM Karyawan
		WHERE username = ? AND deleted_at IS NULL`, req.Username,
	).Scan(&k.ID, &k.Nama, &k.Username, &k.Password, &k.Role, &k.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(k.Password, req.Password) {
		return nil, ErrInvalidCredentials
	}
	if k.Role != models.RoleResepsionis && k.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%s: %w", k.Role, ErrRoleNotAllowed)
	}

	rows, err := s.DB.QueryContext(ctx,
		"SELECT id_privilege FROM Detail_Privilege_Karyawan WHERE id_karyawan = ? ORDER BY id_privilege", k.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	k.Privileges = []int{}
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		k.Privileges = append(k.Privileges, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	exp := s.Now().Add(s.TTL)
	token, err := utils.GenerateJWTToken(s.Secret, k.ID, k.Role, k.Privileges, k.Username, exp)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{Token: token, ExpiresAt: exp, Karyawan: k}, nil
}
