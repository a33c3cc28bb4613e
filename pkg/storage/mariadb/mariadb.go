package mariadb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/c14220110/optik-backend/config"
	"github.com/c14220110/optik-backend/migrations"
	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// DSN menyusun DSN MariaDB dari konfigurasi. parseTime wajib agar kolom DATETIME
// terbaca sebagai time.Time.
func DSN(cfg *config.Config) string {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		loc = time.Local
	}
	mc := mysql.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%s", cfg.DBHost, cfg.DBPort)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	// UPDATE tanpa perubahan nilai tetap dihitung sebagai baris yang cocok.
	mc.ClientFoundRows = true
	mc.Loc = loc
	mc.MultiStatements = true
	return mc.FormatDSN()
}

// Connect membuka koneksi ke MariaDB dan memastikan database bisa di-ping.
func Connect(cfg *config.Config, log *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("gagal membuka koneksi ke database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("gagal melakukan ping ke database: %w", err)
	}

	log.Info("Berhasil terhubung ke MariaDB.", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
	return db, nil
}

// Migrate menjalankan seluruh migrasi yang di-embed ke binary.
func Migrate(db *sql.DB, log *zap.Logger) error {
	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "mysql", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	version, dirty, _ := m.Version()
	log.Info("Migrasi database selesai", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
