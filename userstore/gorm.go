package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	courseauth "github.com/progplatform/courseauth"
)

// ErrUnsupportedDriver is returned by Open for an unknown driver name.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Store implements courseauth.UserStore on a GORM connection.
type Store struct {
	db *gorm.DB
}

var _ courseauth.UserStore = (*Store)(nil)

// Open connects with the named driver ("mysql" or "sqlite") and returns a
// ready Store. Migrate must be called separately when the schema is not
// managed externally.
func Open(driver, dsn string) (*Store, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "mysql":
		db, err = gorm.Open(mysql.Open(dsn), cfg)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return New(db), nil
}

// New wraps an existing GORM connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the users table.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&userRow{})
}

func (s *Store) find(ctx context.Context, query string, args ...any) (*courseauth.Account, error) {
	var row userRow
	err := s.db.WithContext(ctx).Where(query, args...).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toAccount(), nil
}

func (s *Store) FindByID(ctx context.Context, id int64) (*courseauth.Account, error) {
	return s.find(ctx, "id = ?", id)
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*courseauth.Account, error) {
	return s.find(ctx, "username = ?", username)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*courseauth.Account, error) {
	return s.find(ctx, "email = ?", email)
}

func (s *Store) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&userRow{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&userRow{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (s *Store) Insert(ctx context.Context, account *courseauth.Account) error {
	row := fromAccount(account)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	account.ID = row.ID
	account.CreatedAt = row.CreatedAt
	account.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).
		Update("last_login_at", at).Error
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, passwordHash string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).
		Updates(map[string]any{"password_hash": passwordHash, "updated_at": at}).Error
}

func (s *Store) UpdateEmailVerified(ctx context.Context, id int64, verified bool, at time.Time) error {
	return s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).
		Updates(map[string]any{"email_verified": verified, "updated_at": at}).Error
}

func (s *Store) UpdateStatus(ctx context.Context, id int64, active bool, at time.Time) error {
	return s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "updated_at": at}).Error
}
