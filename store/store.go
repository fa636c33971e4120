// Package store persists users and daily records with gorm over SQLite or
// PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"nutricoach"
)

const (
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"
)

// parseDSN picks the driver for a DATABASE_URL value. sqlite: prefixes accept
// both sqlite:path and the sqlite:///path form.
func parseDSN(dsn string) (driver, source string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"),
		strings.HasPrefix(dsn, "postgresql://"),
		strings.HasPrefix(dsn, "host="):
		return driverPostgres, dsn
	case strings.HasPrefix(dsn, "sqlite:"):
		path := strings.TrimPrefix(dsn, "sqlite:")
		if rest, ok := strings.CutPrefix(path, "//"); ok {
			path = strings.TrimPrefix(rest, "/")
		}
		return driverSQLite, path
	default:
		return driverSQLite, dsn
	}
}

// Open connects to the database named by dsn.
func Open(dsn string, logSQL bool) (*gorm.DB, error) {
	level := logger.Silent
	if logSQL {
		level = logger.Info
	}

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)

	driver, source := parseDSN(dsn)

	var dialector gorm.Dialector
	switch driver {
	case driverPostgres:
		dialector = postgres.Open(source)
	default:
		dialector = sqlite.Open(source)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	if driver == driverSQLite {
		// SQLite allows a single writer.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	slog.Info("STORE: Connected", "driver", driver)
	return db, nil
}

// Store is the repository for users and daily records.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks and shutdown.
func (s *Store) DB() *gorm.DB { return s.db }

// Migrate creates or updates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(&nutricoach.UserProfile{}, &nutricoach.DailyRecord{})
	return nutricoach.NewPersistenceError("migrate", err)
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nutricoach.NewPersistenceError("ping", err)
	}
	return nutricoach.NewPersistenceError("ping", sqlDB.PingContext(ctx))
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateUser inserts u. A blank nickname becomes User%03d of the new id.
func (s *Store) CreateUser(ctx context.Context, u nutricoach.UserProfile) (*nutricoach.UserProfile, error) {
	u.ID = 0
	u.Nickname = strings.TrimSpace(u.Nickname)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		if u.Nickname == "" {
			u.Nickname = fmt.Sprintf("User%03d", u.ID)
			return tx.Model(&u).Update("nickname", u.Nickname).Error
		}
		return nil
	})
	if err != nil {
		return nil, nutricoach.NewPersistenceError("create user", err)
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id uint) (*nutricoach.UserProfile, error) {
	var u nutricoach.UserProfile
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nutricoach.ErrUserNotFound
		}
		return nil, nutricoach.NewPersistenceError("get user", err)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, offset, limit int) ([]nutricoach.UserProfile, error) {
	users := []nutricoach.UserProfile{}
	err := s.db.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, nutricoach.NewPersistenceError("list users", err)
	}
	return users, nil
}

// UserUpdate carries the fields of a partial profile update. Nil fields are left alone.
type UserUpdate struct {
	Nickname *string
	HeightCm *float64
	WeightKg *float64
	Age      *int
	Gender   *nutricoach.Gender
	Goal     *nutricoach.Goal
}

func (u UserUpdate) columns() map[string]any {
	cols := map[string]any{}
	if u.Nickname != nil {
		cols["nickname"] = *u.Nickname
	}
	if u.HeightCm != nil {
		cols["height_cm"] = *u.HeightCm
	}
	if u.WeightKg != nil {
		cols["weight_kg"] = *u.WeightKg
	}
	if u.Age != nil {
		cols["age"] = *u.Age
	}
	if u.Gender != nil {
		cols["gender"] = *u.Gender
	}
	if u.Goal != nil {
		cols["goal"] = *u.Goal
	}
	return cols
}

// UpdateUser applies the set fields of upd and returns the stored profile.
func (s *Store) UpdateUser(ctx context.Context, id uint, upd UserUpdate) (*nutricoach.UserProfile, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	cols := upd.columns()
	if len(cols) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(cols).Error; err != nil {
		return nil, nutricoach.NewPersistenceError("update user", err)
	}
	return s.GetUser(ctx, id)
}

// RecordInput is the submitted content of a daily record.
type RecordInput struct {
	RecordDate             nutricoach.Date
	CaloriesConsumed       int
	ProteinG               float64
	FatG                   float64
	CarbsG                 float64
	// CaloriesBurnedExercise is optional. Nil keeps the stored value, or 0 on insert.
	CaloriesBurnedExercise *int
	// ResetFeedback clears stored feedback so the next summary regenerates it.
	ResetFeedback bool
}

// columns lists the record columns an upsert overwrites.
func (in RecordInput) columns() []string {
	cols := []string{"calories_consumed", "protein_g", "fat_g", "carbs_g"}
	if in.CaloriesBurnedExercise != nil {
		cols = append(cols, "calories_burned_exercise")
	}
	if in.ResetFeedback {
		cols = append(cols, "feedback")
	}
	return cols
}

// UpsertRecord creates the record for (userID, in.RecordDate) or updates its
// nutrition fields in place. Existing feedback survives unless in.ResetFeedback is set.
func (s *Store) UpsertRecord(ctx context.Context, userID uint, in RecordInput) (*nutricoach.DailyRecord, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	rec := nutricoach.DailyRecord{
		UserID:                 userID,
		RecordDate:             in.RecordDate,
		CaloriesConsumed:       in.CaloriesConsumed,
		ProteinG:               in.ProteinG,
		FatG:                   in.FatG,
		CarbsG:                 in.CarbsG,
	}
	if in.CaloriesBurnedExercise != nil {
		rec.CaloriesBurnedExercise = *in.CaloriesBurnedExercise
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "record_date"}},
		DoUpdates: clause.AssignmentColumns(in.columns()),
	}).Create(&rec).Error
	if err != nil {
		return nil, nutricoach.NewPersistenceError("upsert record", err)
	}

	// The id is not reliably returned on the update path.
	return s.GetRecord(ctx, userID, in.RecordDate)
}

func (s *Store) GetRecord(ctx context.Context, userID uint, date nutricoach.Date) (*nutricoach.DailyRecord, error) {
	var rec nutricoach.DailyRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND record_date = ?", userID, date).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nutricoach.ErrRecordNotFound
		}
		return nil, nutricoach.NewPersistenceError("get record", err)
	}
	return &rec, nil
}

func (s *Store) GetRecordByID(ctx context.Context, id uint) (*nutricoach.DailyRecord, error) {
	var rec nutricoach.DailyRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nutricoach.ErrRecordNotFound
		}
		return nil, nutricoach.NewPersistenceError("get record", err)
	}
	return &rec, nil
}

// ListRecords returns the user's records newest first.
func (s *Store) ListRecords(ctx context.Context, userID uint, offset, limit int) ([]nutricoach.DailyRecord, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	records := []nutricoach.DailyRecord{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("record_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, nutricoach.NewPersistenceError("list records", err)
	}
	return records, nil
}

// ListRecordDates returns the dates the user has records for, oldest first,
// optionally bounded by start and end (both inclusive).
func (s *Store) ListRecordDates(ctx context.Context, userID uint, start, end *nutricoach.Date) ([]nutricoach.Date, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Model(&nutricoach.DailyRecord{}).Where("user_id = ?", userID)
	if start != nil {
		q = q.Where("record_date >= ?", *start)
	}
	if end != nil {
		q = q.Where("record_date <= ?", *end)
	}

	dates := []nutricoach.Date{}
	if err := q.Order("record_date").Pluck("record_date", &dates).Error; err != nil {
		return nil, nutricoach.NewPersistenceError("list record dates", err)
	}
	return dates, nil
}

// SaveRecordFeedback stores text only while the record has no feedback. It
// reports whether this write took effect.
func (s *Store) SaveRecordFeedback(ctx context.Context, recordID uint, text string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&nutricoach.DailyRecord{}).
		Where("id = ? AND (feedback IS NULL OR feedback = '')", recordID).
		Update("feedback", text)
	if res.Error != nil {
		return false, nutricoach.NewPersistenceError("save feedback", res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	// Nothing changed: either someone else wrote first or the record is gone.
	if _, err := s.GetRecordByID(ctx, recordID); err != nil {
		return false, err
	}
	return false, nil
}
