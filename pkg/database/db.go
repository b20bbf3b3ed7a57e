package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

// User represents the users table. Managers are bound to one store.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"not null;default:manager" json:"role"`
	StoreCode    string    `json:"store_code,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store represents the stores table
type Store struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Code             string    `gorm:"unique;not null" json:"code"`
	Name             string    `json:"name"`
	Country          string    `json:"country"`
	OpeningTime      string    `json:"opening_time"`
	ClosingTime      string    `json:"closing_time"`
	DesiredAttention float64   `gorm:"default:25" json:"desired_attention"`
	GrowthFactor     float64   `json:"growth_factor"`
	AirtableID       string    `json:"airtable_id,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Employee represents the employees table
type Employee struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ExternalID    string    `gorm:"unique;not null" json:"external_id"`
	StoreCode     string    `gorm:"index;not null" json:"store_code"`
	Name          string    `json:"name"`
	ContractHours float64   `json:"contract_hours"`
	Active        bool      `json:"active"`
	AirtableID    string    `json:"airtable_id,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SyncRun represents one HR synchronisation
type SyncRun struct {
	ID         string     `gorm:"primaryKey" json:"id"`
	Trigger    string     `json:"trigger"`
	Status     string     `json:"status"`
	Stores     int        `json:"stores"`
	Employees  int        `json:"employees"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

// SyncUsage counts sync key requests per day
type SyncUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyName      string `gorm:"uniqueIndex:idx_key_date;not null" json:"key_name"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	Stores       int    `gorm:"default:0" json:"stores"`
	Employees    int    `gorm:"default:0" json:"employees"`
}

// Open connects to Postgres when dsn is set, otherwise to the SQLite file
// at dataPath, and migrates the schema
func Open(dsn, dataPath string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	if dsn != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	} else {
		db, err = gorm.Open(sqlite.Open(dataPath), &gorm.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("connecting database: %w", err)
	}

	if err := db.AutoMigrate(&User{}, &Store{}, &Employee{}, &SyncRun{}, &SyncUsage{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return db, nil
}

// StoreByCode loads a store, returning gorm.ErrRecordNotFound when unknown
func StoreByCode(db *gorm.DB, code string) (*Store, error) {
	var s Store
	if err := db.Where("code = ?", code).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// EmployeesByStore lists the active employees of a store ordered by name
func EmployeesByStore(db *gorm.DB, code string) ([]Employee, error) {
	var emps []Employee
	err := db.Where("store_code = ? AND active = ?", code, true).Order("name").Find(&emps).Error
	return emps, err
}

// UpsertStore inserts or updates a store by code. Recommendation
// parameters set by an administrator are left untouched.
func UpsertStore(db *gorm.DB, s *Store) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "country", "opening_time", "closing_time", "airtable_id", "updated_at"}),
	}).Create(s).Error
}

// UpsertEmployee inserts or updates an employee by external id
func UpsertEmployee(db *gorm.DB, e *Employee) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"store_code", "name", "contract_hours", "active", "airtable_id", "updated_at"}),
	}).Create(e).Error
}

// DeactivateMissing marks the employees of a store not in keep as inactive
func DeactivateMissing(db *gorm.DB, storeCode string, keep []string) (int64, error) {
	q := db.Model(&Employee{}).Where("store_code = ? AND active = ?", storeCode, true)
	if len(keep) > 0 {
		q = q.Where("external_id NOT IN ?", keep)
	}
	res := q.Update("active", false)
	return res.RowsAffected, res.Error
}

// RecordSyncUsage counts one sync request for key today using an upsert
func RecordSyncUsage(db *gorm.DB, keyName string, day time.Time, stores, employees int) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_name"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count": gorm.Expr("request_count + ?", 1),
			"stores":        gorm.Expr("stores + ?", stores),
			"employees":     gorm.Expr("employees + ?", employees),
		}),
	}).Create(&SyncUsage{
		KeyName:      keyName,
		Date:         day.Format("2006-01-02"),
		RequestCount: 1,
		Stores:       stores,
		Employees:    employees,
	}).Error
}

// IsNotFound reports whether err is a missing record
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
