// Package storesync copies the HR store directory and employee roster into
// the local database and the Airtable base.
package storesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arnavshah/store-scheduler-api/internal/metrics"
	"github.com/arnavshah/store-scheduler-api/pkg/airtable"
	"github.com/arnavshah/store-scheduler-api/pkg/database"
	"github.com/arnavshah/store-scheduler-api/pkg/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// Directory is the HR side of a sync
type Directory interface {
	Stores(ctx context.Context) ([]models.StoreInfo, error)
	Employees(ctx context.Context, storeCode string) ([]models.EmployeeInfo, error)
}

// Base is the Airtable side of a sync
type Base interface {
	UpsertByKey(ctx context.Context, table, keyField string, rows []map[string]any) (map[string]string, error)
}

// Syncer runs HR synchronisations
type Syncer struct {
	db     *gorm.DB
	hr     Directory
	base   Base
	logger *slog.Logger
}

// New creates a Syncer. base may be nil to skip the Airtable copy.
func New(db *gorm.DB, hr Directory, base Base, logger *slog.Logger) *Syncer {
	return &Syncer{db: db, hr: hr, base: base, logger: logger}
}

// Run performs one synchronisation and records it as a SyncRun
func (s *Syncer) Run(ctx context.Context, trigger string) (*database.SyncRun, error) {
	run := &database.SyncRun{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
	if err := s.db.Create(run).Error; err != nil {
		return nil, fmt.Errorf("recording sync run: %w", err)
	}
	s.logger.Info("sync started", "run", run.ID, "trigger", trigger)

	err := s.sync(ctx, run)

	finished := time.Now()
	run.FinishedAt = &finished
	run.Status = StatusOK
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
	}
	if saveErr := s.db.Save(run).Error; saveErr != nil {
		err = errors.Join(err, fmt.Errorf("saving sync run: %w", saveErr))
	}
	metrics.SyncRuns.WithLabelValues(run.Status).Inc()

	if err != nil {
		s.logger.Error("sync failed", "run", run.ID, "error", err)
		return run, err
	}
	s.logger.Info("sync finished", "run", run.ID, "stores", run.Stores, "employees", run.Employees,
		"duration", finished.Sub(run.StartedAt))
	return run, nil
}

func (s *Syncer) sync(ctx context.Context, run *database.SyncRun) error {
	stores, err := s.hr.Stores(ctx)
	if err != nil {
		return err
	}

	storeIDs := map[string]string{}
	if s.base != nil {
		rows := make([]map[string]any, 0, len(stores))
		for _, st := range stores {
			rows = append(rows, map[string]any{
				airtable.FieldStoreCode: st.Code,
				"Nombre":                st.Name,
				"País":                  st.Country,
				"Apertura":              st.OpeningTime,
				"Cierre":                st.ClosingTime,
			})
		}
		storeIDs, err = s.base.UpsertByKey(ctx, airtable.TableStores, airtable.FieldStoreCode, rows)
		if err != nil {
			return fmt.Errorf("copying stores to airtable: %w", err)
		}
	}

	for _, st := range stores {
		if err := database.UpsertStore(s.db, &database.Store{
			Code:        st.Code,
			Name:        st.Name,
			Country:     st.Country,
			OpeningTime: st.OpeningTime,
			ClosingTime: st.ClosingTime,
			AirtableID:  storeIDs[st.Code],
		}); err != nil {
			return fmt.Errorf("saving store %s: %w", st.Code, err)
		}
		run.Stores++

		n, err := s.syncEmployees(ctx, st, storeIDs[st.Code])
		if err != nil {
			return err
		}
		run.Employees += n
	}
	return nil
}

func (s *Syncer) syncEmployees(ctx context.Context, st models.StoreInfo, storeRecordID string) (int, error) {
	emps, err := s.hr.Employees(ctx, st.Code)
	if err != nil {
		return 0, err
	}

	empIDs := map[string]string{}
	if s.base != nil && len(emps) > 0 {
		rows := make([]map[string]any, 0, len(emps))
		for _, e := range emps {
			row := map[string]any{
				airtable.FieldEmployeeCode: e.ID,
				"Nombre":                   e.Name,
				"Horas Contrato":           e.ContractHours,
				"Activo":                   e.Active,
			}
			if storeRecordID != "" {
				row["Tienda"] = []string{storeRecordID}
			}
			rows = append(rows, row)
		}
		empIDs, err = s.base.UpsertByKey(ctx, airtable.TableEmployees, airtable.FieldEmployeeCode, rows)
		if err != nil {
			return 0, fmt.Errorf("copying employees of %s to airtable: %w", st.Code, err)
		}
	}

	keep := make([]string, 0, len(emps))
	for _, e := range emps {
		if err := database.UpsertEmployee(s.db, &database.Employee{
			ExternalID:    e.ID,
			StoreCode:     st.Code,
			Name:          e.Name,
			ContractHours: e.ContractHours,
			Active:        e.Active,
			AirtableID:    empIDs[e.ID],
		}); err != nil {
			return 0, fmt.Errorf("saving employee %s: %w", e.ID, err)
		}
		keep = append(keep, e.ID)
	}

	gone, err := database.DeactivateMissing(s.db, st.Code, keep)
	if err != nil {
		return 0, fmt.Errorf("deactivating employees of %s: %w", st.Code, err)
	}
	if gone > 0 {
		s.logger.Info("employees deactivated", "store", st.Code, "count", gone)
	}
	return len(emps), nil
}
