package storesync

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/arnavshah/store-scheduler-api/pkg/airtable"
	"github.com/arnavshah/store-scheduler-api/pkg/database"
	"github.com/arnavshah/store-scheduler-api/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeHR struct {
	stores    []models.StoreInfo
	employees map[string][]models.EmployeeInfo
	err       error
}

func (f *fakeHR) Stores(ctx context.Context) ([]models.StoreInfo, error) {
	return f.stores, f.err
}

func (f *fakeHR) Employees(ctx context.Context, code string) ([]models.EmployeeInfo, error) {
	return f.employees[code], nil
}

type fakeBase struct {
	tables map[string][]map[string]any
}

func (f *fakeBase) UpsertByKey(ctx context.Context, table, keyField string, rows []map[string]any) (map[string]string, error) {
	if f.tables == nil {
		f.tables = map[string][]map[string]any{}
	}
	f.tables[table] = append(f.tables[table], rows...)
	ids := map[string]string{}
	for _, r := range rows {
		k := r[keyField].(string)
		ids[k] = "rec" + k
	}
	return ids, nil
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("", filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	return db
}

func TestRun(t *testing.T) {
	db := testDB(t)
	require.NoError(t, database.UpsertEmployee(db, &database.Employee{ExternalID: "old", StoreCode: "MAD01", Name: "Gone", Active: true}))

	hr := &fakeHR{
		stores: []models.StoreInfo{
			{Code: "MAD01", Name: "Madrid", Country: "ES", OpeningTime: "09:00", ClosingTime: "21:00"},
			{Code: "PAR01", Name: "Paris", Country: "FR", OpeningTime: "10:00", ClosingTime: "20:00"},
		},
		employees: map[string][]models.EmployeeInfo{
			"MAD01": {{ID: "e1", Name: "Ana", ContractHours: 40, Active: true}, {ID: "e2", Name: "Bruno", ContractHours: 20, Active: true}},
			"PAR01": {{ID: "e3", Name: "Chloé", ContractHours: 35, Active: true}},
		},
	}
	base := &fakeBase{}

	run, err := New(db, hr, base, slog.Default()).Run(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, run.Status)
	assert.Equal(t, 2, run.Stores)
	assert.Equal(t, 3, run.Employees)
	assert.NotEmpty(t, run.ID)
	assert.NotNil(t, run.FinishedAt)

	store, err := database.StoreByCode(db, "PAR01")
	require.NoError(t, err)
	assert.Equal(t, "recPAR01", store.AirtableID)
	assert.Equal(t, 25.0, store.DesiredAttention)

	emps, err := database.EmployeesByStore(db, "MAD01")
	require.NoError(t, err)
	require.Len(t, emps, 2)
	assert.Equal(t, "rece1", emps[0].AirtableID)

	assert.Len(t, base.tables[airtable.TableStores], 2)
	assert.Len(t, base.tables[airtable.TableEmployees], 3)

	var saved database.SyncRun
	require.NoError(t, db.First(&saved, "id = ?", run.ID).Error)
	assert.Equal(t, StatusOK, saved.Status)
}

func TestRun_Failure(t *testing.T) {
	db := testDB(t)
	hr := &fakeHR{err: errors.New("hr down")}

	run, err := New(db, hr, nil, slog.Default()).Run(context.Background(), "test")
	require.Error(t, err)
	assert.Equal(t, StatusFailed, run.Status)

	var saved database.SyncRun
	require.NoError(t, db.First(&saved, "id = ?", run.ID).Error)
	assert.Equal(t, StatusFailed, saved.Status)
	assert.Contains(t, saved.Error, "hr down")
}
