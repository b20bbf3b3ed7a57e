package airtable

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arnavshah/store-scheduler-api/pkg/workhours"
)

// Key fields used to match synced rows
const (
	FieldStoreCode    = "Código"
	FieldEmployeeCode = "ID Empleado"
)

// ActivityRecords lists the daily activity rows of a store between from
// and to, both inclusive
func (c *Client) ActivityRecords(ctx context.Context, storeCode string, from, to time.Time) ([]Record, error) {
	formula := fmt.Sprintf("AND({%s}='%s', NOT(IS_BEFORE({%s}, '%s')), NOT(IS_AFTER({%s}, '%s')))",
		workhours.FieldStore, escape(storeCode),
		workhours.FieldDate, from.Format("2006-01-02"),
		workhours.FieldDate, to.Format("2006-01-02"))
	return c.List(ctx, TableActivity, ListOptions{Formula: formula, PageSize: 100, Sort: workhours.FieldDate})
}

// UpsertByKey writes rows to table, updating the records whose keyField
// already holds the row's key and creating the rest. It returns the
// record id of every key.
func (c *Client) UpsertByKey(ctx context.Context, table, keyField string, rows []map[string]any) (map[string]string, error) {
	existing, err := c.List(ctx, table, ListOptions{Fields: []string{keyField}, PageSize: 100})
	if err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(existing))
	for _, r := range existing {
		if k := workhours.Text(r.Fields[keyField]); k != "" {
			ids[k] = r.ID
		}
	}

	var updates, creates []Record
	for _, fields := range rows {
		key := workhours.Text(fields[keyField])
		if id, ok := ids[key]; ok {
			updates = append(updates, Record{ID: id, Fields: fields})
		} else {
			creates = append(creates, Record{Fields: fields})
		}
	}

	if len(updates) > 0 {
		if _, err := c.Update(ctx, table, updates); err != nil {
			return nil, err
		}
	}
	if len(creates) > 0 {
		created, err := c.Create(ctx, table, creates)
		if err != nil {
			return nil, err
		}
		for _, r := range created {
			ids[workhours.Text(r.Fields[keyField])] = r.ID
		}
	}
	return ids, nil
}

func escape(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
