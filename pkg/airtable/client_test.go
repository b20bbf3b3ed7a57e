package airtable

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(srv.URL, "appBASE", "tok", slog.Default()).WithRetry(3, time.Millisecond)
}

func TestList_Paginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "/appBASE/Actividad Diaria", r.URL.Path)
		if r.URL.Query().Get("offset") == "" {
			json.NewEncoder(w).Encode(map[string]any{
				"records": []map[string]any{{"id": "rec1", "fields": map[string]any{"Tienda": "MAD01"}}},
				"offset":  "page2",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"records": []map[string]any{{"id": "rec2", "fields": map[string]any{"Tienda": "MAD01"}}},
		})
	}))
	defer srv.Close()

	from := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	recs, err := newTestClient(srv).ActivityRecords(context.Background(), "MAD01", from, from.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "rec1", recs[0].ID)
	assert.Equal(t, "rec2", recs[1].ID)
}

func TestDo_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "rec9", "fields": map[string]any{}})
	}))
	defer srv.Close()

	rec, err := newTestClient(srv).Get(context.Background(), TableActivity, "rec9")
	require.NoError(t, err)
	assert.Equal(t, "rec9", rec.ID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDo_NotFoundIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Get(context.Background(), TableActivity, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_ClientErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"INVALID_VALUE"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Update(context.Background(), TableActivity, []Record{{ID: "rec1", Fields: map[string]any{"09:00": "x"}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.True(t, strings.Contains(err.Error(), "INVALID_VALUE"))
}

func TestUpsertByKey_BatchesAndSplits(t *testing.T) {
	var posts, patches int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"records": []map[string]any{{"id": "recA", "fields": map[string]any{FieldStoreCode: "S0"}}},
			})
		case http.MethodPost, http.MethodPatch:
			var req writeRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.LessOrEqual(t, len(req.Records), maxBatch)
			if r.Method == http.MethodPost {
				atomic.AddInt32(&posts, 1)
				for i := range req.Records {
					req.Records[i].ID = "new" + storeKey(req.Records[i])
				}
			} else {
				atomic.AddInt32(&patches, 1)
			}
			json.NewEncoder(w).Encode(listResponse{Records: req.Records})
		}
	}))
	defer srv.Close()

	rows := []map[string]any{}
	for i := 0; i < 12; i++ {
		rows = append(rows, map[string]any{FieldStoreCode: "S" + string(rune('0'+i%10)) + string(rune('a'+i))})
	}
	rows = append(rows, map[string]any{FieldStoreCode: "S0", "Nombre": "existing"})

	ids, err := newTestClient(srv).UpsertByKey(context.Background(), TableStores, FieldStoreCode, rows)
	require.NoError(t, err)
	assert.Equal(t, "recA", ids["S0"])
	assert.Len(t, ids, 13)
	assert.Equal(t, int32(2), atomic.LoadInt32(&posts))
	assert.Equal(t, int32(1), atomic.LoadInt32(&patches))
}

func storeKey(r Record) string {
	s, _ := r.Fields[FieldStoreCode].(string)
	return s
}
