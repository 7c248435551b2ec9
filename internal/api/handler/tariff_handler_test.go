package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"waste-billing/internal/api/handler"
	"waste-billing/internal/api/handler/dto"
	"waste-billing/internal/domain/tariff"
	"waste-billing/internal/pkg/apperrors"
	"waste-billing/internal/pkg/period"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTariffHandler() (*handler.TariffHandler, *MockTariffService) {
	ts := new(MockTariffService)
	return handler.NewTariffHandler(ts, discardLogger()), ts
}

func TestCreateTariff(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h, ts := newTariffHandler()
		ts.On("CreateTariff", mock.Anything, mock.MatchedBy(func(c *tariff.Category) bool {
			return c.Name == "Rumah Tangga" && c.MonthlyRate == 15000
		})).Return(&tariff.Category{ID: 1, Name: "Rumah Tangga", MonthlyRate: 15000}, nil).Once()

		rec := httptest.NewRecorder()
		h.CreateTariff(rec, newRequest(http.MethodPost, "/tariffs", `{"nama_kategori":"Rumah Tangga","harga_per_bulan":15000}`))

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.TariffResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(15000), resp.HargaPerBulan)
		assert.Equal(t, "Rp 15000", resp.HargaPerBulanDisplay)
		ts.AssertExpectations(t)
	})

	t.Run("negative rate", func(t *testing.T) {
		h, ts := newTariffHandler()
		rec := httptest.NewRecorder()
		h.CreateTariff(rec, newRequest(http.MethodPost, "/tariffs", `{"nama_kategori":"Toko","harga_per_bulan":-1}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "harga_per_bulan", decodeError(t, rec).Field)
		ts.AssertNotCalled(t, "CreateTariff")
	})

	t.Run("duplicate name", func(t *testing.T) {
		h, ts := newTariffHandler()
		ts.On("CreateTariff", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: tariff name", apperrors.ErrAlreadyExists)).Once()

		rec := httptest.NewRecorder()
		h.CreateTariff(rec, newRequest(http.MethodPost, "/tariffs", `{"nama_kategori":"Toko","harga_per_bulan":25000}`))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestUpdateTariff(t *testing.T) {
	t.Run("locked rate", func(t *testing.T) {
		h, ts := newTariffHandler()
		ts.On("UpdateTariff", mock.Anything, int64(2), mock.MatchedBy(func(u tariff.CategoryUpdate) bool {
			return u.MonthlyRate != nil && *u.MonthlyRate == 20000
		})).Return(nil, fmt.Errorf("%w: rate is referenced", apperrors.ErrConflict)).Once()

		rec := httptest.NewRecorder()
		h.UpdateTariff(rec, newRequest(http.MethodPut, "/tariffs/2", `{"harga_per_bulan":20000}`, "tariffID", "2"))
		assert.Equal(t, http.StatusConflict, rec.Code)
		ts.AssertExpectations(t)
	})

	t.Run("description only", func(t *testing.T) {
		h, ts := newTariffHandler()
		ts.On("UpdateTariff", mock.Anything, int64(2), mock.MatchedBy(func(u tariff.CategoryUpdate) bool {
			return u.MonthlyRate == nil && u.Description != nil && *u.Description == "Warung"
		})).Return(&tariff.Category{ID: 2, Name: "Toko", MonthlyRate: 25000, Description: "Warung"}, nil).Once()

		rec := httptest.NewRecorder()
		h.UpdateTariff(rec, newRequest(http.MethodPut, "/tariffs/2", `{"deskripsi":"Warung"}`, "tariffID", "2"))
		assert.Equal(t, http.StatusOK, rec.Code)
		ts.AssertExpectations(t)
	})
}

func TestListTariffs(t *testing.T) {
	h, ts := newTariffHandler()
	ts.On("ListTariffs", mock.Anything).Return([]*tariff.Category{
		{ID: 1, Name: "Rumah Tangga", MonthlyRate: 15000},
		{ID: 2, Name: "Toko", MonthlyRate: 25000},
	}, nil).Once()

	rec := httptest.NewRecorder()
	h.ListTariffs(rec, newRequest(http.MethodGet, "/tariffs", ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp []dto.TariffResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
}

func TestBulkUpdate(t *testing.T) {
	t.Run("applies", func(t *testing.T) {
		h, ts := newTariffHandler()
		effective := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
		ts.On("BulkUpdate", mock.Anything, tariff.BulkUpdate{
			CustomerIDs:   []int64{1, 2, 3},
			TariffID:      2,
			EffectiveDate: effective,
			RequestedBy:   "kasir",
		}).Return(&tariff.BulkUpdateResult{
			TariffID:        2,
			EffectiveMonth:  "2024-07",
			UpdatedIDs:      []int64{1, 2},
			SkippedIDs:      []int64{3},
			HistoryRecorded: 2,
		}, nil).Once()

		rec := httptest.NewRecorder()
		h.BulkUpdate(rec, newRequest(http.MethodPost, "/tariffs/bulk-update",
			`{"customer_ids":[1,2,3],"tarif_id":2,"tanggal_efektif":"2024-07-01"}`))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp tariff.BulkUpdateResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, []int64{1, 2}, resp.UpdatedIDs)
		assert.Equal(t, []int64{3}, resp.SkippedIDs)
		ts.AssertExpectations(t)
	})

	t.Run("empty customer list", func(t *testing.T) {
		h, ts := newTariffHandler()
		rec := httptest.NewRecorder()
		h.BulkUpdate(rec, newRequest(http.MethodPost, "/tariffs/bulk-update",
			`{"customer_ids":[],"tarif_id":2,"tanggal_efektif":"2024-07-01"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "customer_ids", decodeError(t, rec).Field)
		ts.AssertNotCalled(t, "BulkUpdate")
	})

	t.Run("effective date before current month", func(t *testing.T) {
		h, ts := newTariffHandler()
		ts.On("BulkUpdate", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewValidationError("tanggal_efektif", "precedes the current effective month of customer 1")).Once()

		rec := httptest.NewRecorder()
		h.BulkUpdate(rec, newRequest(http.MethodPost, "/tariffs/bulk-update",
			`{"customer_ids":[1],"tarif_id":2,"tanggal_efektif":"2023-01-01"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "tanggal_efektif", decodeError(t, rec).Field)
	})
}

func TestOverrides(t *testing.T) {
	t.Run("set", func(t *testing.T) {
		h, ts := newTariffHandler()
		ts.On("SetOverride", mock.Anything, &tariff.Override{
			CustomerID: 5,
			Month:      period.MustParse("2024-04"),
			Amount:     0,
			Note:       "bencana banjir",
			CreatedBy:  "kasir",
		}).Return(&tariff.Override{ID: 9, CustomerID: 5, Month: period.MustParse("2024-04")}, nil).Once()

		rec := httptest.NewRecorder()
		h.SetOverride(rec, newRequest(http.MethodPost, "/customers/5/overrides",
			`{"bulan_berlaku":"2024-04","tarif_amount":0,"catatan":"bencana banjir"}`, "customerID", "5"))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"bulan_berlaku":"2024-04"`)
		ts.AssertExpectations(t)
	})

	t.Run("malformed month", func(t *testing.T) {
		h, ts := newTariffHandler()
		rec := httptest.NewRecorder()
		h.SetOverride(rec, newRequest(http.MethodPost, "/customers/5/overrides",
			`{"bulan_berlaku":"April 2024","tarif_amount":5000}`, "customerID", "5"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bulan_berlaku", decodeError(t, rec).Field)
		ts.AssertNotCalled(t, "SetOverride")
	})

	t.Run("list empty", func(t *testing.T) {
		h, ts := newTariffHandler()
		ts.On("ListOverrides", mock.Anything, int64(5)).Return(nil, nil).Once()

		rec := httptest.NewRecorder()
		h.ListOverrides(rec, newRequest(http.MethodGet, "/customers/5/overrides", "", "customerID", "5"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("delete", func(t *testing.T) {
		h, ts := newTariffHandler()
		ts.On("DeleteOverride", mock.Anything, int64(5), period.MustParse("2024-04")).Return(nil).Once()

		rec := httptest.NewRecorder()
		h.DeleteOverride(rec, newRequest(http.MethodDelete, "/customers/5/overrides/2024-04", "",
			"customerID", "5", "month", "2024-04"))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		ts.AssertExpectations(t)
	})

	t.Run("delete with bad month", func(t *testing.T) {
		h, ts := newTariffHandler()
		rec := httptest.NewRecorder()
		h.DeleteOverride(rec, newRequest(http.MethodDelete, "/customers/5/overrides/2024-4x", "",
			"customerID", "5", "month", "2024-4x"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "month", decodeError(t, rec).Field)
		ts.AssertNotCalled(t, "DeleteOverride")
	})
}
