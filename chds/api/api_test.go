package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	ers "github.com/chittoor-drda/chds-app/chds/errors"
	"github.com/chittoor-drda/chds-app/chds/models"
	"github.com/chittoor-drda/chds-app/chds/service"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) UpdateResident(ctx context.Context, residentID string, req service.FieldUpdateRequest, updatedBy string) (int, error) {
	args := m.Called(ctx, residentID, req, updatedBy)
	return args.Int(0), args.Error(1)
}

func (m *mockService) GetResident(ctx context.Context, residentID string) (*models.Resident, error) {
	args := m.Called(ctx, residentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Resident), args.Error(1)
}

func (m *mockService) GetLockingSetting(ctx context.Context) (*models.LockingSetting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LockingSetting), args.Error(1)
}

func (m *mockService) SetCutoffDate(ctx context.Context, cutoff *time.Time) error {
	args := m.Called(ctx, cutoff)
	return args.Error(0)
}

func (m *mockService) GetCompletionStats(ctx context.Context, mandal, secretariat string) (*service.CompletionReport, error) {
	args := m.Called(ctx, mandal, secretariat)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CompletionReport), args.Error(1)
}

func (m *mockService) GetImportHistory(ctx context.Context, limit int) ([]models.ImportHistoryEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ImportHistoryEntry), args.Error(1)
}

type APITestSuite struct {
	suite.Suite
	svc    *mockService
	router http.Handler
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) SetupTest() {
	s.svc = &mockService{}
	s.router = NewAPIRouter(s.svc, nil)
}

func (s *APITestSuite) request(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *APITestSuite) TestGetResident() {
	uid := "123456789012"
	mobile := "9876543210"
	s.svc.On("GetResident", mock.Anything, "R1").Return(&models.Resident{
		ResidentID:   "R1",
		HouseholdID:  "H1",
		Name:         "Lakshmi Devi",
		UID:          &uid,
		MobileNumber: &mobile,
	}, nil)

	rr := s.request("GET", "/api/residents/R1", "")
	s.Equal(http.StatusOK, rr.Code)

	var resp residentResponse
	s.NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Equal("Lakshmi Devi", resp.Name)
	s.Require().NotNil(resp.UID)
	s.Equal("XXXXXXXX9012", *resp.UID)
	s.NotContains(rr.Body.String(), uid)
}

func (s *APITestSuite) TestGetResidentNotFound() {
	s.svc.On("GetResident", mock.Anything, "MISSING").
		Return(nil, &ers.ResidentNotFoundError{ResidentID: "MISSING"})

	rr := s.request("GET", "/api/residents/MISSING", "")
	s.Equal(http.StatusNotFound, rr.Code)

	var resp errorResponse
	s.NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Equal(ers.KindResidentNotFound, resp.Error.Kind)
}

func (s *APITestSuite) TestUpdateResident() {
	mobile := "9876543210"
	s.svc.On("UpdateResident", mock.Anything, "R1",
		service.FieldUpdateRequest{MobileNumber: service.FieldUpdate{Set: true, Value: &mobile}}, "staff-17").
		Return(1, nil)

	req := httptest.NewRequest("PATCH", "/api/residents/R1", strings.NewReader(`{"mobileNumber":"9876543210"}`))
	req.Header.Set("X-Updated-By", "staff-17")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	s.Equal(http.StatusOK, rr.Code)
	var resp map[string]int
	s.NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Equal(1, resp["fieldsChanged"])
	s.svc.AssertExpectations(s.T())
}

func (s *APITestSuite) TestUpdateResidentClearsField() {
	s.svc.On("UpdateResident", mock.Anything, "R1",
		service.FieldUpdateRequest{HealthID: service.FieldUpdate{Set: true, Value: nil}}, "api").
		Return(1, nil)

	rr := s.request("PATCH", "/api/residents/R1", `{"healthId":null}`)
	s.Equal(http.StatusOK, rr.Code)
	s.svc.AssertExpectations(s.T())
}

func (s *APITestSuite) TestUpdateResidentErrorStatuses() {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid mobile", &ers.InvalidMobileError{Value: "12345", Reason: "must be 10 digits starting 6-9"}, http.StatusBadRequest},
		{"locked", &ers.RecordLockedError{ResidentID: "R1"}, http.StatusForbidden},
		{"not found", &ers.ResidentNotFoundError{ResidentID: "R1"}, http.StatusNotFound},
		{"duplicate limit", &ers.DuplicateLimitError{MobileNumber: "9876543210", Secretariat: "SEC1", Count: 5, Limit: 5}, http.StatusConflict},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			svc := &mockService{}
			svc.On("UpdateResident", mock.Anything, "R1", mock.Anything, mock.Anything).Return(0, tt.err)
			router := NewAPIRouter(svc, nil)

			req := httptest.NewRequest("PATCH", "/api/residents/R1", strings.NewReader(`{"mobileNumber":"12345"}`))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			s.Equal(tt.status, rr.Code)
			var resp errorResponse
			s.NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
			s.Equal(ers.Kind(tt.err), resp.Error.Kind)
		})
	}
}

func (s *APITestSuite) TestUpdateResidentRejectsUnknownField() {
	rr := s.request("PATCH", "/api/residents/R1", `{"name":"New Name"}`)
	s.Equal(http.StatusBadRequest, rr.Code)
	s.svc.AssertNotCalled(s.T(), "UpdateResident")
}

func (s *APITestSuite) TestUpdateResidentRejectsEmptyBody() {
	rr := s.request("PATCH", "/api/residents/R1", `{}`)
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *APITestSuite) TestGetLocking() {
	cutoff := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	s.svc.On("GetLockingSetting", mock.Anything).
		Return(&models.LockingSetting{CutoffDate: &cutoff, UpdatedAt: cutoff}, nil)

	rr := s.request("GET", "/api/locking", "")
	s.Equal(http.StatusOK, rr.Code)

	var resp lockingResponse
	s.NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Require().NotNil(resp.CutoffDate)
	s.Equal("2024-04-01", *resp.CutoffDate)
}

func (s *APITestSuite) TestGetLockingDisabled() {
	s.svc.On("GetLockingSetting", mock.Anything).
		Return(&models.LockingSetting{}, nil)

	rr := s.request("GET", "/api/locking", "")
	s.Equal(http.StatusOK, rr.Code)

	var resp lockingResponse
	s.NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Nil(resp.CutoffDate)
}

func (s *APITestSuite) TestSetLocking() {
	cutoff := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	s.svc.On("SetCutoffDate", mock.Anything, &cutoff).Return(nil)
	s.svc.On("GetLockingSetting", mock.Anything).
		Return(&models.LockingSetting{CutoffDate: &cutoff, UpdatedAt: time.Now()}, nil)

	rr := s.request("PUT", "/api/locking", `{"cutoffDate":"2024-04-01"}`)
	s.Equal(http.StatusOK, rr.Code)
	s.svc.AssertExpectations(s.T())
}

func (s *APITestSuite) TestSetLockingClear() {
	s.svc.On("SetCutoffDate", mock.Anything, (*time.Time)(nil)).Return(nil)
	s.svc.On("GetLockingSetting", mock.Anything).
		Return(&models.LockingSetting{UpdatedAt: time.Now()}, nil)

	rr := s.request("PUT", "/api/locking", `{"cutoffDate":null}`)
	s.Equal(http.StatusOK, rr.Code)
	s.svc.AssertExpectations(s.T())
}

func (s *APITestSuite) TestSetLockingRejectsBadDate() {
	rr := s.request("PUT", "/api/locking", `{"cutoffDate":"01-04-2024"}`)
	s.Equal(http.StatusBadRequest, rr.Code)
	s.svc.AssertNotCalled(s.T(), "SetCutoffDate")
}

func (s *APITestSuite) TestGetCompletionStats() {
	report := &service.CompletionReport{
		Stats: models.CompletionStats{
			Total:          200,
			NameComplete:   150,
			MobileComplete: 100,
		},
		NameRate:   75,
		MobileRate: 50,
	}
	s.svc.On("GetCompletionStats", mock.Anything, "Chittoor", "SEC1").Return(report, nil)

	rr := s.request("GET", "/api/stats/completion?mandal=Chittoor&secretariat=SEC1", "")
	s.Equal(http.StatusOK, rr.Code)

	var resp completionResponse
	s.NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Equal(200, resp.Total)
	s.Equal(75, resp.NameRate)
	s.Equal(50, resp.MobileRate)
}

func (s *APITestSuite) TestGetImportHistory() {
	entries := []models.ImportHistoryEntry{
		{FileName: "batch1.csv", TotalRecords: 100, SuccessRecords: 98, Status: "partial"},
	}
	s.svc.On("GetImportHistory", mock.Anything, 20).Return(entries, nil)

	rr := s.request("GET", "/api/imports", "")
	s.Equal(http.StatusOK, rr.Code)

	var resp []importHistoryResponse
	s.NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Require().Len(resp, 1)
	s.Equal("batch1.csv", resp[0].FileName)
}

func (s *APITestSuite) TestGetImportHistoryRejectsBadLimit() {
	rr := s.request("GET", "/api/imports?limit=zero", "")
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *APITestSuite) TestVersion() {
	rr := s.request("GET", "/_version", "")
	s.Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), "version")
}

func (s *APITestSuite) TestHealthWithoutDatabase() {
	rr := s.request("GET", "/_health", "")
	s.Equal(http.StatusBadGateway, rr.Code)
}
