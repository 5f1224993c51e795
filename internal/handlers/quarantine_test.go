package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lifeline-dev/lifeline/db"
	"github.com/lifeline-dev/lifeline/internal/middleware"
	"github.com/lifeline-dev/lifeline/internal/models"
	"github.com/lifeline-dev/lifeline/internal/quarantine"
	"github.com/lifeline-dev/lifeline/internal/types"
)

func newQuarantineTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "lifeline.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	handler := NewQuarantineHandler(quarantine.NewRegistry(conn, nil))

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.POST("/api/quarantines", handler.Start)
	r.GET("/api/quarantines/:code", handler.GetByCode)
	r.POST("/api/quarantines/:code/end", handler.End)
	r.GET("/api/quarantines/member/:member_id", handler.IsMemberQuarantined)

	return r, conn
}

func seedMember(t *testing.T, conn *gorm.DB) uint {
	t.Helper()

	member := models.CrewMember{Name: "Ripley", Crew: "alpha", Active: true, ContaminationStatus: types.StatusInfected}
	require.NoError(t, conn.Create(&member).Error)
	return member.ID
}

func postJSON(t *testing.T, r *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	return w
}

func TestStartQuarantineEndToEnd(t *testing.T) {
	r, conn := newQuarantineTestServer(t)
	memberID := seedMember(t, conn)

	w := postJSON(t, r, "/api/quarantines", gin.H{
		"code":       "Q-100",
		"lab_id":     "LAB-4",
		"protocol":   "PROTOCOL_1",
		"reason":     "airborne parasite detected in lab 4",
		"member_ids": []uint{memberID},
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var resp QuarantineResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "Q-100", resp.Code)
	assert.True(t, resp.NonInterruptible)
	assert.Equal(t, resp.CreatedAt.Add(48*time.Hour), resp.EstimatedEndTime)
	assert.Equal(t, []uint{memberID}, resp.MemberIDs)

	// Ending a non-interruptible lockdown is rejected with 422
	end := postJSON(t, r, "/api/quarantines/Q-100/end", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, end.Code)

	// The member reads as quarantined while the record is active
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/quarantines/member/1", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"quarantined":true`)
}

func TestStartDuplicateCodeReturns422(t *testing.T) {
	r, conn := newQuarantineTestServer(t)
	memberID := seedMember(t, conn)

	payload := gin.H{
		"code":       "Q-100",
		"lab_id":     "LAB-4",
		"protocol":   "PROTOCOL_1",
		"reason":     "airborne parasite detected in lab 4",
		"member_ids": []uint{memberID},
	}

	require.Equal(t, http.StatusCreated, postJSON(t, r, "/api/quarantines", payload).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, postJSON(t, r, "/api/quarantines", payload).Code)
}

func TestGetUnknownQuarantineReturns404(t *testing.T) {
	r, _ := newQuarantineTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/quarantines/NOPE", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Resource Not Found", body["error"])
	assert.Equal(t, "/api/quarantines/NOPE", body["path"])
}

func TestStartMissingMemberReturns404(t *testing.T) {
	r, _ := newQuarantineTestServer(t)

	w := postJSON(t, r, "/api/quarantines", gin.H{
		"code":       "Q-100",
		"lab_id":     "LAB-4",
		"protocol":   "PROTOCOL_1",
		"reason":     "airborne parasite detected in lab 4",
		"member_ids": []uint{42},
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "42")
}
