package quarantine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lifeline-dev/lifeline/db"
	"github.com/lifeline-dev/lifeline/internal/apperrors"
	"github.com/lifeline-dev/lifeline/internal/models"
	"github.com/lifeline-dev/lifeline/internal/types"
)

func newTestRegistry(t *testing.T) (*Registry, *gorm.DB) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "lifeline.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	return NewRegistry(conn, nil), conn
}

func seedMembers(t *testing.T, conn *gorm.DB, count int) []uint {
	t.Helper()

	ids := make([]uint, 0, count)
	for i := 0; i < count; i++ {
		member := models.CrewMember{
			Name:                "Crew Member",
			Crew:                "alpha",
			Active:              true,
			ContaminationStatus: types.StatusInfected,
		}
		require.NoError(t, conn.Create(&member).Error)
		ids = append(ids, member.ID)
	}
	return ids
}

func startRequest(code string, memberIDs []uint) StartRequest {
	return StartRequest{
		Code:      code,
		LabID:     "LAB-4",
		Protocol:  types.Protocol1,
		Reason:    "airborne parasite detected in lab 4",
		MemberIDs: memberIDs,
	}
}

func TestStartQuarantine(t *testing.T) {
	registry, conn := newTestRegistry(t)
	memberIDs := seedMembers(t, conn, 2)

	created, err := registry.Start(startRequest("Q-100", memberIDs))
	require.NoError(t, err)

	assert.True(t, created.Active)
	assert.True(t, created.NonInterruptible, "lockdowns default to non-interruptible")
	assert.Equal(t, created.CreatedAt.Add(48*time.Hour), created.EstimatedEndTime)

	loaded, err := registry.GetByCode("Q-100")
	require.NoError(t, err)
	assert.Len(t, loaded.Members, 2)

	for _, id := range memberIDs {
		var member models.CrewMember
		require.NoError(t, conn.First(&member, id).Error)
		assert.Equal(t, types.StatusQuarantined, member.ContaminationStatus)
	}
}

func TestStartDuplicateCode(t *testing.T) {
	registry, conn := newTestRegistry(t)
	memberIDs := seedMembers(t, conn, 1)

	_, err := registry.Start(startRequest("Q-100", memberIDs))
	require.NoError(t, err)

	_, err = registry.Start(startRequest("Q-100", memberIDs))

	var duplicateErr *apperrors.DuplicateError
	require.ErrorAs(t, err, &duplicateErr)
	assert.Equal(t, "Q-100", duplicateErr.Code)
}

func TestStartMissingMembersIsAtomic(t *testing.T) {
	registry, conn := newTestRegistry(t)
	memberIDs := seedMembers(t, conn, 1)

	_, err := registry.Start(startRequest("Q-101", append(memberIDs, 999)))

	var notFoundErr *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Contains(t, notFoundErr.Error(), "999")

	// Nothing may survive the failed start: no record, no membership rows,
	// no status change on the member that did resolve.
	var count int64
	require.NoError(t, conn.Model(&models.Quarantine{}).Count(&count).Error)
	assert.Zero(t, count)

	var member models.CrewMember
	require.NoError(t, conn.First(&member, memberIDs[0]).Error)
	assert.Equal(t, types.StatusInfected, member.ContaminationStatus)
}

func TestStartValidation(t *testing.T) {
	registry, conn := newTestRegistry(t)
	memberIDs := seedMembers(t, conn, 1)

	req := startRequest("Q", memberIDs)
	req.Protocol = types.EmergencyProtocol("PROTOCOL_9")
	req.Reason = "too short"

	_, err := registry.Start(req)

	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "code")
	assert.Contains(t, validationErr.Fields, "protocol")
	assert.Contains(t, validationErr.Fields, "reason")
}

func TestEndNonInterruptibleRejected(t *testing.T) {
	registry, conn := newTestRegistry(t)
	memberIDs := seedMembers(t, conn, 1)

	_, err := registry.Start(startRequest("Q-100", memberIDs))
	require.NoError(t, err)

	err = registry.End("Q-100")

	var nonInterruptibleErr *apperrors.NonInterruptibleError
	require.ErrorAs(t, err, &nonInterruptibleErr)
	assert.Equal(t, types.Protocol1, nonInterruptibleErr.Protocol)

	loaded, err := registry.GetByCode("Q-100")
	require.NoError(t, err)
	assert.True(t, loaded.Active, "active must never change on a rejected end")
}

func TestEndInterruptible(t *testing.T) {
	registry, conn := newTestRegistry(t)
	memberIDs := seedMembers(t, conn, 1)

	interruptible := false
	req := startRequest("Q-200", memberIDs)
	req.NonInterruptible = &interruptible

	_, err := registry.Start(req)
	require.NoError(t, err)

	require.NoError(t, registry.End("Q-200"))

	loaded, err := registry.GetByCode("Q-200")
	require.NoError(t, err)
	assert.False(t, loaded.Active)

	// Ending an already-closed record is a no-op success
	require.NoError(t, registry.End("Q-200"))

	var member models.CrewMember
	require.NoError(t, conn.First(&member, memberIDs[0]).Error)
	assert.Equal(t, types.StatusRecovered, member.ContaminationStatus)
}

func TestEndUnknownCode(t *testing.T) {
	registry, _ := newTestRegistry(t)

	err := registry.End("NO-SUCH-CODE")

	var notFoundErr *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestIsMemberQuarantined(t *testing.T) {
	registry, conn := newTestRegistry(t)
	memberIDs := seedMembers(t, conn, 2)

	interruptible := false
	req := startRequest("Q-300", memberIDs[:1])
	req.NonInterruptible = &interruptible

	_, err := registry.Start(req)
	require.NoError(t, err)

	quarantined, err := registry.IsMemberQuarantined(memberIDs[0])
	require.NoError(t, err)
	assert.True(t, quarantined)

	quarantined, err = registry.IsMemberQuarantined(memberIDs[1])
	require.NoError(t, err)
	assert.False(t, quarantined)

	// The answer flips the instant the owning quarantine closes
	require.NoError(t, registry.End("Q-300"))

	quarantined, err = registry.IsMemberQuarantined(memberIDs[0])
	require.NoError(t, err)
	assert.False(t, quarantined)
}

func TestIsMemberQuarantinedUnknownMember(t *testing.T) {
	registry, _ := newTestRegistry(t)

	_, err := registry.IsMemberQuarantined(12345)

	var notFoundErr *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Contains(t, notFoundErr.Error(), "12345")
}

func TestMemberStaysQuarantinedWhileAnotherHolds(t *testing.T) {
	registry, conn := newTestRegistry(t)
	memberIDs := seedMembers(t, conn, 1)

	interruptible := false

	first := startRequest("Q-400", memberIDs)
	first.NonInterruptible = &interruptible
	_, err := registry.Start(first)
	require.NoError(t, err)

	second := startRequest("Q-401", memberIDs)
	second.NonInterruptible = &interruptible
	_, err = registry.Start(second)
	require.NoError(t, err)

	require.NoError(t, registry.End("Q-400"))

	var member models.CrewMember
	require.NoError(t, conn.First(&member, memberIDs[0]).Error)
	assert.Equal(t, types.StatusQuarantined, member.ContaminationStatus)

	quarantined, err := registry.IsMemberQuarantined(memberIDs[0])
	require.NoError(t, err)
	assert.True(t, quarantined)
}

func TestListActiveFiltersClosed(t *testing.T) {
	registry, conn := newTestRegistry(t)
	memberIDs := seedMembers(t, conn, 1)

	interruptible := false
	open := startRequest("Q-500", memberIDs)
	closed := startRequest("Q-501", memberIDs)
	closed.NonInterruptible = &interruptible

	_, err := registry.Start(open)
	require.NoError(t, err)
	_, err = registry.Start(closed)
	require.NoError(t, err)
	require.NoError(t, registry.End("Q-501"))

	all, err := registry.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := registry.ListActive()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Q-500", active[0].Code)
}

func TestCloseGuardedVersionConflict(t *testing.T) {
	registry, conn := newTestRegistry(t)
	memberIDs := seedMembers(t, conn, 1)

	interruptible := false
	req := startRequest("Q-600", memberIDs)
	req.NonInterruptible = &interruptible

	created, err := registry.Start(req)
	require.NoError(t, err)

	// Another writer bumps the version between our read and our write
	require.NoError(t, conn.Model(&models.Quarantine{}).
		Where("id = ?", created.ID).
		Update("version", created.Version+1).Error)

	stale := *created
	err = registry.closeGuarded(conn, &stale)

	var conflictErr *apperrors.ConflictError
	require.ErrorAs(t, err, &conflictErr)
}
