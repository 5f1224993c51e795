// Package quarantine owns the quarantine entity lifecycle: creation,
// membership, expiry computation and termination gating. The registry is the
// source of truth for "is this member currently confined" and keeps crew
// contamination status in step with the set of active quarantines.
package quarantine

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/lifeline-dev/lifeline/internal/apperrors"
	"github.com/lifeline-dev/lifeline/internal/models"
	"github.com/lifeline-dev/lifeline/internal/types"
)

// StartRequest carries the fields needed to issue a lockdown.
type StartRequest struct {
	Code             string
	LabID            string
	Protocol         types.EmergencyProtocol
	Reason           string
	NonInterruptible *bool
	MemberIDs        []uint
}

type Registry struct {
	db   *gorm.DB
	pool *Pool

	// notify receives a short event description off the request path.
	notify func(event string)
}

func NewRegistry(db *gorm.DB, pool *Pool) *Registry {
	return &Registry{db: db, pool: pool}
}

// OnChange installs a hook invoked (via the worker pool) after every
// state-changing operation commits.
func (r *Registry) OnChange(fn func(event string)) {
	r.notify = fn
}

// Start creates a quarantine and binds all requested members atomically:
// either the record exists with every member associated and marked
// QUARANTINED, or nothing was written.
func (r *Registry) Start(req StartRequest) (*models.Quarantine, error) {
	if err := validateStart(req); err != nil {
		return nil, err
	}

	nonInterruptible := true
	if req.NonInterruptible != nil {
		nonInterruptible = *req.NonInterruptible
	}

	quarantine := models.Quarantine{
		Code:             req.Code,
		LabID:            req.LabID,
		Protocol:         req.Protocol,
		Reason:           req.Reason,
		Active:           true,
		NonInterruptible: nonInterruptible,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Quarantine{}).Where("code = ?", req.Code).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check code uniqueness: %w", err)
		}
		if count > 0 {
			return &apperrors.DuplicateError{Code: req.Code}
		}

		var members []models.CrewMember
		if len(req.MemberIDs) > 0 {
			if err := tx.Where("id IN ?", req.MemberIDs).Find(&members).Error; err != nil {
				return fmt.Errorf("failed to resolve members: %w", err)
			}
			if missing := missingIDs(req.MemberIDs, members); len(missing) > 0 {
				return apperrors.NewNotFound("crew members", fmt.Sprintf("ids %v", missing))
			}
		}

		if err := tx.Create(&quarantine).Error; err != nil {
			return fmt.Errorf("failed to create quarantine: %w", err)
		}

		if len(members) > 0 {
			if err := tx.Model(&quarantine).Association("Members").Append(&members); err != nil {
				return fmt.Errorf("failed to bind members: %w", err)
			}

			ids := make([]uint, len(members))
			for i, m := range members {
				ids[i] = m.ID
			}
			if err := tx.Model(&models.CrewMember{}).Where("id IN ?", ids).
				Update("contamination_status", types.StatusQuarantined).Error; err != nil {
				return fmt.Errorf("failed to update member status: %w", err)
			}

			quarantine.Members = members
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[quarantine] started %s protocol=%s members=%d", quarantine.Code, quarantine.Protocol, len(req.MemberIDs))
	r.fanout(fmt.Sprintf("quarantine %s started", quarantine.Code))

	return &quarantine, nil
}

// GetByCode loads a quarantine with its members.
func (r *Registry) GetByCode(code string) (*models.Quarantine, error) {
	var quarantine models.Quarantine

	err := r.db.Preload("Members").Where("code = ?", code).First(&quarantine).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("quarantine", "code "+code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quarantine: %w", err)
	}

	return &quarantine, nil
}

// ListAll returns every quarantine, open and closed.
func (r *Registry) ListAll() ([]models.Quarantine, error) {
	var quarantines []models.Quarantine
	if err := r.db.Preload("Members").Order("created_at DESC").Find(&quarantines).Error; err != nil {
		return nil, fmt.Errorf("failed to list quarantines: %w", err)
	}
	return quarantines, nil
}

// ListActive returns quarantines with active = true.
func (r *Registry) ListActive() ([]models.Quarantine, error) {
	var quarantines []models.Quarantine
	if err := r.db.Preload("Members").Where("active = ?", true).Order("created_at DESC").Find(&quarantines).Error; err != nil {
		return nil, fmt.Errorf("failed to list active quarantines: %w", err)
	}
	return quarantines, nil
}

// IsMemberQuarantined reconciles against the live set of active quarantines
// rather than trusting the member's stored status flag, which may be stale
// after a concurrent termination.
func (r *Registry) IsMemberQuarantined(memberID uint) (bool, error) {
	var member models.CrewMember
	err := r.db.First(&member, memberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, apperrors.NewNotFound("crew member", fmt.Sprintf("id %d", memberID))
	}
	if err != nil {
		return false, fmt.Errorf("failed to load member: %w", err)
	}

	count, err := r.activeQuarantineCount(r.db, memberID, 0)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// End closes a quarantine. Non-interruptible records reject the request;
// ending an already-closed record is a no-op success. The write is guarded
// by the version counter: a concurrent conflicting update surfaces as a
// ConflictError and the caller decides whether to retry.
func (r *Registry) End(code string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var quarantine models.Quarantine

		err := tx.Preload("Members").Where("code = ?", code).First(&quarantine).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("quarantine", "code "+code)
		}
		if err != nil {
			return fmt.Errorf("failed to load quarantine: %w", err)
		}

		if !quarantine.Active {
			return nil
		}

		if quarantine.NonInterruptible {
			log.Printf("[quarantine] rejected attempt to end non-interruptible quarantine %s", code)
			return &apperrors.NonInterruptibleError{Code: code, Protocol: quarantine.Protocol}
		}

		if err := r.closeGuarded(tx, &quarantine); err != nil {
			return err
		}

		return r.releaseMembers(tx, &quarantine)
	})
	if err != nil {
		return err
	}

	log.Printf("[quarantine] ended %s", code)
	r.fanout(fmt.Sprintf("quarantine %s ended", code))
	return nil
}

// closeGuarded flips active to false with the optimistic-version guard. Zero
// affected rows means another writer got there between read and write.
func (r *Registry) closeGuarded(tx *gorm.DB, quarantine *models.Quarantine) error {
	result := tx.Model(&models.Quarantine{}).
		Where("id = ? AND version = ?", quarantine.ID, quarantine.Version).
		Updates(map[string]interface{}{
			"active":  false,
			"version": quarantine.Version + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to close quarantine: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &apperrors.ConflictError{Resource: "quarantine", ID: quarantine.Code}
	}

	return nil
}

// releaseMembers recomputes the contamination status of every member of a
// just-closed quarantine. A member still held by another active quarantine
// stays QUARANTINED; everyone else moves to RECOVERED.
func (r *Registry) releaseMembers(tx *gorm.DB, quarantine *models.Quarantine) error {
	for _, member := range quarantine.Members {
		count, err := r.activeQuarantineCount(tx, member.ID, quarantine.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		if err := tx.Model(&models.CrewMember{}).Where("id = ?", member.ID).
			Update("contamination_status", types.StatusRecovered).Error; err != nil {
			return fmt.Errorf("failed to release member %d: %w", member.ID, err)
		}
	}

	return nil
}

// activeQuarantineCount counts active quarantines holding the member,
// excluding excludeID when non-zero.
func (r *Registry) activeQuarantineCount(tx *gorm.DB, memberID, excludeID uint) (int64, error) {
	query := tx.Model(&models.Quarantine{}).
		Joins("JOIN quarantine_members ON quarantine_members.quarantine_id = quarantines.id").
		Where("quarantine_members.crew_member_id = ? AND quarantines.active = ?", memberID, true)

	if excludeID != 0 {
		query = query.Where("quarantines.id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active quarantines: %w", err)
	}

	return count, nil
}

func (r *Registry) fanout(event string) {
	if r.notify == nil || r.pool == nil {
		return
	}

	notify := r.notify
	r.pool.Submit(func() {
		notify(event)
	})
}

func validateStart(req StartRequest) error {
	fields := make(map[string]string)

	if len(req.Code) < 3 || len(req.Code) > 50 {
		fields["code"] = "code must be between 3 and 50 characters"
	}
	if len(req.LabID) < 2 || len(req.LabID) > 50 {
		fields["lab_id"] = "lab id must be between 2 and 50 characters"
	}
	if !req.Protocol.Valid() {
		fields["protocol"] = "protocol must be one of the five emergency tiers"
	}
	if len(req.Reason) < 10 || len(req.Reason) > 500 {
		fields["reason"] = "reason must be between 10 and 500 characters"
	}
	if len(req.MemberIDs) == 0 {
		fields["member_ids"] = "at least one member must be assigned"
	}

	if len(fields) > 0 {
		return &apperrors.ValidationError{Fields: fields}
	}
	return nil
}

func missingIDs(requested []uint, found []models.CrewMember) []uint {
	present := make(map[uint]bool, len(found))
	for _, member := range found {
		present[member.ID] = true
	}

	var missing []uint
	for _, id := range requested {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
