package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/dapphub-labs/dapphub/config"
	"github.com/dapphub-labs/dapphub/db"
	"github.com/dapphub-labs/dapphub/ledger"
	"github.com/dapphub-labs/dapphub/logging"
	"github.com/dapphub-labs/dapphub/metrics"
)

// DeletionScheduler turns delete requests into delayed ledger submissions.
// Each dapp gets a countdown; until it expires the deletion can be canceled,
// and a repeated delete restarts the countdown instead of stacking a second
// one. Exactly one of commit or cancel wins per scheduled deletion.
type DeletionScheduler struct {
	submitter ledger.Submitter
	dao       db.JournalDao
	config    *config.Config
	countdown time.Duration

	mutex   sync.Mutex
	pending map[string]*pendingDeletion
}

type pendingDeletion struct {
	rowID    int64
	deadline time.Time
	timer    *time.Timer
}

func NewDeletionScheduler(submitter ledger.Submitter, dao db.JournalDao, cfg *config.Config) *DeletionScheduler {
	return &DeletionScheduler{
		submitter: submitter,
		dao:       dao,
		config:    cfg,
		countdown: time.Duration(cfg.RegistrarConfig.GetDeleteCountdownSecs()) * time.Second,
		pending:   make(map[string]*pendingDeletion),
	}
}

// ScheduleDelete starts (or restarts) the countdown for the given dapp and
// returns the instant the deletion will commit if not canceled.
func (s *DeletionScheduler) ScheduleDelete(dappID string) (time.Time, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if prev, ok := s.pending[dappID]; ok {
		prev.timer.Stop()
		delete(s.pending, dappID)
		if err := s.dao.UpdateDeletionStatus(prev.rowID, db.DeletionCanceled, "", "superseded"); err != nil {
			logging.Logger.Errorf("failed to journal superseded deletion of dapp %s, err=%s", dappID, err.Error())
		}
	}

	rowID, err := s.dao.CreateDeletion(dappID)
	if err != nil {
		return time.Time{}, err
	}
	deadline := time.Now().Add(s.countdown)
	entry := &pendingDeletion{
		rowID:    rowID,
		deadline: deadline,
	}
	entry.timer = time.AfterFunc(s.countdown, func() {
		s.commit(dappID, rowID)
	})
	s.pending[dappID] = entry
	return deadline, nil
}

// Cancel stops a pending deletion. Returns false when no deletion is pending
// for the dapp, including when the countdown already expired.
func (s *DeletionScheduler) Cancel(dappID string) bool {
	s.mutex.Lock()
	entry, ok := s.pending[dappID]
	if ok {
		entry.timer.Stop()
		delete(s.pending, dappID)
	}
	s.mutex.Unlock()
	if !ok {
		return false
	}

	metrics.DeletionCanceledCounter.Inc()
	if err := s.dao.UpdateDeletionStatus(entry.rowID, db.DeletionCanceled, "", ""); err != nil {
		logging.Logger.Errorf("failed to journal canceled deletion of dapp %s, err=%s", dappID, err.Error())
	}
	return true
}

// PendingDeadline reports the commit instant of the dapp's pending deletion,
// if one is scheduled.
func (s *DeletionScheduler) PendingDeadline(dappID string) (time.Time, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	entry, ok := s.pending[dappID]
	if !ok {
		return time.Time{}, false
	}
	return entry.deadline, true
}

// commit runs on timer expiry. The row id guards the race with Cancel and
// with a replacing ScheduleDelete: the entry must still be ours.
func (s *DeletionScheduler) commit(dappID string, rowID int64) {
	s.mutex.Lock()
	entry, ok := s.pending[dappID]
	if !ok || entry.rowID != rowID {
		s.mutex.Unlock()
		return
	}
	delete(s.pending, dappID)
	s.mutex.Unlock()

	result, err := s.submitter.Submit(context.Background(), ledger.MoveCall{
		PackageID: s.config.LedgerConfig.PackageID,
		Module:    "registry",
		Function:  "delete_dapp",
		Args: []interface{}{
			s.config.LedgerConfig.RegistryObjectID,
			dappID,
		},
	})
	switch {
	case err != nil:
		logging.Logger.Errorf("deletion of dapp %s did not reach the ledger, err=%s", dappID, err.Error())
		s.journal(dappID, rowID, db.DeletionFailed, "", err.Error())
	case !result.Success:
		logging.Logger.Errorf("deletion of dapp %s rejected by the ledger: %s", dappID, result.Error)
		s.journal(dappID, rowID, db.DeletionFailed, result.Digest, result.Error)
	default:
		metrics.DeletionCommittedCounter.Inc()
		s.journal(dappID, rowID, db.DeletionCommitted, result.Digest, "")
	}
}

func (s *DeletionScheduler) journal(dappID string, rowID int64, status db.DeletionStatus, digest, reason string) {
	if err := s.dao.UpdateDeletionStatus(rowID, status, digest, reason); err != nil {
		logging.Logger.Errorf("failed to journal deletion of dapp %s, err=%s", dappID, err.Error())
	}
}
