package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dapphub-labs/dapphub/config"
	"github.com/dapphub-labs/dapphub/db"
	"github.com/dapphub-labs/dapphub/ledger"
	"github.com/dapphub-labs/dapphub/logging"
	"github.com/dapphub-labs/dapphub/metrics"
	"github.com/dapphub-labs/dapphub/models"
)

// BulkRegistrar submits a batch of dapp registrations to the ledger one at a
// time. Items are independent: a rejected or undeliverable item is recorded
// and the job moves on to the next one.
type BulkRegistrar struct {
	submitter ledger.Submitter
	dao       db.JournalDao
	pacer     Pacer
	config    *config.Config
}

func NewBulkRegistrar(submitter ledger.Submitter, dao db.JournalDao, cfg *config.Config) *BulkRegistrar {
	interval := time.Duration(cfg.RegistrarConfig.GetSubmitIntervalMs()) * time.Millisecond
	return &BulkRegistrar{
		submitter: submitter,
		dao:       dao,
		pacer:     NewIntervalPacer(interval),
		config:    cfg,
	}
}

// SubmitJob journals the batch and starts working through it in the
// background. The returned job id is immediately queryable.
func (r *BulkRegistrar) SubmitJob(items []models.RegistrationItem) (string, error) {
	jobID := uuid.NewString()
	job := &db.Job{
		JobID:       jobID,
		Status:      db.JobRunning,
		Total:       len(items),
		CreatedTime: time.Now().Unix(),
	}
	rows := make([]*db.JobItem, 0, len(items))
	for i, item := range items {
		rows = append(rows, &db.JobItem{
			JobID:  jobID,
			Idx:    i,
			Name:   item.Name,
			Status: db.ItemPending,
		})
	}
	if err := r.dao.CreateJob(job, rows); err != nil {
		return "", err
	}
	go r.run(context.Background(), jobID, items)
	return jobID, nil
}

func (r *BulkRegistrar) run(ctx context.Context, jobID string, items []models.RegistrationItem) {
	for i, item := range items {
		if err := r.pacer.Wait(ctx); err != nil {
			logging.Logger.Errorf("registration job %s interrupted at item %d, err=%s", jobID, i, err.Error())
			return
		}
		result, err := r.submitter.Submit(ctx, r.registerCall(item))
		switch {
		case err != nil:
			// the call never reached a terminal state, count it failed and move on
			metrics.RegistrationFailedCounter.Inc()
			r.recordOutcome(jobID, i, db.ItemFailed, "", err.Error())
		case !result.Success:
			metrics.RegistrationFailedCounter.Inc()
			r.recordOutcome(jobID, i, db.ItemFailed, result.Digest, result.Error)
		default:
			metrics.RegistrationSubmittedCounter.Inc()
			r.recordOutcome(jobID, i, db.ItemSuccess, result.Digest, "")
		}
	}
	if err := r.dao.FinishJob(jobID); err != nil {
		logging.Logger.Errorf("failed to finish registration job %s, err=%s", jobID, err.Error())
	}
}

func (r *BulkRegistrar) recordOutcome(jobID string, idx int, status db.ItemStatus, digest, reason string) {
	if err := r.dao.RecordItemOutcome(jobID, idx, status, digest, reason); err != nil {
		logging.Logger.Errorf("failed to record item %d of job %s, err=%s", idx, jobID, err.Error())
	}
}

func (r *BulkRegistrar) registerCall(item models.RegistrationItem) ledger.MoveCall {
	return ledger.MoveCall{
		PackageID: r.config.LedgerConfig.PackageID,
		Module:    "registry",
		Function:  "register_dapp",
		Args: []interface{}{
			r.config.LedgerConfig.RegistryObjectID,
			item.Name,
			item.Tagline,
			item.Category,
			item.DescriptionRef,
			item.Links.Website,
			item.Links.Repo,
			item.Links.Twitter,
			item.Links.Discord,
		},
	}
}

// GetProgress returns the job's counters as journaled so far.
func (r *BulkRegistrar) GetProgress(jobID string) (*models.JobProgress, error) {
	job, err := r.dao.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	return &models.JobProgress{
		JobID:     job.JobID,
		Total:     job.Total,
		Done:      job.Done,
		Succeeded: job.Succeeded,
		Failed:    job.Failed,
	}, nil
}

// GetResults returns one entry per submitted item in input order. Items the
// job has not reached yet report as pending.
func (r *BulkRegistrar) GetResults(jobID string) ([]*models.RegistrationResult, error) {
	rows, err := r.dao.GetJobItems(jobID)
	if err != nil {
		return nil, err
	}
	results := make([]*models.RegistrationResult, 0, len(rows))
	for _, row := range rows {
		result := &models.RegistrationResult{
			Index:  row.Idx,
			Name:   row.Name,
			Digest: row.Digest,
			Reason: row.Reason,
		}
		switch row.Status {
		case db.ItemSuccess:
			result.Status = models.RegistrationStatusSuccess
		case db.ItemFailed:
			result.Status = models.RegistrationStatusFailed
		default:
			result.Status = models.RegistrationStatusPending
		}
		results = append(results, result)
	}
	return results, nil
}
