package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/dapphub-labs/dapphub/config"
	"github.com/dapphub-labs/dapphub/db"
	"github.com/dapphub-labs/dapphub/ledger"
)

// fakeSubmitter scripts terminal outcomes per call, in submission order.
type fakeSubmitter struct {
	mutex    sync.Mutex
	calls    []ledger.MoveCall
	outcomes []submitOutcome
}

type submitOutcome struct {
	result *ledger.TxResult
	err    error
}

func (f *fakeSubmitter) Submit(_ context.Context, call ledger.MoveCall) (*ledger.TxResult, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls = append(f.calls, call)
	if len(f.outcomes) == 0 {
		return &ledger.TxResult{Digest: fmt.Sprintf("digest-%d", len(f.calls)), Success: true}, nil
	}
	outcome := f.outcomes[0]
	f.outcomes = f.outcomes[1:]
	return outcome.result, outcome.err
}

func (f *fakeSubmitter) callCount() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.calls)
}

func (f *fakeSubmitter) call(i int) ledger.MoveCall {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.calls[i]
}

// memJournal implements db.JournalDao in memory for pipeline tests.
type memJournal struct {
	mutex     sync.Mutex
	jobs      map[string]*db.Job
	items     map[string][]*db.JobItem
	deletions []*db.Deletion
}

func newMemJournal() *memJournal {
	return &memJournal{
		jobs:  map[string]*db.Job{},
		items: map[string][]*db.JobItem{},
	}
}

func (m *memJournal) CreateJob(job *db.Job, items []*db.JobItem) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.jobs[job.JobID] = job
	m.items[job.JobID] = items
	return nil
}

func (m *memJournal) GetJob(jobID string) (*db.Job, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s not found", jobID)
	}
	snapshot := *job
	return &snapshot, nil
}

func (m *memJournal) GetJobItems(jobID string) ([]*db.JobItem, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	items := make([]*db.JobItem, 0, len(m.items[jobID]))
	for _, item := range m.items[jobID] {
		snapshot := *item
		items = append(items, &snapshot)
	}
	return items, nil
}

func (m *memJournal) RecordItemOutcome(jobID string, idx int, status db.ItemStatus, digest, reason string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, item := range m.items[jobID] {
		if item.Idx != idx {
			continue
		}
		item.Status = status
		item.Digest = digest
		item.Reason = reason
	}
	job := m.jobs[jobID]
	job.Done++
	if status == db.ItemSuccess {
		job.Succeeded++
	} else {
		job.Failed++
	}
	return nil
}

func (m *memJournal) FinishJob(jobID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.jobs[jobID].Status = db.JobFinished
	return nil
}

func (m *memJournal) CreateDeletion(dappID string) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	row := &db.Deletion{
		Id:     int64(len(m.deletions) + 1),
		DappID: dappID,
		Status: db.DeletionPending,
	}
	m.deletions = append(m.deletions, row)
	return row.Id, nil
}

func (m *memJournal) UpdateDeletionStatus(id int64, status db.DeletionStatus, digest, reason string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, row := range m.deletions {
		if row.Id == id {
			row.Status = status
			row.Digest = digest
			row.Reason = reason
		}
	}
	return nil
}

func (m *memJournal) GetLatestDeletion(dappID string) (*db.Deletion, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for i := len(m.deletions) - 1; i >= 0; i-- {
		if m.deletions[i].DappID == dappID {
			snapshot := *m.deletions[i]
			return &snapshot, nil
		}
	}
	return nil, fmt.Errorf("no deletion for dapp %s", dappID)
}

func (m *memJournal) deletionStatus(id int64) db.DeletionStatus {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, row := range m.deletions {
		if row.Id == id {
			return row.Status
		}
	}
	return -1
}

func testConfig() *config.Config {
	return &config.Config{
		LedgerConfig: config.LedgerConfig{
			RPCAddrs:         []string{"http://localhost:9000"},
			RegistryObjectID: "0xreg",
			PackageID:        "0xpkg",
		},
	}
}
