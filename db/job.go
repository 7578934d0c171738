package db

type JobStatus int

const (
	JobRunning  JobStatus = 0
	JobFinished JobStatus = 1
)

// Job is one bulk registration run. Per-item outcomes live in JobItem rows;
// the counters here are advanced as each item reaches a terminal state.
type Job struct {
	Id          int64
	JobID       string    `gorm:"NOT NULL;uniqueIndex:idx_job_id;size:64"`
	Status      JobStatus `gorm:"NOT NULL"`
	Total       int       `gorm:"NOT NULL"`
	Done        int       `gorm:"NOT NULL"`
	Succeeded   int       `gorm:"NOT NULL"`
	Failed      int       `gorm:"NOT NULL"`
	CreatedTime int64     `gorm:"NOT NULL;comment:created_time"`
}

func (*Job) TableName() string {
	return "job"
}

type ItemStatus int

const (
	ItemPending ItemStatus = 0
	ItemSuccess ItemStatus = 1
	ItemFailed  ItemStatus = 2
)

type JobItem struct {
	Id     int64
	JobID  string     `gorm:"NOT NULL;index:idx_job_item_job_id;size:64"`
	Idx    int        `gorm:"NOT NULL"`
	Name   string     `gorm:"NOT NULL;size:128"`
	Status ItemStatus `gorm:"NOT NULL"`
	Digest string     `gorm:"size:64"`
	Reason string     `gorm:"size:512"` // the ledger's rejection reason, verbatim
}

func (*JobItem) TableName() string {
	return "job_item"
}
