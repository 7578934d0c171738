package db

import (
	"time"

	"gorm.io/gorm"
)

type JournalDao interface {
	JobDB
	DeletionDB
}

type JournalSvcDB struct {
	db *gorm.DB
}

func NewJournalSvcDB(db *gorm.DB) JournalDao {
	return &JournalSvcDB{
		db,
	}
}

type JobDB interface {
	CreateJob(job *Job, items []*JobItem) error
	GetJob(jobID string) (*Job, error)
	GetJobItems(jobID string) ([]*JobItem, error)
	RecordItemOutcome(jobID string, idx int, status ItemStatus, digest, reason string) error
	FinishJob(jobID string) error
}

func (d *JournalSvcDB) CreateJob(job *Job, items []*JobItem) error {
	return d.db.Transaction(func(dbTx *gorm.DB) error {
		if err := dbTx.Create(job).Error; err != nil {
			if MysqlErrCode(err) == ErrDuplicateEntryCode {
				return ErrDuplicateJob
			}
			return err
		}
		if len(items) != 0 {
			if err := dbTx.Create(items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *JournalSvcDB) GetJob(jobID string) (*Job, error) {
	job := Job{}
	err := d.db.Model(Job{}).Where("job_id = ?", jobID).Take(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (d *JournalSvcDB) GetJobItems(jobID string) ([]*JobItem, error) {
	items := make([]*JobItem, 0)
	if err := d.db.Where("job_id = ?", jobID).Order("idx asc").Find(&items).Error; err != nil {
		return items, err
	}
	return items, nil
}

// RecordItemOutcome marks one item terminal and advances the owning job's
// counters in the same transaction.
func (d *JournalSvcDB) RecordItemOutcome(jobID string, idx int, status ItemStatus, digest, reason string) error {
	return d.db.Transaction(func(dbTx *gorm.DB) error {
		err := dbTx.Model(JobItem{}).Where("job_id = ? and idx = ?", jobID, idx).Updates(
			JobItem{Status: status, Digest: digest, Reason: reason}).Error
		if err != nil {
			return err
		}
		updates := map[string]interface{}{"done": gorm.Expr("done + 1")}
		if status == ItemSuccess {
			updates["succeeded"] = gorm.Expr("succeeded + 1")
		} else {
			updates["failed"] = gorm.Expr("failed + 1")
		}
		return dbTx.Model(Job{}).Where("job_id = ?", jobID).Updates(updates).Error
	})
}

func (d *JournalSvcDB) FinishJob(jobID string) error {
	return d.db.Transaction(func(dbTx *gorm.DB) error {
		return dbTx.Model(Job{}).Where("job_id = ?", jobID).Updates(
			Job{Status: JobFinished}).Error
	})
}

type DeletionDB interface {
	CreateDeletion(dappID string) (int64, error)
	UpdateDeletionStatus(id int64, status DeletionStatus, digest, reason string) error
	GetLatestDeletion(dappID string) (*Deletion, error)
}

func (d *JournalSvcDB) CreateDeletion(dappID string) (int64, error) {
	row := &Deletion{
		DappID:      dappID,
		Status:      DeletionPending,
		CreatedTime: time.Now().Unix(),
		UpdatedTime: time.Now().Unix(),
	}
	if err := d.db.Create(row).Error; err != nil {
		return 0, err
	}
	return row.Id, nil
}

func (d *JournalSvcDB) UpdateDeletionStatus(id int64, status DeletionStatus, digest, reason string) error {
	return d.db.Transaction(func(dbTx *gorm.DB) error {
		return dbTx.Model(Deletion{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":       status,
			"digest":       digest,
			"reason":       reason,
			"updated_time": time.Now().Unix(),
		}).Error
	})
}

func (d *JournalSvcDB) GetLatestDeletion(dappID string) (*Deletion, error) {
	row := Deletion{}
	err := d.db.Model(Deletion{}).Where("dapp_id = ?", dappID).Order("id desc").Take(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func AutoMigrateDB(db *gorm.DB) {
	var err error
	if err = db.AutoMigrate(&Job{}); err != nil {
		panic(err)
	}
	if err = db.AutoMigrate(&JobItem{}); err != nil {
		panic(err)
	}
	if err = db.AutoMigrate(&Deletion{}); err != nil {
		panic(err)
	}
}
