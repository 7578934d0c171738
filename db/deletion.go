package db

type DeletionStatus int

const (
	DeletionPending   DeletionStatus = 0
	DeletionCommitted DeletionStatus = 1
	DeletionCanceled  DeletionStatus = 2
	DeletionFailed    DeletionStatus = 3
)

// Deletion journals a scheduled delete-with-undo so the admin surface can see
// past outcomes. At most one pending row exists per dapp id.
type Deletion struct {
	Id          int64
	DappID      string         `gorm:"NOT NULL;index:idx_deletion_dapp_id;size:66"`
	Status      DeletionStatus `gorm:"NOT NULL"`
	Digest      string         `gorm:"size:64"`
	Reason      string         `gorm:"size:512"`
	CreatedTime int64          `gorm:"NOT NULL;comment:created_time"`
	UpdatedTime int64          `gorm:"NOT NULL;comment:updated_time"`
}

func (*Deletion) TableName() string {
	return "deletion"
}
