package movement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry 记录一条流水所需的信息
type Entry struct {
	ProductID        uint
	ActorID          string // 空表示system
	Type             Type
	Reason           Reason
	Quantity         int
	PreviousQuantity int
	NewQuantity      int
	Notes            string
	ReferenceNumber  string // 空时自动生成
}

// Recorder 流水记录器
// 必须在与库存记录写入相同的事务ctx中调用：
// 库存已变化但没有对应流水的状态不允许被观察到
type Recorder struct {
	repo Repository
	now  func() time.Time
}

// NewRecorder 创建流水记录器
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo, now: time.Now}
}

// Record 校验并追加流水，不读取已有流水
func (r *Recorder) Record(ctx context.Context, e Entry) (*Movement, error) {
	now := r.now()

	actor := e.ActorID
	if actor == "" {
		actor = SystemActor
	}
	ref := e.ReferenceNumber
	if ref == "" {
		ref = GenerateReferenceNo(now, uuid.NewString())
	}

	m := &Movement{
		ProductID:        e.ProductID,
		ActorID:          actor,
		Type:             e.Type,
		Reason:           e.Reason,
		Quantity:         e.Quantity,
		PreviousQuantity: e.PreviousQuantity,
		NewQuantity:      e.NewQuantity,
		Notes:            e.Notes,
		ReferenceNumber:  ref,
		CreatedAt:        now,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	if err := r.repo.Append(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
