package movement

import (
	"fmt"
	"strings"
	"time"
)

// SystemActor 未提供操作人时记录的身份(自动修正、后台任务)
const SystemActor = "system"

// Type 流水类型
type Type string

const (
	TypeIn         Type = "IN"
	TypeOut        Type = "OUT"
	TypeAdjustment Type = "ADJUSTMENT"
)

// Valid 是否为已知类型
func (t Type) Valid() bool {
	switch t {
	case TypeIn, TypeOut, TypeAdjustment:
		return true
	}
	return false
}

// Reason 业务原因(封闭枚举)
type Reason string

const (
	ReasonPurchase         Reason = "PURCHASE"
	ReasonSales            Reason = "SALES"
	ReasonDamaged          Reason = "DAMAGED"
	ReasonLost             Reason = "LOST"
	ReasonIssuedToEmployee Reason = "ISSUED_TO_EMPLOYEE"
	ReasonReturned         Reason = "RETURNED"
	ReasonExpired          Reason = "EXPIRED"
	ReasonAdjustment       Reason = "ADJUSTMENT"
	ReasonTransfer         Reason = "TRANSFER"
	ReasonSample           Reason = "SAMPLE"
)

// AllReasons 全部原因，顺序固定
var AllReasons = []Reason{
	ReasonPurchase, ReasonSales, ReasonDamaged, ReasonLost, ReasonIssuedToEmployee,
	ReasonReturned, ReasonExpired, ReasonAdjustment, ReasonTransfer, ReasonSample,
}

// Valid 是否为已知原因
func (r Reason) Valid() bool {
	switch r {
	case ReasonPurchase, ReasonSales, ReasonDamaged, ReasonLost, ReasonIssuedToEmployee,
		ReasonReturned, ReasonExpired, ReasonAdjustment, ReasonTransfer, ReasonSample:
		return true
	}
	return false
}

// Description 中文描述
func (r Reason) Description() string {
	switch r {
	case ReasonPurchase:
		return "采购入库"
	case ReasonSales:
		return "销售出库"
	case ReasonDamaged:
		return "损坏"
	case ReasonLost:
		return "丢失"
	case ReasonIssuedToEmployee:
		return "员工领用"
	case ReasonReturned:
		return "退货"
	case ReasonExpired:
		return "过期"
	case ReasonAdjustment:
		return "盘点调整"
	case ReasonTransfer:
		return "调拨"
	case ReasonSample:
		return "样品"
	default:
		return "未知"
	}
}

// ParseReason 解析原因(不区分大小写)
func ParseReason(s string) (Reason, error) {
	r := Reason(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidReason
	}
	return r, nil
}

// Movement 库存流水(账本条目)，只追加，创建后不可修改
type Movement struct {
	ID               uint
	ProductID        uint
	ActorID          string
	Type             Type
	Reason           Reason
	Quantity         int // 变动幅度，IN/OUT >= 1
	PreviousQuantity int
	NewQuantity      int
	Notes            string
	ReferenceNumber  string
	CreatedAt        time.Time
}

// SignedQuantity 带符号的变动量，IN为正、OUT为负、ADJUSTMENT为新旧差值
func (m *Movement) SignedQuantity() int {
	switch m.Type {
	case TypeIn:
		return m.Quantity
	case TypeOut:
		return -m.Quantity
	default:
		return m.NewQuantity - m.PreviousQuantity
	}
}

// Validate 校验前后快照与变动量一致
//   - IN:  new - previous == quantity
//   - OUT: previous - new == quantity
//   - ADJUSTMENT: quantity == |new - previous|
func (m *Movement) Validate() error {
	if !m.Type.Valid() {
		return ErrInvalidType
	}
	if !m.Reason.Valid() {
		return ErrInvalidReason
	}
	if m.PreviousQuantity < 0 || m.NewQuantity < 0 {
		return ErrSnapshotMismatch
	}

	switch m.Type {
	case TypeIn:
		if m.Quantity < 1 || m.NewQuantity-m.PreviousQuantity != m.Quantity {
			return ErrSnapshotMismatch
		}
	case TypeOut:
		if m.Quantity < 1 || m.PreviousQuantity-m.NewQuantity != m.Quantity {
			return ErrSnapshotMismatch
		}
	case TypeAdjustment:
		if m.Quantity != abs(m.NewQuantity-m.PreviousQuantity) {
			return ErrSnapshotMismatch
		}
	}
	return nil
}

// GenerateReferenceNo 生成流水参考号
// 格式:MV + 日期 + 8位随机串，如 MV20240115-1a2b3c4d
func GenerateReferenceNo(now time.Time, random string) string {
	if len(random) > 8 {
		random = random[:8]
	}
	return fmt.Sprintf("MV%s-%s", now.Format("20060102"), random)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
