package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Department identifies which clinic module owns a cost line.
type Department string

const (
	DepartmentClinical Department = "clinical"
	DepartmentOptical  Department = "optical"
	DepartmentLab      Department = "lab"
	DepartmentSale     Department = "sale"
)

func (d Department) Valid() bool {
	switch d {
	case DepartmentClinical, DepartmentOptical, DepartmentLab, DepartmentSale:
		return true
	default:
		return false
	}
}

// CostLine is one priced catalog entry. Reference data: the billing path
// reads it, never writes it.
type CostLine struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	Department    Department   `json:"department" gorm:"type:text;not null;uniqueIndex:ux_cost_lines_dept_code,priority:1"`
	Code          string       `json:"code" gorm:"type:text;not null;uniqueIndex:ux_cost_lines_dept_code,priority:2"`
	Name          string       `json:"name" gorm:"type:text;not null"`
	UnitAmount    int64        `json:"unit_amount" gorm:"not null"`
	AllowQuantity bool         `json:"allow_quantity" gorm:"not null;default:false"`
	AllowPair     bool         `json:"allow_pair" gorm:"not null;default:false"`
	Active        bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt     time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time    `json:"updated_at" gorm:"not null"`
}

func (CostLine) TableName() string { return "cost_lines" }

// Selection is one chosen catalog line with its multipliers. Label feeds the
// human-readable quote line only; it never changes the computed amount.
type Selection struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
	Pair     bool   `json:"pair"`
	Label    string `json:"label,omitempty"`
}

// QuoteLine is one priced selection inside a quote.
type QuoteLine struct {
	Code       string `json:"code"`
	Label      string `json:"label"`
	Quantity   int    `json:"quantity"`
	Multiplier int    `json:"multiplier"`
	UnitAmount int64  `json:"unit_amount"`
	Amount     int64  `json:"amount"`
}

// Quote is the priced result of a set of selections.
type Quote struct {
	Department Department  `json:"department"`
	Lines      []QuoteLine `json:"lines"`
	Total      int64       `json:"total"`
}
