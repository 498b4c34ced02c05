package model

// swagger:model University
type University struct {
	BaseModel
	Name   string `gorm:"size:200;not null" json:"name"`
	Domain string `gorm:"size:100" json:"domain"`
}

func (University) TableName() string {
	return "universities"
}
