package model

import "time"

// InsurancePolicy 对应 insurance_policies 表。
type InsurancePolicy struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	UserID       uint             `gorm:"index;not null" json:"-"`
	Name         string           `gorm:"type:varchar(100);not null" json:"name"`
	Company      string           `gorm:"type:varchar(100);not null" json:"company"`
	PolicyNumber string           `gorm:"type:varchar(64);not null" json:"policyNumber"`
	Type         string           `gorm:"type:varchar(32);not null" json:"type"`
	ExpiryDate   time.Time        `gorm:"not null" json:"-"`
	Coverage     string           `gorm:"type:varchar(64);not null" json:"coverage"`
	Documents    []PolicyDocument `gorm:"foreignKey:PolicyID;constraint:OnDelete:CASCADE" json:"documents"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time        `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (InsurancePolicy) TableName() string {
	return "insurance_policies"
}

// PolicyView 是返回给前端的保单结构。
type PolicyView struct {
	InsurancePolicy
	ExpiryDate Date `json:"expiryDate"`
}

// NewPolicyView 把 InsurancePolicy 转为对外结构。
func NewPolicyView(p InsurancePolicy) PolicyView {
	if p.Documents == nil {
		p.Documents = []PolicyDocument{}
	}
	return PolicyView{InsurancePolicy: p, ExpiryDate: Date(p.ExpiryDate)}
}

// PolicyDocument 记录存放在对象存储中的保单附件。
type PolicyDocument struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PolicyID    uint      `gorm:"index;not null" json:"-"`
	FileName    string    `gorm:"type:varchar(255);not null" json:"fileName"`
	ObjectName  string    `gorm:"type:varchar(512);not null" json:"-"`
	ContentType string    `gorm:"type:varchar(100)" json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (PolicyDocument) TableName() string {
	return "policy_documents"
}

// 理赔状态
const (
	ClaimStatusSubmitted = "submitted"
)

// Claim 对应 insurance_claims 表。
type Claim struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"-"`
	PolicyID    uint      `gorm:"index;not null" json:"policyId"`
	Amount      float64   `gorm:"not null" json:"amount"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Status      string    `gorm:"type:varchar(16);not null" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Claim) TableName() string {
	return "insurance_claims"
}
