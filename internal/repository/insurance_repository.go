package repository

import (
	"gorm.io/gorm"

	"medimate-go/internal/model"
)

// InsuranceRepository 定义了保单、附件与理赔的持久化操作。
type InsuranceRepository interface {
	CreatePolicy(policy *model.InsurancePolicy) error
	// FindPolicy 查询用户名下的保单，附带附件列表。
	FindPolicy(id, userID uint) (*model.InsurancePolicy, error)
	ListPolicies(userID uint) ([]model.InsurancePolicy, error)
	UpdatePolicy(policy *model.InsurancePolicy) error
	// DeletePolicy 删除保单及其附件记录。
	DeletePolicy(id, userID uint) error

	SaveDocument(doc *model.PolicyDocument) error
	FindDocument(policyID uint, fileName string) (*model.PolicyDocument, error)

	CreateClaim(claim *model.Claim) error
	ListClaims(userID uint) ([]model.Claim, error)
}

type insuranceRepository struct {
	db *gorm.DB
}

func NewInsuranceRepository(db *gorm.DB) InsuranceRepository {
	return &insuranceRepository{db: db}
}

func (r *insuranceRepository) CreatePolicy(policy *model.InsurancePolicy) error {
	return r.db.Create(policy).Error
}

func (r *insuranceRepository) FindPolicy(id, userID uint) (*model.InsurancePolicy, error) {
	var p model.InsurancePolicy
	err := r.db.Preload("Documents").Where("id = ? AND user_id = ?", id, userID).First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *insuranceRepository) ListPolicies(userID uint) ([]model.InsurancePolicy, error) {
	var policies []model.InsurancePolicy
	err := r.db.Preload("Documents").Where("user_id = ?", userID).Order("expiry_date ASC").Find(&policies).Error
	return policies, err
}

func (r *insuranceRepository) UpdatePolicy(policy *model.InsurancePolicy) error {
	return r.db.Omit("Documents").Save(policy).Error
}

func (r *insuranceRepository) DeletePolicy(id, userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.InsurancePolicy{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("policy_id = ?", id).Delete(&model.PolicyDocument{}).Error
	})
}

// SaveDocument 新增附件记录，同名文件重新上传时覆盖已有记录。
func (r *insuranceRepository) SaveDocument(doc *model.PolicyDocument) error {
	return r.db.Save(doc).Error
}

func (r *insuranceRepository) FindDocument(policyID uint, fileName string) (*model.PolicyDocument, error) {
	var d model.PolicyDocument
	if err := r.db.Where("policy_id = ? AND file_name = ?", policyID, fileName).First(&d).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *insuranceRepository) CreateClaim(claim *model.Claim) error {
	return r.db.Create(claim).Error
}

func (r *insuranceRepository) ListClaims(userID uint) ([]model.Claim, error) {
	var claims []model.Claim
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Find(&claims).Error
	return claims, err
}
