package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"medimate-go/internal/model"
	"medimate-go/internal/repository"
	"medimate-go/pkg/log"
	"medimate-go/pkg/storage"
)

const (
	// MaxDocumentSize 是单个保单附件的大小上限。
	MaxDocumentSize = 10 << 20
	presignExpiry   = time.Hour
)

// 允许上传的附件类型，按扩展名判断。
var documentTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// PolicyInput 是新增或修改保单的请求，所有字段必填。
type PolicyInput struct {
	Name         string     `json:"name"`
	Company      string     `json:"company"`
	PolicyNumber string     `json:"policyNumber"`
	Type         string     `json:"type"`
	Coverage     string     `json:"coverage"`
	ExpiryDate   model.Date `json:"expiryDate"`
}

// ClaimInput 是提交理赔的请求。
type ClaimInput struct {
	PolicyID    uint    `json:"policyId"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// InsuranceService 管理保单、保单附件与理赔。
type InsuranceService interface {
	AddPolicy(userID uint, in PolicyInput) (*model.InsurancePolicy, error)
	ListPolicies(userID uint) ([]model.InsurancePolicy, error)
	UpdatePolicy(userID, policyID uint, in PolicyInput) (*model.InsurancePolicy, error)
	DeletePolicy(ctx context.Context, userID, policyID uint) error

	UploadDocument(ctx context.Context, userID, policyID uint, fileName string, size int64, r io.Reader) (*model.PolicyDocument, error)
	DocumentURL(ctx context.Context, userID, policyID uint, fileName string) (string, error)

	FileClaim(userID uint, in ClaimInput) (*model.Claim, error)
	ListClaims(userID uint) ([]model.Claim, error)
}

type insuranceService struct {
	repo  repository.InsuranceRepository
	store storage.ObjectStore
	now   func() time.Time
}

func NewInsuranceService(repo repository.InsuranceRepository, store storage.ObjectStore) InsuranceService {
	return &insuranceService{repo: repo, store: store, now: time.Now}
}

func (s *insuranceService) validatePolicy(in PolicyInput) (PolicyInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Company = strings.TrimSpace(in.Company)
	in.PolicyNumber = strings.TrimSpace(in.PolicyNumber)
	in.Type = strings.TrimSpace(in.Type)
	in.Coverage = strings.TrimSpace(in.Coverage)
	if in.Name == "" || in.Company == "" || in.PolicyNumber == "" || in.Type == "" || in.Coverage == "" || in.ExpiryDate.IsZero() {
		return in, fmt.Errorf("%w: all policy fields are required", ErrInvalidInput)
	}
	y, m, d := s.now().Date()
	if in.ExpiryDate.Time().Before(time.Date(y, m, d, 0, 0, 0, 0, time.Local)) {
		return in, ErrDateInPast
	}
	return in, nil
}

func (s *insuranceService) AddPolicy(userID uint, in PolicyInput) (*model.InsurancePolicy, error) {
	in, err := s.validatePolicy(in)
	if err != nil {
		return nil, err
	}
	p := &model.InsurancePolicy{UserID: userID}
	applyPolicy(p, in)
	if err := s.repo.CreatePolicy(p); err != nil {
		return nil, err
	}
	return p, nil
}

func applyPolicy(p *model.InsurancePolicy, in PolicyInput) {
	p.Name = in.Name
	p.Company = in.Company
	p.PolicyNumber = in.PolicyNumber
	p.Type = in.Type
	p.Coverage = in.Coverage
	p.ExpiryDate = in.ExpiryDate.Time()
}

func (s *insuranceService) ListPolicies(userID uint) ([]model.InsurancePolicy, error) {
	return s.repo.ListPolicies(userID)
}

func (s *insuranceService) findPolicy(userID, policyID uint) (*model.InsurancePolicy, error) {
	p, err := s.repo.FindPolicy(policyID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPolicyNotFound
	}
	return p, err
}

func (s *insuranceService) UpdatePolicy(userID, policyID uint, in PolicyInput) (*model.InsurancePolicy, error) {
	in, err := s.validatePolicy(in)
	if err != nil {
		return nil, err
	}
	p, err := s.findPolicy(userID, policyID)
	if err != nil {
		return nil, err
	}
	applyPolicy(p, in)
	if err := s.repo.UpdatePolicy(p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePolicy 删除保单记录后清理对象存储中的附件，清理失败只记录日志。
func (s *insuranceService) DeletePolicy(ctx context.Context, userID, policyID uint) error {
	err := s.repo.DeletePolicy(policyID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPolicyNotFound
	}
	if err != nil {
		return err
	}
	if err := s.store.RemovePrefix(ctx, policyPrefix(policyID)); err != nil {
		log.Warnw("failed to remove policy documents", "policy_id", policyID, "error", err)
	}
	return nil
}

func policyPrefix(policyID uint) string {
	return fmt.Sprintf("policies/%d/", policyID)
}

// cleanFileName 去掉客户端传来的目录部分。
func cleanFileName(name string) (string, error) {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	return name, nil
}

func (s *insuranceService) UploadDocument(ctx context.Context, userID, policyID uint, fileName string, size int64, r io.Reader) (*model.PolicyDocument, error) {
	name, err := cleanFileName(fileName)
	if err != nil {
		return nil, err
	}
	contentType, ok := documentTypes[strings.ToLower(path.Ext(name))]
	if !ok {
		return nil, ErrUnsupportedFileType
	}
	if size <= 0 || size > MaxDocumentSize {
		return nil, ErrFileTooLarge
	}
	if _, err := s.findPolicy(userID, policyID); err != nil {
		return nil, err
	}

	doc, err := s.repo.FindDocument(policyID, name)
	isNew := errors.Is(err, repository.ErrNotFound)
	if isNew {
		doc = &model.PolicyDocument{PolicyID: policyID, FileName: name}
	} else if err != nil {
		return nil, err
	}

	objectName := policyPrefix(policyID) + name
	if err := s.store.Put(ctx, objectName, r, size, contentType); err != nil {
		return nil, err
	}
	doc.ObjectName = objectName
	doc.ContentType = contentType
	doc.Size = size
	if err := s.repo.SaveDocument(doc); err != nil {
		// 新文件没有记录指向它，删除对象避免孤儿文件
		if isNew {
			if rmErr := s.store.Remove(ctx, objectName); rmErr != nil {
				log.Warnw("failed to remove orphaned document object", "object", objectName, "error", rmErr)
			}
		}
		return nil, err
	}
	log.Infow("policy document uploaded", "policy_id", policyID, "size", size)
	return doc, nil
}

func (s *insuranceService) DocumentURL(ctx context.Context, userID, policyID uint, fileName string) (string, error) {
	if _, err := s.findPolicy(userID, policyID); err != nil {
		return "", err
	}
	doc, err := s.repo.FindDocument(policyID, fileName)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrDocumentNotFound
	}
	if err != nil {
		return "", err
	}
	return s.store.PresignedURL(ctx, doc.ObjectName, presignExpiry)
}

func (s *insuranceService) FileClaim(userID uint, in ClaimInput) (*model.Claim, error) {
	desc := strings.TrimSpace(in.Description)
	if in.Amount <= 0 || desc == "" {
		return nil, fmt.Errorf("%w: amount must be positive and description is required", ErrInvalidInput)
	}
	if _, err := s.findPolicy(userID, in.PolicyID); err != nil {
		return nil, err
	}
	c := &model.Claim{
		UserID:      userID,
		PolicyID:    in.PolicyID,
		Amount:      in.Amount,
		Description: desc,
		Status:      model.ClaimStatusSubmitted,
	}
	if err := s.repo.CreateClaim(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *insuranceService) ListClaims(userID uint) ([]model.Claim, error) {
	return s.repo.ListClaims(userID)
}
