package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medimate-go/internal/model"
	"medimate-go/internal/service"
	"medimate-go/pkg/log"
)

// InsuranceHandler 处理保单、附件与理赔。
type InsuranceHandler struct {
	insuranceService service.InsuranceService
}

func NewInsuranceHandler(insuranceService service.InsuranceService) *InsuranceHandler {
	return &InsuranceHandler{insuranceService: insuranceService}
}

func policyViews(policies []model.InsurancePolicy) []model.PolicyView {
	views := make([]model.PolicyView, 0, len(policies))
	for _, p := range policies {
		views = append(views, model.NewPolicyView(p))
	}
	return views
}

func (h *InsuranceHandler) ListPolicies(c *gin.Context) {
	policies, err := h.insuranceService.ListPolicies(currentUser(c).ID)
	if err != nil {
		respondError(c, "list policies", err)
		return
	}
	respondOK(c, "success", policyViews(policies))
}

func (h *InsuranceHandler) AddPolicy(c *gin.Context) {
	var req service.PolicyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("AddPolicy: invalid payload, error: %v", err)
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.insuranceService.AddPolicy(currentUser(c).ID, req)
	if err != nil {
		respondError(c, "add policy", err)
		return
	}
	respondCreated(c, "Policy added", model.NewPolicyView(*p))
}

func (h *InsuranceHandler) UpdatePolicy(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req service.PolicyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("UpdatePolicy: invalid payload, error: %v", err)
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.insuranceService.UpdatePolicy(currentUser(c).ID, id, req)
	if err != nil {
		respondError(c, "update policy", err)
		return
	}
	respondOK(c, "Policy updated", model.NewPolicyView(*p))
}

// DeletePolicy 删除保单及其附件，历史理赔保留。
func (h *InsuranceHandler) DeletePolicy(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.insuranceService.DeletePolicy(c.Request.Context(), currentUser(c).ID, id); err != nil {
		respondError(c, "delete policy", err)
		return
	}
	respondOK(c, "Policy deleted", nil)
}

// UploadDocument 接收 multipart 表单中的 file 字段。
func (h *InsuranceHandler) UploadDocument(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, "open uploaded file", err)
		return
	}
	defer file.Close()

	doc, err := h.insuranceService.UploadDocument(c.Request.Context(), currentUser(c).ID, id, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		respondError(c, "upload policy document", err)
		return
	}
	respondCreated(c, "Document uploaded", doc)
}

// DocumentURL 返回附件的临时下载链接。
func (h *InsuranceHandler) DocumentURL(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	url, err := h.insuranceService.DocumentURL(c.Request.Context(), currentUser(c).ID, id, c.Param("name"))
	if err != nil {
		respondError(c, "document url", err)
		return
	}
	respondOK(c, "success", gin.H{"fileName": c.Param("name"), "downloadUrl": url})
}

func (h *InsuranceHandler) ListClaims(c *gin.Context) {
	claims, err := h.insuranceService.ListClaims(currentUser(c).ID)
	if err != nil {
		respondError(c, "list claims", err)
		return
	}
	respondOK(c, "success", claims)
}

func (h *InsuranceHandler) FileClaim(c *gin.Context) {
	var req service.ClaimInput
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("FileClaim: invalid payload, error: %v", err)
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	claim, err := h.insuranceService.FileClaim(currentUser(c).ID, req)
	if err != nil {
		respondError(c, "file claim", err)
		return
	}
	respondCreated(c, "Claim submitted", claim)
}
