package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/coupon-next/internal/http/response"
	"github.com/coupon-next/internal/repository"
	"github.com/coupon-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CampaignRequest 活动创建/更新请求
type CampaignRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func respondCampaignError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCampaignNotFound):
		respondError(c, response.CodeNotFound, "error.campaign_not_found", nil)
	case errors.Is(err, service.ErrCampaignExists):
		respondError(c, response.CodeBadRequest, "error.campaign_exists", nil)
	case errors.Is(err, service.ErrCampaignInvalid):
		respondError(c, response.CodeBadRequest, "error.campaign_invalid", nil)
	case errors.Is(err, service.ErrCampaignInUse):
		respondError(c, response.CodeBadRequest, "error.campaign_in_use", nil)
	default:
		respondError(c, response.CodeInternal, "error.internal", err)
	}
}

func campaignIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return 0, false
	}
	return uint(id), true
}

// GetCampaigns 获取活动列表
func (h *Handler) GetCampaigns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	campaigns, total, err := h.CampaignService.List(repository.CampaignListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, campaigns, pagination)
}

// GetCampaign 获取活动详情
func (h *Handler) GetCampaign(c *gin.Context) {
	id, ok := campaignIDParam(c)
	if !ok {
		return
	}

	campaign, err := h.CampaignService.GetByID(id)
	if err != nil {
		respondCampaignError(c, err)
		return
	}
	response.Success(c, campaign)
}

// CreateCampaign 创建活动
func (h *Handler) CreateCampaign(c *gin.Context) {
	var req CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	campaign, err := h.CampaignService.Create(service.CampaignInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondCampaignError(c, err)
		return
	}
	response.Success(c, campaign)
}

// UpdateCampaign 更新活动
func (h *Handler) UpdateCampaign(c *gin.Context) {
	id, ok := campaignIDParam(c)
	if !ok {
		return
	}

	var req CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	campaign, err := h.CampaignService.Update(id, service.CampaignInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondCampaignError(c, err)
		return
	}
	response.Success(c, campaign)
}

// DeleteCampaign 删除活动
func (h *Handler) DeleteCampaign(c *gin.Context) {
	id, ok := campaignIDParam(c)
	if !ok {
		return
	}

	if err := h.CampaignService.Delete(id); err != nil {
		respondCampaignError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
