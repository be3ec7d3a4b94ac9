package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/coupon-next/internal/http/response"
	"github.com/coupon-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetRedemptionLogs 获取核销流水列表
func (h *Handler) GetRedemptionLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.RedemptionLogListFilter{
		Page:       page,
		PageSize:   pageSize,
		CouponCode: strings.TrimSpace(c.Query("code")),
	}
	if raw := strings.TrimSpace(c.Query("coupon_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		filter.CouponID = uint(id)
	}
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		filter.UserID = uint(id)
	}
	if raw := strings.TrimSpace(c.Query("created_from")); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		filter.CreatedFrom = &from
	}
	if raw := strings.TrimSpace(c.Query("created_to")); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		filter.CreatedTo = &to
	}

	logs, total, err := h.CouponAdminService.ListRedemptionLogs(filter)
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
	response.SuccessWithPage(c, logs, pagination)
}
