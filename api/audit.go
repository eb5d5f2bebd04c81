package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"cautiva/repository"
)

// AuditHandler 审计查询与手工删除
type AuditHandler struct {
	repo *repository.AuditRepository
}

// NewAuditHandler 创建审计处理器
func NewAuditHandler(repo *repository.AuditRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// List 审计列表
// @Summary 审计记录
// @Description 按 fecha 倒序分页
// @Tags 审计
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(50)
// @Success 200 {object} Response{data=PageResponse{list=[]models.AuditRecord}}
// @Failure 403 {object} Response "权限不足"
// @Router /api/v1/audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}

	records, total, err := h.repo.Page(c.Request.Context(), page, pageSize)
	if err != nil {
		respondError(c, err, "", "Error al cargar la auditoría")
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		List:     records,
	})
}

// Delete 手工删除一条审计
// @Summary 删除审计记录
// @Tags 审计
// @Produce json
// @Security BearerAuth
// @Param id path int true "审计ID"
// @Success 200 {object} Response
// @Failure 400 {object} Response "ID 错误"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/audit/{id} [delete]
func (h *AuditHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "ID inválido")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), uint(id)); err != nil {
		respondError(c, err, "Registro de auditoría no encontrado", "Error al eliminar el registro")
		return
	}
	SuccessWithMessage(c, "Registro eliminado", nil)
}
