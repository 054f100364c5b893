package controller

import (
	"matrix_exam_backend/internal/service"
	"matrix_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GradeController struct {
	GradeService *service.GradeService
}

func NewGradeController(gradeService *service.GradeService) *GradeController {
	return &GradeController{GradeService: gradeService}
}

// @Summary 年级列表
// @Tags 年级
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Grade}
// @Router /api/grades [get]
func (c *GradeController) List(ctx *gin.Context) {
	list, err := c.GradeService.List()
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 科目下的年级
// @Tags 年级
// @Produce json
// @Security BearerAuth
// @Param subjectId path int true "科目ID"
// @Success 200 {object} util.Response{data=[]model.Grade}
// @Router /api/grades/subject/{subjectId} [get]
func (c *GradeController) BySubject(ctx *gin.Context) {
	subjectID, ok := util.ParamID(ctx, "subjectId")
	if !ok {
		return
	}
	list, err := c.GradeService.BySubject(subjectID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 年级详情
// @Tags 年级
// @Produce json
// @Security BearerAuth
// @Param id path int true "年级ID"
// @Success 200 {object} util.Response{data=model.Grade}
// @Router /api/grades/{id} [get]
func (c *GradeController) Get(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	grade, err := c.GradeService.Get(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, grade)
}

// @Summary 创建年级
// @Tags 年级
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.GradeRequest true "年级"
// @Success 201 {object} util.Response{data=model.Grade}
// @Router /api/grades [post]
func (c *GradeController) Create(ctx *gin.Context) {
	var req service.GradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	grade, err := c.GradeService.Create(&req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, grade)
}

// @Summary 修改年级
// @Tags 年级
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "年级ID"
// @Param body body service.GradeRequest true "年级"
// @Success 200 {object} util.Response{data=model.Grade}
// @Router /api/grades/{id} [put]
func (c *GradeController) Update(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req service.GradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	grade, err := c.GradeService.Update(id, &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, grade)
}

// @Summary 删除年级
// @Tags 年级
// @Produce json
// @Security BearerAuth
// @Param id path int true "年级ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "仍有课时引用"
// @Router /api/grades/{id} [delete]
func (c *GradeController) Delete(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.GradeService.Delete(id); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}
