package controller

import (
	"matrix_exam_backend/internal/service"
	"matrix_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	ExamService *service.ExamService
}

func NewExamController(examService *service.ExamService) *ExamController {
	return &ExamController{ExamService: examService}
}

// @Summary 考试列表
// @Description 学生只能看到已发布的考试
// @Tags 考试
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.ExamResponse}
// @Router /api/exams [get]
func (c *ExamController) List(ctx *gin.Context) {
	list, err := c.ExamService.List(util.GetUserFromContext(ctx))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 搜索考试
// @Tags 考试
// @Produce json
// @Security BearerAuth
// @Param name query string true "考试名称关键字"
// @Success 200 {object} util.Response{data=[]service.ExamResponse}
// @Router /api/exams/search [get]
func (c *ExamController) Search(ctx *gin.Context) {
	list, err := c.ExamService.Search(util.GetUserFromContext(ctx), ctx.Query("name"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 考试详情
// @Tags 考试
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response{data=service.ExamResponse}
// @Failure 404 {object} util.Response
// @Router /api/exams/{id} [get]
func (c *ExamController) Get(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	exam, err := c.ExamService.Get(util.GetUserFromContext(ctx), id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, exam)
}

// @Summary 创建考试
// @Tags 考试
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.ExamRequest true "考试"
// @Success 201 {object} util.Response{data=service.ExamResponse}
// @Router /api/exams [post]
func (c *ExamController) Create(ctx *gin.Context) {
	var req service.ExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	exam, err := c.ExamService.Create(util.GetUserFromContext(ctx), &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, exam)
}

// @Summary 修改考试
// @Description 状态只能向前推进，已组卷的考试不能修改总分
// @Tags 考试
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Param body body service.ExamRequest true "考试"
// @Success 200 {object} util.Response{data=service.ExamResponse}
// @Router /api/exams/{id} [put]
func (c *ExamController) Update(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req service.ExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	exam, err := c.ExamService.Update(id, &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, exam)
}

// @Summary 删除考试
// @Description 连同试卷一起删除，已有考试记录时返回 409
// @Tags 考试
// @Produce json
// @Security BearerAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/exams/{id} [delete]
func (c *ExamController) Delete(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.ExamService.Delete(id); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}
