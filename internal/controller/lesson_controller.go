package controller

import (
	"matrix_exam_backend/internal/service"
	"matrix_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LessonController struct {
	LessonService *service.LessonService
}

func NewLessonController(lessonService *service.LessonService) *LessonController {
	return &LessonController{LessonService: lessonService}
}

// @Summary 课时列表
// @Tags 课时
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Lesson}
// @Router /api/lessons [get]
func (c *LessonController) List(ctx *gin.Context) {
	list, err := c.LessonService.List()
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 年级下的课时
// @Tags 课时
// @Produce json
// @Security BearerAuth
// @Param gradeId path int true "年级ID"
// @Success 200 {object} util.Response{data=[]model.Lesson}
// @Router /api/lessons/grade/{gradeId} [get]
func (c *LessonController) ByGrade(ctx *gin.Context) {
	gradeID, ok := util.ParamID(ctx, "gradeId")
	if !ok {
		return
	}
	list, err := c.LessonService.ByGrade(gradeID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 课时详情
// @Tags 课时
// @Produce json
// @Security BearerAuth
// @Param id path int true "课时ID"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Router /api/lessons/{id} [get]
func (c *LessonController) Get(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	lesson, err := c.LessonService.Get(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}

// @Summary 创建课时
// @Tags 课时
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.LessonRequest true "课时"
// @Success 201 {object} util.Response{data=model.Lesson}
// @Router /api/lessons [post]
func (c *LessonController) Create(ctx *gin.Context) {
	var req service.LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	lesson, err := c.LessonService.Create(&req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, lesson)
}

// @Summary 修改课时
// @Tags 课时
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "课时ID"
// @Param body body service.LessonRequest true "课时"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Router /api/lessons/{id} [put]
func (c *LessonController) Update(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req service.LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	lesson, err := c.LessonService.Update(id, &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}

// @Summary 删除课时
// @Tags 课时
// @Produce json
// @Security BearerAuth
// @Param id path int true "课时ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "仍有题目引用"
// @Router /api/lessons/{id} [delete]
func (c *LessonController) Delete(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.LessonService.Delete(id); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}
