package controller

import (
	"matrix_exam_backend/internal/service"
	"matrix_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SubjectController struct {
	SubjectService *service.SubjectService
}

func NewSubjectController(subjectService *service.SubjectService) *SubjectController {
	return &SubjectController{SubjectService: subjectService}
}

// @Summary 科目列表
// @Tags 科目
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Subject}
// @Router /api/subjects [get]
func (c *SubjectController) List(ctx *gin.Context) {
	list, err := c.SubjectService.List()
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 科目详情
// @Tags 科目
// @Produce json
// @Security BearerAuth
// @Param id path int true "科目ID"
// @Success 200 {object} util.Response{data=model.Subject}
// @Router /api/subjects/{id} [get]
func (c *SubjectController) Get(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	subject, err := c.SubjectService.Get(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, subject)
}

// @Summary 创建科目
// @Tags 科目
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.SubjectRequest true "科目"
// @Success 201 {object} util.Response{data=model.Subject}
// @Failure 409 {object} util.Response "科目代码重复"
// @Router /api/subjects [post]
func (c *SubjectController) Create(ctx *gin.Context) {
	var req service.SubjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	subject, err := c.SubjectService.Create(&req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, subject)
}

// @Summary 修改科目
// @Tags 科目
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "科目ID"
// @Param body body service.SubjectRequest true "科目"
// @Success 200 {object} util.Response{data=model.Subject}
// @Router /api/subjects/{id} [put]
func (c *SubjectController) Update(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req service.SubjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	subject, err := c.SubjectService.Update(id, &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, subject)
}

// @Summary 删除科目
// @Tags 科目
// @Produce json
// @Security BearerAuth
// @Param id path int true "科目ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "仍有年级引用"
// @Router /api/subjects/{id} [delete]
func (c *SubjectController) Delete(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.SubjectService.Delete(id); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

type QuestionTypeController struct {
	QuestionTypeService *service.QuestionTypeService
}

func NewQuestionTypeController(questionTypeService *service.QuestionTypeService) *QuestionTypeController {
	return &QuestionTypeController{QuestionTypeService: questionTypeService}
}

// @Summary 题型列表
// @Tags 题型
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.QuestionType}
// @Router /api/question-types [get]
func (c *QuestionTypeController) List(ctx *gin.Context) {
	list, err := c.QuestionTypeService.List()
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 题型详情
// @Tags 题型
// @Produce json
// @Security BearerAuth
// @Param id path int true "题型ID"
// @Success 200 {object} util.Response{data=model.QuestionType}
// @Router /api/question-types/{id} [get]
func (c *QuestionTypeController) Get(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	qt, err := c.QuestionTypeService.Get(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, qt)
}

// @Summary 创建题型
// @Tags 题型
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.QuestionTypeRequest true "题型"
// @Success 201 {object} util.Response{data=model.QuestionType}
// @Router /api/question-types [post]
func (c *QuestionTypeController) Create(ctx *gin.Context) {
	var req service.QuestionTypeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	qt, err := c.QuestionTypeService.Create(&req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, qt)
}

// @Summary 修改题型
// @Tags 题型
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "题型ID"
// @Param body body service.QuestionTypeRequest true "题型"
// @Success 200 {object} util.Response{data=model.QuestionType}
// @Router /api/question-types/{id} [put]
func (c *QuestionTypeController) Update(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req service.QuestionTypeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	qt, err := c.QuestionTypeService.Update(id, &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, qt)
}

// @Summary 删除题型
// @Tags 题型
// @Produce json
// @Security BearerAuth
// @Param id path int true "题型ID"
// @Success 200 {object} util.Response
// @Router /api/question-types/{id} [delete]
func (c *QuestionTypeController) Delete(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.QuestionTypeService.Delete(id); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

type AppSettingController struct {
	AppSettingService *service.AppSettingService
}

func NewAppSettingController(appSettingService *service.AppSettingService) *AppSettingController {
	return &AppSettingController{AppSettingService: appSettingService}
}

// @Summary 系统设置列表
// @Tags 系统设置
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.AppSetting}
// @Router /api/app-settings [get]
func (c *AppSettingController) List(ctx *gin.Context) {
	list, err := c.AppSettingService.List()
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 系统设置详情
// @Tags 系统设置
// @Produce json
// @Security BearerAuth
// @Param id path int true "设置ID"
// @Success 200 {object} util.Response{data=model.AppSetting}
// @Router /api/app-settings/{id} [get]
func (c *AppSettingController) Get(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	setting, err := c.AppSettingService.Get(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, setting)
}

// @Summary 按键名获取系统设置
// @Tags 系统设置
// @Produce json
// @Security BearerAuth
// @Param key path string true "键名"
// @Success 200 {object} util.Response{data=model.AppSetting}
// @Router /api/app-settings/key/{key} [get]
func (c *AppSettingController) GetByKey(ctx *gin.Context) {
	setting, err := c.AppSettingService.GetByKey(ctx.Param("key"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, setting)
}

// @Summary 创建系统设置
// @Tags 系统设置
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.AppSettingRequest true "设置"
// @Success 201 {object} util.Response{data=model.AppSetting}
// @Router /api/app-settings [post]
func (c *AppSettingController) Create(ctx *gin.Context) {
	var req service.AppSettingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	setting, err := c.AppSettingService.Create(&req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, setting)
}

// @Summary 修改系统设置
// @Tags 系统设置
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "设置ID"
// @Param body body service.AppSettingRequest true "设置"
// @Success 200 {object} util.Response{data=model.AppSetting}
// @Router /api/app-settings/{id} [put]
func (c *AppSettingController) Update(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req service.AppSettingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	setting, err := c.AppSettingService.Update(id, &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, setting)
}

// @Summary 删除系统设置
// @Tags 系统设置
// @Produce json
// @Security BearerAuth
// @Param id path int true "设置ID"
// @Success 200 {object} util.Response
// @Router /api/app-settings/{id} [delete]
func (c *AppSettingController) Delete(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.AppSettingService.Delete(id); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}
