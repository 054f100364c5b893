package controller

import (
	"matrix_exam_backend/internal/service"
	"matrix_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LevelController struct {
	LevelService *service.LevelService
}

func NewLevelController(levelService *service.LevelService) *LevelController {
	return &LevelController{LevelService: levelService}
}

// @Summary 难度列表
// @Tags 难度
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Level}
// @Router /api/levels [get]
func (c *LevelController) List(ctx *gin.Context) {
	list, err := c.LevelService.List()
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 难度详情
// @Tags 难度
// @Produce json
// @Security BearerAuth
// @Param id path int true "难度ID"
// @Success 200 {object} util.Response{data=model.Level}
// @Router /api/levels/{id} [get]
func (c *LevelController) Get(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	level, err := c.LevelService.Get(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, level)
}

// @Summary 创建难度
// @Tags 难度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.LevelRequest true "难度"
// @Success 201 {object} util.Response{data=model.Level}
// @Router /api/levels [post]
func (c *LevelController) Create(ctx *gin.Context) {
	var req service.LevelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	level, err := c.LevelService.Create(&req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, level)
}

// @Summary 修改难度
// @Tags 难度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "难度ID"
// @Param body body service.LevelRequest true "难度"
// @Success 200 {object} util.Response{data=model.Level}
// @Router /api/levels/{id} [put]
func (c *LevelController) Update(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req service.LevelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	level, err := c.LevelService.Update(id, &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, level)
}

// @Summary 删除难度
// @Tags 难度
// @Produce json
// @Security BearerAuth
// @Param id path int true "难度ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "仍有题目引用"
// @Router /api/levels/{id} [delete]
func (c *LevelController) Delete(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.LevelService.Delete(id); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}
