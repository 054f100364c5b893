package controller

import (
	"matrix_exam_backend/internal/service"
	"matrix_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MatrixController struct {
	MatrixService *service.MatrixService
}

func NewMatrixController(matrixService *service.MatrixService) *MatrixController {
	return &MatrixController{MatrixService: matrixService}
}

// CreateWithQuestions godoc
// @Summary 按条件组卷
// @Description 从题库按课时、难度抽题，同时创建考试和试卷
// @Tags 试卷
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateMatrixWithQuestionsRequest true "组卷条件"
// @Success 201 {object} util.Response{data=model.MatrixWithQuestionsResponse}
// @Failure 400 {object} util.Response "参数错误"
// @Failure 403 {object} util.Response "仅教师可组卷"
// @Failure 422 {object} util.Response "题库中没有符合条件的题目"
// @Router /api/matrices/create-with-questions [post]
func (c *MatrixController) CreateWithQuestions(ctx *gin.Context) {
	var req service.CreateMatrixWithQuestionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	resp, err := c.MatrixService.CreateWithQuestions(ctx.Request.Context(), util.GetUserFromContext(ctx), &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, resp)
}

// @Summary 试卷列表
// @Tags 试卷
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.MatrixResponse}
// @Router /api/matrices [get]
func (c *MatrixController) List(ctx *gin.Context) {
	list, err := c.MatrixService.List()
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 搜索试卷
// @Tags 试卷
// @Produce json
// @Security BearerAuth
// @Param name query string true "试卷名称关键字"
// @Success 200 {object} util.Response{data=[]model.MatrixResponse}
// @Router /api/matrices/search [get]
func (c *MatrixController) Search(ctx *gin.Context) {
	list, err := c.MatrixService.Search(ctx.Query("name"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 试卷详情
// @Tags 试卷
// @Produce json
// @Security BearerAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response{data=model.MatrixWithQuestionsResponse}
// @Router /api/matrices/{id} [get]
func (c *MatrixController) Get(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	resp, err := c.MatrixService.Get(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 考试对应的试卷
// @Tags 试卷
// @Produce json
// @Security BearerAuth
// @Param examId path int true "考试ID"
// @Success 200 {object} util.Response{data=model.MatrixWithQuestionsResponse}
// @Router /api/matrices/exam/{examId} [get]
func (c *MatrixController) GetByExam(ctx *gin.Context) {
	examID, ok := util.ParamID(ctx, "examId")
	if !ok {
		return
	}
	resp, err := c.MatrixService.GetByExam(examID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 答题用的试卷题目
// @Description 不包含任何正确答案信息；学生需先在该试卷上开考
// @Tags 试卷
// @Produce json
// @Security BearerAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response{data=[]model.MatrixQuestionResponse}
// @Router /api/matrices/{id}/questions [get]
func (c *MatrixController) Questions(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	list, err := c.MatrixService.StudentQuestions(util.GetUserFromContext(ctx), id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 修改试卷名称和描述
// @Tags 试卷
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "试卷ID"
// @Param body body service.UpdateMatrixRequest true "试卷"
// @Success 200 {object} util.Response{data=model.MatrixResponse}
// @Router /api/matrices/{id} [put]
func (c *MatrixController) Update(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req service.UpdateMatrixRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	resp, err := c.MatrixService.Update(id, &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 删除试卷
// @Tags 试卷
// @Produce json
// @Security BearerAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "已有考试记录"
// @Router /api/matrices/{id} [delete]
func (c *MatrixController) Delete(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.MatrixService.Delete(id); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}
