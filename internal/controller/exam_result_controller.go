package controller

import (
	"matrix_exam_backend/internal/service"
	"matrix_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExamResultController struct {
	ResultService *service.ExamResultService
}

func NewExamResultController(resultService *service.ExamResultService) *ExamResultController {
	return &ExamResultController{ResultService: resultService}
}

// @Summary 会话成绩
// @Tags 成绩
// @Produce json
// @Security BearerAuth
// @Param sessionId path int true "会话ID"
// @Success 200 {object} util.Response{data=model.ExamResultResponse}
// @Failure 409 {object} util.Response "RESULT_NOT_READY"
// @Router /api/exam-results/session/{sessionId} [get]
func (c *ExamResultController) BySession(ctx *gin.Context) {
	sessionID, ok := util.ParamID(ctx, "sessionId")
	if !ok {
		return
	}
	resp, err := c.ResultService.BySession(ctx.Request.Context(), util.GetUserFromContext(ctx), sessionID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 计算会话成绩
// @Description 已有成绩时直接返回
// @Tags 成绩
// @Produce json
// @Security BearerAuth
// @Param sessionId path int true "会话ID"
// @Success 200 {object} util.Response{data=model.ExamResultResponse}
// @Router /api/exam-results/calculate/{sessionId} [post]
func (c *ExamResultController) Calculate(ctx *gin.Context) {
	sessionID, ok := util.ParamID(ctx, "sessionId")
	if !ok {
		return
	}
	resp, err := c.ResultService.Calculate(ctx.Request.Context(), util.GetUserFromContext(ctx), sessionID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 我的成绩
// @Tags 成绩
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.ExamResultResponse}
// @Router /api/exam-results/my-results [get]
func (c *ExamResultController) MyResults(ctx *gin.Context) {
	list, err := c.ResultService.MyResults(util.GetUserFromContext(ctx).UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 考试的全部成绩
// @Tags 成绩
// @Produce json
// @Security BearerAuth
// @Param examId path int true "考试ID"
// @Success 200 {object} util.Response{data=[]model.ExamResultResponse}
// @Router /api/exam-results/exam/{examId} [get]
func (c *ExamResultController) ByExam(ctx *gin.Context) {
	examID, ok := util.ParamID(ctx, "examId")
	if !ok {
		return
	}
	list, err := c.ResultService.ByExam(examID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 导出考试成绩
// @Description 生成 JSON 报表并写入对象存储
// @Tags 成绩
// @Produce json
// @Security BearerAuth
// @Param examId path int true "考试ID"
// @Success 200 {object} util.Response{data=service.ExportResponse}
// @Router /api/exam-results/exam/{examId}/export [post]
func (c *ExamResultController) Export(ctx *gin.Context) {
	examID, ok := util.ParamID(ctx, "examId")
	if !ok {
		return
	}
	resp, err := c.ResultService.Export(ctx.Request.Context(), examID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 成绩详情
// @Tags 成绩
// @Produce json
// @Security BearerAuth
// @Param id path int true "成绩ID"
// @Success 200 {object} util.Response{data=model.ExamResultResponse}
// @Router /api/exam-results/{id} [get]
func (c *ExamResultController) Get(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	resp, err := c.ResultService.Detail(util.GetUserFromContext(ctx), id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}
