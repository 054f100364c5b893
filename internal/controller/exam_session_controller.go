package controller

import (
	"matrix_exam_backend/internal/service"
	"matrix_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExamSessionController struct {
	SessionService *service.ExamSessionService
	ResultService  *service.ExamResultService
	Hub            *service.SessionHub
}

func NewExamSessionController(sessionService *service.ExamSessionService, resultService *service.ExamResultService, hub *service.SessionHub) *ExamSessionController {
	return &ExamSessionController{SessionService: sessionService, ResultService: resultService, Hub: hub}
}

// Start godoc
// @Summary 开始考试
// @Description 每个学生同时只能有一场进行中的考试
// @Tags 考试会话
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.StartSessionRequest true "考试与试卷"
// @Success 201 {object} util.Response{data=model.ExamSessionResponse}
// @Failure 409 {object} util.Response "ALREADY_ACTIVE / EXAM_NOT_AVAILABLE / ALREADY_SUBMITTED"
// @Router /api/exam-sessions/start [post]
func (c *ExamSessionController) Start(ctx *gin.Context) {
	var req service.StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	resp, err := c.SessionService.Start(ctx.Request.Context(), util.GetUserFromContext(ctx).UserID, &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, resp)
}

// Stream godoc
// @Summary 考试计时推送
// @Description 建立 WebSocket 连接，定时推送剩余时间，交卷或超时自动交卷时推送通知。浏览器可用 ?token= 传递令牌
// @Tags 考试会话
// @Security BearerAuth
// @Router /api/exam-sessions/ws [get]
func (c *ExamSessionController) Stream(ctx *gin.Context) {
	service.ServeWs(c.Hub, ctx.Writer, ctx.Request, util.GetUserFromContext(ctx).UserID)
}

// Active godoc
// @Summary 当前进行中的考试
// @Description 没有进行中的考试时 data 为 null
// @Tags 考试会话
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.ExamSessionResponse}
// @Router /api/exam-sessions/active [get]
func (c *ExamSessionController) Active(ctx *gin.Context) {
	resp, err := c.SessionService.Active(ctx.Request.Context(), util.GetUserFromContext(ctx).UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 考试会话详情
// @Tags 考试会话
// @Produce json
// @Security BearerAuth
// @Param id path int true "会话ID"
// @Success 200 {object} util.Response{data=model.ExamSessionResponse}
// @Router /api/exam-sessions/{id} [get]
func (c *ExamSessionController) Get(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	resp, err := c.SessionService.Get(ctx.Request.Context(), util.GetUserFromContext(ctx), id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// SubmitAnswer godoc
// @Summary 保存答案
// @Description 同一题重复提交以最后一次为准
// @Tags 考试会话
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.SubmitAnswerRequest true "答案"
// @Success 200 {object} util.Response{data=model.StudentAnswerResponse}
// @Failure 409 {object} util.Response "SESSION_NOT_ACTIVE / SESSION_EXPIRED"
// @Router /api/exam-sessions/answer [post]
func (c *ExamSessionController) SubmitAnswer(ctx *gin.Context) {
	var req service.SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	resp, err := c.SessionService.SubmitAnswer(ctx.Request.Context(), util.GetUserFromContext(ctx).UserID, &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 会话已保存的答案
// @Tags 考试会话
// @Produce json
// @Security BearerAuth
// @Param id path int true "会话ID"
// @Success 200 {object} util.Response{data=[]model.StudentAnswerResponse}
// @Router /api/exam-sessions/{id}/answers [get]
func (c *ExamSessionController) Answers(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	list, err := c.SessionService.Answers(ctx.Request.Context(), util.GetUserFromContext(ctx), id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// Submit godoc
// @Summary 交卷
// @Description 交卷后立即评分，重复交卷返回 ALREADY_SUBMITTED
// @Tags 考试会话
// @Produce json
// @Security BearerAuth
// @Param id path int true "会话ID"
// @Success 200 {object} util.Response{data=model.ExamResultResponse}
// @Failure 409 {object} util.Response "ALREADY_SUBMITTED / SESSION_EXPIRED"
// @Router /api/exam-sessions/{id}/submit [post]
func (c *ExamSessionController) Submit(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	result, err := c.SessionService.Submit(ctx.Request.Context(), util.GetUserFromContext(ctx).UserID, id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	resp, err := c.ResultService.BuildResponse(result, true)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 我的考试记录
// @Tags 考试会话
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.ExamSessionResponse}
// @Router /api/exam-sessions/my-sessions [get]
func (c *ExamSessionController) MySessions(ctx *gin.Context) {
	list, err := c.SessionService.MySessions(ctx.Request.Context(), util.GetUserFromContext(ctx).UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 考试的全部会话
// @Tags 考试会话
// @Produce json
// @Security BearerAuth
// @Param examId path int true "考试ID"
// @Success 200 {object} util.Response{data=[]model.ExamSessionResponse}
// @Router /api/exam-sessions/exam/{examId} [get]
func (c *ExamSessionController) ByExam(ctx *gin.Context) {
	examID, ok := util.ParamID(ctx, "examId")
	if !ok {
		return
	}
	list, err := c.SessionService.ExamSessions(examID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}
