package controller

import (
	"matrix_exam_backend/internal/service"
	"matrix_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
	Importer        *service.BankImporter
}

func NewQuestionController(questionService *service.QuestionService, importer *service.BankImporter) *QuestionController {
	return &QuestionController{QuestionService: questionService, Importer: importer}
}

func (c *QuestionController) respondList(ctx *gin.Context, list []service.QuestionResponse, err error) {
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 题目列表
// @Tags 题库
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.QuestionResponse}
// @Router /api/questions [get]
func (c *QuestionController) List(ctx *gin.Context) {
	list, err := c.QuestionService.List()
	c.respondList(ctx, list, err)
}

// @Summary 按课时查询题目
// @Tags 题库
// @Produce json
// @Security BearerAuth
// @Param lessonId path int true "课时ID"
// @Success 200 {object} util.Response{data=[]service.QuestionResponse}
// @Router /api/questions/lesson/{lessonId} [get]
func (c *QuestionController) ByLesson(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "lessonId")
	if !ok {
		return
	}
	list, err := c.QuestionService.ByLesson(id)
	c.respondList(ctx, list, err)
}

// @Summary 按难度查询题目
// @Tags 题库
// @Produce json
// @Security BearerAuth
// @Param levelId path int true "难度ID"
// @Success 200 {object} util.Response{data=[]service.QuestionResponse}
// @Router /api/questions/level/{levelId} [get]
func (c *QuestionController) ByLevel(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "levelId")
	if !ok {
		return
	}
	list, err := c.QuestionService.ByLevel(id)
	c.respondList(ctx, list, err)
}

// @Summary 按题型查询题目
// @Tags 题库
// @Produce json
// @Security BearerAuth
// @Param typeId path int true "题型ID"
// @Success 200 {object} util.Response{data=[]service.QuestionResponse}
// @Router /api/questions/type/{typeId} [get]
func (c *QuestionController) ByType(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "typeId")
	if !ok {
		return
	}
	list, err := c.QuestionService.ByType(id)
	c.respondList(ctx, list, err)
}

// @Summary 搜索题目
// @Tags 题库
// @Produce json
// @Security BearerAuth
// @Param text query string true "题干关键字"
// @Success 200 {object} util.Response{data=[]service.QuestionResponse}
// @Router /api/questions/search [get]
func (c *QuestionController) Search(ctx *gin.Context) {
	list, err := c.QuestionService.Search(ctx.Query("text"))
	c.respondList(ctx, list, err)
}

// @Summary 题目详情
// @Tags 题库
// @Produce json
// @Security BearerAuth
// @Param id path int true "题目ID"
// @Success 200 {object} util.Response{data=service.QuestionResponse}
// @Router /api/questions/{id} [get]
func (c *QuestionController) Get(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	q, err := c.QuestionService.Get(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// @Summary 创建题目
// @Tags 题库
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.QuestionRequest true "题目"
// @Success 201 {object} util.Response{data=service.QuestionResponse}
// @Router /api/questions [post]
func (c *QuestionController) Create(ctx *gin.Context) {
	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	q, err := c.QuestionService.Create(&req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// @Summary 修改题目
// @Tags 题库
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "题目ID"
// @Param body body service.QuestionRequest true "题目"
// @Success 200 {object} util.Response{data=service.QuestionResponse}
// @Router /api/questions/{id} [put]
func (c *QuestionController) Update(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	q, err := c.QuestionService.Update(id, &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// @Summary 删除题目
// @Tags 题库
// @Produce json
// @Security BearerAuth
// @Param id path int true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/questions/{id} [delete]
func (c *QuestionController) Delete(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.QuestionService.Delete(id); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

// @Summary 选项列表
// @Tags 选项
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Option}
// @Router /api/options [get]
func (c *QuestionController) ListOptions(ctx *gin.Context) {
	list, err := c.QuestionService.Options()
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 题目的选项
// @Tags 选项
// @Produce json
// @Security BearerAuth
// @Param questionId path int true "题目ID"
// @Success 200 {object} util.Response{data=[]model.Option}
// @Router /api/options/question/{questionId} [get]
func (c *QuestionController) OptionsOf(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "questionId")
	if !ok {
		return
	}
	list, err := c.QuestionService.OptionsOf(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 选项详情
// @Tags 选项
// @Produce json
// @Security BearerAuth
// @Param id path int true "选项ID"
// @Success 200 {object} util.Response{data=model.Option}
// @Router /api/options/{id} [get]
func (c *QuestionController) GetOption(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	opt, err := c.QuestionService.Option(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, opt)
}

// @Summary 创建选项
// @Description 每道题最多一个正确选项
// @Tags 选项
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.OptionRequest true "选项"
// @Success 201 {object} util.Response{data=model.Option}
// @Failure 400 {object} util.Response "已存在正确选项"
// @Router /api/options [post]
func (c *QuestionController) CreateOption(ctx *gin.Context) {
	var req service.OptionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	opt, err := c.QuestionService.CreateOption(&req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, opt)
}

// @Summary 修改选项
// @Tags 选项
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "选项ID"
// @Param body body service.OptionRequest true "选项"
// @Success 200 {object} util.Response{data=model.Option}
// @Router /api/options/{id} [put]
func (c *QuestionController) UpdateOption(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req service.OptionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	opt, err := c.QuestionService.UpdateOption(id, &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, opt)
}

// @Summary 删除选项
// @Tags 选项
// @Produce json
// @Security BearerAuth
// @Param id path int true "选项ID"
// @Success 200 {object} util.Response
// @Router /api/options/{id} [delete]
func (c *QuestionController) DeleteOption(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.QuestionService.DeleteOption(id); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

// Import godoc
// @Summary 导入题库
// @Description 请求体为 YAML 题库，按科目代码、年级名、课时标题、题型名和难度名复用已有数据，同一课时下题干重复的题目跳过
// @Tags 题库
// @Accept application/x-yaml
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.ImportSummary}
// @Failure 400 {object} util.Response
// @Router /api/questions/import [post]
func (c *QuestionController) Import(ctx *gin.Context) {
	bank, err := service.ParseQuestionBank(ctx.Request.Body)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	summary, err := c.Importer.Import(ctx.Request.Context(), bank)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}
