package controller

import (
	"matrix_exam_backend/internal/service"
	"matrix_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StudentController struct {
	StudentService *service.StudentService
}

func NewStudentController(studentService *service.StudentService) *StudentController {
	return &StudentController{StudentService: studentService}
}

// @Summary 学生列表
// @Tags 学生
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.StudentResponse}
// @Router /api/students [get]
func (c *StudentController) List(ctx *gin.Context) {
	list, err := c.StudentService.List()
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 学生详情
// @Tags 学生
// @Produce json
// @Security BearerAuth
// @Param id path int true "学生ID"
// @Success 200 {object} util.Response{data=service.StudentResponse}
// @Failure 404 {object} util.Response
// @Router /api/students/{id} [get]
func (c *StudentController) Get(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	student, err := c.StudentService.Get(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, student)
}

// @Summary 当前学生资料
// @Tags 学生
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.StudentResponse}
// @Router /api/students/me [get]
func (c *StudentController) Me(ctx *gin.Context) {
	student, err := c.StudentService.Me(util.GetUserFromContext(ctx).UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, student)
}

// @Summary 修改当前学生资料
// @Tags 学生
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.UpdateStudentRequest true "资料"
// @Success 200 {object} util.Response{data=service.StudentResponse}
// @Router /api/students/me [put]
func (c *StudentController) UpdateMe(ctx *gin.Context) {
	var req service.UpdateStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	student, err := c.StudentService.UpdateMe(util.GetUserFromContext(ctx).UserID, &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, student)
}

// @Summary 创建学生
// @Tags 学生
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateStudentRequest true "学生信息"
// @Success 201 {object} util.Response{data=service.StudentResponse}
// @Failure 409 {object} util.Response "邮箱已被注册"
// @Router /api/students [post]
func (c *StudentController) Create(ctx *gin.Context) {
	var req service.CreateStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	student, err := c.StudentService.Create(&req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, student)
}

// @Summary 修改学生
// @Tags 学生
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "学生ID"
// @Param body body service.UpdateStudentRequest true "学生信息"
// @Success 200 {object} util.Response{data=service.StudentResponse}
// @Router /api/students/{id} [put]
func (c *StudentController) Update(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req service.UpdateStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	student, err := c.StudentService.Update(id, &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, student)
}

// @Summary 删除学生
// @Tags 学生
// @Produce json
// @Security BearerAuth
// @Param id path int true "学生ID"
// @Success 200 {object} util.Response
// @Router /api/students/{id} [delete]
func (c *StudentController) Delete(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.StudentService.Delete(id); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

type TeacherController struct {
	TeacherService *service.TeacherService
}

func NewTeacherController(teacherService *service.TeacherService) *TeacherController {
	return &TeacherController{TeacherService: teacherService}
}

// @Summary 教师列表
// @Tags 教师
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.TeacherResponse}
// @Router /api/teachers [get]
func (c *TeacherController) List(ctx *gin.Context) {
	list, err := c.TeacherService.List()
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 教师详情
// @Tags 教师
// @Produce json
// @Security BearerAuth
// @Param id path int true "教师ID"
// @Success 200 {object} util.Response{data=service.TeacherResponse}
// @Router /api/teachers/{id} [get]
func (c *TeacherController) Get(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	teacher, err := c.TeacherService.Get(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, teacher)
}

// @Summary 当前教师资料
// @Tags 教师
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.TeacherResponse}
// @Router /api/teachers/me [get]
func (c *TeacherController) Me(ctx *gin.Context) {
	teacher, err := c.TeacherService.Me(util.GetUserFromContext(ctx).UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, teacher)
}

// @Summary 创建教师
// @Tags 教师
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateTeacherRequest true "教师信息"
// @Success 201 {object} util.Response{data=service.TeacherResponse}
// @Router /api/teachers [post]
func (c *TeacherController) Create(ctx *gin.Context) {
	var req service.CreateTeacherRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	teacher, err := c.TeacherService.Create(&req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, teacher)
}

// @Summary 修改教师
// @Tags 教师
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "教师ID"
// @Param body body service.UpdateTeacherRequest true "教师信息"
// @Success 200 {object} util.Response{data=service.TeacherResponse}
// @Router /api/teachers/{id} [put]
func (c *TeacherController) Update(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	var req service.UpdateTeacherRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	teacher, err := c.TeacherService.Update(id, &req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, teacher)
}

// @Summary 删除教师
// @Tags 教师
// @Produce json
// @Security BearerAuth
// @Param id path int true "教师ID"
// @Success 200 {object} util.Response
// @Router /api/teachers/{id} [delete]
func (c *TeacherController) Delete(ctx *gin.Context) {
	id, ok := util.ParamID(ctx, "id")
	if !ok {
		return
	}
	if err := c.TeacherService.Delete(id); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}
