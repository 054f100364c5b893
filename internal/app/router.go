package app

import (
	"matrix_exam_backend/docs"
	"matrix_exam_backend/internal/config"
	"matrix_exam_backend/internal/middleware"
	"matrix_exam_backend/internal/model"
	"matrix_exam_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		authGroup.GET("/auth/me", c.auth.Me)

		a.registerUserRoutes(authGroup, c)
		a.registerCatalogRoutes(authGroup, c)
		a.registerQuestionRoutes(authGroup, c)
		a.registerExamRoutes(authGroup, c)
		a.registerSessionRoutes(authGroup, c)
		a.registerResultRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
	}
}

func staffOnly() gin.HandlerFunc {
	return middleware.RoleMiddleware(model.RoleTeacher)
}

func adminOnly() gin.HandlerFunc {
	return middleware.RoleMiddleware(model.RoleAdmin)
}

func studentOnly() gin.HandlerFunc {
	return middleware.RoleMiddleware(model.RoleStudent)
}

func (a *App) registerUserRoutes(r *gin.RouterGroup, c *controllers) {
	students := r.Group("/students")
	{
		students.GET("/me", studentOnly(), c.student.Me)
		students.PUT("/me", studentOnly(), c.student.UpdateMe)

		students.GET("", staffOnly(), c.student.List)
		students.GET("/:id", staffOnly(), c.student.Get)
		students.POST("", staffOnly(), c.student.Create)
		students.PUT("/:id", staffOnly(), c.student.Update)
		students.DELETE("/:id", staffOnly(), c.student.Delete)
	}

	teachers := r.Group("/teachers")
	{
		teachers.GET("/me", staffOnly(), c.teacher.Me)

		teachers.GET("", staffOnly(), c.teacher.List)
		teachers.GET("/:id", staffOnly(), c.teacher.Get)
		teachers.POST("", adminOnly(), c.teacher.Create)
		teachers.PUT("/:id", adminOnly(), c.teacher.Update)
		teachers.DELETE("/:id", adminOnly(), c.teacher.Delete)
	}
}

// registerCatalogRoutes 科目/年级/课时/题型/难度：登录即可读，教师可写
func (a *App) registerCatalogRoutes(r *gin.RouterGroup, c *controllers) {
	subjects := r.Group("/subjects")
	{
		subjects.GET("", c.subject.List)
		subjects.GET("/:id", c.subject.Get)
		subjects.POST("", staffOnly(), c.subject.Create)
		subjects.PUT("/:id", staffOnly(), c.subject.Update)
		subjects.DELETE("/:id", staffOnly(), c.subject.Delete)
	}

	grades := r.Group("/grades")
	{
		grades.GET("", c.grade.List)
		grades.GET("/subject/:subjectId", c.grade.BySubject)
		grades.GET("/:id", c.grade.Get)
		grades.POST("", staffOnly(), c.grade.Create)
		grades.PUT("/:id", staffOnly(), c.grade.Update)
		grades.DELETE("/:id", staffOnly(), c.grade.Delete)
	}

	lessons := r.Group("/lessons")
	{
		lessons.GET("", c.lesson.List)
		lessons.GET("/grade/:gradeId", c.lesson.ByGrade)
		lessons.GET("/:id", c.lesson.Get)
		lessons.POST("", staffOnly(), c.lesson.Create)
		lessons.PUT("/:id", staffOnly(), c.lesson.Update)
		lessons.DELETE("/:id", staffOnly(), c.lesson.Delete)
	}

	types := r.Group("/question-types")
	{
		types.GET("", c.questionType.List)
		types.GET("/:id", c.questionType.Get)
		types.POST("", staffOnly(), c.questionType.Create)
		types.PUT("/:id", staffOnly(), c.questionType.Update)
		types.DELETE("/:id", staffOnly(), c.questionType.Delete)
	}

	levels := r.Group("/levels")
	{
		levels.GET("", c.level.List)
		levels.GET("/:id", c.level.Get)
		levels.POST("", staffOnly(), c.level.Create)
		levels.PUT("/:id", staffOnly(), c.level.Update)
		levels.DELETE("/:id", staffOnly(), c.level.Delete)
	}

	settings := r.Group("/app-settings")
	{
		settings.GET("", c.appSetting.List)
		settings.GET("/key/:key", c.appSetting.GetByKey)
		settings.GET("/:id", c.appSetting.Get)
		settings.POST("", adminOnly(), c.appSetting.Create)
		settings.PUT("/:id", adminOnly(), c.appSetting.Update)
		settings.DELETE("/:id", adminOnly(), c.appSetting.Delete)
	}
}

// registerQuestionRoutes 题库包含答案，只对教师开放
func (a *App) registerQuestionRoutes(r *gin.RouterGroup, c *controllers) {
	questions := r.Group("/questions", staffOnly())
	{
		questions.GET("", c.question.List)
		questions.GET("/search", c.question.Search)
		questions.GET("/lesson/:lessonId", c.question.ByLesson)
		questions.GET("/level/:levelId", c.question.ByLevel)
		questions.GET("/type/:typeId", c.question.ByType)
		questions.GET("/:id", c.question.Get)
		questions.POST("", c.question.Create)
		questions.POST("/import", c.question.Import)
		questions.PUT("/:id", c.question.Update)
		questions.DELETE("/:id", c.question.Delete)
	}

	options := r.Group("/options", staffOnly())
	{
		options.GET("", c.question.ListOptions)
		options.GET("/question/:questionId", c.question.OptionsOf)
		options.GET("/:id", c.question.GetOption)
		options.POST("", c.question.CreateOption)
		options.PUT("/:id", c.question.UpdateOption)
		options.DELETE("/:id", c.question.DeleteOption)
	}
}

func (a *App) registerExamRoutes(r *gin.RouterGroup, c *controllers) {
	exams := r.Group("/exams")
	{
		exams.GET("", c.exam.List)
		exams.GET("/search", c.exam.Search)
		exams.GET("/:id", c.exam.Get)
		exams.POST("", staffOnly(), c.exam.Create)
		exams.PUT("/:id", staffOnly(), c.exam.Update)
		exams.DELETE("/:id", staffOnly(), c.exam.Delete)
	}

	matrices := r.Group("/matrices")
	{
		matrices.GET("/:id/questions", c.matrix.Questions)

		matrices.POST("/create-with-questions", staffOnly(), c.matrix.CreateWithQuestions)
		matrices.POST("/with-questions", staffOnly(), c.matrix.CreateWithQuestions)
		matrices.GET("", staffOnly(), c.matrix.List)
		matrices.GET("/search", staffOnly(), c.matrix.Search)
		matrices.GET("/exam/:examId", staffOnly(), c.matrix.GetByExam)
		matrices.GET("/:id", staffOnly(), c.matrix.Get)
		matrices.PUT("/:id", staffOnly(), c.matrix.Update)
		matrices.DELETE("/:id", staffOnly(), c.matrix.Delete)
	}
}

func (a *App) registerSessionRoutes(r *gin.RouterGroup, c *controllers) {
	sessions := r.Group("/exam-sessions")
	{
		sessions.POST("/start", studentOnly(), c.session.Start)
		sessions.GET("/active", studentOnly(), c.session.Active)
		sessions.GET("/current", studentOnly(), c.session.Active)
		sessions.POST("/answer", studentOnly(), c.session.SubmitAnswer)
		sessions.POST("/submit-answer", studentOnly(), c.session.SubmitAnswer)
		sessions.GET("/my-sessions", studentOnly(), c.session.MySessions)
		sessions.GET("/ws", studentOnly(), c.session.Stream)
		sessions.POST("/:id/submit", studentOnly(), c.session.Submit)

		sessions.GET("/exam/:examId", staffOnly(), c.session.ByExam)
		sessions.GET("/:id", c.session.Get)
		sessions.GET("/:id/answers", c.session.Answers)
	}
}

func (a *App) registerResultRoutes(r *gin.RouterGroup, c *controllers) {
	results := r.Group("/exam-results")
	{
		results.GET("/session/:sessionId", c.result.BySession)
		results.POST("/calculate/:sessionId", c.result.Calculate)
		results.GET("/my-results", c.result.MyResults)
		results.GET("/exam/:examId", staffOnly(), c.result.ByExam)
		results.POST("/exam/:examId/export", staffOnly(), c.result.Export)
		results.GET("/:id", c.result.Get)
	}
}
