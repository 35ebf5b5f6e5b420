package app

import (
	_ "agri_training_backend/docs"
	"agri_training_backend/internal/middleware"
	"agri_training_backend/internal/model"
	"agri_training_backend/pkg/monitoring"
	"agri_training_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要登录的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(a.services.auth))
	{
		authGroup.POST("/logout", c.auth.Logout)
		authGroup.GET("/me", c.auth.Me)
		authGroup.GET("/progress", c.progress.Get)
		authGroup.GET("/quiz-records", c.quiz.History)
	}

	// 3. PMU 数据：成员只读，管理员可写
	a.registerPMURoutes(router)

	// 4. 管理员资料管理
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(a.services.auth), middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/catalog/:program/:category", c.content.Upload)
		admin.DELETE("/catalog/:program/:category/:filename", c.content.Delete)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/login", security.RateLimiter(a.loginLimiter), c.auth.Login)
		public.GET("/login/members", c.auth.Members)

		public.POST("/calculator/plant-population", c.calculator.PlantPopulation)
		public.GET("/calculator/states", c.calculator.States)
	}

	// 浏览资料不需要登录，带令牌时记录学习进度
	browse := router.Group("/api")
	browse.Use(middleware.TryAuthMiddleware(a.services.auth))
	{
		browse.GET("/catalog", c.catalog.Overview)
		browse.GET("/catalog/:program/:category", c.catalog.List)
		browse.GET("/catalog/:program/:category/files/:filename", c.catalog.File)
		browse.GET("/catalog/:program/:category/files/:filename/preview", c.catalog.Preview)

		browse.GET("/quizzes/:program/:filename", c.quiz.Get)
		browse.POST("/quizzes/:program/:filename/score", c.quiz.Submit)
	}
}

func (a *App) registerPMURoutes(router *gin.Engine) {
	read := router.Group("/api/pmu")
	read.Use(middleware.AuthMiddleware(a.services.auth), middleware.RoleMiddleware(model.Member))

	write := router.Group("/api/pmu")
	write.Use(middleware.AuthMiddleware(a.services.auth), middleware.RoleMiddleware(model.Admin))

	c := a.controllers
	c.employee.Register(read, write, "/employees")
	c.programs.Register(read, write, "/programs")
	c.workStreams.Register(read, write, "/workstreams")
	c.workPlans.Register(read, write, "/workplans")
	c.targets.Register(read, write, "/targets")
	c.schedules.Register(read, write, "/schedules")
	c.fieldTeams.Register(read, write, "/field-teams")
	c.tasks.Register(read, write, "/tasks")
	c.farmerData.Register(read, write, "/farmer-data")
}
