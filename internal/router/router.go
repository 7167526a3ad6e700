package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/schoolstack/sms-api/internal/handler"
	"github.com/schoolstack/sms-api/internal/middleware"
	"github.com/schoolstack/sms-api/internal/models"
	"github.com/schoolstack/sms-api/internal/service"
	"github.com/schoolstack/sms-api/pkg/config"
	"github.com/schoolstack/sms-api/pkg/logger"
	corsmiddleware "github.com/schoolstack/sms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/schoolstack/sms-api/pkg/middleware/requestid"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	People        *handler.PeopleHandler
	Academic      *handler.AcademicHandler
	Timetable     *handler.TimetableHandler
	Exam          *handler.ExamHandler
	Fee           *handler.FeeHandler
	Attendance    *handler.AttendanceHandler
	Notification  *handler.NotificationHandler
	Dashboard     *handler.DashboardHandler
	Report        *handler.ReportHandler
	TeacherPortal *handler.TeacherPortalHandler
	StudentPortal *handler.StudentPortalHandler
	ParentPortal  *handler.ParentPortalHandler
}

// New assembles the gin engine: global middleware, health probes, the
// public auth routes, and the role-guarded API groups.
func New(cfg *config.Config, logr *zap.Logger, auth *service.AuthService, metrics *service.MetricsService, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/forgot-password", h.Auth.ForgotPassword)
		authGroup.POST("/reset-password", h.Auth.ResetPassword)

		authed := authGroup.Group("", middleware.JWT(auth))
		authed.GET("/me", h.Auth.Me)
		authed.POST("/change-password", h.Auth.ChangePassword)
	}

	protected := api.Group("", middleware.JWT(auth))
	protected.GET("/notifications", h.Notification.Mine)

	admin := protected.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	{
		admin.POST("/students", h.People.CreateStudent)
		admin.GET("/students", h.People.ListStudents)
		admin.GET("/students/:id", h.People.GetStudent)
		admin.PATCH("/students/:id", h.People.UpdateStudent)
		admin.DELETE("/students/:id", h.People.DeleteStudent)
		admin.GET("/students/:id/fees", h.Fee.StudentFees)
		admin.GET("/students/:id/attendance", h.Attendance.StudentAttendance)

		admin.POST("/teachers", h.People.CreateTeacher)
		admin.GET("/teachers", h.People.ListTeachers)
		admin.GET("/teachers/:id", h.People.GetTeacher)
		admin.PATCH("/teachers/:id", h.People.UpdateTeacher)
		admin.DELETE("/teachers/:id", h.People.DeleteTeacher)
		admin.GET("/teachers/:id/assignments", h.Academic.TeacherAssignments)

		admin.POST("/parents", h.People.CreateParent)
		admin.GET("/parents", h.People.ListParents)
		admin.POST("/parents/:id/children", h.People.LinkChild)

		admin.GET("/classes", h.Academic.ListClasses)
		admin.POST("/classes", h.Academic.CreateClass)
		admin.DELETE("/classes/:id", h.Academic.DeleteClass)
		admin.GET("/classes/:id/sections", h.Academic.ListSections)
		admin.POST("/sections", h.Academic.CreateSection)
		admin.DELETE("/sections/:id", h.Academic.DeleteSection)
		admin.GET("/subjects", h.Academic.ListSubjects)
		admin.POST("/subjects", h.Academic.CreateSubject)
		admin.DELETE("/subjects/:id", h.Academic.DeleteSubject)

		admin.POST("/assignments", h.Academic.AssignTeacher)
		admin.DELETE("/assignments/:id", h.Academic.RevokeAssignment)

		admin.POST("/timetables", h.Timetable.CreateEntry)
		admin.PATCH("/timetables/:id", h.Timetable.UpdateEntry)
		admin.DELETE("/timetables/:id", h.Timetable.DeleteEntry)
		admin.DELETE("/timetables", h.Timetable.DeleteGroup)
		admin.GET("/timetables/groups", h.Timetable.ListGroups)
		admin.GET("/classes/:id/timetable", h.Timetable.ClassTimetable)

		admin.GET("/exams", h.Exam.List)
		admin.POST("/exams", h.Exam.Create)
		admin.DELETE("/exams/:id", h.Exam.Delete)
		admin.POST("/exam-subjects", h.Exam.CreateSubject)
		admin.GET("/exams/:id/subjects", h.Exam.ListSubjects)

		admin.POST("/fees", h.Fee.Create)
		admin.GET("/fees", h.Fee.List)
		admin.PATCH("/fees/:id", h.Fee.Update)
		admin.DELETE("/fees/:id", h.Fee.Delete)

		admin.GET("/attendance/overview", h.Attendance.Overview)

		admin.POST("/notifications", h.Notification.Create)
		admin.DELETE("/notifications/:id", h.Notification.Delete)

		if cfg.Dashboard.Enabled {
			admin.GET("/dashboard", h.Dashboard.Summary)
			admin.DELETE("/dashboard/cache", h.Dashboard.Invalidate)
		}
	}

	teacher := protected.Group("/teacher", middleware.RequireRoles(models.RoleTeacher))
	{
		teacher.GET("/assignments", h.TeacherPortal.MyAssignments)
		teacher.GET("/timetable", h.TeacherPortal.MyTimetable)
		teacher.GET("/roster", h.TeacherPortal.Roster)
		teacher.POST("/marks", h.TeacherPortal.SubmitMarks)
		teacher.GET("/marks/:id", h.TeacherPortal.MarkSheet)
		teacher.POST("/attendance", h.TeacherPortal.MarkAttendance)
		teacher.GET("/attendance", h.TeacherPortal.ClassAttendance)
		teacher.POST("/materials", h.TeacherPortal.PostMaterial)
		teacher.GET("/materials", h.TeacherPortal.MyMaterials)
		teacher.DELETE("/materials/:id", h.TeacherPortal.DeleteMaterial)
		teacher.POST("/notifications", h.TeacherPortal.SendNotification)
	}

	student := protected.Group("/student", middleware.RequireRoles(models.RoleStudent))
	{
		student.GET("/timetable", h.StudentPortal.MyTimetable)
		student.GET("/marks", h.StudentPortal.MyMarks)
		student.GET("/attendance", h.StudentPortal.MyAttendance)
		student.GET("/materials", h.StudentPortal.MyMaterials)
		student.GET("/fees", h.StudentPortal.MyFees)
		student.GET("/notifications", h.StudentPortal.MyNotifications)
	}

	parent := protected.Group("/parent", middleware.RequireRoles(models.RoleParent))
	{
		parent.GET("/children", h.ParentPortal.Children)
		parent.GET("/children/:id/marks", h.ParentPortal.ChildMarks)
		parent.GET("/children/:id/attendance", h.ParentPortal.ChildAttendance)
		parent.GET("/children/:id/fees", h.ParentPortal.ChildFees)
	}

	if cfg.Exports.Enabled {
		reports := protected.Group("/reports")
		{
			reports.POST("/marks-sheet", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.Report.RequestMarksSheet)
			reports.POST("/attendance-overview", middleware.RequireRoles(models.RoleAdmin), h.Report.RequestAttendanceOverview)
			reports.GET("", h.Report.List)
			reports.GET("/:id", h.Report.Status)
		}
		// Token-authenticated, so it sits outside the JWT group.
		api.GET("/reports/download", h.Report.Download)
	}

	return r
}
