package handlers

import (
	"github.com/gin-gonic/gin"
)

// RouteGuards are the middleware the route table needs. Limit handlers may
// be nil.
type RouteGuards struct {
	Session     gin.HandlerFunc
	Admin       gin.HandlerFunc
	AuthLimit   gin.HandlerFunc
	UploadLimit gin.HandlerFunc
}

func (g RouteGuards) chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

// RegisterRoutes mounts every API route under api
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup, g RouteGuards) {
	session := g.Session

	user := api.Group("/user")
	{
		user.POST("/register", g.chain(g.AuthLimit, h.Register)...)
		user.POST("/login", g.chain(g.AuthLimit, h.Login)...)
		user.POST("/logout", session, h.Logout)
		user.GET("/session", session, h.GetSession)
		user.GET("/verify/:code", h.VerifyEmail)
		user.POST("/request_password_reset", g.chain(g.AuthLimit, h.RequestPasswordReset)...)
		user.POST("/reset_password", g.chain(g.AuthLimit, h.ResetPassword)...)
		user.GET("/:username/posts", h.GetUserPosts)
	}

	settings := api.Group("/settings", session)
	{
		settings.GET("", h.GetSettings)
		settings.PATCH("", h.UpdateSettings)
		settings.POST("/change_password", h.ChangePassword)
	}

	posts := api.Group("/posts")
	{
		posts.GET("", h.SearchPosts)
		posts.GET("/latest", h.GetLatestPosts)
		posts.GET("/popular", h.GetPopularPosts)
		posts.GET("/premium", h.GetPremiumPosts)
		posts.GET("/random", h.GetRandomPosts)
		posts.GET("/id/:id", h.GetPost)
		posts.GET("/by/:username/:short_id", h.GetPostByShortID)
		posts.POST("/new", g.chain(session, g.UploadLimit, h.CreatePost)...)
		posts.PATCH("/edit/:id", session, h.EditPost)
		posts.DELETE("/delete/:id", session, h.DeletePost)
		posts.POST("/:id/like", session, h.LikePost)
		posts.POST("/:id/dislike", session, h.DislikePost)
	}

	comments := api.Group("/comment")
	{
		comments.GET("/fetch/:id", h.GetComments)
		comments.POST("/create/:id", session, h.CreateComment)
		comments.POST("/:id/like", session, h.LikeComment)
		comments.POST("/:id/dislike", session, h.DislikeComment)
		comments.DELETE("/:id", session, h.DeleteComment)
		comments.GET("/reply/:id", h.GetReplies)
		comments.POST("/reply/:id", session, h.CreateReply)
		comments.POST("/reply/:id/like", session, h.LikeReply)
		comments.POST("/reply/:id/dislike", session, h.DislikeReply)
	}

	profiles := api.Group("/profile")
	{
		profiles.GET("/me", session, h.GetMyProfile)
		profiles.PATCH("/me", session, h.UpdateMyProfile)
		profiles.POST("/quicklookup", h.QuickLookup)
		profiles.GET("/:username/public", h.GetPublicProfile)
		profiles.GET("/:username/lookup", h.LookupProfile)
		profiles.POST("/:username/follow", session, h.FollowProfile)
	}

	media := api.Group("/media/me/assets", session)
	{
		media.POST("/profile_picture", g.chain(g.UploadLimit, h.UploadProfilePicture)...)
		media.POST("/banner", g.chain(g.UploadLimit, h.UploadBanner)...)
	}

	api.POST("/reporting/new", session, h.CreateReport)
	api.GET("/announcements", h.GetAnnouncements)

	admin := api.Group("/admin", g.chain(session, g.Admin)...)
	{
		admin.GET("/is-admin", h.IsAdmin)
		admin.GET("/posts", h.AdminGetPosts)
		admin.PATCH("/posts/update/:id", h.AdminUpdatePost)
		admin.GET("/users", h.AdminGetUsers)
		admin.GET("/profiles", h.AdminGetProfiles)
		admin.GET("/profiles/fetch/:id", h.AdminGetProfile)
		admin.PATCH("/profiles/update/:id", h.AdminUpdateProfile)
		admin.GET("/reports", h.AdminGetReports)
		admin.GET("/reports/fetch/:id", h.AdminGetReport)
		admin.PATCH("/reports/status/:id", h.AdminUpdateReportStatus)
		admin.POST("/announcements/new", h.CreateAnnouncement)
	}
}
