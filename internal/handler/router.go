package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"brushquest-server/internal/config"
	"brushquest-server/internal/models"
	"brushquest-server/internal/service"
	"brushquest-server/pkg/jobs"
)

// Handler aggregates the HTTP surface over the services.
type Handler struct {
	worlds       *service.WorldService
	stories      *service.StoryService
	pets         *service.PetService
	collectibles *service.CollectibleService
	sprites      *service.SpriteService
	children     *service.ChildService
	media        *service.MediaService
	content      *service.ContentService
	jobs         jobs.Manager
	cfg          *config.Config
	logger       *zap.Logger
}

func New(
	worlds *service.WorldService,
	stories *service.StoryService,
	pets *service.PetService,
	collectibles *service.CollectibleService,
	sprites *service.SpriteService,
	children *service.ChildService,
	media *service.MediaService,
	content *service.ContentService,
	jobManager jobs.Manager,
	cfg *config.Config,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		worlds:       worlds,
		stories:      stories,
		pets:         pets,
		collectibles: collectibles,
		sprites:      sprites,
		children:     children,
		media:        media,
		content:      content,
		jobs:         jobManager,
		cfg:          cfg,
		logger:       logger.Named("handler"),
	}
}

// Router builds the gin engine with all middleware and routes.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ZapLogger(h.logger))

	corsCfg := cors.DefaultConfig()
	if len(h.cfg.CORS.AllowedOrigins) == 1 && h.cfg.CORS.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = h.cfg.CORS.AllowedOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "X-Admin-Key")
	router.Use(cors.New(corsCfg))

	prom := ginprometheus.NewPrometheus("brushquest")
	prom.Use(router)

	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		respondError(c, h.logger, models.ErrMethodNotAllowed)
	})
	router.NoRoute(func(c *gin.Context) {
		respondError(c, h.logger, models.ErrNotFound)
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public surface.
	router.GET("/content", h.getContent)
	router.POST("/tts", h.synthesize)
	router.POST("/generate-image", h.generateImage)
	router.POST("/generate-avatar", h.generateAvatar)
	router.POST("/generate-name-audio", h.generateNameAudio)

	children := router.Group("/children")
	{
		children.GET("", h.listChildren)
		children.POST("", h.createChild)
		children.GET("/:id", h.getChild)
		children.PUT("/:id", h.updateChild)
		children.DELETE("/:id", h.deleteChild)
		children.POST("/:id/regenerate-audio", h.regenerateChildAudio)
	}

	router.POST("/admin/auth", h.adminAuth)

	admin := router.Group("/admin", AdminAuth(h.cfg.Admin.Password, h.logger))
	{
		admin.GET("/jobs/:id", h.getJob)
		admin.DELETE("/jobs/:id", h.cancelJob)

		admin.GET("/worlds", h.listWorlds)
		admin.POST("/worlds", h.createWorld)
		admin.POST("/worlds/generate", h.generateWorld)
		admin.GET("/worlds/:id", h.getWorld)
		admin.PUT("/worlds/:id", h.updateWorld)
		admin.DELETE("/worlds/:id", h.deleteWorld)
		admin.POST("/worlds/:id/regenerate-image", h.regenerateWorldImage)
		admin.GET("/worlds/:id/pitches", h.listPitches)
		admin.POST("/worlds/:id/pitches", h.generatePitches)
		admin.GET("/worlds/:id/stories", h.listStories)

		admin.POST("/pitches/:id/outline", h.generateOutline)
		admin.POST("/pitches/:id/generate", h.generateStory)

		admin.GET("/stories/:id", h.getStory)
		admin.PUT("/stories/:id", h.updateStory)
		admin.DELETE("/stories/:id", h.deleteStory)
		admin.POST("/stories/:id/publish", h.publishStory)
		admin.POST("/stories/:id/music", h.regenerateMusic)
		admin.GET("/stories/:id/chapters", h.listChapters)
		admin.GET("/stories/:id/references", h.listReferences)

		admin.PUT("/chapters/:id", h.updateChapter)
		admin.GET("/chapters/:id/segments", h.listSegments)
		admin.GET("/segments/:id", h.getSegment)
		admin.PUT("/segments/:id", h.updateSegment)
		admin.POST("/segments/:id/image", h.generateSegmentImage)
		admin.POST("/generate-segment-audio", h.generateSegmentAudio)

		admin.GET("/pets", h.listPets)
		admin.POST("/pets", h.createPet)
		admin.POST("/pets/generate", h.generatePetSuggestions)
		admin.GET("/pets/suggestions", h.listPetSuggestions)
		admin.POST("/pets/suggestions/:id/approve", h.approvePetSuggestion)
		admin.POST("/pets/suggestions/:id/reject", h.rejectPetSuggestion)
		admin.GET("/pets/:id", h.getPet)
		admin.PUT("/pets/:id", h.updatePet)
		admin.DELETE("/pets/:id", h.deletePet)
		admin.POST("/pets/:id/audio", h.savePetAudio)

		admin.GET("/collectibles", h.listCollectibles)
		admin.POST("/collectibles", h.createCollectible)
		admin.POST("/collectibles/generate", h.generateCollectibles)
		admin.GET("/collectibles/:id", h.getCollectible)
		admin.PUT("/collectibles/:id", h.updateCollectible)
		admin.DELETE("/collectibles/:id", h.deleteCollectible)

		admin.GET("/characters/poses", h.listPoses)
		admin.POST("/characters/poses", h.createPose)
		admin.DELETE("/characters/poses/:id", h.deletePose)
		admin.GET("/characters/sprites", h.listSprites)
		admin.POST("/characters/sprites/generate", h.generateSprite)
		admin.POST("/characters/sprites/generate-all", h.generateAllSprites)
	}

	return router
}

type authRequest struct {
	Password string `json:"password"`
}

// adminAuth validates the shared password for the SPA's login screen.
func (h *Handler) adminAuth(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, models.ErrValidation)
		return
	}
	if err := checkAdminPassword(h.cfg.Admin.Password, req.Password); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
