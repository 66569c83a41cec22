package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"kitchenrush/internal/config"
	"kitchenrush/internal/game"
	"kitchenrush/internal/models"
	"kitchenrush/internal/monitoring"
	"kitchenrush/internal/questions"
)

// History is the persisted side of finished sessions
type History interface {
	ListSessions(userID string, limit int) ([]models.SessionRecord, error)
	Profile(userID string) (*models.UserProfile, error)
}

// Options wires the API to the rest of the server
type Options struct {
	Sessions  *game.Manager
	Layout    *models.KitchenLayout
	Questions questions.Source
	History   History
	Monitor   *monitoring.Monitor
	Auth      config.AuthConfig
}

// KitchenAPI represents the main API handler for the kitchen
type KitchenAPI struct {
	Router    *gin.Engine
	Sessions  *game.Manager
	Layout    *models.KitchenLayout
	Questions questions.Source
	History   History
	Monitor   *monitoring.Monitor
}

// NewKitchenAPI creates a new kitchen API instance
func NewKitchenAPI(opts Options) *KitchenAPI {
	router := gin.Default()

	k := &KitchenAPI{
		Router:    router,
		Sessions:  opts.Sessions,
		Layout:    opts.Layout,
		Questions: opts.Questions,
		History:   opts.History,
		Monitor:   opts.Monitor,
	}
	if k.Monitor == nil {
		k.Monitor = monitoring.NewMonitor()
	}

	k.setupRoutes(opts.Auth)
	return k
}

// setupRoutes configures all API endpoints
func (k *KitchenAPI) setupRoutes(auth config.AuthConfig) {
	k.Router.GET("/health", k.Health)

	v1 := k.Router.Group("/api/v1")
	v1.Use(AuthMiddleware(auth))
	{
		v1.GET("/layout", k.GetLayout)
		v1.GET("/questions", k.ListQuestions)

		// Session lifecycle
		v1.POST("/sessions", k.StartSession)
		v1.GET("/sessions/:id", k.GetSession)
		v1.GET("/sessions/:id/stats", k.GetSessionStats)
		v1.DELETE("/sessions/:id", k.EndSession)
		v1.GET("/sessions/:id/ws", k.StreamSession)

		// Player input
		v1.POST("/sessions/:id/move", k.Move)
		v1.POST("/sessions/:id/keys", k.SetKeys)
		v1.POST("/sessions/:id/interact", k.Interact)
		v1.POST("/sessions/:id/answer", k.Answer)
		v1.POST("/sessions/:id/mechanic/action", k.MechanicAction)
		v1.POST("/sessions/:id/mechanic/abandon", k.AbandonMechanic)
		v1.POST("/sessions/:id/recipe/dismiss", k.DismissRecipe)

		// Player history
		v1.GET("/users/me/sessions", k.ListMySessions)
		v1.GET("/users/me/profile", k.GetMyProfile)
	}
}

// MoveRequest sends the player to a floor point or to a station
type MoveRequest struct {
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
	StationID string   `json:"station_id"`
}

// KeysRequest holds a keyboard direction
type KeysRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// AnswerRequest submits a choice for the open question
type AnswerRequest struct {
	ChoiceID string `json:"choice_id" binding:"required"`
}

// statusFor maps game errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrSessionNotFound),
		errors.Is(err, game.ErrUnknownStation),
		errors.Is(err, questions.ErrNoQuestions):
		return http.StatusNotFound
	case errors.Is(err, game.ErrSessionEnded):
		return http.StatusGone
	case errors.Is(err, game.ErrNoActiveQuestion),
		errors.Is(err, game.ErrNoActiveMechanic),
		errors.Is(err, game.ErrNoActiveRecipe),
		errors.Is(err, game.ErrPaused),
		errors.Is(err, game.ErrNoStationInRange):
		return http.StatusConflict
	case errors.Is(err, game.ErrInvalidChoice):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// session resolves the :id parameter to a session owned by the caller
func (k *KitchenAPI) session(c *gin.Context) (*game.Session, bool) {
	s, err := k.Sessions.Get(c.Param("id"))
	if err == nil && s.UserID != UserID(c) {
		err = game.ErrSessionNotFound
	}
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return s, true
}

// Health reports liveness and the in-process session stats
func (k *KitchenAPI) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"active_sessions": k.Sessions.Active(),
		"stats":           k.Monitor.Snapshot(),
	})
}

func (k *KitchenAPI) GetLayout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"width":     k.Layout.Width,
		"height":    k.Layout.Height,
		"tile_size": k.Layout.TileSize,
		"walls":     k.Layout.Walls,
		"stations":  k.Layout.Stations,
		"spawn":     k.Layout.PlayerSpawn,
	})
}

// ListQuestions queries the question source; answers are withheld
func (k *KitchenAPI) ListQuestions(c *gin.Context) {
	var q questions.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if q.StationType != "" && !q.StationType.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown station type: " + string(q.StationType)})
		return
	}

	qs, err := k.Questions.Fetch(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]models.QuestionView, len(qs))
	for i := range qs {
		views[i] = qs[i].View()
	}
	c.JSON(http.StatusOK, views)
}

// Session lifecycle handlers

func (k *KitchenAPI) StartSession(c *gin.Context) {
	s, err := k.Sessions.Start(UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.Snapshot())
}

func (k *KitchenAPI) GetSession(c *gin.Context) {
	s, ok := k.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (k *KitchenAPI) GetSessionStats(c *gin.Context) {
	s, ok := k.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Stats())
}

func (k *KitchenAPI) EndSession(c *gin.Context) {
	s, ok := k.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.End())
}

// Player input handlers

func (k *KitchenAPI) Move(c *gin.Context) {
	s, ok := k.session(c)
	if !ok {
		return
	}
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var err error
	switch {
	case req.StationID != "":
		err = s.MoveToStation(req.StationID)
	case req.X != nil && req.Y != nil:
		err = s.ClickAt(models.Point{X: *req.X, Y: *req.Y})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "either station_id or x and y are required"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (k *KitchenAPI) SetKeys(c *gin.Context) {
	s, ok := k.session(c)
	if !ok {
		return
	}
	var req KeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.SetKeys(req.DX, req.DY); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (k *KitchenAPI) Interact(c *gin.Context) {
	s, ok := k.session(c)
	if !ok {
		return
	}
	if err := s.Interact(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (k *KitchenAPI) Answer(c *gin.Context) {
	s, ok := k.session(c)
	if !ok {
		return
	}
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := s.Answer(req.ChoiceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (k *KitchenAPI) MechanicAction(c *gin.Context) {
	s, ok := k.session(c)
	if !ok {
		return
	}
	view, err := s.MechanicAction()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (k *KitchenAPI) AbandonMechanic(c *gin.Context) {
	s, ok := k.session(c)
	if !ok {
		return
	}
	if err := s.AbandonMechanic(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (k *KitchenAPI) DismissRecipe(c *gin.Context) {
	s, ok := k.session(c)
	if !ok {
		return
	}
	if err := s.DismissRecipe(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// Player history handlers

func (k *KitchenAPI) ListMySessions(c *gin.Context) {
	if k.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session history is not configured"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a number"})
		return
	}
	records, err := k.History.ListSessions(UserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (k *KitchenAPI) GetMyProfile(c *gin.Context) {
	if k.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session history is not configured"})
		return
	}
	profile, err := k.History.Profile(UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
