package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/muzz-match/internal/middleware"
	"github.com/oggyb/muzz-match/internal/service/matchmaking"
)

// MatchHandler exposes discovery, likes and matches over HTTP.
type MatchHandler struct {
	svc *matchmaking.Service
}

func NewMatchHandler(svc *matchmaking.Service) *MatchHandler {
	return &MatchHandler{svc: svc}
}

// RegisterRoutes mounts every route behind authentication.
func (h *MatchHandler) RegisterRoutes(_, protected *gin.RouterGroup) {
	protected.GET("/users/feed/discover", h.Discover)
	protected.POST("/users/like/:targetId", h.Like)
	protected.GET("/users/matches/all", h.ListMatches)
	protected.GET("/users/likes/received", h.ListLikers)
	protected.GET("/users/likes/count", h.CountLikers)
	protected.GET("/matches/:matchId", h.GetMatch)
}

func (h *MatchHandler) Discover(c *gin.Context) {
	users, err := h.svc.Discover(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *MatchHandler) Like(c *gin.Context) {
	res, err := h.svc.Like(c.Request.Context(), middleware.UserID(c), c.Param("targetId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": matchmaking.LikeMessage(res),
		"isMatch": res.IsMatch,
		"matchId": res.MatchID,
	})
}

func (h *MatchHandler) ListMatches(c *gin.Context) {
	users, err := h.svc.ListMatches(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *MatchHandler) GetMatch(c *gin.Context) {
	m, err := h.svc.GetMatch(c.Request.Context(), c.Param("matchId"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MatchHandler) ListLikers(c *gin.Context) {
	var token *string
	if t := c.Query("pagination_token"); t != "" {
		token = &t
	}
	limit := 0
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	likers, next, err := h.svc.ListLikers(c.Request.Context(), middleware.UserID(c), token, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"likers":              likers,
		"nextPaginationToken": next,
	})
}

func (h *MatchHandler) CountLikers(c *gin.Context) {
	n, err := h.svc.CountLikers(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}
