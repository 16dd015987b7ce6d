package handlers

import (
	"net/http"

	"github.com/anonto42/inkwell/backend/internal/apperrors"
	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/anonto42/inkwell/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeRepository    repositories.LikeRepository
	articleRepository repositories.ArticleRepository
	userRepository    repositories.UserRepository
	dispatcher        *services.Dispatcher
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeRepo repositories.LikeRepository, articleRepo repositories.ArticleRepository, userRepo repositories.UserRepository, dispatcher *services.Dispatcher) *LikeHandler {
	return &LikeHandler{
		likeRepository:    likeRepo,
		articleRepository: articleRepo,
		userRepository:    userRepo,
		dispatcher:        dispatcher,
	}
}

// RegisterLikeRoutes registers like routes keyed by article id
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("/:id", h.GetLikes)
	g.POST("/:id", h.LikeArticle, auth)
	g.DELETE("/:id", h.UnlikeArticle, auth)
}

type likeStatus struct {
	ArticleID string `json:"article_id"`
	Count     int64  `json:"count"`
	Liked     bool   `json:"liked,omitempty"`
}

func (h *LikeHandler) GetLikes(c echo.Context) error {
	articleID := c.Param("id")
	count, err := h.likeRepository.GetLikesCountByArticleID(c.Request().Context(), articleID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, likeStatus{ArticleID: articleID, Count: count})
}

// LikeArticle records a like and notifies the author and earlier likers.
func (h *LikeHandler) LikeArticle(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	articleID := c.Param("id")

	article, err := h.articleRepository.GetArticleByID(ctx, articleID)
	if err != nil {
		return err
	}
	if !article.Published {
		return apperrors.NotFound("article")
	}

	liker, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := h.likeRepository.CreateLike(ctx, &models.Like{ArticleID: articleID, UserID: userID}); err != nil {
		return err
	}
	if err := h.articleRepository.AdjustLikesCount(ctx, articleID, 1); err != nil {
		logger.WarnWithFields("failed to update like count", err, zap.String("article_id", articleID))
	}

	h.dispatcher.ArticleLiked(ctx, articleID, liker, article.Title)

	return h.status(c, articleID, true)
}

func (h *LikeHandler) UnlikeArticle(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	articleID := c.Param("id")

	if err := h.likeRepository.DeleteLike(ctx, articleID, userID); err != nil {
		return err
	}
	if err := h.articleRepository.AdjustLikesCount(ctx, articleID, -1); err != nil {
		logger.WarnWithFields("failed to update like count", err, zap.String("article_id", articleID))
	}
	return h.status(c, articleID, false)
}

func (h *LikeHandler) status(c echo.Context, articleID string, liked bool) error {
	count, err := h.likeRepository.GetLikesCountByArticleID(c.Request().Context(), articleID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, likeStatus{ArticleID: articleID, Count: count, Liked: liked})
}
