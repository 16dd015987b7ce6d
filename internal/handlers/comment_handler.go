package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/inkwell/backend/internal/apperrors"
	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/internal/middleware"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/anonto42/inkwell/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	articleRepository repositories.ArticleRepository
	userRepository    repositories.UserRepository
	roles             middleware.RoleLookup
	dispatcher        *services.Dispatcher
	adminTimeout      time.Duration
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(
	commentRepo repositories.CommentRepository,
	articleRepo repositories.ArticleRepository,
	userRepo repositories.UserRepository,
	roles middleware.RoleLookup,
	dispatcher *services.Dispatcher,
	adminTimeout time.Duration,
) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		articleRepository: articleRepo,
		userRepository:    userRepo,
		roles:             roles,
		dispatcher:        dispatcher,
		adminTimeout:      adminTimeout,
	}
}

// RegisterCommentRoutes registers comment routes. GET and POST take an
// article id, DELETE takes a comment id.
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("/:id", h.GetComments)
	g.POST("/:id", h.CreateComment, auth)
	g.DELETE("/:id", h.DeleteComment, auth)
}

// GetComments lists an article's comments oldest first with author details.
func (h *CommentHandler) GetComments(c echo.Context) error {
	ctx := c.Request().Context()
	comments, err := h.commentRepository.GetCommentsByArticleID(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	ids := make([]uint, 0, len(comments))
	for _, comment := range comments {
		ids = append(ids, comment.UserID)
	}
	authors := map[uint]models.UserCompact{}
	if len(ids) > 0 {
		users, err := h.userRepository.GetUsersByIDs(ctx, ids)
		if err != nil {
			return err
		}
		for _, u := range users {
			authors[u.ID] = u.ToCompact()
		}
	}

	result := make([]models.CommentWithAuthor, 0, len(comments))
	for _, comment := range comments {
		item := models.CommentWithAuthor{Comment: comment}
		if author, ok := authors[comment.UserID]; ok {
			item.Author = &author
		}
		result = append(result, item)
	}
	return respond(c, http.StatusOK, result)
}

// CreateComment adds a comment to a published article and notifies the
// author and earlier commenters.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
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

	commenter, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	comment := &models.Comment{ArticleID: articleID, UserID: userID, Content: req.Content}
	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		return err
	}
	if err := h.articleRepository.AdjustCommentsCount(ctx, articleID, 1); err != nil {
		logger.WarnWithFields("failed to update comment count", err, zap.String("article_id", articleID))
	}

	h.dispatcher.ArticleCommented(ctx, comment, commenter, article.Title)

	compact := commenter.ToCompact()
	return respond(c, http.StatusCreated, models.CommentWithAuthor{Comment: *comment, Author: &compact})
}

// DeleteComment removes a comment. Only its author or an admin may do so.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	commentID, err := parseUintParam(c, "id", "comment")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	comment, err := h.commentRepository.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID && !middleware.IsAdmin(ctx, h.roles, userID, h.adminTimeout) {
		return apperrors.Forbidden("you can only delete your own comments")
	}

	if err := h.commentRepository.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	if err := h.articleRepository.AdjustCommentsCount(ctx, comment.ArticleID, -1); err != nil {
		logger.WarnWithFields("failed to update comment count", err, zap.String("article_id", comment.ArticleID))
	}
	return c.NoContent(http.StatusNoContent)
}
