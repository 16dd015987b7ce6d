package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/inkwell/backend/internal/apperrors"
	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/anonto42/inkwell/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	defaultArticlePageSize = services.DefaultPageSize
	maxArticlePageSize     = 50
)

// ArticleHandler handles HTTP requests related to articles
type ArticleHandler struct {
	articleRepository  repositories.ArticleRepository
	userRepository     repositories.UserRepository
	categoryRepository repositories.CategoryRepository
	dispatcher         *services.Dispatcher
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(articleRepo repositories.ArticleRepository, userRepo repositories.UserRepository, categoryRepo repositories.CategoryRepository, dispatcher *services.Dispatcher) *ArticleHandler {
	return &ArticleHandler{
		articleRepository:  articleRepo,
		userRepository:     userRepo,
		categoryRepository: categoryRepo,
		dispatcher:         dispatcher,
	}
}

// RegisterArticleRoutes registers article routes. Writes require both the
// auth and admin middleware.
func (h *ArticleHandler) RegisterArticleRoutes(g *echo.Group, auth, admin echo.MiddlewareFunc) {
	g.GET("", h.ListArticles)
	g.GET("/:id", h.GetArticle)
	g.POST("", h.CreateArticle, auth, admin)
	g.PUT("/:id/publish", h.PublishArticle, auth, admin)
	g.DELETE("/:id", h.DeleteArticle, auth, admin)
}

// ListArticles returns a page of published articles, optionally filtered by
// category.
func (h *ArticleHandler) ListArticles(c echo.Context) error {
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(c, "limit", defaultArticlePageSize)
	if limit < 1 {
		limit = defaultArticlePageSize
	}
	if limit > maxArticlePageSize {
		limit = maxArticlePageSize
	}

	filter := models.ArticleFilter{PublishedOnly: true}
	if category := queryInt(c, "category", 0); category > 0 {
		filter.CategoryID = uint(category)
	}

	articles, total, err := h.articleRepository.ListArticles(c.Request().Context(), filter, int64((page-1)*limit), int64(limit))
	if err != nil {
		return err
	}
	return respondWithMeta(c, http.StatusOK, articles, newPageMeta(page, limit, total))
}

// GetArticle returns a published article and counts the view. Drafts are
// reported as missing.
func (h *ArticleHandler) GetArticle(c echo.Context) error {
	ctx := c.Request().Context()
	article, err := h.articleRepository.GetArticleByID(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if !article.Published {
		return apperrors.NotFound("article")
	}

	if err := h.articleRepository.IncrementViews(ctx, c.Param("id")); err != nil {
		logger.WarnWithFields("failed to count article view", err, zap.String("article_id", c.Param("id")))
	} else {
		article.Views++
	}
	return respond(c, http.StatusOK, article)
}

func (h *ArticleHandler) CreateArticle(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req models.CreateArticleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	if req.CategoryID != 0 {
		if _, err := h.categoryRepository.GetCategoryByID(ctx, req.CategoryID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.Validation("category_id", "unknown category")
			}
			return err
		}
	}

	author, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	article := &models.Article{
		AuthorID:   userID,
		CategoryID: req.CategoryID,
		Title:      req.Title,
		Excerpt:    req.Excerpt,
		Content:    req.Content,
		CoverImage: req.CoverImage,
		Published:  req.Published,
	}
	if err := h.articleRepository.CreateArticle(ctx, article); err != nil {
		return err
	}

	if article.Published {
		h.dispatcher.ArticlePublished(ctx, article, author.Name)
	}
	return respond(c, http.StatusCreated, article)
}

// PublishArticle turns a draft into a published article and notifies readers.
func (h *ArticleHandler) PublishArticle(c echo.Context) error {
	ctx := c.Request().Context()
	article, err := h.articleRepository.PublishArticle(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	authorName := ""
	if author, err := h.userRepository.GetUserByID(ctx, article.AuthorID); err == nil {
		authorName = author.Name
	} else {
		logger.WarnWithFields("failed to load article author", err, zap.Uint("author_id", article.AuthorID))
	}
	h.dispatcher.ArticlePublished(ctx, article, authorName)
	return respond(c, http.StatusOK, article)
}

func (h *ArticleHandler) DeleteArticle(c echo.Context) error {
	if err := h.articleRepository.DeleteArticle(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
