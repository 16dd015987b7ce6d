package handlers

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

type CategoryHandler struct {
	categoryRepository repositories.CategoryRepository
}

func NewCategoryHandler(categoryRepo repositories.CategoryRepository) *CategoryHandler {
	return &CategoryHandler{categoryRepository: categoryRepo}
}

func (h *CategoryHandler) RegisterCategoryRoutes(g *echo.Group, auth, admin echo.MiddlewareFunc) {
	g.GET("", h.ListCategories)
	g.POST("", h.CreateCategory, auth, admin)
	g.DELETE("/:id", h.DeleteCategory, auth, admin)
}

func (h *CategoryHandler) ListCategories(c echo.Context) error {
	categories, err := h.categoryRepository.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, categories)
}

// CreateCategory derives the slug from the name when none is supplied.
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req models.CreateCategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	slug := slugify(req.Slug)
	if slug == "" {
		slug = slugify(req.Name)
	}
	category := &models.Category{Name: strings.TrimSpace(req.Name), Slug: slug, Description: req.Description}
	if err := h.categoryRepository.CreateCategory(c.Request().Context(), category); err != nil {
		return err
	}
	return respond(c, http.StatusCreated, category)
}

func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	id, err := parseUintParam(c, "id", "category")
	if err != nil {
		return err
	}
	if err := h.categoryRepository.DeleteCategory(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// slugify lowercases s and joins its letter and digit runs with hyphens.
func slugify(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, "-")
}
