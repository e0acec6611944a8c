package http

import (
	"context"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"expenses/internal/app"
	"expenses/internal/core"
	"expenses/internal/log"
)

type createCategoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) listCategories(ctx context.Context) ([]core.Category, error) {
	if items, ok := s.categoriesCache.Get(listCacheKey); ok {
		return slices.Clone(items), nil
	}
	// The first read of an empty store seeds the defaults.
	items, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	// An empty list can be the store's degraded answer to a failed read.
	if len(items) > 0 {
		s.categoriesCache.Set(listCacheKey, slices.Clone(items))
	}
	return items, nil
}

func (s *Server) handleListCategories(c *gin.Context) {
	items, err := s.listCategories(c.Request.Context())
	if err != nil {
		s.fail(c, err, log.OpList)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed category: " + err.Error()})
		return
	}
	name, err := core.NormalizeCategoryName(req.Name)
	if err != nil {
		s.fail(c, err, log.OpCreate)
		return
	}
	ctx := c.Request.Context()
	cat, err := s.store.CreateCategory(ctx, name)
	if err != nil {
		s.fail(c, err, log.OpCreate)
		return
	}
	s.categoriesCache.Purge()
	s.events.LogCategoryCreated(ctx, cat.ID, cat.Name)
	s.emit(app.Event{Type: app.CategoryCreated, ID: cat.ID, Category: &cat})
	c.JSON(http.StatusCreated, cat)
}

// handleDeleteCategory leaves expenses carrying the name untouched.
func (s *Server) handleDeleteCategory(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	items, err := s.listCategories(ctx)
	if err != nil {
		s.fail(c, err, log.OpDelete)
		return
	}
	if !slices.ContainsFunc(items, func(cat core.Category) bool { return cat.ID == id }) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		s.fail(c, err, log.OpDelete)
		return
	}
	s.categoriesCache.Purge()
	log.FromContext(ctx).InfoContext(ctx, "Category deleted",
		log.FieldCategoryID, id,
		log.FieldOperation, log.OpDelete)
	s.emit(app.Event{Type: app.CategoryDeleted, ID: id})
	c.JSON(http.StatusOK, gin.H{})
}
