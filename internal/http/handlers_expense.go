package http

import (
	"bytes"
	"context"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"expenses/internal/app"
	"expenses/internal/core"
	"expenses/internal/export"
	"expenses/internal/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// createExpenseRequest accepts the client-proposed id that store/remote
// sends; the store always assigns its own.
type createExpenseRequest struct {
	ID string `json:"id,omitempty"`
	core.NewExpense
}

// listExpenses returns the backing collection in creation order.
func (s *Server) listExpenses(ctx context.Context) ([]core.Expense, error) {
	if items, ok := s.expensesCache.Get(listCacheKey); ok {
		log.FromContext(ctx).DebugContext(ctx, "Expenses cache hit", log.FieldCount, len(items))
		return slices.Clone(items), nil
	}
	items, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}
	s.expensesCache.Set(listCacheKey, slices.Clone(items))
	return items, nil
}

// handleListExpenses honours the same start/end/category/min/max query as
// the export endpoint; without a query the whole collection is returned.
func (s *Server) handleListExpenses(c *gin.Context) {
	f, err := core.ParseFilter(c.Request.URL.Query())
	if err != nil {
		s.fail(c, err, log.OpList)
		return
	}
	items, err := s.listExpenses(c.Request.Context())
	if err != nil {
		s.fail(c, err, log.OpList)
		return
	}
	if !f.IsEmpty() {
		items = core.Apply(items, f, s.loc)
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) handleCreateExpense(c *gin.Context) {
	var req createExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed expense: " + err.Error()})
		return
	}
	ctx := c.Request.Context()
	e, err := s.store.CreateExpense(ctx, req.NewExpense)
	if err != nil {
		s.fail(c, err, log.OpCreate)
		return
	}
	s.expensesCache.Purge()
	s.events.LogExpenseCreated(ctx, e.ID, e.Amount.String(), e.Category)
	s.emit(app.Event{Type: app.ExpenseCreated, ID: e.ID, Expense: &e})
	c.JSON(http.StatusCreated, e)
}

// handleDeleteExpense answers 404 for unknown ids even though the local
// store itself treats them as a no-op.
func (s *Server) handleDeleteExpense(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	items, err := s.listExpenses(ctx)
	if err != nil {
		s.fail(c, err, log.OpDelete)
		return
	}
	if !slices.ContainsFunc(items, func(e core.Expense) bool { return e.ID == id }) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "expense not found"})
		return
	}
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		s.fail(c, err, log.OpDelete)
		return
	}
	s.expensesCache.Purge()
	log.FromContext(ctx).InfoContext(ctx, "Expense deleted",
		log.FieldExpenseID, id,
		log.FieldOperation, log.OpDelete)
	s.emit(app.Event{Type: app.ExpenseDeleted, ID: id})
	c.JSON(http.StatusOK, gin.H{})
}

// handleExport streams an xlsx of the filtered collection, newest first.
func (s *Server) handleExport(c *gin.Context) {
	f, err := core.ParseFilter(c.Request.URL.Query())
	if err != nil {
		s.fail(c, err, log.OpExport)
		return
	}
	items, err := s.listExpenses(c.Request.Context())
	if err != nil {
		s.fail(c, err, log.OpExport)
		return
	}
	rows := core.Apply(items, f, s.loc)
	slices.Reverse(rows)
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, rows, s.loc); err != nil {
		s.fail(c, err, log.OpExport)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.DefaultFileName+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// handleDashboard aggregates the full, unfiltered collection.
func (s *Server) handleDashboard(c *gin.Context) {
	items, err := s.listExpenses(c.Request.Context())
	if err != nil {
		s.fail(c, err, log.OpList)
		return
	}
	c.JSON(http.StatusOK, core.Summarize(items, s.loc))
}
