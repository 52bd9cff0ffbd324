package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/inventory-api/internal/api/metrics"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

// ItemHandler handles HTTP requests for catalog and stock operations.
type ItemHandler struct {
	service ports.ItemService
}

func NewItemHandler(service ports.ItemService) *ItemHandler {
	return &ItemHandler{service: service}
}

// List handles GET /api/sweets.
//
// @Summary      List all sweets
// @Tags         sweets
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   itemResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /api/sweets [get]
func (h *ItemHandler) List(c echo.Context) error {
	items, err := h.service.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toItemListResponse(items))
}

// Search handles GET /api/sweets/search. Only the first present criterion
// applies, in the order name, category, price range.
//
// @Summary      Search sweets
// @Tags         sweets
// @Produce      json
// @Security     BearerAuth
// @Param        name      query     string  false  "Case-insensitive name substring"
// @Param        category  query     string  false  "Case-insensitive category"
// @Param        minPrice  query     number  false  "Inclusive lower price bound (requires maxPrice)"
// @Param        maxPrice  query     number  false  "Inclusive upper price bound (requires minPrice)"
// @Success      200       {array}   itemResponse
// @Failure      400       {object}  ErrorResponse
// @Router       /api/sweets/search [get]
func (h *ItemHandler) Search(c echo.Context) error {
	q, err := toSearchQuery(searchParams{
		Name:     c.QueryParam("name"),
		Category: c.QueryParam("category"),
		MinPrice: c.QueryParam("minPrice"),
		MaxPrice: c.QueryParam("maxPrice"),
	})
	if err != nil {
		return err
	}

	items, err := h.service.Search(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toItemListResponse(items))
}

// Get handles GET /api/sweets/:id.
//
// @Summary      Get a sweet
// @Tags         sweets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  itemResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/sweets/{id} [get]
func (h *ItemHandler) Get(c echo.Context) error {
	item, err := h.service.GetItem(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toItemResponse(item))
}

// Create handles POST /api/sweets.
//
// @Summary      Add a sweet
// @Tags         sweets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      itemRequest  true  "Sweet details"
// @Success      201   {object}  itemResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /api/sweets [post]
func (h *ItemHandler) Create(c echo.Context) error {
	var req itemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	item, err := h.service.AddItem(c.Request().Context(), toItemFields(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toItemResponse(item))
}

// Update handles PUT /api/sweets/:id. Every field is overwritten.
//
// @Summary      Update a sweet
// @Tags         sweets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Item ID"
// @Param        body  body      itemRequest  true  "Sweet details"
// @Success      200   {object}  itemResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /api/sweets/{id} [put]
func (h *ItemHandler) Update(c echo.Context) error {
	var req itemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	item, err := h.service.UpdateItem(c.Request().Context(), c.Param("id"), toItemFields(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toItemResponse(item))
}

// Delete handles DELETE /api/sweets/:id.
//
// @Summary      Delete a sweet
// @Tags         sweets
// @Security     BearerAuth
// @Param        id   path  string  true  "Item ID"
// @Success      204
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/sweets/{id} [delete]
func (h *ItemHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteItem(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Purchase handles POST /api/sweets/:id/purchase?qty=N.
//
// @Summary      Purchase a sweet
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        id               path      string  true   "Item ID"
// @Param        qty              query     int     true   "Units to purchase"
// @Param        Idempotency-Key  header    string  false  "Replays the first result for repeated submissions"
// @Success      200              {object}  itemResponse
// @Failure      400              {object}  ErrorResponse
// @Failure      404              {object}  ErrorResponse
// @Failure      409              {object}  ErrorResponse
// @Failure      503              {object}  ErrorResponse
// @Router       /api/sweets/{id}/purchase [post]
func (h *ItemHandler) Purchase(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	qty, err := parseQty(c.QueryParam("qty"))
	if err != nil {
		countStock("purchase", err)
		return err
	}

	key := replayKey(userID, c.Request().Header.Get("Idempotency-Key"))
	item, err := h.service.Purchase(c.Request().Context(), c.Param("id"), qty, key)
	countStock("purchase", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toItemResponse(item))
}

// Restock handles POST /api/sweets/:id/restock?qty=N.
//
// @Summary      Restock a sweet
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item ID"
// @Param        qty  query     int     true  "Units to add"
// @Success      200  {object}  itemResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/sweets/{id}/restock [post]
func (h *ItemHandler) Restock(c echo.Context) error {
	qty, err := parseQty(c.QueryParam("qty"))
	if err != nil {
		countStock("restock", err)
		return err
	}

	item, err := h.service.Restock(c.Request().Context(), c.Param("id"), qty)
	countStock("restock", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toItemResponse(item))
}

func countStock(operation string, err error) {
	metrics.StockOperationsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
}
