package handler

import (
	"errors"
	"net/http"

	"sandhai/api/middleware"
	"sandhai/internal/dto"
	"sandhai/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type ProductHandler struct {
	Service  *service.ProductService
	Validate *validator.Validate
}

func NewProductHandler(svc *service.ProductService, validate *validator.Validate) *ProductHandler {
	return &ProductHandler{
		Service:  svc,
		Validate: validate,
	}
}

func (h *ProductHandler) ListAll(c echo.Context) error {
	products, err := h.Service.ListAll(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ProductResponsesFromEntities(products))
}

func (h *ProductHandler) ListMine(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	products, err := h.Service.ListMine(c.Request().Context(), user.ID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ProductResponsesFromEntities(products))
}

func (h *ProductHandler) Create(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	var req dto.ProductCreateRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	product, err := h.Service.Create(c.Request().Context(), user.ID, service.ProductInput{
		Name:          req.Name,
		Category:      req.Category,
		CategoryLink:  req.CategoryLink,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Image:         req.Image,
		Badge:         req.Badge,
		DealEnds:      req.DealEnds,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.ProductResponseFromEntity(product))
}

func (h *ProductHandler) Update(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid product id"))
	}
	var req dto.ProductUpdateRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	product, err := h.Service.Update(c.Request().Context(), user.ID, productID, service.ProductUpdateInput{
		Name:          req.Name,
		Category:      req.Category,
		CategoryLink:  req.CategoryLink,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Image:         req.Image,
		Badge:         req.Badge,
		DealEnds:      req.DealEnds,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ProductResponseFromEntity(product))
}

func (h *ProductHandler) Delete(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid product id"))
	}
	if err := h.Service.Delete(c.Request().Context(), user.ID, productID); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) validate(payload any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(payload)
}
