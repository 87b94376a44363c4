package dto

import (
	"time"

	"sandhai/internal/entity"
)

type ProductCreateRequest struct {
	Name          string   `json:"name" validate:"required"`
	Category      string   `json:"category" validate:"required"`
	CategoryLink  *string  `json:"category_link"`
	Description   *string  `json:"description"`
	Price         float64  `json:"price" validate:"required,gt=0"`
	OriginalPrice *float64 `json:"original_price"`
	Image         *string  `json:"image"`
	Badge         *string  `json:"badge"`
	DealEnds      *string  `json:"deal_ends"`
}

type ProductUpdateRequest struct {
	Name          *string  `json:"name"`
	Category      *string  `json:"category"`
	CategoryLink  *string  `json:"category_link"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price" validate:"omitempty,gt=0"`
	OriginalPrice *float64 `json:"original_price"`
	Image         *string  `json:"image"`
	Badge         *string  `json:"badge"`
	DealEnds      *string  `json:"deal_ends"`
}

type ProductResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Category      string     `json:"category"`
	CategoryLink  string     `json:"category_link,omitempty"`
	Description   *string    `json:"description"`
	Price         float64    `json:"price"`
	OriginalPrice float64    `json:"original_price"`
	Rating        float64    `json:"rating"`
	ReviewCount   int        `json:"review_count"`
	Image         *string    `json:"image"`
	Badge         *string    `json:"badge"`
	DealEnds      *string    `json:"deal_ends"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

func ProductResponseFromEntity(product *entity.Product) ProductResponse {
	response := ProductResponse{
		ID:            product.ID.String(),
		Name:          product.Name,
		Category:      product.Category,
		CategoryLink:  product.CategoryLink,
		Description:   product.Description,
		Price:         product.Price,
		OriginalPrice: product.OriginalPrice,
		Rating:        product.Rating,
		ReviewCount:   product.ReviewCount,
		Image:         product.Image,
		Badge:         product.Badge,
		DealEnds:      product.DealEnds,
		CreatedBy:     product.CreatedBy.String(),
		CreatedAt:     product.CreatedAt,
	}
	if !product.UpdatedAt.IsZero() {
		updatedAt := product.UpdatedAt
		response.UpdatedAt = &updatedAt
	}
	return response
}

func ProductResponsesFromEntities(products []entity.Product) []ProductResponse {
	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, ProductResponseFromEntity(&products[i]))
	}
	return responses
}
