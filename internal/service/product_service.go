package service

import (
	"context"
	"strings"

	"sandhai/internal/entity"
	"sandhai/internal/repository"

	"github.com/google/uuid"
)

const defaultProductImage = "https://images.unsplash.com/photo-1557821552-17105176677c?w=400&h=200&fit=crop"

type ProductService struct {
	products repository.ProductRepository
}

func NewProductService(products repository.ProductRepository) *ProductService {
	return &ProductService{products: products}
}

type ProductInput struct {
	Name          string
	Category      string
	CategoryLink  *string
	Description   *string
	Price         float64
	OriginalPrice *float64
	Image         *string
	Badge         *string
	DealEnds      *string
}

type ProductUpdateInput struct {
	Name          *string
	Category      *string
	CategoryLink  *string
	Description   *string
	Price         *float64
	OriginalPrice *float64
	Image         *string
	Badge         *string
	DealEnds      *string
}

func (s *ProductService) ListAll(ctx context.Context) ([]entity.Product, error) {
	return s.products.ListAll(ctx)
}

func (s *ProductService) ListMine(ctx context.Context, ownerID uuid.UUID) ([]entity.Product, error) {
	return s.products.ListByOwner(ctx, ownerID)
}

func (s *ProductService) Create(ctx context.Context, ownerID uuid.UUID, input ProductInput) (*entity.Product, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Category) == "" {
		return nil, ErrInvalidInput
	}

	categoryLink := input.Category
	if input.CategoryLink != nil && *input.CategoryLink != "" {
		categoryLink = *input.CategoryLink
	}
	originalPrice := input.Price * 2
	if input.OriginalPrice != nil {
		originalPrice = *input.OriginalPrice
	}
	image := defaultProductImage
	if input.Image != nil && *input.Image != "" {
		image = *input.Image
	}

	product := &entity.Product{
		Name:          input.Name,
		Category:      input.Category,
		CategoryLink:  categoryLink,
		Description:   input.Description,
		Price:         input.Price,
		OriginalPrice: originalPrice,
		Rating:        5.0,
		ReviewCount:   0,
		Image:         &image,
		Badge:         input.Badge,
		DealEnds:      input.DealEnds,
		CreatedBy:     ownerID,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, ownerID uuid.UUID, productID uuid.UUID, input ProductUpdateInput) (*entity.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.CreatedBy != ownerID {
		return nil, ErrNotProductOwner
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.CategoryLink != nil {
		product.CategoryLink = *input.CategoryLink
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.OriginalPrice != nil {
		product.OriginalPrice = *input.OriginalPrice
	}
	if input.Image != nil {
		product.Image = input.Image
	}
	if input.Badge != nil {
		product.Badge = input.Badge
	}
	if input.DealEnds != nil {
		product.DealEnds = input.DealEnds
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, ownerID uuid.UUID, productID uuid.UUID) error {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	if product.CreatedBy != ownerID {
		return ErrNotProductOwner
	}
	return s.products.Delete(ctx, productID)
}
