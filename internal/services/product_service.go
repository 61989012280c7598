// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/javajoker/shop-backend/internal/config"
	"github.com/javajoker/shop-backend/internal/i18n"
	"github.com/javajoker/shop-backend/internal/models"
	"github.com/javajoker/shop-backend/internal/query"
	"github.com/javajoker/shop-backend/internal/repository"
	"github.com/javajoker/shop-backend/internal/utils"
)

type ProductService struct {
	repo    repository.ProductRepository
	images  ImageStore
	catalog config.CatalogConfig
}

type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"required"`
	Price       float64  `json:"price" validate:"gte=0"`
	Category    string   `json:"category" validate:"required"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,gte=0,lte=9999"`
	Images      []string `json:"images" validate:"required,min=1,dive,datauri"`
}

// UpdateProductRequest only touches the fields that are present. A
// non-nil Images becomes the full image list.
type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string  `json:"description,omitempty" validate:"omitempty,min=1"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,min=1"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,gte=0,lte=9999"`
	Images      []string `json:"images,omitempty" validate:"omitempty,min=1,dive,datauri"`
}

type ProductList struct {
	Products              []models.Product `json:"products"`
	ProductsCount         int64            `json:"productsCount"`
	ResultPerPage         int              `json:"resultPerPage"`
	FilteredProductsCount int64            `json:"filteredProductsCount"`
}

var productSortFields = []string{"price", "ratings", "createdAt", "name"}

func NewProductService(repo repository.ProductRepository, images ImageStore, catalog config.CatalogConfig) *ProductService {
	return &ProductService{
		repo:    repo,
		images:  images,
		catalog: catalog,
	}
}

// ListProducts runs the catalog listing. The page is fetched with the full
// composed query; filteredProductsCount comes from a second, unpaginated
// count over the same predicate.
func (s *ProductService) ListProducts(ctx context.Context, params url.Values) (*ProductList, error) {
	perPage := query.PerPage(params, s.catalog.ResultsPerPage, s.catalog.MaxPerPage)

	composer := query.New(params, query.ProductFields).
		Search().
		Filter().
		Sort(productSortFields...).
		Paginate(perPage)

	productsCount, err := s.repo.Count(ctx, bson.M{})
	if err != nil {
		return nil, utils.Internal(err)
	}
	filtered, err := s.repo.Count(ctx, composer.Predicate())
	if err != nil {
		return nil, utils.Internal(err)
	}
	products, err := s.repo.Find(ctx, composer.Query())
	if err != nil {
		return nil, utils.Internal(err)
	}

	return &ProductList{
		Products:              products,
		ProductsCount:         productsCount,
		ResultPerPage:         perPage,
		FilteredProductsCount: filtered,
	}, nil
}

func (s *ProductService) AdminListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, utils.Internal(err)
	}
	return products, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, productError(err)
	}
	return product, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, actor Actor, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, utils.InvalidInput(err)
	}

	images, err := uploadImages(ctx, s.images, req.Images, FolderProducts)
	if err != nil {
		return nil, err
	}

	stock := models.DefaultStock
	if req.Stock != nil {
		stock = *req.Stock
	}

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       stock,
		Images:      images,
		Reviews:     []models.Review{},
		User:        actor.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if destroyErr := destroyImages(ctx, s.images, images); destroyErr != nil {
			logrus.WithError(destroyErr).Warn("Failed to release images of unsaved product")
		}
		return nil, utils.Internal(err)
	}

	logrus.WithFields(logrus.Fields{"product_id": product.ID.Hex(), "user_id": actor.ID}).Info("Product created")
	return product, nil
}

// UpdateProduct applies the present fields. Dropped images are destroyed
// before new ones upload, so a failed upload leaves them destroyed.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, utils.InvalidInput(err)
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}

	if req.Images != nil {
		images, err := s.replaceImages(ctx, product.Images, req.Images)
		if err != nil {
			return nil, err
		}
		product.Images = images
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, productError(err)
	}
	return updated, nil
}

// replaceImages keeps current images whose URL is listed again, destroys
// the rest and uploads the new sources, preserving the requested order.
func (s *ProductService) replaceImages(ctx context.Context, current []models.Image, sources []string) ([]models.Image, error) {
	byURL := make(map[string]models.Image, len(current))
	for _, img := range current {
		byURL[img.URL] = img
	}
	requested := make(map[string]bool, len(sources))
	for _, src := range sources {
		requested[src] = true
	}

	var dropped []models.Image
	for _, img := range current {
		if !requested[img.URL] {
			dropped = append(dropped, img)
		}
	}
	if err := destroyImages(ctx, s.images, dropped); err != nil {
		return nil, err
	}

	images := make([]models.Image, 0, len(sources))
	for _, src := range sources {
		if img, ok := byURL[src]; ok {
			images = append(images, img)
			continue
		}
		img, err := s.images.Upload(ctx, src, FolderProducts)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

// DeleteProduct releases the product's images and removes it.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	if err := destroyImages(ctx, s.images, product.Images); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, product.ID); err != nil {
		return productError(err)
	}

	logrus.WithField("product_id", product.ID.Hex()).Info("Product deleted")
	return nil
}

// UploadImages stores multipart files and returns their references, for
// clients that upload before creating the product.
func (s *ProductService) UploadImages(ctx context.Context, files []*multipart.FileHeader) ([]models.Image, error) {
	if len(files) == 0 {
		return nil, utils.Validation(i18n.KeyProductImagesRequired)
	}

	images := make([]models.Image, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, utils.Validation(i18n.KeyImageInvalid)
		}
		img, err := s.images.UploadFile(ctx, f, fh.Filename, FolderProducts)
		f.Close()
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func productError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return utils.NotFound(i18n.KeyProductNotFound)
	}
	return utils.Internal(fmt.Errorf("product store: %w", err))
}
