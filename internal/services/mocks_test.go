package services

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/javajoker/shop-backend/internal/models"
	"github.com/javajoker/shop-backend/internal/query"
)

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) Find(ctx context.Context, q query.Descriptor) ([]models.Product, error) {
	args := m.Called(ctx, q)
	products, _ := args.Get(0).([]models.Product)
	return products, args.Error(1)
}

func (m *mockProductRepo) Count(ctx context.Context, filter bson.M) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockProductRepo) FindAll(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]models.Product)
	return products, args.Error(1)
}

func (m *mockProductRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	args := m.Called(ctx, id)
	product, _ := args.Get(0).(*models.Product)
	return product, args.Error(1)
}

func (m *mockProductRepo) Create(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepo) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	args := m.Called(ctx, product)
	updated, _ := args.Get(0).(*models.Product)
	return updated, args.Error(1)
}

func (m *mockProductRepo) SaveReviews(ctx context.Context, product *models.Product) (*models.Product, error) {
	args := m.Called(ctx, product)
	saved, _ := args.Get(0).(*models.Product)
	return saved, args.Error(1)
}

func (m *mockProductRepo) AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *mockProductRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockImageStore struct {
	mock.Mock
}

func (m *mockImageStore) Upload(ctx context.Context, source, folder string) (models.Image, error) {
	args := m.Called(ctx, source, folder)
	return args.Get(0).(models.Image), args.Error(1)
}

func (m *mockImageStore) UploadFile(ctx context.Context, r io.Reader, filename, folder string) (models.Image, error) {
	args := m.Called(ctx, r, filename, folder)
	return args.Get(0).(models.Image), args.Error(1)
}

func (m *mockImageStore) Destroy(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	args := m.Called(ctx, amount, currency, metadata)
	pi, _ := args.Get(0).(*PaymentIntent)
	return pi, args.Error(1)
}

func (m *mockGateway) GetIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	args := m.Called(ctx, id)
	pi, _ := args.Get(0).(*PaymentIntent)
	return pi, args.Error(1)
}

func (m *mockGateway) Refund(ctx context.Context, intentID string, amount int64) (string, error) {
	args := m.Called(ctx, intentID, amount)
	return args.String(0), args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.Error(0)
}
