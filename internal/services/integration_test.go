//go:build integration

package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/javajoker/shop-backend/internal/config"
	"github.com/javajoker/shop-backend/internal/database"
	"github.com/javajoker/shop-backend/internal/models"
	"github.com/javajoker/shop-backend/internal/repository"
	"github.com/javajoker/shop-backend/internal/utils"
)

type ServicesSuite struct {
	suite.Suite
	ctx        context.Context
	containers []testcontainers.Container
	db         *gorm.DB
	client     *mongo.Client
	mdb        *mongo.Database
	products   repository.ProductRepository
	images     *mockImageStore
	mailer     *mockMailer
	gateway    *mockGateway

	auth     *AuthService
	users    *UserService
	orders   *OrderService
	payments *PaymentService
	admin    *AdminService
}

func (s *ServicesSuite) start(req testcontainers.ContainerRequest, port string) (string, string) {
	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	s.Require().NoError(err)
	s.containers = append(s.containers, container)

	host, err := container.Host(s.ctx)
	s.Require().NoError(err)
	mapped, err := container.MappedPort(s.ctx, nat.Port(port))
	s.Require().NoError(err)
	return host, mapped.Port()
}

func (s *ServicesSuite) SetupSuite() {
	s.ctx = context.Background()

	pgHost, pgPort := s.start(testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432")

	db, err := database.Initialize(config.DatabaseConfig{
		Host: pgHost, Port: pgPort, User: "testuser", Password: "testpass", Database: "testdb",
		SSLMode: "disable", MaxOpenConns: 5, MaxIdleConns: 2, MaxLifetime: 60, LogLevel: "silent",
	})
	s.Require().NoError(err)
	s.Require().NoError(database.RunMigrations(db))
	s.db = db

	mongoHost, mongoPort := s.start(testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
	}, "27017")

	client, mdb, err := database.ConnectMongo(s.ctx, config.MongoConfig{
		URI: "mongodb://" + mongoHost + ":" + mongoPort, Database: "shop_test", ConnectTimeout: 20,
	})
	s.Require().NoError(err)
	s.client = client
	s.mdb = mdb
	s.products = repository.NewProductRepository(mdb)
}

func (s *ServicesSuite) TearDownSuite() {
	database.DisconnectMongo(s.ctx, s.client)
	database.Close(s.db)
	for _, c := range s.containers {
		_ = c.Terminate(s.ctx)
	}
}

func (s *ServicesSuite) SetupTest() {
	s.Require().NoError(s.db.Exec("TRUNCATE audit_logs, order_items, orders, users CASCADE").Error)
	s.Require().NoError(s.mdb.Collection(repository.ProductCollection).Drop(s.ctx))

	s.images = &mockImageStore{}
	s.images.On("Destroy", mock.Anything, mock.Anything).Return(nil)
	s.mailer = &mockMailer{}
	s.gateway = &mockGateway{}

	tokens := utils.NewTokenManager("integration-secret", 1)
	s.auth = NewAuthService(s.db, tokens, s.images, NewNotificationService(s.mailer, "http://shop.local"))
	s.users = NewUserService(s.db, s.images)
	s.orders = NewOrderService(s.db, s.products, 18)
	s.payments = NewPaymentService(s.db, s.gateway, config.PaymentConfig{Currency: "inr"})
	s.admin = NewAdminService(s.db, s.products)
}

func (s *ServicesSuite) register(name, email string) Actor {
	res, err := s.auth.Register(s.ctx, &RegisterRequest{Name: name, Email: email, Password: "password123"})
	s.Require().NoError(err)
	return Actor{ID: res.User.ID.String(), Name: res.User.Name, Role: res.User.Role}
}

func (s *ServicesSuite) seedProduct(name string, price float64, stock int) *models.Product {
	p := &models.Product{
		Name: name, Description: name, Price: price, Category: "Home", Stock: stock,
		Images:  []models.Image{{PublicID: "products/" + name, URL: "http://cdn/" + name}},
		Reviews: []models.Review{}, CreatedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.products.Create(s.ctx, p))
	return p
}

var testShipping = models.ShippingInfo{
	Address: "1 Main St", City: "Pune", State: "MH", Country: "IN", PinCode: "411001", PhoneNo: "9999999999",
}

func (s *ServicesSuite) TestAuth_RegisterLoginAndDuplicate() {
	s.register("Alice", "Alice@Example.com ")

	res, err := s.auth.Login(s.ctx, &LoginRequest{Email: "alice@example.com", Password: "password123"})
	s.Require().NoError(err)
	s.NotEmpty(res.Token)
	s.Equal(models.RoleUser, res.User.Role)

	_, err = s.auth.Login(s.ctx, &LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	s.True(utils.IsKind(err, utils.KindUnauthorized))

	_, err = s.auth.Register(s.ctx, &RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "password123"})
	s.True(utils.IsKind(err, utils.KindConflict))
}

func (s *ServicesSuite) TestAuth_ForgotAndResetPassword() {
	s.register("Bobby", "bob@example.com")

	var body string
	s.mailer.On("Send", mock.Anything, "bob@example.com", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { body = args.String(3) }).
		Return(nil)
	s.Require().NoError(s.auth.ForgotPassword(s.ctx, &ForgotPasswordRequest{Email: "bob@example.com"}))

	match := regexp.MustCompile(`/password/reset/([0-9A-Za-z]+)`).FindStringSubmatch(body)
	s.Require().Len(match, 2)
	token := match[1]

	_, err := s.auth.ResetPassword(s.ctx, token, &ResetPasswordRequest{Password: "newpass123", ConfirmPassword: "other"})
	s.True(utils.IsKind(err, utils.KindValidation))

	_, err = s.auth.ResetPassword(s.ctx, token, &ResetPasswordRequest{Password: "newpass123", ConfirmPassword: "newpass123"})
	s.Require().NoError(err)

	_, err = s.auth.ResetPassword(s.ctx, token, &ResetPasswordRequest{Password: "newpass123", ConfirmPassword: "newpass123"})
	s.True(utils.IsKind(err, utils.KindValidation), "token is single use")

	_, err = s.auth.Login(s.ctx, &LoginRequest{Email: "bob@example.com", Password: "newpass123"})
	s.NoError(err)
}

func (s *ServicesSuite) TestAuth_ForgotPasswordMailFailureClearsToken() {
	actor := s.register("Carol", "carol@example.com")
	s.mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	err := s.auth.ForgotPassword(s.ctx, &ForgotPasswordRequest{Email: "carol@example.com"})
	s.True(utils.IsKind(err, utils.KindUpstream))

	user, err := s.users.GetUser(s.ctx, actor.ID)
	s.Require().NoError(err)
	s.Empty(user.ResetPasswordToken)
	s.Nil(user.ResetPasswordExpire)
}

func (s *ServicesSuite) TestAuth_UpdatePassword() {
	actor := s.register("Danny", "dan@example.com")

	_, err := s.auth.UpdatePassword(s.ctx, actor, &UpdatePasswordRequest{
		OldPassword: "nope", NewPassword: "changed123", ConfirmPassword: "changed123",
	})
	s.True(utils.IsKind(err, utils.KindValidation))

	_, err = s.auth.UpdatePassword(s.ctx, actor, &UpdatePasswordRequest{
		OldPassword: "password123", NewPassword: "changed123", ConfirmPassword: "changed123",
	})
	s.Require().NoError(err)

	_, err = s.auth.Login(s.ctx, &LoginRequest{Email: "dan@example.com", Password: "changed123"})
	s.NoError(err)
}

func (s *ServicesSuite) TestUsers_AdminManagement() {
	first := s.register("Erin1", "erin@example.com")
	s.register("Frank", "frank@example.com")

	users, total, err := s.users.ListUsers(s.ctx, utils.PageRequest{Page: 1, Limit: 1, Order: "asc"})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Len(users, 1)

	updated, err := s.users.UpdateUser(s.ctx, first.ID, &UpdateUserRequest{Name: "Erin Admin", Email: "erin@example.com", Role: models.RoleAdmin})
	s.Require().NoError(err)
	s.True(updated.IsAdmin())

	_, err = s.users.UpdateUser(s.ctx, first.ID, &UpdateUserRequest{Name: "Erin Admin", Email: "frank@example.com", Role: models.RoleAdmin})
	s.True(utils.IsKind(err, utils.KindConflict))

	s.Require().NoError(s.users.DeleteUser(s.ctx, first.ID))
	_, err = s.users.GetUser(s.ctx, first.ID)
	s.True(utils.IsKind(err, utils.KindNotFound))

	_, err = s.users.GetUser(s.ctx, uuid.NewString())
	s.True(utils.IsKind(err, utils.KindNotFound))
}

func (s *ServicesSuite) TestOrders_CreatePricesAndStock() {
	buyer := s.register("Grace", "grace@example.com")
	lamp := s.seedProduct("lamp", 300, 5)
	desk := s.seedProduct("desk", 450.5, 1)

	order, err := s.orders.CreateOrder(s.ctx, buyer, &CreateOrderRequest{
		ShippingInfo: testShipping,
		OrderItems: []OrderItemRequest{
			{Product: lamp.ID.Hex(), Quantity: 2},
			{Product: desk.ID.Hex(), Quantity: 1},
		},
	})
	s.Require().NoError(err)
	s.True(order.ItemsPrice.Equal(decimal.RequireFromString("1050.5")))
	s.True(order.ShippingPrice.IsZero())
	s.True(order.TaxPrice.Equal(decimal.RequireFromString("189.09")))
	s.True(order.TotalPrice.Equal(decimal.RequireFromString("1239.59")))
	s.Equal("http://cdn/lamp", order.OrderItems[0].Image)

	_, err = s.orders.CreateOrder(s.ctx, buyer, &CreateOrderRequest{
		ShippingInfo: testShipping,
		OrderItems:   []OrderItemRequest{{Product: desk.ID.Hex(), Quantity: 2}},
	})
	s.True(utils.IsKind(err, utils.KindValidation))

	shipped, err := s.orders.UpdateOrderStatus(s.ctx, order.ID.String(), &UpdateOrderStatusRequest{Status: models.OrderStatusShipped})
	s.Require().NoError(err)
	s.Equal(models.OrderStatusShipped, shipped.OrderStatus)

	got, err := s.products.FindByID(s.ctx, lamp.ID)
	s.Require().NoError(err)
	s.Equal(3, got.Stock)

	// shipping again does not take stock twice
	_, err = s.orders.UpdateOrderStatus(s.ctx, order.ID.String(), &UpdateOrderStatusRequest{Status: models.OrderStatusShipped})
	s.Require().NoError(err)
	got, err = s.products.FindByID(s.ctx, lamp.ID)
	s.Require().NoError(err)
	s.Equal(3, got.Stock)

	// a shipped order cannot go back and be shipped again
	_, err = s.orders.UpdateOrderStatus(s.ctx, order.ID.String(), &UpdateOrderStatusRequest{Status: models.OrderStatusProcessing})
	s.True(utils.IsKind(err, utils.KindValidation))
	got, err = s.products.FindByID(s.ctx, lamp.ID)
	s.Require().NoError(err)
	s.Equal(3, got.Stock)

	delivered, err := s.orders.UpdateOrderStatus(s.ctx, order.ID.String(), &UpdateOrderStatusRequest{Status: models.OrderStatusDelivered})
	s.Require().NoError(err)
	s.NotNil(delivered.DeliveredAt)
	got, err = s.products.FindByID(s.ctx, lamp.ID)
	s.Require().NoError(err)
	s.Equal(3, got.Stock)

	// delivering straight from processing takes stock once
	direct, err := s.orders.CreateOrder(s.ctx, buyer, &CreateOrderRequest{
		ShippingInfo: testShipping,
		OrderItems:   []OrderItemRequest{{Product: lamp.ID.Hex(), Quantity: 1}},
	})
	s.Require().NoError(err)
	_, err = s.orders.UpdateOrderStatus(s.ctx, direct.ID.String(), &UpdateOrderStatusRequest{Status: models.OrderStatusDelivered})
	s.Require().NoError(err)
	got, err = s.products.FindByID(s.ctx, lamp.ID)
	s.Require().NoError(err)
	s.Equal(2, got.Stock)

	_, err = s.orders.UpdateOrderStatus(s.ctx, order.ID.String(), &UpdateOrderStatusRequest{Status: models.OrderStatusShipped})
	s.True(utils.IsKind(err, utils.KindValidation))
}

func (s *ServicesSuite) TestOrders_AccessAndAdminListing() {
	owner := s.register("Heidi", "heidi@example.com")
	other := s.register("Ivann", "ivan@example.com")
	lamp := s.seedProduct("lamp", 100, 10)

	order, err := s.orders.CreateOrder(s.ctx, owner, &CreateOrderRequest{
		ShippingInfo: testShipping,
		OrderItems:   []OrderItemRequest{{Product: lamp.ID.Hex(), Quantity: 1}},
	})
	s.Require().NoError(err)

	_, err = s.orders.GetOrder(s.ctx, other, order.ID.String())
	s.True(utils.IsKind(err, utils.KindForbidden))
	got, err := s.orders.GetOrder(s.ctx, Actor{ID: other.ID, Role: models.RoleAdmin}, order.ID.String())
	s.Require().NoError(err)
	s.Require().NotNil(got.User)
	s.Equal("heidi@example.com", got.User.Email)

	mine, err := s.orders.MyOrders(s.ctx, owner)
	s.Require().NoError(err)
	s.Len(mine, 1)
	theirs, err := s.orders.MyOrders(s.ctx, other)
	s.Require().NoError(err)
	s.Empty(theirs)

	list, err := s.orders.ListOrders(s.ctx, utils.PageRequest{Page: 1, Limit: 10, Order: "desc"})
	s.Require().NoError(err)
	s.Equal(int64(1), list.Total)
	s.True(list.TotalAmount.Equal(order.TotalPrice))

	s.Require().NoError(s.orders.DeleteOrder(s.ctx, order.ID.String()))
	_, err = s.orders.GetOrder(s.ctx, owner, order.ID.String())
	s.True(utils.IsKind(err, utils.KindNotFound))
}

func (s *ServicesSuite) TestPayments_ConfirmAndRefund() {
	owner := s.register("Judy1", "judy@example.com")
	lamp := s.seedProduct("lamp", 1100, 3)

	order, err := s.orders.CreateOrder(s.ctx, owner, &CreateOrderRequest{
		ShippingInfo: testShipping,
		OrderItems:   []OrderItemRequest{{Product: lamp.ID.Hex(), Quantity: 1}},
	})
	s.Require().NoError(err)

	s.gateway.On("GetIntent", mock.Anything, "pi_short").
		Return(&PaymentIntent{ID: "pi_short", Status: "succeeded", Amount: 100}, nil)
	s.gateway.On("GetIntent", mock.Anything, "pi_ok").
		Return(&PaymentIntent{ID: "pi_ok", Status: "succeeded", Amount: order.MinorUnits()}, nil)
	s.gateway.On("Refund", mock.Anything, "pi_ok", order.MinorUnits()).Return("re_1", nil)

	_, err = s.payments.ConfirmOrderPayment(s.ctx, owner, &ConfirmPaymentRequest{OrderID: order.ID, PaymentIntentID: "pi_short"})
	s.True(utils.IsKind(err, utils.KindValidation))

	paid, err := s.payments.ConfirmOrderPayment(s.ctx, owner, &ConfirmPaymentRequest{OrderID: order.ID, PaymentIntentID: "pi_ok"})
	s.Require().NoError(err)
	s.Equal(models.PaymentStatusSucceeded, paid.PaymentInfo.Status)
	s.NotNil(paid.PaidAt)

	// a paid order cannot be confirmed again
	_, err = s.payments.ConfirmOrderPayment(s.ctx, owner, &ConfirmPaymentRequest{OrderID: order.ID, PaymentIntentID: "pi_ok"})
	s.True(utils.IsKind(err, utils.KindConflict))

	// the same intent cannot pay a second order with the same total
	twin, err := s.orders.CreateOrder(s.ctx, owner, &CreateOrderRequest{
		ShippingInfo: testShipping,
		OrderItems:   []OrderItemRequest{{Product: lamp.ID.Hex(), Quantity: 1}},
	})
	s.Require().NoError(err)
	s.Require().Equal(order.MinorUnits(), twin.MinorUnits())
	_, err = s.payments.ConfirmOrderPayment(s.ctx, owner, &ConfirmPaymentRequest{OrderID: twin.ID, PaymentIntentID: "pi_ok"})
	s.True(utils.IsKind(err, utils.KindConflict))
	s.Require().NoError(s.db.Delete(&models.Order{}, "id = ?", twin.ID).Error)

	stats, err := s.admin.GetDashboardStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), stats.TotalUsers)
	s.Equal(int64(1), stats.TotalProducts)
	s.Equal(int64(1), stats.TotalOrders)
	s.Equal(int64(1), stats.OrdersByStatus[string(models.OrderStatusProcessing)])
	s.True(stats.TotalRevenue.Equal(order.TotalPrice))
	s.True(stats.MonthlyRevenue.Equal(order.TotalPrice))

	refunded, err := s.payments.RefundOrder(s.ctx, &RefundRequest{OrderID: order.ID})
	s.Require().NoError(err)
	s.Equal(models.PaymentStatusRefunded, refunded.PaymentInfo.Status)

	_, err = s.payments.RefundOrder(s.ctx, &RefundRequest{OrderID: order.ID})
	s.True(utils.IsKind(err, utils.KindValidation))
}

func (s *ServicesSuite) TestAdmin_AuditLogs() {
	actor := s.register("Karl1", "karl@example.com")
	id := uuid.MustParse(actor.ID)

	for _, action := range []string{"PUT /api/v1/admin/product/1", "DELETE /api/v1/admin/user/2"} {
		s.Require().NoError(s.admin.RecordAudit(s.ctx, &models.AuditLog{
			UserID: &id, Action: action, ResourceType: "product", StatusCode: 200,
			ChangedFields: []string{"price"},
		}))
	}

	logs, total, err := s.admin.ListAuditLogs(s.ctx, utils.PageRequest{Page: 1, Limit: 10, Order: "asc"})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Len(logs, 2)
	s.Equal([]string{"price"}, []string(logs[0].ChangedFields))
}

func TestServicesSuite(t *testing.T) {
	suite.Run(t, new(ServicesSuite))
}
