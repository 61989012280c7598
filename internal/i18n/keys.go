// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess  = "success"
	KeyInternal = "common.internal"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthEmailExists        = "auth.email_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthLogoutSuccess      = "auth.logout_success"
	KeyAuthResetTokenInvalid  = "auth.reset_token_invalid"
	KeyAuthPasswordMismatch   = "auth.password_mismatch"
	KeyAuthOldPasswordWrong   = "auth.old_password_incorrect"
	KeyAuthResetEmailSent     = "auth.reset_email_sent"
	KeyAuthRoleForbidden      = "auth.role_forbidden"

	// Users
	KeyUserNotFound       = "user.not_found"
	KeyUserProfileUpdated = "user.profile_updated"
	KeyUserDeleted        = "user.deleted"

	// Products
	KeyProductNotFound          = "product.not_found"
	KeyProductDeleted           = "product.deleted"
	KeyProductInsufficientStock = "product.insufficient_stock"
	KeyProductImagesRequired    = "product.images_required"

	// Reviews
	KeyReviewNotFound  = "review.not_found"
	KeyReviewForbidden = "review.forbidden"
	KeyReviewDeleted   = "review.deleted"

	// Orders
	KeyOrderNotFound         = "order.not_found"
	KeyOrderAlreadyDelivered = "order.already_delivered"
	KeyOrderAlreadyShipped   = "order.already_shipped"
	KeyOrderInvalidStatus    = "order.invalid_status"
	KeyOrderForbidden        = "order.forbidden"
	KeyOrderDeleted          = "order.deleted"
	KeyOrderEmpty            = "order.empty"

	// Payments
	KeyPaymentFailed        = "payment.failed"
	KeyPaymentInvalidAmount = "payment.invalid_amount"
	KeyPaymentNotSucceeded  = "payment.not_succeeded"
	KeyPaymentNotPaid       = "payment.not_paid"
	KeyPaymentAlreadyPaid   = "payment.already_paid"
	KeyPaymentIntentUsed    = "payment.intent_used"

	// Images
	KeyImageUploadFailed  = "image.upload_failed"
	KeyImageDestroyFailed = "image.destroy_failed"
	KeyImageInvalid       = "image.invalid"

	// Notifications
	KeyEmailSendFailed = "email.send_failed"

	// Validation
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationRequired = "validation.required"

	// Rate limiting
	KeyRateLimitExceeded = "rate_limit.exceeded"
)
