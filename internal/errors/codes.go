package errors

// Error codes returned in the "error" field of every failure response.
// Format: CATEGORY_DETAIL. Clients map these, not the message text.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED"
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid = "AUTH_TOKEN_INVALID"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound = "RESOURCE_NOT_FOUND"
	ResourceConflict = "RESOURCE_CONFLICT"

	// ==================== Catalog ====================
	ProductNotFound    = "PRODUCT_NOT_FOUND"
	ProductUnavailable = "PRODUCT_UNAVAILABLE"

	// ==================== Cart ====================
	InvalidUserID       = "INVALID_USER_ID"
	InvalidQuantity     = "INVALID_QUANTITY"
	MaxQuantityExceeded = "MAX_QUANTITY_EXCEEDED"
	InsufficientStock   = "INSUFFICIENT_STOCK"
	CartNotFound        = "CART_NOT_FOUND"
	CartItemNotFound    = "CART_ITEM_NOT_FOUND"
	CartConflict        = "CART_CONFLICT" // retryable

	// ==================== Dependencies ====================
	DependencyUnavailable = "DEPENDENCY_UNAVAILABLE" // retryable

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
)

// StatusForCode maps an error code onto the HTTP status the API answers with.
func StatusForCode(code string) int {
	switch code {
	case ProductNotFound, CartNotFound, CartItemNotFound, ResourceNotFound:
		return 404
	case ProductUnavailable, MaxQuantityExceeded, InsufficientStock:
		return 422
	case InvalidQuantity, InvalidUserID, ValidationInvalidInput, ValidationInvalidID, ValidationRequired:
		return 400
	case CartConflict, ResourceConflict:
		return 409
	case DependencyUnavailable:
		return 503
	case AuthUnauthorized, AuthTokenExpired, AuthTokenInvalid:
		return 401
	case AuthzForbidden, AuthzRoleNotFound:
		return 403
	default:
		return 500
	}
}
