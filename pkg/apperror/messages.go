package apperror

// Human messages shared by services and handlers.
const (
	MsgInternal            = "Something went wrong, please try again later"
	MsgEmailAlreadyExist   = "An account with this email already exists"
	MsgMobileAlreadyExist  = "An account with this mobile number already exists"
	MsgUserNotFound        = "User not found"
	MsgInvalidCredential   = "Invalid credential"
	MsgUnauthorized        = "Unauthorized request"
	MsgInvalidToken        = "Invalid or expired token"
	MsgInvalidRefreshToken = "Invalid refresh token"
	MsgExpiredRefreshToken = "Refresh token is expired"
	MsgSessionExpired      = "Session expired, please login again"
	MsgInvalidOldPassword  = "Old password is incorrect"
	MsgAdminOnly           = "Admin access required"
	MsgInvalidFieldValues  = "Invalid field values"
	MsgInvalidRole         = "Invalid role provided"
	MsgInvalidRoute        = "Requested route does not exist"
	MsgAdminNotFound       = "Admin not found"
	MsgMethodNotAllowed    = "Method not allowed"
	MsgInvalidRequestBody  = "Invalid request body"
)
