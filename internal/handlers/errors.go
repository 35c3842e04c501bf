package handlers

// Stable error codes carried in every error payload alongside the message.
const (
	CodeInternalError    = "INTERNAL_ERROR"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeDBError          = "DB_ERROR"
	CodeInvalidRequest   = "INVALID_REQUEST"

	CodeTokenExpired      = "IDENTITY_TOKEN_EXPIRED"
	CodeTokenInvalid      = "IDENTITY_TOKEN_INVALID"
	CodeTokenUnverifiable = "IDENTITY_TOKEN_VERIFICATION_FAILED"

	CodeMemberNotFound        = "MEMBER_NOT_FOUND"
	CodeMemberWithdrawn       = "MEMBER_ALREADY_WITHDRAWN"
	CodeEmailExists           = "EMAIL_ALREADY_EXISTS"
	CodeNameExists            = "NAME_ALREADY_EXISTS"
	CodeInvalidNameLength     = "INVALID_NAME_LENGTH"
	CodeInvalidOnboardingStep = "INVALID_ONBOARDING_STEP"
	CodeTermsNotAgreed        = "TERMS_REQUIRED_NOT_AGREED"
	CodeInvalidBirthDate      = "INVALID_BIRTH_DATE"
	CodeUnderAge              = "AGE_RESTRICTION_UNDER_14"
	CodeInvalidGender         = "INVALID_GENDER"

	CodePlaceNotFound       = "PLACE_NOT_FOUND"
	CodeMemberPlaceNotFound = "MEMBER_PLACE_NOT_FOUND"
	CodePlaceAlreadySaved   = "PLACE_ALREADY_SAVED"
	CodeCannotDeleteSaved   = "CANNOT_DELETE_SAVED_PLACE"
	CodeCannotUpdateUnsaved = "CANNOT_UPDATE_UNSAVED_PLACE"
	CodeInvalidRating       = "INVALID_RATING"
	CodeContentNotFound     = "CONTENT_NOT_FOUND"
	CodeContentURLExists    = "CONTENT_URL_ALREADY_EXISTS"
	CodeKeywordNotFound     = "KEYWORD_NOT_FOUND"
	CodeInvalidPagination   = "INVALID_PAGINATION"
	CodeRefreshTokenInvalid = "REFRESH_TOKEN_INVALID"
	CodeRefreshTokenExpired = "REFRESH_TOKEN_EXPIRED"
)
