// Package common chứa mã lỗi và thông báo dùng chung cho toàn hệ thống.
package common

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// HTTP Status Code Constants
const (
	// Success Codes (2xx)
	StatusOK        = 200 // Thành công
	StatusCreated   = 201 // Tạo mới thành công
	StatusAccepted  = 202 // Yêu cầu được chấp nhận
	StatusNoContent = 204 // Thành công nhưng không có nội dung trả về

	// Client Error Codes (4xx)
	StatusBadRequest      = 400 // Yêu cầu không hợp lệ
	StatusNotFound        = 404 // Không tìm thấy tài nguyên
	StatusConflict        = 409 // Xung đột dữ liệu
	StatusTooManyRequests = 429 // Quá nhiều yêu cầu

	// Server Error Codes (5xx)
	StatusInternalServerError = 500 // Lỗi server
	StatusServiceUnavailable  = 503 // Dịch vụ không khả dụng
)

// Response Messages
const (
	MsgSuccess = "Thao tác thành công"
	MsgCreated = "Tạo mới thành công"

	MsgBadRequest      = "Yêu cầu không hợp lệ"
	MsgNotFound        = "Không tìm thấy tài nguyên"
	MsgConflict        = "Xung đột dữ liệu"
	MsgTooManyRequests = "Quá nhiều yêu cầu"
	MsgInternalError   = "Lỗi hệ thống"

	MsgValidationError = "Dữ liệu không hợp lệ"
	MsgDatabaseError   = "Lỗi tương tác với cơ sở dữ liệu"
)

// ErrorCode định nghĩa mã lỗi chi tiết
type ErrorCode struct {
	Code        string // Mã lỗi (ví dụ: PUB_001)
	Category    string // Phân loại lỗi (ví dụ: Publication)
	SubCategory string // Phân loại con (ví dụ: Duplicate)
	Description string // Mô tả chi tiết
}

// Định nghĩa các mã lỗi theo hệ thống phân cấp
var (
	// System Errors (SYS_xxx)
	ErrCodeInternalServer = ErrorCode{
		Code:        "SYS_001",
		Category:    "System",
		SubCategory: "Internal",
		Description: "Lỗi hệ thống nội bộ",
	}

	// Validation Errors (VAL_xxx)
	ErrCodeValidationInput = ErrorCode{
		Code:        "VAL_001",
		Category:    "Validation",
		SubCategory: "Input",
		Description: "Lỗi dữ liệu đầu vào",
	}

	ErrCodeValidationFormat = ErrorCode{
		Code:        "VAL_002",
		Category:    "Validation",
		SubCategory: "Format",
		Description: "Lỗi định dạng dữ liệu",
	}

	// Database Errors (DB_xxx)
	ErrCodeDatabase = ErrorCode{
		Code:        "DB",
		Category:    "Database",
		SubCategory: "General",
		Description: "Lỗi cơ sở dữ liệu chung",
	}

	ErrCodeDatabaseConnection = ErrorCode{
		Code:        "DB_001",
		Category:    "Database",
		SubCategory: "Connection",
		Description: "Lỗi kết nối cơ sở dữ liệu",
	}

	ErrCodeDatabaseQuery = ErrorCode{
		Code:        "DB_002",
		Category:    "Database",
		SubCategory: "Query",
		Description: "Lỗi truy vấn dữ liệu",
	}

	// Publication Errors (PUB_xxx)
	ErrCodePublication = ErrorCode{
		Code:        "PUB",
		Category:    "Publication",
		SubCategory: "General",
		Description: "Lỗi đăng bài chung",
	}

	ErrCodePublicationState = ErrorCode{
		Code:        "PUB_001",
		Category:    "Publication",
		SubCategory: "State",
		Description: "Trạng thái nội dung không cho phép thao tác",
	}

	ErrCodePublicationDuplicate = ErrorCode{
		Code:        "PUB_002",
		Category:    "Publication",
		SubCategory: "Duplicate",
		Description: "Nội dung trùng lặp với bài đã đăng",
	}

	ErrCodePublicationPlatform = ErrorCode{
		Code:        "PUB_003",
		Category:    "Publication",
		SubCategory: "Platform",
		Description: "Nền tảng từ chối yêu cầu đăng bài",
	}

	// Safety Errors (SAFE_xxx)
	ErrCodeSafetyLock = ErrorCode{
		Code:        "SAFE_001",
		Category:    "Safety",
		SubCategory: "Lock",
		Description: "Không giành được khóa tiến trình",
	}

	ErrCodeSafetyCooldown = ErrorCode{
		Code:        "SAFE_002",
		Category:    "Safety",
		SubCategory: "Cooldown",
		Description: "Hệ thống đang trong thời gian cooldown",
	}

	ErrCodeSafetyRateLimit = ErrorCode{
		Code:        "SAFE_003",
		Category:    "Safety",
		SubCategory: "RateLimit",
		Description: "Vượt giới hạn tần suất đăng bài",
	}
)

// Error định nghĩa cấu trúc lỗi chi tiết
type Error struct {
	Code       ErrorCode // Mã lỗi chi tiết
	Message    string    // Thông báo lỗi
	StatusCode int       // HTTP status code
	Details    any       // Thông tin chi tiết thêm về lỗi
}

// Error trả về message của lỗi
func (e *Error) Error() string {
	return e.Message
}

// Is kiểm tra xem error có phải là target error không (hỗ trợ errors.Is)
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if targetErr, ok := target.(*Error); ok {
		return e.Code.Code == targetErr.Code.Code && e.Message == targetErr.Message
	}
	return false
}

// NewError tạo một error mới với đầy đủ thông tin
func NewError(code ErrorCode, message string, statusCode int, details any) error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

// Custom errors
var (
	// Validation Errors
	ErrInvalidInput  = NewError(ErrCodeValidationInput, "Dữ liệu đầu vào không hợp lệ", StatusBadRequest, nil)
	ErrInvalidFormat = NewError(ErrCodeValidationFormat, "Định dạng dữ liệu không hợp lệ", StatusBadRequest, nil)

	// Database Errors
	ErrNotFound   = NewError(ErrCodeDatabaseQuery, "Không tìm thấy dữ liệu", StatusNotFound, nil)
	ErrDuplicate  = NewError(ErrCodeDatabaseQuery, "Dữ liệu đã tồn tại", StatusConflict, nil)
	ErrConnection = NewError(ErrCodeDatabaseConnection, "Lỗi kết nối cơ sở dữ liệu", StatusServiceUnavailable, nil)

	// Publication Errors
	ErrInvalidState       = NewError(ErrCodePublicationState, "Trạng thái nội dung không hợp lệ", StatusBadRequest, nil)
	ErrAlreadyPublished   = NewError(ErrCodePublicationState, "Nội dung đã được đăng trước đó", StatusConflict, nil)
	ErrDuplicateContent   = NewError(ErrCodePublicationDuplicate, "Nội dung trùng lặp với bài đã đăng", StatusConflict, nil)
	ErrLockNotAcquired    = NewError(ErrCodeSafetyLock, "Một tiến trình đăng bài khác đang chạy", StatusConflict, nil)
	ErrSystemCooldown     = NewError(ErrCodeSafetyCooldown, "Hệ thống đang trong thời gian cooldown", StatusTooManyRequests, nil)
	ErrRateLimitExceeded  = NewError(ErrCodeSafetyRateLimit, "Đã đạt giới hạn đăng bài trong ngày", StatusTooManyRequests, nil)
	ErrEngagementTooLow   = NewError(ErrCodeSafetyRateLimit, "Tương tác quá thấp, tạm dừng đăng bài", StatusTooManyRequests, nil)
)

// ConvertMongoError chuyển đổi lỗi MongoDB sang lỗi hệ thống
func ConvertMongoError(err error) error {
	if err == nil {
		return nil
	}

	// Không convert ErrNotFound (hỗ trợ wrapped errors)
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if err.Error() == ErrNotFound.Error() {
		return ErrNotFound
	}

	// Kiểm tra các loại lỗi MongoDB cụ thể
	var mongoErr mongo.CommandError
	if errors.As(err, &mongoErr) {
		switch {
		case mongoErr.Code >= 100 && mongoErr.Code < 200:
			return ErrConnection
		case mongoErr.Code >= 400 && mongoErr.Code < 500:
			return NewError(ErrCodeDatabaseQuery, MsgDatabaseError, StatusInternalServerError, err)
		case mongoErr.Code >= 500:
			return NewError(ErrCodeDatabase, MsgInternalError, StatusInternalServerError, err)
		}
	}

	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return ErrConnection
	}

	return NewError(ErrCodeDatabase, MsgDatabaseError, StatusInternalServerError, err)
}
