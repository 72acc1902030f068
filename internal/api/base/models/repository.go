// Package models chứa các kiểu trả về dùng chung của layer service/handler.
package models

// PaginateResult gói một trang kết quả cùng thông tin phân trang
type PaginateResult[T any] struct {
	Page      int64 `json:"page" bson:"page"`           // Trang hiện tại (bắt đầu từ 1)
	Limit     int64 `json:"limit" bson:"limit"`         // Số mục tối đa mỗi trang
	ItemCount int64 `json:"itemCount" bson:"itemCount"` // Số mục thực tế trong trang này
	Items     []T   `json:"items" bson:"items"`         // Dữ liệu của trang
	Total     int64 `json:"total" bson:"total"`         // Tổng số mục khớp filter
	TotalPage int64 `json:"totalPage" bson:"totalPage"` // Tổng số trang
}

// CountResult là kết quả của thao tác đếm theo filter
type CountResult struct {
	TotalCount int64 `json:"totalCount" bson:"totalCount"` // Tổng số mục khớp filter
	Limit      int64 `json:"limit" bson:"limit"`           // Số mục mỗi trang dùng để quy đổi
	TotalPage  int64 `json:"totalPage" bson:"totalPage"`   // Tổng số trang tương ứng
}
