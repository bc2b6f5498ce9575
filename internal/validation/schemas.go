package validation

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the body of POST /api/auth/login. It shares the register shape.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// CreateProductRequest is the body of POST /api/products.
type CreateProductRequest struct {
	Name        string   `json:"name" binding:"required,min=1"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"required,min=1"`
	Stock       *int     `json:"stock" binding:"omitempty,min=0"`
	ImageURL    *string  `json:"imageUrl"`
}

// StockOrDefault returns the requested stock, or 0 when it was omitted.
func (r *CreateProductRequest) StockOrDefault() int {
	if r.Stock == nil {
		return 0
	}
	return *r.Stock
}

// UpdateProductRequest is the body of PUT /api/products/:id. Every field is
// optional; nil fields are left untouched.
type UpdateProductRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,min=1"`
	Stock       *int     `json:"stock" binding:"omitempty,min=0"`
	ImageURL    *string  `json:"imageUrl"`
}

// IsEmpty reports whether no field was provided.
func (r *UpdateProductRequest) IsEmpty() bool {
	return r.Name == nil && r.Description == nil && r.Price == nil && r.Stock == nil && r.ImageURL == nil
}
