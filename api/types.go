package api

// types.go defines the wire types of the four backend services. All of them
// are server-owned representations; the client never computes derived fields
// like subtotal or totalPrice itself.

// Product is a catalog entry. Stock 0 means the product cannot be added to a
// cart; it is otherwise plain data.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
}

// CartItem is one cart line. ID identifies the line itself and is distinct
// from ProductID.
type CartItem struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Subtotal    float64 `json:"subtotal"`
}

// Cart is the cart service's canonical cart representation for one user.
type Cart struct {
	UserID     int64      `json:"userId"`
	Items      []CartItem `json:"items"`
	TotalPrice float64    `json:"totalPrice"`
}

// OrderItem is a single line of an order submission.
type OrderItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// Order is the order service's view of a placed order.
type Order struct {
	ID          int64            `json:"id"`
	UserID      int64            `json:"userId"`
	OrderDate   string           `json:"orderDate"`
	Status      string           `json:"status"`
	TotalAmount float64          `json:"totalAmount"`
	Items       []OrderLineEntry `json:"items"`
}

// OrderLineEntry is one line of a placed order as returned by the server.
type OrderLineEntry struct {
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// SignupRequest carries registration data to the user service.
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

// Profile is the user service's GET /api/users/me response.
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

// LoginResponse is the user service's successful login response.
type LoginResponse struct {
	Token string `json:"token"`
}
