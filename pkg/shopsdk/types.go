package shopsdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// Identity
// ============================================================================

// Role is the capability class of an authenticated user.
type Role string

const (
	RoleUser       Role = "user"
	RoleSeller     Role = "seller"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleSeller, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Identity is the authenticated user as reported by the API.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Name  string `json:"name,omitempty"`
}

// UserInput is the body of POST /users. An empty Role means RoleUser.
type UserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     Role   `json:"role,omitempty"`
}

// UserPatch is the body of PATCH /users/:id. Nil fields are left as-is.
type UserPatch struct {
	Email    *string `json:"email,omitempty"`
	Name     *string `json:"name,omitempty"`
	Role     *Role   `json:"role,omitempty"`
	Password *string `json:"password,omitempty"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse is returned by login, register and refresh. Older API builds
// name the credential access_token.
type authResponse struct {
	Token       string    `json:"token"`
	AccessToken string    `json:"access_token"`
	User        *Identity `json:"user"`
}

func (r authResponse) credential() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

func (r authResponse) validate() error {
	if r.credential() == "" {
		return fmt.Errorf("%w: auth response carries no token", ErrServer)
	}
	if r.User == nil {
		return fmt.Errorf("%w: auth response carries no user", ErrServer)
	}
	return nil
}

// ============================================================================
// Money
// ============================================================================

// Money is an amount in minor currency units (cents). The API sends prices
// either as JSON numbers or as decimal strings such as "49.99".
type Money int64

// ParseMoney parses a decimal string with at most two fractional digits.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if (whole == "" && frac == "") || !digits(whole) || !digits(frac) || len(frac) > 2 {
		return 0, fmt.Errorf("invalid money amount %q", s)
	}
	if whole == "" {
		whole = "0"
	}
	frac += strings.Repeat("0", 2-len(frac))

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	f, _ := strconv.ParseInt(frac, 10, 64)

	v := w*100 + f
	if neg {
		v = -v
	}
	return Money(v), nil
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Times returns m multiplied by n.
func (m Money) Times(n int) Money { return m * Money(n) }

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = 0
		return nil
	}

	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}

	if v, err := ParseMoney(raw); err == nil {
		*m = v
		return nil
	}

	// Exponents or extra precision: round to the nearest cent.
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid money amount %q", raw)
	}
	*m = Money(math.Round(f * 100))
	return nil
}

// ============================================================================
// Catalog
// ============================================================================

// Product is a catalog entry.
type Product struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       Money    `json:"price"`
	Stock       int      `json:"stock"`
	Images      []string `json:"images"`
}

// ProductInput is the body of POST /products.
type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       Money    `json:"price"`
	Stock       int      `json:"stock"`
	Images      []string `json:"images,omitempty"`
}

// ProductPatch is the body of PATCH /products/:id. Nil fields are left as-is.
type ProductPatch struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *Money    `json:"price,omitempty"`
	Stock       *int      `json:"stock,omitempty"`
	Images      *[]string `json:"images,omitempty"`
}

// ProductPage is one page of GET /products.
type ProductPage struct {
	Data  []Product `json:"data"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

// ============================================================================
// Orders
// ============================================================================

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// OrderLine is one requested line of a new order.
type OrderLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// OrderItem is a line of a placed order.
type OrderItem struct {
	ID        int64 `json:"id"`
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
	Price     Money `json:"price"`
	Product   struct {
		ID     int64    `json:"id"`
		Name   string   `json:"name"`
		Images []string `json:"images"`
	} `json:"product"`
}

// Order is a placed order.
type Order struct {
	ID          int64       `json:"id"`
	Reference   string      `json:"reference,omitempty"`
	UserID      int64       `json:"userId"`
	Status      OrderStatus `json:"status"`
	TotalAmount Money       `json:"totalAmount"`
	Items       []OrderItem `json:"items"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}
