package fakeapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	roleUser       = "user"
	roleSeller     = "seller"
	roleAdmin      = "admin"
	roleSuperAdmin = "superadmin"
)

func validRole(r string) bool {
	switch r {
	case roleUser, roleSeller, roleAdmin, roleSuperAdmin:
		return true
	}
	return false
}

func isStaff(r string) bool { return r != roleUser }

var orderStatuses = map[string]bool{
	"pending":    true,
	"processing": true,
	"shipped":    true,
	"delivered":  true,
	"cancelled":  true,
}

type user struct {
	ID           int64
	Email        string
	Name         string
	Role         string
	PasswordHash string
}

type userView struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
}

func (u *user) view() userView {
	return userView{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// tokenState tracks an issued access token until it is exchanged.
type tokenState struct {
	userID  int64
	expired bool
}

// decimal is an amount in cents, sent as a decimal string ("49.99") the way
// the production API serialises its numeric columns.
type decimal int64

func (d decimal) MarshalJSON() ([]byte, error) {
	sign := ""
	v := int64(d)
	if v < 0 {
		sign, v = "-", -v
	}
	return []byte(fmt.Sprintf(`"%s%d.%02d"`, sign, v/100, v%100)), nil
}

func (d *decimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", raw)
	}
	*d = decimal(math.Round(f * 100))
	return nil
}

type product struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       decimal  `json:"price"`
	Stock       int      `json:"stock"`
	Images      []string `json:"images"`
}

type productInput struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *decimal  `json:"price"`
	Stock       *int      `json:"stock"`
	Images      *[]string `json:"images"`
}

func (in productInput) problems(create bool) []string {
	var out []string
	if create && (in.Name == nil || *in.Name == "") {
		out = append(out, "name should not be empty")
	}
	if !create && in.Name != nil && *in.Name == "" {
		out = append(out, "name should not be empty")
	}
	if create && in.Price == nil {
		out = append(out, "price must be a number")
	}
	if in.Price != nil && *in.Price < 0 {
		out = append(out, "price must not be less than 0")
	}
	if in.Stock != nil && *in.Stock < 0 {
		out = append(out, "stock must not be less than 0")
	}
	return out
}

func (p *product) apply(in productInput) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Images != nil {
		p.Images = append([]string(nil), (*in.Images)...)
	}
}

type productPage struct {
	Data  []product `json:"data"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

type cartItem struct {
	ProductID int64
	Quantity  int
}

type cartLineView struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Price     decimal `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
}

type cartView struct {
	Items         []cartLineView `json:"items"`
	TotalQuantity int            `json:"totalQuantity"`
	TotalAmount   decimal        `json:"totalAmount"`
}

type orderLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type orderItemProduct struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Images []string `json:"images"`
}

type orderItem struct {
	ID        int64            `json:"id"`
	ProductID int64            `json:"productId"`
	Quantity  int              `json:"quantity"`
	Price     decimal          `json:"price"`
	Product   orderItemProduct `json:"product"`
}

type order struct {
	ID          int64       `json:"id"`
	Reference   string      `json:"reference"`
	UserID      int64       `json:"userId"`
	Status      string      `json:"status"`
	TotalAmount decimal     `json:"totalAmount"`
	Items       []orderItem `json:"items"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}
