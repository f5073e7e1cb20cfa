package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/koustreak/OrgRoute/internal/database"
	"github.com/koustreak/OrgRoute/internal/errs"
)

// binder extracts bind parameters from a request body. echo carries the
// bound column values by name so drivers without RETURNING support can
// still answer with the inserted row.
type binder func(r *http.Request) (args []any, echo map[string]any, err error)

// operation binds one HTTP endpoint to a statement per dialect, a parameter
// extractor, and a result shape. The set of operations is closed: requests
// dispatch over this table, never over statement text from the wire.
type operation struct {
	name     string
	method   string
	path     string
	resource string // JSON envelope key
	status   int    // success status
	single   bool   // respond with one row instead of a list
	bind     binder // nil for parameterless reads

	statements map[database.Dialect]string
}

// statement returns the SQL text for the tenant's dialect.
func (op operation) statement(d database.Dialect) (string, error) {
	sql, ok := op.statements[d]
	if !ok {
		return "", errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("operation %s does not support dialect %s", op.name, d))
	}
	return sql, nil
}

// operations is the full dispatch table of the gateway's HTTP surface.
var operations = []operation{
	{
		name:     "GetUsers",
		method:   http.MethodGet,
		path:     "/users/",
		resource: "users",
		status:   http.StatusOK,
		statements: map[database.Dialect]string{
			database.DialectPostgres: "SELECT id, name, email FROM users ORDER BY id",
			database.DialectMySQL:    "SELECT id, name, email FROM users ORDER BY id",
		},
	},
	{
		name:     "CreateUser",
		method:   http.MethodPost,
		path:     "/users/",
		resource: "user",
		status:   http.StatusCreated,
		single:   true,
		bind:     bindCreateUser,
		statements: map[database.Dialect]string{
			database.DialectPostgres: "INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id, name, email",
			database.DialectMySQL:    "INSERT INTO users (name, email) VALUES (?, ?)",
		},
	},
	{
		name:     "GetProducts",
		method:   http.MethodGet,
		path:     "/products/",
		resource: "products",
		status:   http.StatusOK,
		statements: map[database.Dialect]string{
			database.DialectPostgres: "SELECT id, name, description, price FROM products ORDER BY id",
			database.DialectMySQL:    "SELECT id, name, description, price FROM products ORDER BY id",
		},
	},
	{
		name:     "CreateProduct",
		method:   http.MethodPost,
		path:     "/products/",
		resource: "product",
		status:   http.StatusCreated,
		single:   true,
		bind:     bindCreateProduct,
		statements: map[database.Dialect]string{
			database.DialectPostgres: "INSERT INTO products (name, description, price) VALUES ($1, $2, $3) RETURNING id, name, description, price",
			database.DialectMySQL:    "INSERT INTO products (name, description, price) VALUES (?, ?, ?)",
		},
	},
	{
		name:     "GetOrders",
		method:   http.MethodGet,
		path:     "/orders/",
		resource: "orders",
		status:   http.StatusOK,
		statements: map[database.Dialect]string{
			database.DialectPostgres: "SELECT id, user_id, total_amount, status FROM orders ORDER BY id",
			database.DialectMySQL:    "SELECT id, user_id, total_amount, status FROM orders ORDER BY id",
		},
	},
	{
		name:     "CreateOrder",
		method:   http.MethodPost,
		path:     "/orders/",
		resource: "order",
		status:   http.StatusCreated,
		single:   true,
		bind:     bindCreateOrder,
		statements: map[database.Dialect]string{
			database.DialectPostgres: "INSERT INTO orders (user_id, total_amount, status) VALUES ($1, $2, $3) RETURNING id, user_id, total_amount, status",
			database.DialectMySQL:    "INSERT INTO orders (user_id, total_amount, status) VALUES (?, ?, ?)",
		},
	},
}

// --- request bodies ---

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type createProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
}

type createOrderRequest struct {
	UserID      *int64   `json:"user_id"`
	TotalAmount *float64 `json:"total_amount"`
	Status      string   `json:"status"`
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "invalid request body", err)
	}
	return nil
}

func missingField(name string) error {
	return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("%s is required", name))
}

func bindCreateUser(r *http.Request) ([]any, map[string]any, error) {
	var body createUserRequest
	if err := decodeBody(r, &body); err != nil {
		return nil, nil, err
	}
	if body.Name == "" {
		return nil, nil, missingField("name")
	}
	if body.Email == "" {
		return nil, nil, missingField("email")
	}
	args := []any{body.Name, body.Email}
	echo := map[string]any{"name": body.Name, "email": body.Email}
	return args, echo, nil
}

func bindCreateProduct(r *http.Request) ([]any, map[string]any, error) {
	var body createProductRequest
	if err := decodeBody(r, &body); err != nil {
		return nil, nil, err
	}
	if body.Name == "" {
		return nil, nil, missingField("name")
	}
	if body.Price == nil {
		return nil, nil, missingField("price")
	}
	args := []any{body.Name, body.Description, *body.Price}
	echo := map[string]any{"name": body.Name, "description": body.Description, "price": *body.Price}
	return args, echo, nil
}

func bindCreateOrder(r *http.Request) ([]any, map[string]any, error) {
	var body createOrderRequest
	if err := decodeBody(r, &body); err != nil {
		return nil, nil, err
	}
	if body.UserID == nil {
		return nil, nil, missingField("user_id")
	}
	if body.TotalAmount == nil {
		return nil, nil, missingField("total_amount")
	}
	status := body.Status
	if status == "" {
		status = "pending"
	}
	args := []any{*body.UserID, *body.TotalAmount, status}
	echo := map[string]any{"user_id": *body.UserID, "total_amount": *body.TotalAmount, "status": status}
	return args, echo, nil
}
