package domain

import "errors"

// Conflict class — uniqueness violations. Same kind, field-specific message.
var ErrUsernameTaken = errors.New("username already exists")
var ErrEmailTaken = errors.New("email already exists")
var ErrSweetExists = errors.New("sweet name already exists")

// Not-found class. ErrInvalidCredentials covers both "no such user" and
// "wrong password" so the response never reveals which check failed.
var ErrUserNotFound = errors.New("user not found")
var ErrSweetNotFound = errors.New("sweet not found")
var ErrInvalidCredentials = errors.New("invalid credentials")

// Invalid-argument class — business rule rejections, not system errors.
var ErrInvalidQuantity = errors.New("quantity must be positive")
var ErrNegativeQuantity = errors.New("quantity must not be negative")
var ErrInvalidPrice = errors.New("price must be non-negative with at most two decimal places")
var ErrInsufficientStock = errors.New("insufficient stock")
