// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"github.com/labstack/echo/v4"
)

// Envelope is the uniform JSON response shape.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK writes a success envelope with the given payload.
func OK(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

// Fail writes a failure envelope with the given message.
func Fail(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{Success: false, Message: message})
}
