// Package dto define los contratos de entrada y salida de la API HTTP,
// separados de las entidades del dominio.
package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
