package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros customizados do GoCatalog.
// Ela permite que o código externo (Handler) acesse o Status e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Status do catálogo (e.g., "INVALID_ARGUMENT", "NOT_FOUND", "HAS_CHILDREN")
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// Status retornados pela fachada do catálogo.
const (
	StatusOK              = "OK"
	StatusInvalidArgument = "INVALID_ARGUMENT"
	StatusNotFound        = "NOT_FOUND"
	StatusAlreadyExists   = "ALREADY_EXISTS"
	StatusHasChildren     = "HAS_CHILDREN"
	StatusUnavailable     = "UNAVAILABLE"
	StatusUnauthorized    = "UNAUTHORIZED"
	StatusForbidden       = "FORBIDDEN"
	StatusRateLimited     = "RATE_LIMITED"
	StatusInternal        = "INTERNAL"
)

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Argumento inválido: %s", e.Msg) }
func (e *ValidationError) Category() string { return StatusInvalidArgument }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso solicitado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return StatusNotFound }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// AlreadyExistsError representa uma colisão de chave única (slug, productRef).
type AlreadyExistsError struct {
	Msg string
}

func (e *AlreadyExistsError) Error() string    { return fmt.Sprintf("Recurso já existe: %s", e.Msg) }
func (e *AlreadyExistsError) Category() string { return StatusAlreadyExists }
func (e *AlreadyExistsError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *AlreadyExistsError) Unwrap() error    { return nil }

// NewAlreadyExistsError cria um novo erro de chave duplicada.
func NewAlreadyExistsError(msg string) AppError {
	return &AlreadyExistsError{Msg: msg}
}

// HasChildrenError é retornado ao remover uma categoria que ainda possui filhas.
type HasChildrenError struct {
	Msg string
}

func (e *HasChildrenError) Error() string    { return fmt.Sprintf("Categoria possui filhas: %s", e.Msg) }
func (e *HasChildrenError) Category() string { return StatusHasChildren }
func (e *HasChildrenError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *HasChildrenError) Unwrap() error    { return nil }

// NewHasChildrenError cria um novo erro de categoria com filhas.
func NewHasChildrenError(msg string) AppError {
	return &HasChildrenError{Msg: msg}
}

// --- Tipos de Erro de Segurança ---

// UnauthorizedError representa credenciais ausentes ou inválidas.
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autorizado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return StatusUnauthorized }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *UnauthorizedError) Unwrap() error    { return nil }

// NewUnauthorizedError cria um novo erro de autenticação.
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// ForbiddenError representa um usuário autenticado sem a role necessária.
type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string    { return fmt.Sprintf("Acesso negado: %s", e.Msg) }
func (e *ForbiddenError) Category() string { return StatusForbidden }
func (e *ForbiddenError) HTTPStatus() int  { return http.StatusForbidden } // 403
func (e *ForbiddenError) Unwrap() error    { return nil }

// NewForbiddenError cria um novo erro de autorização.
func NewForbiddenError(msg string) AppError {
	return &ForbiddenError{Msg: msg}
}

// RateLimitedError é retornado quando o cliente excede o limite de requisições da janela.
type RateLimitedError struct {
	Msg string
}

func (e *RateLimitedError) Error() string    { return fmt.Sprintf("Limite de requisições excedido: %s", e.Msg) }
func (e *RateLimitedError) Category() string { return StatusRateLimited }
func (e *RateLimitedError) HTTPStatus() int  { return http.StatusTooManyRequests } // 429
func (e *RateLimitedError) Unwrap() error    { return nil }

// NewRateLimitedError cria um novo erro de limite de requisições.
func NewRateLimitedError(msg string) AppError {
	return &RateLimitedError{Msg: msg}
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// UnavailableError representa falha transitória do armazenamento (DB, cache, registry).
type UnavailableError struct {
	Msg string
	Err error
}

func (e *UnavailableError) Error() string    { return fmt.Sprintf("Serviço indisponível: %s", e.Msg) }
func (e *UnavailableError) Category() string { return StatusUnavailable }
func (e *UnavailableError) HTTPStatus() int  { return http.StatusServiceUnavailable } // 503
func (e *UnavailableError) Unwrap() error    { return e.Err }

// NewUnavailableError cria um erro de indisponibilidade do armazenamento.
func NewUnavailableError(msg string, err error) AppError {
	return &UnavailableError{Msg: msg, Err: err}
}

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return StatusInternal }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor (para falhas de lógica ou código não esperado).
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewDBError é um atalho para criar um UnavailableError específico de falhas no DB.
func NewDBError(msg string, err error) AppError {
	return NewUnavailableError(fmt.Sprintf("%s (DB): %s", msg, err.Error()), err)
}

// --- Helpers para o Handler e Serviços ---

// StatusOf retorna o status do catálogo para um erro (OK quando err == nil).
func StatusOf(err error) string {
	if err == nil {
		return StatusOK
	}
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return appErr.Category()
	}
	return StatusInternal
}

// Is reporta se algum erro da cadeia possui o status informado.
func Is(err error, status string) bool {
	return err != nil && StatusOf(err) == status
}

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP e corpo de resposta.
func MapToHTTPStatus(err error) (int, string, string) {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	// Erro não tipado: tratado como erro interno genérico.
	return http.StatusInternalServerError, StatusInternal, "Ocorreu um erro inesperado."
}
