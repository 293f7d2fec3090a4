// Package registry reserva chaves únicas do catálogo (slugs e productRefs)
// com check-and-reserve atômico por namespace.
package registry

import (
	"context"
	"fmt"

	apperror "gocatalog/internal/errors"
)

// Namespace separa espaços de unicidade independentes.
type Namespace string

const (
	NamespaceCategorySlug Namespace = "category_slug"
	NamespaceProductRef   Namespace = "product_ref"
	NamespaceProductSlug  Namespace = "product_slug"
)

// Valid reporta se o namespace é conhecido.
func (n Namespace) Valid() bool {
	switch n {
	case NamespaceCategorySlug, NamespaceProductRef, NamespaceProductSlug:
		return true
	}
	return false
}

// Backend é o armazenamento das reservas.
// Insert retorna false quando a chave já estava reservada.
type Backend interface {
	Insert(ctx context.Context, ns Namespace, key string) (bool, error)
	Delete(ctx context.Context, ns Namespace, key string) error
}

// Registry aplica as regras de reserva sobre um Backend.
type Registry struct {
	backend Backend
}

// New cria um Registry sobre o backend informado.
func New(backend Backend) *Registry {
	return &Registry{backend: backend}
}

// Reserve reserva key no namespace. Falha com ALREADY_EXISTS se a chave já está reservada.
func (r *Registry) Reserve(ctx context.Context, ns Namespace, key string) (*Token, error) {
	if !ns.Valid() {
		return nil, apperror.NewValidationError(fmt.Sprintf("namespace desconhecido: %q", ns))
	}
	if key == "" {
		return nil, apperror.NewValidationError(fmt.Sprintf("chave vazia no namespace %s", ns))
	}

	inserted, err := r.backend.Insert(ctx, ns, key)
	if err != nil {
		return nil, apperror.NewUnavailableError(fmt.Sprintf("falha ao reservar %s '%s'", ns, key), err)
	}
	if !inserted {
		return nil, apperror.NewAlreadyExistsError(fmt.Sprintf("%s '%s' já está em uso", ns, key))
	}
	return &Token{registry: r, ns: ns, key: key}, nil
}

// Release libera a chave. Liberar uma chave não reservada não é erro.
func (r *Registry) Release(ctx context.Context, ns Namespace, key string) error {
	if err := r.backend.Delete(ctx, ns, key); err != nil {
		return apperror.NewUnavailableError(fmt.Sprintf("falha ao liberar %s '%s'", ns, key), err)
	}
	return nil
}

// Token representa uma reserva feita por Reserve, usada para desfazer criações que falharam.
type Token struct {
	registry *Registry
	ns       Namespace
	key      string
	released bool
}

// Release desfaz a reserva. Chamadas repetidas são ignoradas.
func (t *Token) Release(ctx context.Context) error {
	if t == nil || t.released {
		return nil
	}
	t.released = true
	return t.registry.Release(ctx, t.ns, t.key)
}

// ReleaseAll libera os tokens em ordem reversa, retornando o primeiro erro.
func ReleaseAll(ctx context.Context, tokens ...*Token) error {
	var first error
	for i := len(tokens) - 1; i >= 0; i-- {
		if err := tokens[i].Release(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
