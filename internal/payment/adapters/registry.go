package adapters

import (
	"strings"

	"github.com/depictapp/depict/internal/payment/domain"
)

// Registry maps provider names to their webhook adapters and checkout
// clients.
type Registry struct {
	adapters map[string]domain.Adapter
	clients  map[string]domain.CheckoutClient
}

func NewRegistry(adapters []domain.Adapter, clients []domain.CheckoutClient) *Registry {
	registry := &Registry{
		adapters: map[string]domain.Adapter{},
		clients:  map[string]domain.CheckoutClient{},
	}
	for _, adapter := range adapters {
		if adapter == nil {
			continue
		}
		provider := strings.ToLower(strings.TrimSpace(adapter.Provider()))
		if provider == "" {
			continue
		}
		registry.adapters[provider] = adapter
	}
	for _, client := range clients {
		if client == nil {
			continue
		}
		provider := strings.ToLower(strings.TrimSpace(client.Provider()))
		if provider == "" {
			continue
		}
		registry.clients[provider] = client
	}
	return registry
}

func (r *Registry) Adapter(provider string) (domain.Adapter, error) {
	if r == nil {
		return nil, domain.ErrProviderNotFound
	}
	adapter, ok := r.adapters[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return adapter, nil
}

func (r *Registry) CheckoutClient(provider string) (domain.CheckoutClient, error) {
	if r == nil {
		return nil, domain.ErrProviderNotFound
	}
	client, ok := r.clients[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return client, nil
}
