package payment

import (
	"context"
	"fmt"
	"log"

	"ticket-marketplace/internal/services/payment/paystack"
	"ticket-marketplace/internal/services/payment/stripepay"
)

// Factory creates provider instances from provider-specific configs.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

// CreateProvider creates a provider instance based on slug and configuration.
func (f *Factory) CreateProvider(ctx context.Context, slug ProviderSlug, config any) (Provider, error) {
	switch slug {
	case ProviderStripePay:
		cfg, ok := config.(*stripepay.Config)
		if !ok {
			return nil, fmt.Errorf("invalid stripepay config type, expected *stripepay.Config")
		}
		return NewStripePayAdapter(ctx, cfg)

	case ProviderPaystack:
		cfg, ok := config.(*paystack.Config)
		if !ok {
			return nil, fmt.Errorf("invalid paystack config type, expected *paystack.Config")
		}
		return NewPaystackAdapter(ctx, cfg)

	default:
		return nil, fmt.Errorf("unsupported payment provider: %s", slug)
	}
}

// SupportedProviders returns the list of provider slugs the factory knows.
func (f *Factory) SupportedProviders() []ProviderSlug {
	return []ProviderSlug{ProviderStripePay, ProviderPaystack}
}

// Registry manages the configured provider instances. A seller picks one
// provider at onboarding; checkout and refunds resolve it by slug here.
type Registry struct {
	providers map[ProviderSlug]Provider
	factory   *Factory
	primary   ProviderSlug
}

func NewRegistry(factory *Factory) *Registry {
	return &Registry{
		providers: make(map[ProviderSlug]Provider),
		factory:   factory,
	}
}

// Register creates and stores a provider instance. The first registered
// provider becomes the primary.
func (r *Registry) Register(ctx context.Context, slug ProviderSlug, config any) error {
	provider, err := r.factory.CreateProvider(ctx, slug, config)
	if err != nil {
		return fmt.Errorf("failed to create %s provider: %w", slug, err)
	}

	r.providers[slug] = provider

	if r.primary == "" {
		r.primary = slug
	}

	return nil
}

// Get returns a provider instance by slug.
func (r *Registry) Get(slug ProviderSlug) (Provider, error) {
	provider, exists := r.providers[slug]
	if !exists {
		return nil, fmt.Errorf("payment provider %s not registered", slug)
	}
	return provider, nil
}

// Primary returns the primary provider instance.
func (r *Registry) Primary() (Provider, error) {
	if r.primary == "" {
		return nil, fmt.Errorf("no primary payment provider configured")
	}
	return r.Get(r.primary)
}

// Available returns the registered provider slugs.
func (r *Registry) Available() []ProviderSlug {
	slugs := make([]ProviderSlug, 0, len(r.providers))
	for slug := range r.providers {
		slugs = append(slugs, slug)
	}
	return slugs
}

// Close gracefully closes all provider connections.
func (r *Registry) Close(ctx context.Context) error {
	for slug, provider := range r.providers {
		if err := provider.Close(ctx); err != nil {
			log.Printf("Error closing %s provider: %v", slug, err)
		}
	}
	return nil
}
