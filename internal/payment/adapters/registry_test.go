package adapters_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/depictapp/depict/internal/payment/adapters"
	paymentdomain "github.com/depictapp/depict/internal/payment/domain"
	"github.com/stretchr/testify/assert"
)

type namedAdapter struct{ name string }

func (a namedAdapter) Provider() string { return a.name }

func (a namedAdapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	return nil
}

func (a namedAdapter) Parse(ctx context.Context, payload []byte) (*paymentdomain.Event, error) {
	return nil, paymentdomain.ErrEventIgnored
}

type namedClient struct{ name string }

func (c namedClient) Provider() string { return c.name }

func (c namedClient) ResolveSession(ctx context.Context, sessionID string) (*paymentdomain.Event, error) {
	return nil, paymentdomain.ErrPaymentIncomplete
}

func TestRegistryLookupIsCaseInsensitive(t *testing.T) {
	registry := adapters.NewRegistry(
		[]paymentdomain.Adapter{namedAdapter{name: "Stripe"}},
		[]paymentdomain.CheckoutClient{namedClient{name: "dodo"}},
	)

	adapter, err := registry.Adapter(" stripe ")
	assert.NoError(t, err)
	assert.Equal(t, "Stripe", adapter.Provider())

	client, err := registry.CheckoutClient("DODO")
	assert.NoError(t, err)
	assert.Equal(t, "dodo", client.Provider())
}

func TestRegistryUnknownProvider(t *testing.T) {
	registry := adapters.NewRegistry(nil, nil)

	_, err := registry.Adapter("paypal")
	assert.ErrorIs(t, err, paymentdomain.ErrProviderNotFound)

	_, err = registry.CheckoutClient("paypal")
	assert.ErrorIs(t, err, paymentdomain.ErrProviderNotFound)
}

func TestRegistrySkipsBlankProviders(t *testing.T) {
	registry := adapters.NewRegistry(
		[]paymentdomain.Adapter{namedAdapter{name: "  "}, nil},
		nil,
	)

	_, err := registry.Adapter("")
	assert.ErrorIs(t, err, paymentdomain.ErrProviderNotFound)
}
