package payment

import (
	"github.com/depictapp/depict/internal/config"
	"github.com/depictapp/depict/internal/payment/adapters"
	"github.com/depictapp/depict/internal/payment/adapters/dodo"
	"github.com/depictapp/depict/internal/payment/adapters/stripe"
	paymentdomain "github.com/depictapp/depict/internal/payment/domain"
	paymentservice "github.com/depictapp/depict/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(func(cfg config.Config) *adapters.Registry {
		return adapters.NewRegistry(
			[]paymentdomain.Adapter{
				stripe.NewAdapter(cfg.Payments.StripeWebhookSecret),
				dodo.NewAdapter(cfg.Payments.DodoWebhookKey),
			},
			[]paymentdomain.CheckoutClient{
				stripe.NewClient(cfg.Payments.StripeAPIKey),
				dodo.NewClient(cfg.Payments.DodoAPIKey, cfg.Environment == "production"),
			},
		)
	}),
	fx.Provide(paymentservice.NewService),
)
