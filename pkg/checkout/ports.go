package checkout

import (
	"context"

	"github.com/paydesk/console/pkg/billingapi"
)

// Backend is the part of the billing API a flow calls. *billingapi.Client
// implements it. An initiation without a transaction reference is treated
// as failed.
type Backend interface {
	CreateSubscription(ctx context.Context, req billingapi.CreateSubscriptionRequest) (*billingapi.CheckoutSession, error)
	InitiateMoMo(ctx context.Context, req billingapi.MoMoInitiateRequest) (*billingapi.MoMoInitiation, error)
	MoMoStatus(ctx context.Context, ref string) (*billingapi.MoMoStatus, error)
}

// Navigator performs the full-page navigation to a hosted checkout.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, url string) error

func (fn NavigatorFunc) Navigate(ctx context.Context, url string) error { return fn(ctx, url) }

// Level is the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a transient message for the user.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier shows notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (fn NotifierFunc) Notify(ctx context.Context, n Notification) { fn(ctx, n) }
