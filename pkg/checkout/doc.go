// Package checkout implements the subscription checkout flow.
//
// A Flow owns one checkout for a plan and a customer. The card rails create a
// hosted checkout session and navigate to it; the mobile-money rail validates
// a phone number, pushes a payment prompt and polls the transaction status
// until it settles, the user cancels or the flow is closed.
//
//	f, err := checkout.New(props, billingClient,
//		checkout.WithConfig(cfg),
//		checkout.WithNavigator(nav),
//		checkout.WithLogger(log),
//	)
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//
//	sub := f.Subscribe(ctx)
//	for msg := range sub.Receive(ctx) {
//		render(msg.Data)
//	}
//
// Every state change publishes a View. Phases move
// Idle -> Submitting -> Pending -> Succeeded | Failed | Unresolved for mobile
// money and Idle -> Submitting -> Redirecting for cards. Failed and Unresolved
// go back to Idle on Retry; Pending and Unresolved go back on CancelPayment.
package checkout
