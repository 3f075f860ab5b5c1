// Package broadcast fans typed messages out to in-process subscribers.
//
// MemoryBroadcaster never blocks the sender: a subscriber that falls behind
// loses its oldest pending messages and keeps receiving the newest ones,
// which suits state snapshots such as rendered views. WithReplay hands the
// latest message to every new subscriber so it starts from current state.
//
//	b := broadcast.NewMemoryBroadcaster[View](4, broadcast.WithReplay())
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	for msg := range sub.Receive(ctx) {
//		render(msg.Data)
//	}
package broadcast
