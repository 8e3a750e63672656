// Package relay provides a small synchronous observable primitive for binding
// view models to views.
//
// A PublishRelay emits only values published after subscription:
//
//	titles := relay.NewPublishRelay[string]()
//	sub := titles.Subscribe(func(title string, old *string) {
//	    label.SetText(title)
//	})
//	titles.Update("Inbox")
//	sub.Unsubscribe()
//
// A BehaviorRelay holds a value and replays it to every new subscriber.
// Dynamic is the same idea with single-argument binds.
//
// Notification is synchronous, in registration order, on the goroutine that
// calls Update. Observers may update the relay they observe; nothing guards
// against cycles. Panics raised by observers propagate to the caller of Update.
//
// Subscriptions that share a lifetime go in a Bag:
//
//	var bag relay.Bag
//	vm.Loading.Subscribe(render).DisposedBy(&bag)
//	defer bag.Dispose()
package relay
