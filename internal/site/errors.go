package site

import "errors"

// ErrAlreadySubscribed is returned by SubscriberStore.CreateSubscriber when
// the normalized email already has a row.
var ErrAlreadySubscribed = errors.New("email already subscribed")

// ErrQueueClosed is returned by EventQueue operations after shutdown.
var ErrQueueClosed = errors.New("queue closed")
