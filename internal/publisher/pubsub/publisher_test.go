package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/JakeFAU/marketing-site/internal/site"
)

func newTestTopic(t *testing.T) (*pstest.Server, *pubsub.Topic) {
	t.Helper()
	ctx := context.Background()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := pubsub.NewClient(ctx, "test-project", option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	topic, err := client.CreateTopic(ctx, "leads")
	require.NoError(t, err)
	return srv, topic
}

func TestPublisherDeliversJSONEvent(t *testing.T) {
	t.Parallel()

	srv, topic := newTestTopic(t)
	pub := New(topic)
	require.Equal(t, "pubsub", pub.Name())

	event := site.Event{
		Kind:       site.EventSubscriberCreated,
		Subscriber: &site.Subscriber{ID: 9, Email: "reader@example.com"},
	}
	require.NoError(t, pub.Deliver(context.Background(), event))
	pub.Stop()

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "subscriber.created", msgs[0].Attributes["kind"])

	var got site.Event
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	require.Equal(t, site.EventSubscriberCreated, got.Kind)
	require.Equal(t, "reader@example.com", got.Subscriber.Email)
}

func TestPublisherForwardsEventTraceContext(t *testing.T) {
	t.Parallel()

	srv, topic := newTestTopic(t)
	pub := New(topic)

	const traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	event := site.Event{
		Kind:    site.EventContactCreated,
		Contact: &site.Contact{ID: 3, Email: "ada@example.com"},
		Trace:   map[string]string{"traceparent": traceparent},
	}
	require.NoError(t, pub.Deliver(context.Background(), event))
	pub.Stop()

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, traceparent, msgs[0].Attributes["traceparent"])
	require.Equal(t, "contact.created", msgs[0].Attributes["kind"])
	require.NotContains(t, string(msgs[0].Data), "traceparent")
}

func TestPublisherWithoutTopic(t *testing.T) {
	t.Parallel()

	pub := New(nil)
	require.Error(t, pub.Deliver(context.Background(), site.Event{}))
	pub.Stop()
}
