package pubsub

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func TestTopicResourceName(t *testing.T) {
	require.Equal(t, "projects/shop/topics/orders", topicResourceName("shop", "orders"))
	require.Equal(t, "projects/other/topics/orders", topicResourceName("shop", "projects/other/topics/orders"))
	require.Equal(t, "", topicResourceName("shop", "  "))
	require.Equal(t, "", topicResourceName("", "orders"))
}

func TestTopicFor(t *testing.T) {
	cfg := config.PubSubConfig{OrdersTopic: "orders", ReviewsTopic: "reviews"}

	topic, err := TopicFor(cfg, enums.AggregateOrder)
	require.NoError(t, err)
	require.Equal(t, "orders", topic)

	topic, err = TopicFor(cfg, enums.AggregateReview)
	require.NoError(t, err)
	require.Equal(t, "reviews", topic)

	_, err = TopicFor(cfg, "ledger")
	require.Error(t, err)
}

func TestTopicNamesSkipsBlank(t *testing.T) {
	require.Equal(t, []string{"orders"}, topicNames(config.PubSubConfig{OrdersTopic: " orders "}))
	require.Empty(t, topicNames(config.PubSubConfig{}))
}

func TestIsRetryable(t *testing.T) {
	require.False(t, IsRetryable(status.Error(codes.NotFound, "topic gone")))
	require.False(t, IsRetryable(status.Error(codes.PermissionDenied, "nope")))
	require.True(t, IsRetryable(status.Error(codes.Unavailable, "try later")))
	require.True(t, IsRetryable(errors.New("plain network error")))
}

func TestClientOptionsPrefersInlineCredentials(t *testing.T) {
	require.Empty(t, clientOptions(config.GCPConfig{ProjectID: "shop"}))
	require.Len(t, clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`, ApplicationCredentials: "/tmp/key.json"}), 1)
	require.Len(t, clientOptions(config.GCPConfig{ApplicationCredentials: "/tmp/key.json"}), 1)
}
