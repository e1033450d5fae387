package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessagesRoundTrip(t *testing.T) {
	msgs := []Message{
		{ID: "1", Sender: SenderPastSelf, Text: "你好！", Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{ID: "2", Sender: SenderUser, Text: "好久不见", Timestamp: time.Date(2024, 3, 1, 10, 1, 0, 0, time.UTC)},
	}

	raw, err := EncodeMessages(msgs)
	require.NoError(t, err)

	c := Conversation{Messages: raw}
	got, err := c.DecodeMessages()
	require.NoError(t, err)
	assert.Equal(t, msgs, got)
}

func TestDecodeMessagesEmpty(t *testing.T) {
	c := Conversation{}
	got, err := c.DecodeMessages()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDecodeMessagesMalformed(t *testing.T) {
	c := Conversation{Messages: []byte(`{not json`)}
	_, err := c.DecodeMessages()
	assert.Error(t, err)
}
