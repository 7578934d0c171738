package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dapphub-labs/dapphub/ledger"
)

func commentEvent(eventType, commentID, dappID, parentID, contentRef, tsMs string) ledger.Event {
	parent := "null"
	if parentID != "" {
		parent = fmt.Sprintf("%q", parentID)
	}
	payload := fmt.Sprintf(`{"comment_id":%q,"dapp_id":%q,"author":"0xA","content":%q,"parent_id":%s,"upvotes":"0","is_maker":false}`,
		commentID, dappID, contentRef, parent)
	return event(eventType, tsMs, payload)
}

func TestListCommentsBuildsThreadForOneDapp(t *testing.T) {
	reader := newFakeReader()
	eventType := commentEventType("0xpkg")
	reader.events[eventType] = []ledger.Event{
		commentEvent(eventType, "c1", "0xd", "", "blob-c1", "1000"),
		commentEvent(eventType, "c2", "0xd", "c1", "blob-c2", "2000"),
		commentEvent(eventType, "c3", "0xother", "", "blob-c3", "3000"),
	}
	store := &fakeStore{blobs: map[string]string{
		"blob-c1": "first",
		"blob-c2": "reply",
	}}

	svc := NewCommentService(reader, store, nopCache{}, testConfig())
	forest, err := svc.ListComments(context.Background(), "0xd")
	require.NoError(t, err)

	require.Len(t, forest, 1, "the other dapp's comment stays out")
	root := forest[0]
	assert.Equal(t, "c1", root.ID)
	assert.Equal(t, "first", root.Content)
	require.Len(t, root.Replies, 1)
	assert.Equal(t, "c2", root.Replies[0].ID)
	assert.Equal(t, "reply", root.Replies[0].Content)
}

func TestListCommentsKeepsRefWhenBlobUnavailable(t *testing.T) {
	reader := newFakeReader()
	eventType := commentEventType("0xpkg")
	reader.events[eventType] = []ledger.Event{
		commentEvent(eventType, "c1", "0xd", "", "blob-gone", "1000"),
	}

	svc := NewCommentService(reader, &fakeStore{failAll: true}, nopCache{}, testConfig())
	forest, err := svc.ListComments(context.Background(), "0xd")
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, "blob-gone", forest[0].Content)
}

func TestListCommentsSkipsUndecodableEvents(t *testing.T) {
	reader := newFakeReader()
	eventType := commentEventType("0xpkg")
	reader.events[eventType] = []ledger.Event{
		event(eventType, "1000", `{"comment_id":123}`),
		commentEvent(eventType, "c1", "0xd", "", "", "2000"),
	}

	svc := NewCommentService(reader, &fakeStore{}, nopCache{}, testConfig())
	forest, err := svc.ListComments(context.Background(), "0xd")
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, "c1", forest[0].ID)
}
