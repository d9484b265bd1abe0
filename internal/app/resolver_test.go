package app

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectIDFromTopic(t *testing.T) {
	t.Parallel()

	id, ok := subjectIDFromTopic(coordinationChannelTopic("u-42", "alice"))
	require.True(t, ok)
	assert.Equal(t, "u-42", id)

	_, ok = subjectIDFromTopic("Just a regular channel topic")
	assert.False(t, ok)

	_, ok = subjectIDFromTopic("")
	assert.False(t, ok)
}

func TestFindPrefersMarkerOverSuffixFallback(t *testing.T) {
	t.Parallel()
	fp := newFakePlatform()
	fp.addGuild("g1", "Guild One")
	// An unrelated channel that only satisfies the suffix fallback.
	fp.addChannel("g1", "someone-else-birthday-card", "")
	// The real coordination channel, identified by its topic marker even
	// though the name carries a stale username.
	marked := fp.addChannel("g1", "old-name-birthday-card", coordinationChannelTopic("u-42", "old-name"))

	r := NewChannelResolver(fp, discardEntry())
	found, err := r.Find("g1", "u-42", "alice")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, marked.ID, found.ID)
}

func TestFindByCanonicalNameWhenNoMarker(t *testing.T) {
	t.Parallel()
	fp := newFakePlatform()
	fp.addGuild("g1", "Guild One")
	fp.addChannel("g1", "general", "")
	named := fp.addChannel("g1", "alice-birthday-card", "")

	r := NewChannelResolver(fp, discardEntry())
	found, err := r.Find("g1", "u-42", "alice")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, named.ID, found.ID)
}

func TestFindSuffixFallback(t *testing.T) {
	t.Parallel()
	fp := newFakePlatform()
	fp.addGuild("g1", "Guild One")
	fp.addChannel("g1", "general", "")
	stale := fp.addChannel("g1", "renamed-user-birthday-card", "")

	r := NewChannelResolver(fp, discardEntry())
	found, err := r.Find("g1", "u-42", "alice")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, stale.ID, found.ID)
}

func TestFindNoMatch(t *testing.T) {
	t.Parallel()
	fp := newFakePlatform()
	fp.addGuild("g1", "Guild One")
	fp.addChannel("g1", "general", "")

	r := NewChannelResolver(fp, discardEntry())
	found, err := r.Find("g1", "u-42", "alice")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindByMarkerIgnoresNameAndSuffixMatches(t *testing.T) {
	t.Parallel()
	fp := newFakePlatform()
	fp.addGuild("g1", "Guild One")
	// Canonical name for alice but no marker: not good enough.
	fp.addChannel("g1", "alice-birthday-card", "")
	// Suffix match carrying another subject's marker: must never resolve.
	other := fp.addChannel("g1", "bob-birthday-card", coordinationChannelTopic("u-99", "bob"))

	r := NewChannelResolver(fp, discardEntry())

	found, err := r.FindByMarker("g1", "u-42")
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = r.FindByMarker("g1", "u-99")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, other.ID, found.ID)
}

func TestReconcileUpdatesStaleNameAndTopic(t *testing.T) {
	t.Parallel()
	fp := newFakePlatform()
	fp.addGuild("g1", "Guild One")
	ch := fp.addChannel("g1", "oldname-birthday-card", coordinationChannelTopic("u-42", "oldname"))

	r := NewChannelResolver(fp, discardEntry())
	found, err := r.Find("g1", "u-42", "newname")
	require.NoError(t, err)
	require.NotNil(t, found)

	r.Reconcile(found, "u-42", "newname")

	stored := fp.channels[ch.ID]
	assert.Equal(t, "newname-birthday-card", stored.Name)
	assert.Equal(t, coordinationChannelTopic("u-42", "newname"), stored.Topic)
	// The caller's view is refreshed too.
	assert.Equal(t, "newname-birthday-card", found.Name)
}

func TestReconcileIsBestEffort(t *testing.T) {
	t.Parallel()
	fp := newFakePlatform()
	fp.addGuild("g1", "Guild One")
	ch := fp.addChannel("g1", "oldname-birthday-card", "")
	fp.renameErr = fmt.Errorf("rate limited")

	r := NewChannelResolver(fp, discardEntry())
	// Must not panic or propagate; the topic update still goes through.
	view := *fp.channels[ch.ID]
	r.Reconcile(&view, "u-42", "newname")

	stored := fp.channels[ch.ID]
	assert.Equal(t, "oldname-birthday-card", stored.Name)
	assert.Equal(t, coordinationChannelTopic("u-42", "newname"), stored.Topic)
}
