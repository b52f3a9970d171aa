package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hafidzyami/CivilConstructionApp-sub000/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(role models.MessageRole, text string) models.ConversationMessage {
	return models.ConversationMessage{Role: role, Text: text, Timestamp: time.Now()}
}

func TestSessionStore_EvictsOldest(t *testing.T) {
	store := NewSessionStore(0, 0, 0)

	for i := 0; i < 25; i++ {
		store.Append("s1", msg(models.RoleUser, fmt.Sprintf("m%d", i)))
	}

	history := store.History("s1")
	require.Len(t, history, DefaultHistoryLimit)
	assert.Equal(t, "m5", history[0].Text)
	assert.Equal(t, "m24", history[len(history)-1].Text)
}

func TestSessionStore_ClearThenEmpty(t *testing.T) {
	store := NewSessionStore(20, time.Hour, time.Minute)
	store.Append("s1", msg(models.RoleUser, "hi"), msg(models.RoleAssistant, "hello"))
	store.SetMode("s1", models.SearchModeSimilarity)

	store.Clear("s1")

	assert.Empty(t, store.History("s1"))
	assert.Equal(t, models.SearchModeAuto, store.Mode("s1"))
	assert.Zero(t, store.Len())
}

func TestSessionStore_UnknownSession(t *testing.T) {
	store := NewSessionStore(20, time.Hour, time.Minute)

	history := store.History("nobody")
	assert.NotNil(t, history)
	assert.Empty(t, history)
	assert.Equal(t, models.SearchModeAuto, store.Mode("nobody"))
}

func TestSessionStore_HistoryIsACopy(t *testing.T) {
	store := NewSessionStore(20, time.Hour, time.Minute)
	store.Append("s1", msg(models.RoleUser, "original"))

	history := store.History("s1")
	history[0].Text = "changed"

	assert.Equal(t, "original", store.History("s1")[0].Text)
}

func TestSessionStore_ConcurrentPairsStayAdjacent(t *testing.T) {
	store := NewSessionStore(1000, time.Hour, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q := fmt.Sprintf("q%d", i)
			store.Append("shared", msg(models.RoleUser, q), msg(models.RoleAssistant, "a-"+q))
		}(i)
	}
	wg.Wait()

	history := store.History("shared")
	require.Len(t, history, 100)
	for i := 0; i < len(history); i += 2 {
		assert.Equal(t, models.RoleUser, history[i].Role)
		assert.Equal(t, models.RoleAssistant, history[i+1].Role)
		assert.Equal(t, "a-"+history[i].Text, history[i+1].Text)
	}
}

func TestSessionStore_SessionsAreIndependent(t *testing.T) {
	store := NewSessionStore(20, time.Hour, time.Minute)
	store.Append("a", msg(models.RoleUser, "one"))
	store.SetMode("b", models.SearchModeSynthesizedQuery)

	assert.Len(t, store.History("a"), 1)
	assert.Empty(t, store.History("b"))
	assert.Equal(t, models.SearchModeAuto, store.Mode("a"))
	assert.Equal(t, models.SearchModeSynthesizedQuery, store.Mode("b"))
	assert.Equal(t, 2, store.Len())
}

func TestSessionStore_Expires(t *testing.T) {
	store := NewSessionStore(20, 20*time.Millisecond, time.Hour)
	store.Append("s1", msg(models.RoleUser, "hi"))

	assert.Eventually(t, func() bool {
		return len(store.History("s1")) == 0
	}, time.Second, 10*time.Millisecond)
}
