package memory_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flockd/internal/domain"
	"flockd/internal/store/memory"
)

func seedUser(t *testing.T, st *memory.Store, handle string) int64 {
	t.Helper()
	u := &domain.User{
		Handle:    handle,
		FirstName: handle,
		LastName:  handle,
		Email:     handle + "@example.com",
		Channels:  []int64{},
		Sent:      []int64{},
	}
	require.NoError(t, st.Users().Create(context.Background(), u))
	return u.ID
}

func seedChannel(t *testing.T, st *memory.Store, creatorID int64) int64 {
	t.Helper()
	ch, err := st.Channels().Create(context.Background(), "ch", true, creatorID)
	require.NoError(t, err)
	return ch.ID
}

func TestMessageIDsNeverReused(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	uid := seedUser(t, st, "sender")
	ch := seedChannel(t, st, uid)

	id0, err := st.Messages().Append(ctx, &domain.Message{ChannelID: ch, SenderID: uid, Body: "a"})
	require.NoError(t, err)
	require.NoError(t, st.Messages().Remove(ctx, id0))

	id1, err := st.Messages().Append(ctx, &domain.Message{ChannelID: ch, SenderID: uid, Body: "b"})
	require.NoError(t, err)
	assert.Greater(t, id1, id0)

	total, err := st.Messages().TotalIssued(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestRemoveUnregistersFromSender(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	uid := seedUser(t, st, "sender")
	ch := seedChannel(t, st, uid)

	id, err := st.Messages().Append(ctx, &domain.Message{ChannelID: ch, SenderID: uid, Body: "gone"})
	require.NoError(t, err)

	u, err := st.Users().GetByID(ctx, uid)
	require.NoError(t, err)
	assert.True(t, u.SentContains(id))

	require.NoError(t, st.Messages().Remove(ctx, id))

	u, err = st.Users().GetByID(ctx, uid)
	require.NoError(t, err)
	assert.False(t, u.SentContains(id))
}

func TestReset(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	uid := seedUser(t, st, "sender")
	ch := seedChannel(t, st, uid)
	_, err := st.Messages().Append(ctx, &domain.Message{ChannelID: ch, SenderID: uid, Body: "wiped"})
	require.NoError(t, err)

	st.Reset()

	users, err := st.Users().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	total, err := st.Messages().TotalIssued(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	// Ids restart from zero after a reset.
	again := seedUser(t, st, "fresh")
	assert.Equal(t, int64(0), again)
}

func TestBroadcastHitsChannelsInOrder(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	uid := seedUser(t, st, "owner")
	c0 := seedChannel(t, st, uid)
	c1 := seedChannel(t, st, uid)

	ids, err := st.Messages().Broadcast(ctx, uid, "to all", time.Now().Unix())
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Less(t, ids[0], ids[1])

	for _, ch := range []int64{c0, c1} {
		msgs, err := st.Messages().ListChannel(ctx, ch)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "to all", msgs[0].Body)
	}
}

func TestGetBySessionTagIgnoresEmptyTag(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	seedUser(t, st, "loggedout") // SessionTag is ""

	u, err := st.Users().GetBySessionTag(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestStandupFlushLosesNoLines(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	uid := seedUser(t, st, "starter")
	ch := seedChannel(t, st, uid)

	require.NoError(t, st.Standups().Start(ctx, ch, uid, time.Now().Unix()+1))

	var accepted int64
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				line := fmt.Sprintf("starter: g%d-%d", g, i)
				if err := st.Standups().AppendLine(ctx, ch, line); err == nil {
					atomic.AddInt64(&accepted, 1)
				}
			}
		}(g)
	}

	var msg *domain.Message
	var flushErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(5 * time.Millisecond)
		msg, flushErr = st.Standups().Flush(ctx, ch, time.Now().Unix())
	}()
	wg.Wait()

	require.NoError(t, flushErr)
	require.NotNil(t, msg)

	// Every line accepted before the flush is in the aggregate; any line
	// arriving after it was rejected with "no active standup".
	got := int64(len(strings.Split(msg.Body, "\n")))
	assert.Equal(t, accepted, got)

	su, err := st.Standups().Get(ctx, ch)
	require.NoError(t, err)
	assert.False(t, su.Active)
	assert.Empty(t, su.Lines)
}

func TestStandupDoubleStartRejected(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	uid := seedUser(t, st, "starter")
	ch := seedChannel(t, st, uid)

	require.NoError(t, st.Standups().Start(ctx, ch, uid, time.Now().Unix()+60))
	err := st.Standups().Start(ctx, ch, uid, time.Now().Unix()+60)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEmptyFlushProducesNoMessage(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	uid := seedUser(t, st, "starter")
	ch := seedChannel(t, st, uid)

	require.NoError(t, st.Standups().Start(ctx, ch, uid, time.Now().Unix()+1))
	msg, err := st.Standups().Flush(ctx, ch, time.Now().Unix())
	require.NoError(t, err)
	assert.Nil(t, msg)

	msgs, err := st.Messages().ListChannel(ctx, ch)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestConcurrentSends(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	uid := seedUser(t, st, "sender")
	ch := seedChannel(t, st, uid)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				_, err := st.Messages().Append(ctx, &domain.Message{
					ChannelID: ch,
					SenderID:  uid,
					Body:      "concurrent",
					CreatedAt: time.Now().Unix(),
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	msgs, err := st.Messages().ListChannel(ctx, ch)
	require.NoError(t, err)
	assert.Len(t, msgs, 200)

	// Ids are unique.
	seen := make(map[int64]bool, len(msgs))
	for _, m := range msgs {
		assert.False(t, seen[m.ID])
		seen[m.ID] = true
	}
}
