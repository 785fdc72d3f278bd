package cursor

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Fields{
		{"created_at": "2024-05-01T10:00:00.123456Z"},
		{"created_at": "2024-05-01T10:00:00Z", "id": "c3f1"},
		{"score": int64(42), "ratio": 0.25, "ok": true, "gone": nil},
		{},
	}
	for _, in := range cases {
		token := Encode(in)
		assert.NotContains(t, token, "=")
		assert.NotContains(t, token, "+")
		assert.NotContains(t, token, "/")
		assert.Equal(t, in, Decode(token))
	}
}

func TestNumbersDecodeToNormalForm(t *testing.T) {
	in := Fields{"i": 7, "i64": int64(-3), "whole": 1.0, "frac": 2.5, "big": 1e20}
	out := Decode(Encode(in))
	require.NotNil(t, out)

	assert.Equal(t, int64(7), out["i"])
	assert.Equal(t, int64(-3), out["i64"])
	assert.Equal(t, int64(1), out["whole"])
	assert.Equal(t, 2.5, out["frac"])
	assert.Equal(t, 1e20, out["big"])

	// 归一化后的值再编码一次保持不变
	assert.Equal(t, out, Decode(Encode(out)))
}

func TestDecodeIsLenient(t *testing.T) {
	assert.Nil(t, Decode(""))
	assert.Nil(t, DecodePtr(nil))
	assert.Nil(t, Decode("not-base64!!!"))
	assert.Nil(t, Decode(encoding.EncodeToString([]byte("not json"))))
	assert.Nil(t, Decode(encoding.EncodeToString([]byte(`[1,2]`))))
	assert.Nil(t, Decode(encoding.EncodeToString([]byte(`null`))))
	assert.Nil(t, Decode(encoding.EncodeToString([]byte(`{"a":{"b":1}}`))))
	assert.Nil(t, Decode(encoding.EncodeToString([]byte(`{"a":1} {"b":2}`))))
	assert.NotPanics(t, func() { Decode(strings.Repeat("\x00", 64)) })
}

func TestPositionRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 9, 8, 7, 6, 5000, time.FixedZone("JST", 9*3600))
	token := Encode(Position{CreatedAt: at, ID: "p-9"}.Fields())

	pos := DecodePosition(token)
	require.NotNil(t, pos)
	assert.True(t, at.Equal(pos.CreatedAt))
	assert.Equal(t, "p-9", pos.ID)

	assert.Nil(t, DecodePosition(Encode(Fields{"id": "x"})))
	assert.Nil(t, DecodePosition(Encode(Fields{"created_at": "yesterday"})))
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, 100, NormalizeLimit(500, 20, 100))
	assert.Equal(t, 20, NormalizeLimit(0, 20, 100))
	assert.Equal(t, 20, NormalizeLimit(-5, 20, 100))
	assert.Equal(t, 1, NormalizeLimit(1, 20, 100))
	assert.Equal(t, 100, NormalizeLimit(100, 20, 100))
	assert.Equal(t, 10, NormalizeLimit(0, 50, 10))
}

type item struct {
	id string
	at time.Time
}

func itemCursor(it item) Fields {
	return Position{CreatedAt: it.at, ID: it.id}.Fields()
}

func makeItems(n int) []item {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]item, n)
	for i := range out {
		out[i] = item{id: string(rune('a' + i)), at: base.Add(-time.Duration(i) * time.Minute)}
	}
	return out
}

func TestPaginateHasMore(t *testing.T) {
	items := makeItems(4)
	page := Paginate(items, 3, itemCursor)

	require.Len(t, page.Items, 3)
	assert.True(t, page.HasMore)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, Encode(itemCursor(items[2])), *page.NextCursor)

	pos := DecodePosition(*page.NextCursor)
	require.NotNil(t, pos)
	assert.Equal(t, "c", pos.ID)
}

func TestPaginateLastPage(t *testing.T) {
	page := Paginate(makeItems(3), 5, itemCursor)
	assert.Len(t, page.Items, 3)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)

	page = Paginate(makeItems(3), 3, itemCursor)
	assert.Len(t, page.Items, 3)
	assert.False(t, page.HasMore)
}

func TestPaginateEmpty(t *testing.T) {
	page := Paginate[item](nil, 10, itemCursor)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)
}

func TestMapKeepsCursor(t *testing.T) {
	page := Paginate(makeItems(4), 2, itemCursor)
	ids := Map(page, func(it item) string { return it.id })
	assert.Equal(t, []string{"a", "b"}, ids.Items)
	assert.Equal(t, page.HasMore, ids.HasMore)
	assert.Equal(t, page.NextCursor, ids.NextCursor)
}
