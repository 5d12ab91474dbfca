package polymarket

import (
	"testing"

	"github.com/alejandrodnm/pairlock/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWireMessage_Book(t *testing.T) {
	data := []byte(`[{"event_type":"book","asset_id":"tok1","bids":[{"price":"0.45","size":"100"}],"asks":[{"price":"0.47","size":"80"}]}]`)
	updates := parseWireMessage(data)
	require.Len(t, updates, 1)
	assert.Equal(t, ports.BookSnapshot, updates[0].Kind)
	assert.Equal(t, "tok1", updates[0].TokenID)
	require.Len(t, updates[0].Bids, 1)
	assert.InDelta(t, 0.45, updates[0].Bids[0].Price, 0.0001)
	assert.InDelta(t, 80.0, updates[0].Asks[0].Size, 0.0001)
}

func TestParseWireMessage_PriceChange(t *testing.T) {
	data := []byte(`[{"event_type":"price_change","changes":[{"asset_id":"tok1","price":"0.5","side":"BUY","size":"10"}]}]`)
	updates := parseWireMessage(data)
	require.Len(t, updates, 1)
	assert.Equal(t, ports.BookDelta, updates[0].Kind)
	assert.Equal(t, "tok1", updates[0].TokenID)
	assert.Equal(t, "BUY", updates[0].Side)
	assert.InDelta(t, 0.5, updates[0].Price, 0.0001)
}

func TestParseWireMessage_SingleObjectNotArray(t *testing.T) {
	data := []byte(`{"event_type":"book","asset_id":"tok2","bids":[],"asks":[]}`)
	updates := parseWireMessage(data)
	require.Len(t, updates, 1)
	assert.Equal(t, "tok2", updates[0].TokenID)
}

func TestParseWireMessage_UnknownEventTypeIgnored(t *testing.T) {
	data := []byte(`[{"event_type":"unknown_type"}]`)
	updates := parseWireMessage(data)
	assert.Empty(t, updates)
}

func TestParseWireMessage_MalformedJSONReturnsNil(t *testing.T) {
	updates := parseWireMessage([]byte(`not json`))
	assert.Nil(t, updates)
}

func TestNextBackoff_CapsAtMax(t *testing.T) {
	d := feedInitialBackoff
	for i := 0; i < 20; i++ {
		d = nextBackoff(d)
	}
	assert.LessOrEqual(t, d, feedMaxBackoff)
}
