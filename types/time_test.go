package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTTL(t *testing.T) {
	tests := []struct {
		name    string
		ttl     string
		want    TimeDiff
		wantErr bool
	}{
		{name: "seconds", ttl: "10s", want: TimeDiff(10_000)},
		{name: "default window", ttl: "30m", want: DefaultTTL},
		{name: "maximum", ttl: "18h", want: MaxTTL},
		{name: "compound", ttl: "1h30m", want: TimeDiff(90 * 60 * 1000)},
		{name: "zero", ttl: "0s", wantErr: true},
		{name: "negative", ttl: "-10s", wantErr: true},
		{name: "above maximum", ttl: "19h", wantErr: true},
		{name: "not a duration", ttl: "soon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTTL(tt.ttl)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTTL)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTimeDiffString(t *testing.T) {
	require.Equal(t, "30m", DefaultTTL.String())
	require.Equal(t, "18h", MaxTTL.String())
	require.Equal(t, "1h30m", TimeDiff(90*60*1000).String())
	require.Equal(t, "1s500ms", TimeDiff(1500).String())
	require.Equal(t, "0s", TimeDiff(0).String())
}

func TestTimeDiffJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(DefaultTTL)
	require.NoError(t, err)
	require.Equal(t, `"30m"`, string(data))

	var ttl TimeDiff
	require.NoError(t, json.Unmarshal(data, &ttl))
	require.Equal(t, DefaultTTL, ttl)
}

func TestTimestampRendering(t *testing.T) {
	ts, err := ParseTimestamp("2020-11-17T00:39:24.072Z")
	require.NoError(t, err)
	require.Equal(t, "2020-11-17T00:39:24.072Z", ts.String())

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	var decoded Timestamp
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, ts, decoded)
}

func TestTimestampBytesLittleEndian(t *testing.T) {
	require.Equal(t, []byte{0xe7, 3, 0, 0, 0, 0, 0, 0}, Timestamp(999).Bytes())
	require.Equal(t, []byte{0xe7, 3, 0, 0, 0, 0, 0, 0}, TimeDiff(999).Bytes())
}
