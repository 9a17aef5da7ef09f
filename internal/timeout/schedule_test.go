package timeout

import (
	"encoding/base64"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeJSON(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestDecode(t *testing.T) {
	value := encodeJSON(`{"inactivityWarning":100,"inactivityTimeout":200,"totalWarning":300,"totalTimeout":400,"currentTime":50}`)

	s, err := Decode(value)
	require.NoError(t, err)
	assert.Equal(t, Schedule{
		InactivityWarning: 100,
		InactivityTimeout: 200,
		TotalWarning:      300,
		TotalTimeout:      400,
		CurrentTime:       50,
	}, s)
}

func TestDecodeURLEscapedAndUnpadded(t *testing.T) {
	raw := encodeJSON(`{"inactivityWarning":1,"inactivityTimeout":2,"totalWarning":3,"totalTimeout":4,"currentTime":0}`)

	s, err := Decode(url.QueryEscape(raw))
	require.NoError(t, err)
	assert.Equal(t, int64(4), s.TotalTimeout)

	unpadded := base64.RawStdEncoding.EncodeToString([]byte(`{"inactivityWarning":1,"inactivityTimeout":2,"totalWarning":3,"totalTimeout":4,"currentTime":0}`))
	s, err = Decode(unpadded)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.InactivityWarning)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"Not base64", "%%%not-base64"},
		{"Not JSON", encodeJSON("not json")},
		{"JSON array", encodeJSON("[1,2,3]")},
		{"Missing field", encodeJSON(`{"inactivityWarning":1,"inactivityTimeout":2,"totalWarning":3,"totalTimeout":4}`)},
		{"String field", encodeJSON(`{"inactivityWarning":"1","inactivityTimeout":2,"totalWarning":3,"totalTimeout":4,"currentTime":0}`)},
		{"Null field", encodeJSON(`{"inactivityWarning":null,"inactivityTimeout":2,"totalWarning":3,"totalTimeout":4,"currentTime":0}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.value)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}

	_, err := Decode("")
	assert.ErrorIs(t, err, ErrNoCookie)
}

func TestEncodeDecode(t *testing.T) {
	s := Schedule{InactivityWarning: 10, InactivityTimeout: 20, TotalWarning: 30, TotalTimeout: 40, CurrentTime: 5, Skew: 99}

	decoded, err := Decode(s.Encode())
	require.NoError(t, err)
	s.Skew = 0
	assert.Equal(t, s, decoded)
}

func TestSkew(t *testing.T) {
	s := Schedule{CurrentTime: 1000}
	clientNow := time.Unix(1060, 0)

	s = s.WithSkew(clientNow)
	assert.Equal(t, int64(60), s.Skew)
	assert.Equal(t, int64(1000), s.ServerNow(clientNow))
	assert.Equal(t, int64(1030), s.ServerNow(time.Unix(1090, 0)))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Schedule{InactivityWarning: 1, InactivityTimeout: 1, TotalWarning: 2, TotalTimeout: 3}.Validate())
	assert.Error(t, Schedule{InactivityWarning: 5, InactivityTimeout: 1, TotalWarning: 2, TotalTimeout: 3}.Validate())
	assert.Error(t, Schedule{InactivityWarning: 1, InactivityTimeout: 2, TotalWarning: 4, TotalTimeout: 3}.Validate())
}

func TestExpired(t *testing.T) {
	s := Schedule{InactivityTimeout: 100, TotalTimeout: 200}
	assert.False(t, s.Expired(99))
	assert.True(t, s.Expired(100))
	assert.True(t, Schedule{InactivityTimeout: 300, TotalTimeout: 200}.Expired(200))
}
