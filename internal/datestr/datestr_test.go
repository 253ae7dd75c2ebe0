package datestr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	for _, query := range []string{"0271-0300", "0001-0001", "1850-2005", "33-52"} {
		s, err := Parse(query)
		require.NoError(t, err, query)
		assert.Equal(t, query, s.String())
		assert.False(t, s.All())
	}
}

func TestParseSentinel(t *testing.T) {
	for _, query := range []string{"", "null", "~", "NULL"} {
		s, err := Parse(query)
		require.NoError(t, err, query)
		assert.True(t, s.All())
		assert.Equal(t, "ALL", s.String())
		assert.Nil(t, s.Years())
	}
}

func TestParseErrors(t *testing.T) {
	for _, query := range []string{"0271", "a-b", "0300-0271", "027-0300", "-12--10"} {
		_, err := Parse(query)
		require.Error(t, err, query)
		var qerr *QueryError
		require.ErrorAs(t, err, &qerr)
		assert.Equal(t, query, qerr.Query)
	}
}

func TestYears(t *testing.T) {
	s := MustParse("0298-0301")
	assert.Equal(t, []string{"0298", "0299", "0300", "0301"}, s.Years())
}

func TestContains(t *testing.T) {
	s := MustParse("0271-0300")
	assert.True(t, s.Contains(271))
	assert.True(t, s.Contains(300))
	assert.False(t, s.Contains(301))
	assert.True(t, All().Contains(301))
}
