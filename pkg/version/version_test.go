package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depotworks/depot/pkg/errdefs"
	"github.com/depotworks/depot/pkg/version"
)

func TestParse(t *testing.T) {
	testcases := []struct {
		input string
		ok    bool
	}{
		{"0.1.0", true},
		{"1.0.0", true},
		{"1.2.3-rc.1", true},
		{"1.2.3+build.5", true},
		{"v1.0.0", false},
		{"1.0", false},
		{"1", false},
		{"not-a-version", false},
		{"", false},
	}
	for _, tc := range testcases {
		t.Run(tc.input, func(t *testing.T) {
			_, err := version.Parse(tc.input)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, errdefs.ErrInvalidParameter)
			}
			assert.Equal(t, tc.ok, version.IsValid(tc.input))
		})
	}
}

func TestLatest(t *testing.T) {
	latest, err := version.Latest([]string{"0.1.0", "1.1.0", "1.0.5", "0.9.9"})
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", latest)

	latest, err = version.Latest(nil)
	require.NoError(t, err)
	assert.Empty(t, latest)

	// prerelease sorts below the release
	latest, err = version.Latest([]string{"2.0.0-rc.1", "1.9.0"})
	require.NoError(t, err)
	assert.Equal(t, "2.0.0-rc.1", latest)
}

func TestLatestFixedPoint(t *testing.T) {
	set := []string{"0.1.0", "1.1.0", "1.0.5"}
	latest, err := version.Latest(set)
	require.NoError(t, err)
	again, err := version.Latest(append(set, latest))
	require.NoError(t, err)
	assert.Equal(t, latest, again)
}

func TestStrictlyGreater(t *testing.T) {
	existing := []string{"0.1.0", "1.0.0"}

	blocking, err := version.StrictlyGreater("1.0.1", existing)
	require.NoError(t, err)
	assert.Empty(t, blocking)

	blocking, err = version.StrictlyGreater("1.0.0", existing)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", blocking)

	blocking, err = version.StrictlyGreater("0.5.0", existing)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", blocking)

	blocking, err = version.StrictlyGreater("0.1.0", nil)
	require.NoError(t, err)
	assert.Empty(t, blocking)
}

func TestMatchRequirement(t *testing.T) {
	versions := []string{"0.9.0", "1.0.0", "1.2.0", "2.0.0"}

	testcases := []struct {
		requirement string
		want        string
	}{
		{"*", "2.0.0"},
		{"^1.0", "1.2.0"},
		{">=1", "2.0.0"},
		{"<1.0.0", "0.9.0"},
		{"=1.0.0", "1.0.0"},
		{"^3.0", ""},
	}
	for _, tc := range testcases {
		t.Run(tc.requirement, func(t *testing.T) {
			got, err := version.MatchRequirement(versions, tc.requirement)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := version.MatchRequirement(versions, "not a requirement")
	assert.ErrorIs(t, err, errdefs.ErrInvalidParameter)
}
