package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildCxnStr(t *testing.T) {
	for _, tc := range []struct {
		name     string
		cfg      *CxnConfig
		expected string
	}{
		{"URL", &CxnConfig{URL: "postgres://u:p@db:5432/acr", Host: "ignored"}, "postgres://u:p@db:5432/acr"},
		{
			"Default-SSL",
			&CxnConfig{Host: "localhost", Port: "5432", Name: "acr", User: "u", Password: "p"},
			"host=localhost port=5432 dbname=acr user=u password=p sslmode=prefer",
		},
		{
			"SSL",
			&CxnConfig{Host: "localhost", Port: "5432", Name: "acr", User: "u", Password: "p", SSLMode: "disable"},
			"host=localhost port=5432 dbname=acr user=u password=p sslmode=disable",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, buildCxnStr(tc.cfg))
		})
	}
}

func TestFilterRan(t *testing.T) {
	// Arrange
	all := []Migration{{Key: "a"}, {Key: "b"}, {Key: "c"}}

	// Act
	actual := filterRan(all, []string{"a", "c"})

	// Assert
	require.Len(t, actual, 1)
	require.Equal(t, "b", actual[0].Key)
	require.Len(t, filterRan(all, nil), 3)
}

func TestTotalPages(t *testing.T) {
	for _, tc := range []struct {
		total, perPage, expected int64
	}{
		{0, 100, 0},
		{1, 100, 1},
		{100, 100, 1},
		{101, 100, 2},
		{5, 0, 0},
	} {
		require.Equal(t, tc.expected, totalPages(tc.total, tc.perPage))
	}
}

func TestPagedDataNav(t *testing.T) {
	pd := PagedData{Page: 1, TotalPages: 2}
	require.True(t, pd.HasNext())
	require.False(t, pd.HasPrev())

	pd.Page = 2
	require.False(t, pd.HasNext())
	require.True(t, pd.HasPrev())
}
