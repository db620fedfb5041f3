package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterAcceptsName(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		file   string
		want   bool
	}{
		{"no rules", Filter{}, "anything", true},
		{"all match", Filter{Accept: []string{"test", "unit"}}, "unit_test", true},
		{"all partial", Filter{Accept: []string{"test", "unit"}}, "int_test", false},
		{"explicit all", Filter{Accept: []string{"a", "b"}, AcceptMode: MatchAll}, "ab", true},
		{"any match", Filter{Accept: []string{"test", "bench"}, AcceptMode: MatchAny}, "bench_x", true},
		{"any none", Filter{Accept: []string{"test", "bench"}, AcceptMode: MatchAny}, "tool", false},
		{"ignore wins", Filter{Accept: []string{"test"}, Ignore: []string{"."}}, "test.py", false},
		{"ignore any", Filter{Ignore: []string{".o", ".so"}}, "libx.so", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.AcceptsName(tt.file))
		})
	}
}

func TestFilterEntersDir(t *testing.T) {
	f := Filter{Ignore: []string{"CMakeFiles"}, Recursive: true}
	assert.True(t, f.EntersDir("bin"))
	assert.False(t, f.EntersDir("CMakeFiles"))
	assert.False(t, Filter{}.EntersDir("bin"))
}

func TestFilterValidate(t *testing.T) {
	assert.NoError(t, Filter{}.Validate())
	assert.NoError(t, Filter{AcceptMode: MatchAny}.Validate())
	assert.Error(t, Filter{AcceptMode: "most"}.Validate())
	assert.Error(t, Filter{Accept: []string{""}}.Validate())
	assert.Error(t, Filter{Ignore: []string{""}}.Validate())
}
