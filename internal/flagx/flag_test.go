package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "flag with separate value",
			args:         []string{"-a", ":5000", "-d", "postgres://x"},
			allowedFlags: []string{"-a"},
			want:         []string{"-a", ":5000"},
		},
		{
			name:         "flag with equals",
			args:         []string{"-s=secret", "-a", ":5000"},
			allowedFlags: []string{"-s"},
			want:         []string{"-s=secret"},
		},
		{
			name:         "order preserved across allowed flags",
			args:         []string{"-t", "60", "-x", "1", "-a", ":1"},
			allowedFlags: []string{"-a", "-t"},
			want:         []string{"-t", "60", "-a", ":1"},
		},
		{
			name:         "positional arguments dropped",
			args:         []string{"serve", "-a", ":1", "extra"},
			allowedFlags: []string{"-a"},
			want:         []string{"-a", ":1"},
		},
		{
			name:         "next dash token is not a value",
			args:         []string{"-a", "-d", "dsn"},
			allowedFlags: []string{"-a"},
			want:         []string{"-a"},
		},
		{
			name:         "flag at the end without value",
			args:         []string{"-a"},
			allowedFlags: []string{"-a"},
			want:         []string{"-a"},
		},
		{
			name:         "empty args",
			args:         nil,
			allowedFlags: []string{"-a"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestConfigFilePath(t *testing.T) {
	assert.Equal(t, "/etc/mediashelf.json", ConfigFilePath([]string{"-c", "/etc/mediashelf.json"}))
	assert.Equal(t, "long.json", ConfigFilePath([]string{"-config", "long.json", "-a", ":1"}))
	assert.Equal(t, "eq.json", ConfigFilePath([]string{"-config=eq.json"}))
	assert.Equal(t, "2.json", ConfigFilePath([]string{"-c", "1.json", "-config", "2.json"}))
	assert.Empty(t, ConfigFilePath([]string{"-a", ":1", "-d", "dsn"}))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, SplitList(" http://a, ,http://b "))
	assert.Empty(t, SplitList(""))
}
