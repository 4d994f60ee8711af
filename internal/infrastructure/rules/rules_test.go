package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/periodledger/internal/domain"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		category string
		want     domain.TransactionClass
		wantErr  bool
	}{
		{
			name:     "empty file keeps defaults",
			yaml:     "",
			category: "electric bill",
			want:     domain.ClassBill,
		},
		{
			name:     "override adds keyword",
			yaml:     "keywords:\n  savings: [piggy]\n",
			category: "Piggy Bank",
			want:     domain.ClassSavings,
		},
		{
			name:     "override replaces class keywords",
			yaml:     "keywords:\n  savings: [piggy]\n",
			category: "emergency fund",
			want:     domain.ClassGeneric,
		},
		{
			name:     "priority survives overrides",
			yaml:     "keywords:\n  transfer: [move]\n  bill: [move]\n",
			category: "move money",
			want:     domain.ClassBill,
		},
		{
			name:    "unknown class",
			yaml:    "keywords:\n  groceries: [food]\n",
			wantErr: true,
		},
		{
			name:    "generic is not configurable",
			yaml:    "keywords:\n  generic: [misc]\n",
			wantErr: true,
		},
		{
			name:    "empty keyword list",
			yaml:    "keywords:\n  bill: []\n",
			wantErr: true,
		},
		{
			name:    "unknown top-level field",
			yaml:    "classes: {}\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.yaml))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Classify(tt.category))
		})
	}
}

func TestProviderDefaults(t *testing.T) {
	p := NewProvider(zerolog.Nop())
	assert.Equal(t, domain.ClassLoan, p.Classifier().Classify("mortgage"))
	assert.Error(t, p.Reload())
}

func TestFileProviderReloadKeepsPreviousOnError(t *testing.T) {
	path := writeRules(t, t.TempDir(), "keywords:\n  savings: [piggy]\n")

	p, err := NewFileProvider(path, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, domain.ClassSavings, p.Classifier().Classify("piggy"))

	require.NoError(t, os.WriteFile(path, []byte("keywords: [broken"), 0o600))
	assert.Error(t, p.Reload())
	assert.Equal(t, domain.ClassSavings, p.Classifier().Classify("piggy"))
}

func TestNewFileProviderMissingFile(t *testing.T) {
	_, err := NewFileProvider(filepath.Join(t.TempDir(), "absent.yaml"), zerolog.Nop())
	assert.Error(t, err)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := writeRules(t, t.TempDir(), "keywords:\n  savings: [piggy]\n")

	p, err := NewFileProvider(path, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, p.Watch(ctx))

	require.NoError(t, os.WriteFile(path, []byte("keywords:\n  savings: [jar]\n"), 0o600))

	assert.Eventually(t, func() bool {
		return p.Classifier().Classify("cookie jar") == domain.ClassSavings
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatchRequiresFile(t *testing.T) {
	assert.Error(t, NewProvider(zerolog.Nop()).Watch(context.Background()))
}

func writeRules(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
