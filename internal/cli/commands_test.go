package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mangashelf/internal/collection"
	"github.com/mrlokans/mangashelf/internal/config"
	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/mangaapi"
)

func intPtr(v int) *int { return &v }

func TestSingleFilter(t *testing.T) {
	f, err := singleFilter("", "", "")
	require.NoError(t, err)
	assert.True(t, f.IsZero())

	f, err = singleFilter("Drama", "", "")
	require.NoError(t, err)
	assert.Equal(t, mangaapi.Filter{Kind: mangaapi.FilterGenre, Value: "Drama"}, f)

	f, err = singleFilter("", "", "Samurai")
	require.NoError(t, err)
	assert.Equal(t, mangaapi.FilterTheme, f.Kind)

	_, err = singleFilter("Drama", "Seinen", "")
	assert.Error(t, err)
}

func TestBrowseCommand_ParseFlags(t *testing.T) {
	cmd := NewBrowseCommand(&config.Config{})
	require.NoError(t, cmd.ParseFlags([]string{"-demographic", "Seinen", "-pages", "3"}))
	assert.Equal(t, 3, cmd.Pages)
	assert.Equal(t, mangaapi.FilterDemographic, cmd.filter.Kind)

	cmd = NewBrowseCommand(&config.Config{})
	assert.Error(t, cmd.ParseFlags([]string{"-pages", "0"}))
}

func TestSearchCommand_ParseFlags(t *testing.T) {
	cmd := NewSearchCommand(&config.Config{})
	require.NoError(t, cmd.ParseFlags([]string{"-contains", "dragon", "ball"}))
	assert.True(t, cmd.Contains)
	assert.Equal(t, "dragon ball", cmd.Term)

	cmd = NewSearchCommand(&config.Config{})
	assert.Error(t, cmd.ParseFlags(nil))
}

func TestShowCommand_ParseFlags(t *testing.T) {
	cmd := NewShowCommand(&config.Config{})
	require.NoError(t, cmd.ParseFlags([]string{"42"}))
	assert.Equal(t, 42, cmd.MangaID)

	for _, args := range [][]string{nil, {"abc"}, {"0"}, {"1", "2"}} {
		assert.Error(t, NewShowCommand(&config.Config{}).ParseFlags(args), "args %v", args)
	}
}

func TestSyncCommand_ParseFlags(t *testing.T) {
	cmd := NewSyncCommand(&config.Config{})
	require.NoError(t, cmd.ParseFlags(nil))
	assert.Equal(t, "down", cmd.Action)

	cmd = NewSyncCommand(&config.Config{})
	require.NoError(t, cmd.ParseFlags([]string{"status", "-verbose"}))
	assert.Equal(t, "status", cmd.Action)
	assert.True(t, cmd.Verbose)
}

func TestCollectionCommand_ParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		wantID  int
	}{
		{name: "list", args: []string{"list"}},
		{name: "add with id", args: []string{"add", "-owned", "2", "7"}, wantID: 7},
		{name: "remove with id", args: []string{"remove", "7"}, wantID: 7},
		{name: "missing action", args: nil, wantErr: true},
		{name: "unknown action", args: []string{"buy", "7"}, wantErr: true},
		{name: "missing id", args: []string{"edit"}, wantErr: true},
		{name: "bad id", args: []string{"edit", "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewCollectionCommand(&config.Config{})
			err := cmd.ParseFlags(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, cmd.MangaID)
		})
	}
}

func TestCollectionCommand_Input(t *testing.T) {
	target := collection.Target{MangaID: 4, Title: "Vagabond", TotalVolumes: intPtr(37)}
	existing := &entities.CollectionRecord{
		MangaID:       4,
		VolumesOwned:  10,
		ReadingVolume: intPtr(8),
	}

	t.Run("edit keeps values not given", func(t *testing.T) {
		cmd := NewCollectionCommand(&config.Config{})
		require.NoError(t, cmd.ParseFlags([]string{"edit", "-owned", "12", "4"}))

		in := cmd.input(target, existing)
		assert.Equal(t, 12, in.VolumesOwned)
		assert.Equal(t, "8", in.ReadingVolume)
		assert.False(t, in.CompleteCollection)
	})

	t.Run("edit clears reading volume", func(t *testing.T) {
		cmd := NewCollectionCommand(&config.Config{})
		require.NoError(t, cmd.ParseFlags([]string{"edit", "-reading", "", "4"}))

		in := cmd.input(target, existing)
		assert.Equal(t, 10, in.VolumesOwned)
		assert.Empty(t, in.ReadingVolume)
	})

	t.Run("complete fills in the total", func(t *testing.T) {
		cmd := NewCollectionCommand(&config.Config{})
		require.NoError(t, cmd.ParseFlags([]string{"add", "-complete", "4"}))

		in := cmd.input(target, nil)
		assert.Equal(t, 37, in.VolumesOwned)
		assert.True(t, in.CompleteCollection)
	})

	t.Run("complete with unknown total keeps owned", func(t *testing.T) {
		cmd := NewCollectionCommand(&config.Config{})
		require.NoError(t, cmd.ParseFlags([]string{"add", "-complete", "-owned", "3", "4"}))

		in := cmd.input(collection.Target{MangaID: 4}, nil)
		assert.Equal(t, 3, in.VolumesOwned)
	})
}
