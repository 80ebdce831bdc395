package task

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mangroves/internal/grid"
	"github.com/sells-group/mangroves/internal/model"
)

func TestParseYears(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"2020", []string{"2020"}, false},
		{"2019-2021", []string{"2019", "2020", "2021"}, false},
		{" 2019 - 2019 ", []string{"2019"}, false},
		{"2021-2019", nil, true},
		{"2019-2020-2021", nil, true},
		{"", nil, true},
		{"twenty", nil, true},
		{"20", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseYears(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

var listTiles = []grid.TileIndex{{X: 1, Y: 2}, {X: 3, Y: 4}}

func TestList_CartesianProduct(t *testing.T) {
	tasks, err := List(context.Background(), listTiles, []string{"2019", "2020"}, "0.1.0", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []model.Task{
		{TileID: "1,2", Year: "2019", Version: "0.1.0"},
		{TileID: "1,2", Year: "2020", Version: "0.1.0"},
		{TileID: "3,4", Year: "2019", Version: "0.1.0"},
		{TileID: "3,4", Year: "2020", Version: "0.1.0"},
	}, tasks)
}

func TestList_SkipsExistingAndLimits(t *testing.T) {
	exists := func(_ context.Context, task model.Task) (bool, error) {
		return task.TileID == "1,2", nil
	}
	tasks, err := List(context.Background(), listTiles, []string{"2019", "2020", "2021"}, "v", ListOptions{Exists: exists, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []model.Task{
		{TileID: "3,4", Year: "2019", Version: "v"},
		{TileID: "3,4", Year: "2020", Version: "v"},
	}, tasks)
}

func TestList_OverwriteIgnoresExists(t *testing.T) {
	called := false
	exists := func(context.Context, model.Task) (bool, error) {
		called = true
		return true, nil
	}
	tasks, err := List(context.Background(), listTiles, []string{"2020"}, "v", ListOptions{Exists: exists, Overwrite: true})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
	assert.False(t, called)
}

func TestList_ExistsError(t *testing.T) {
	boom := errors.New("boom")
	exists := func(context.Context, model.Task) (bool, error) { return false, boom }
	_, err := List(context.Background(), listTiles, []string{"2020"}, "v", ListOptions{Exists: exists})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}
