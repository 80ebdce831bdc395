// Package task enumerates and executes tile-year classification tasks.
package task

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mangroves/internal/grid"
	"github.com/sells-group/mangroves/internal/model"
)

// ParseYears expands "2019-2021" to each year of the inclusive range. A
// single year is returned as is.
func ParseYears(yearRange string) ([]string, error) {
	yearRange = strings.TrimSpace(yearRange)
	parts := strings.Split(yearRange, "-")
	switch len(parts) {
	case 1:
		y, err := parseYear(parts[0])
		if err != nil {
			return nil, err
		}
		return []string{strconv.Itoa(y)}, nil
	case 2:
		lo, err := parseYear(parts[0])
		if err != nil {
			return nil, err
		}
		hi, err := parseYear(parts[1])
		if err != nil {
			return nil, err
		}
		if hi < lo {
			return nil, eris.Errorf("task: year range %q is reversed", yearRange)
		}
		years := make([]string, 0, hi-lo+1)
		for y := lo; y <= hi; y++ {
			years = append(years, strconv.Itoa(y))
		}
		return years, nil
	default:
		return nil, eris.Errorf("task: invalid year range %q", yearRange)
	}
}

func parseYear(s string) (int, error) {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || y < 1000 || y > 9999 {
		return 0, eris.Errorf("task: invalid year %q", s)
	}
	return y, nil
}

// ExistsFunc reports whether the output of task is already present.
type ExistsFunc func(ctx context.Context, task model.Task) (bool, error)

// ListOptions controls task enumeration.
type ListOptions struct {
	// Limit stops enumeration once this many tasks are collected. 0 means
	// no limit.
	Limit int
	// Overwrite lists tasks whose output already exists.
	Overwrite bool
	// Exists is consulted unless Overwrite is set. Nil means nothing exists.
	Exists ExistsFunc
}

// List returns tile × year tasks in tile-major order.
func List(ctx context.Context, tiles []grid.TileIndex, years []string, version string, opts ListOptions) ([]model.Task, error) {
	var tasks []model.Task
	for _, tile := range tiles {
		for _, year := range years {
			t := model.Task{TileID: tile.String(), Year: year, Version: version}
			if !opts.Overwrite && opts.Exists != nil {
				exists, err := opts.Exists(ctx, t)
				if err != nil {
					return nil, eris.Wrapf(err, "task: check %s %s", t.TileID, t.Year)
				}
				if exists {
					continue
				}
			}
			tasks = append(tasks, t)
			if opts.Limit > 0 && len(tasks) >= opts.Limit {
				return tasks, nil
			}
		}
	}
	return tasks, nil
}
