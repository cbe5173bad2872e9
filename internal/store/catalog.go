package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// TraceExt is the file extension of trace files.
const TraceExt = ".jsonl"

// TraceInfo summarizes one trace file in a directory.
type TraceInfo struct {
	Path      string    `json:"path"`
	Objective string    `json:"objective"`
	Entries   int       `json:"entries"`
	FinalLoss float64   `json:"finalLoss"`
	ModTime   time.Time `json:"modTime"`
	Size      int64     `json:"size"`
}

// Name returns the file name without its extension.
func (i TraceInfo) Name() string {
	return strings.TrimSuffix(filepath.Base(i.Path), TraceExt)
}

// ListTraces summarizes every trace in dir, newest first. A missing
// directory holds no traces.
func ListTraces(dir string) ([]TraceInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []TraceInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read trace directory: %w", err)
	}

	infos := []TraceInfo{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != TraceExt {
			continue
		}
		info, err := Describe(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ModTime.After(infos[j].ModTime)
	})
	return infos, nil
}

// Describe reads the trace at path and summarizes it.
func Describe(path string) (TraceInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return TraceInfo{}, &NotFoundError{Path: path}
		}
		return TraceInfo{}, fmt.Errorf("failed to stat trace: %w", err)
	}

	reader, err := NewTraceReader(path)
	if err != nil {
		return TraceInfo{}, err
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		return TraceInfo{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	info := TraceInfo{
		Path:    path,
		Entries: len(entries),
		ModTime: stat.ModTime(),
		Size:    stat.Size(),
	}
	if len(entries) > 0 {
		info.Objective = entries[0].Objective
		info.FinalLoss = entries[len(entries)-1].Loss
	}
	return info, nil
}

// DeleteTrace removes the trace at path.
func DeleteTrace(path string) error {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Path: path}
		}
		return fmt.Errorf("failed to delete trace: %w", err)
	}
	return nil
}
