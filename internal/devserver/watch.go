package devserver

import (
	"context"
	"os"
	"time"
)

// fileStamp identifies one version of the source file on disk.
type fileStamp struct {
	modTime time.Time
	size    int64
}

func (f fileStamp) same(o fileStamp) bool {
	return f.size == o.size && f.modTime.Equal(o.modTime)
}

func stat(path string) (fileStamp, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, false
	}
	return fileStamp{modTime: info.ModTime(), size: info.Size()}, true
}

// Watch builds the source once, then polls it every Options.Interval and
// rebuilds with the same configuration whenever its size or modification
// time changes. Returns when ctx is cancelled. Build failures are logged and
// kept for the diagnostics page; they do not stop watching.
func (s *Server) Watch(ctx context.Context) error {
	last, _ := stat(s.opts.Source)
	_ = s.Rebuild(ctx)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cur, ok := stat(s.opts.Source)
			if !ok || cur.same(last) {
				continue
			}
			last = cur
			s.log.Debug("source changed", "source", s.opts.Source)
			_ = s.Rebuild(ctx)
		}
	}
}
