package web

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// CleanupTemps removes staged uploads older than maxAge from dir. Only files
// created by this package (upload-*) are touched. Returns the number removed.
func CleanupTemps(dir string, maxAge time.Duration) int {
	now := time.Now()
	removed := 0
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if !strings.HasPrefix(info.Name(), tempPrefix) {
			return nil
		}
		if now.Sub(info.ModTime()) >= maxAge {
			if err := os.Remove(path); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("failed to remove stale temp file")
				return nil
			}
			removed++
		}
		return nil
	})
	if removed > 0 {
		log.Info().Int("removed", removed).Str("dir", dir).Msg("cleaned up stale uploads")
	}
	return removed
}
