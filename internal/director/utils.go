package director

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// TimelinePath creates a timestamped timeline filename next to the video
func TimelinePath(video string, now time.Time) string {
	dir := filepath.Dir(video)
	base := strings.TrimSuffix(filepath.Base(video), filepath.Ext(video))
	timestamp := now.Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("%s_timeline_%s.yaml", base, timestamp))
}
