package alertpop

import (
	"fmt"
	"time"
)

// FormatAge renders how long ago createdAt was, relative to now.
//
// The elapsed time is truncated to whole seconds d:
//
//	d < 60            "Just now"
//	d < 3600          "N minute(s) ago"
//	d < 86400         "N hour(s) ago"
//	otherwise         "N day(s) ago"
//
// A createdAt in the future reads "Just now".
func FormatAge(now, createdAt time.Time) string {
	d := int64(now.Sub(createdAt) / time.Second)

	switch {
	case d < 60:
		return "Just now"
	case d < 3600:
		return ago(d/60, "minute")
	case d < 86400:
		return ago(d/3600, "hour")
	default:
		return ago(d/86400, "day")
	}
}

func ago(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
