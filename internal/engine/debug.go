package engine

import "fmt"

var debugEnabled = false

// SetDebugLog enables or disables debug logging (for debugging only).
func SetDebugLog(enabled bool) {
	debugEnabled = enabled
}

func debugf(format string, args ...any) {
	if debugEnabled {
		fmt.Printf("ldbx: "+format+"\n", args...)
	}
}
