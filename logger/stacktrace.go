package logger

import (
	"fmt"
	"runtime"
	"strings"
)

// CaptureStacktrace captures the call stack.
// skip: frames to skip, depth: max frames (0 means 32)
func CaptureStacktrace(skip int, depth int) string {
	maxDepth := depth
	if maxDepth <= 0 {
		maxDepth = 32
	}

	pcs := make([]uintptr, maxDepth*2)
	n := runtime.Callers(skip, pcs)
	if n == 0 {
		return ""
	}

	var frames []string
	callersFrames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := callersFrames.Next()
		frames = append(frames, fmt.Sprintf("%s\n\t%s:%d", frame.Function, frame.File, frame.Line))
		if len(frames) >= maxDepth || !more {
			break
		}
	}
	return strings.Join(frames, "\n")
}

var levelRank = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
	"fatal": 4,
}

func shouldCaptureStacktrace(level string, config ManagerConfig) bool {
	if !config.EnableStacktrace {
		return false
	}
	return levelRank[level] >= levelRank[config.StacktraceLevel]
}
