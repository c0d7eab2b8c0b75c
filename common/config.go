package common

import (
	"time"
)

var EnableLogging bool = false
var EnableDebug bool = false
var LogTimeout time.Duration

// minimum level emitted by the component logger
var LogLevelSetting LogLevel = WARN

const (
	// invalid page id
	InvalidPageID = -1
	// invalid log sequence number
	InvalidLSN = -1
	// size of a data page in byte
	PageSize = 4096
	// size of buffer pool for log records
	LogBufferPoolSize = 32
	// size of a log buffer in byte
	LogBufferSize = ((LogBufferPoolSize + 1) * PageSize)
)
