package config

import "time"

var (
	EmbedRequestTimeout    = 30 * time.Second
	SpclientRequestTimeout = 30 * time.Second
	OEmbedRequestTimeout   = 10 * time.Second
	CoverDownloadTimeout   = 10 * time.Second
	RetryBaseDelay         = 1 * time.Second
)
