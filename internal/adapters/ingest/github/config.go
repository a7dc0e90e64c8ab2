package github

import "prtimeline/internal/platform/config"

// FromConfig reads client options from cfg, usually the GITHUB_ prefixed view:
// TOKENS, GRAPHQL_URL, USER_AGENT, TIMEOUT, RETRIES, RETRY_BASE
func FromConfig(cfg config.Conf) Options {
	return Options{
		URL:        cfg.MayString("GRAPHQL_URL", graphqlURLDefault),
		UserAgent:  cfg.MayString("USER_AGENT", defaultUA),
		Timeout:    cfg.MayDuration("TIMEOUT", defaultTimeout),
		TokensCSV:  cfg.MayString("TOKENS", ""),
		MaxRetries: cfg.MayInt("RETRIES", defaultMaxRetry),
		RetryBase:  cfg.MayDuration("RETRY_BASE", defaultRetryBase),
	}
}
