package ports

import "context"

// OracleClient is the outbound port for chat-completion style language
// model providers. Implementations send one prompt and return the raw
// text of the first choice; extraction and validation of rules from that
// text stay in the domain.
type OracleClient interface {
	ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error)
}
