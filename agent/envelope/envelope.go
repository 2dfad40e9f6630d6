// Package envelope assembles the externally visible response shape. Nothing
// in here returns an error: failures become a populated Error field plus a
// best-effort human-readable message, so the transport layer never sees a
// raised failure.
package envelope

import (
	"fmt"

	contractx "github.com/prakit/supplyline/agent/contract"
)

// FromHandler wraps a handler outcome. err takes precedence over resp.
func FromHandler(handler contractx.HandlerID, resp contractx.HandlerResponse, err error) contractx.ResponseEnvelope {
	if err != nil {
		return contractx.ResponseEnvelope{
			Content:   fmt.Sprintf("The %s handler could not complete this request.", handler),
			AgentUsed: string(handler),
			Error:     err.Error(),
		}
	}

	env := contractx.ResponseEnvelope{
		Content:   resp.Content,
		AgentUsed: string(handler),
	}
	if !resp.Usage.IsZero() {
		usage := resp.Usage
		env.TokenUsage = &usage
	}
	return env
}

// FromError wraps a failure that happened before any handler ran.
func FromError(component string, err error) contractx.ResponseEnvelope {
	msg := "The request could not be processed."
	if err == nil {
		return contractx.ResponseEnvelope{Content: msg, AgentUsed: component}
	}
	return contractx.ResponseEnvelope{
		Content:   fmt.Sprintf("%s (%s)", msg, component),
		AgentUsed: component,
		Error:     err.Error(),
	}
}
