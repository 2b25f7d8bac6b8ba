package tracing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJaegerConfiguration(t *testing.T) {
	cfg := jaegerConfiguration(&JaegerConfig{
		ServiceName: "tempmail",
		AgentHost:   "jaeger",
		AgentPort:   "6831",
		SamplerType: "const",
	})

	assert.True(t, cfg.Disabled)
	assert.Equal(t, "jaeger:6831", cfg.Reporter.LocalAgentHostPort)
	assert.Empty(t, cfg.Reporter.CollectorEndpoint)

	cfg = jaegerConfiguration(&JaegerConfig{Enabled: true, Endpoint: "http://collector:14268/api/traces"})

	assert.False(t, cfg.Disabled)
	assert.Equal(t, "http://collector:14268/api/traces", cfg.Reporter.CollectorEndpoint)
}
