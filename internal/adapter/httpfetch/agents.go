package httpfetch

import "sync/atomic"

// fallbackAgents follow the configured agent in the rotation.
var fallbackAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// agentRotation hands out user agents round-robin.
type agentRotation struct {
	agents []string
	next   atomic.Uint64
}

func newAgentRotation(primary string) *agentRotation {
	agents := make([]string, 0, len(fallbackAgents)+1)
	if primary != "" {
		agents = append(agents, primary)
	}
	agents = append(agents, fallbackAgents...)
	return &agentRotation{agents: agents}
}

// Primary is the agent robots.txt rules are evaluated for.
func (a *agentRotation) Primary() string {
	return a.agents[0]
}

func (a *agentRotation) Next() string {
	n := a.next.Add(1) - 1
	return a.agents[n%uint64(len(a.agents))]
}
