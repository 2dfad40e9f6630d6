package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/classifier.txt
	classifierRaw string

	//go:embed template/route_optimizer.txt
	routeOptimizerRaw string

	//go:embed template/fleet_monitor.txt
	fleetMonitorRaw string

	//go:embed template/data_retriever.txt
	dataRetrieverRaw string

	//go:embed template/notification.txt
	notificationRaw string

	//go:embed template/default.txt
	defaultRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Classifier     string
	RouteOptimizer string
	FleetMonitor   string
	DataRetriever  string
	Notification   string
	Default        string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings. Safe to call
// concurrently; the embed is compile-time.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Classifier:     strings.TrimSpace(classifierRaw),
		RouteOptimizer: strings.TrimSpace(routeOptimizerRaw),
		FleetMonitor:   strings.TrimSpace(fleetMonitorRaw),
		DataRetriever:  strings.TrimSpace(dataRetrieverRaw),
		Notification:   strings.TrimSpace(notificationRaw),
		Default:        strings.TrimSpace(defaultRaw),
	}
}
