package mapper

import (
	"fmt"

	rlspplugin "github.com/madbrain/recette-lsp/src/rlsp/entity/rlsp-plugin"
)

// PluginInfoToRuntimePrioritizedMethods groups the hooks of every plugin per method, ordered for execution.
func PluginInfoToRuntimePrioritizedMethods(allPluginInfo []rlspplugin.PluginInfo) (rlspplugin.RuntimePrioritizedMethods, error) {
	result := make(rlspplugin.RuntimePrioritizedMethods)
	buckets := make(map[string]map[rlspplugin.Priority][]*rlspplugin.Methods)
	seen := make(map[string]struct{}, len(allPluginInfo))

	for _, pluginInfo := range allPluginInfo {
		if err := pluginInfo.Validate(); err != nil {
			return nil, fmt.Errorf("error validating plugin configuration: %w", err)
		}
		if _, ok := seen[pluginInfo.NameKey]; ok {
			return nil, fmt.Errorf("plugin %q registered more than once", pluginInfo.NameKey)
		}
		seen[pluginInfo.NameKey] = struct{}{}

		for method, priority := range pluginInfo.Priorities {
			if _, ok := buckets[method]; !ok {
				buckets[method] = make(map[rlspplugin.Priority][]*rlspplugin.Methods)
			}
			buckets[method][priority] = append(buckets[method][priority], pluginInfo.Methods)
		}
	}

	// Registration order is kept within a priority.
	for method, byPriority := range buckets {
		lists := rlspplugin.MethodLists{}
		for priority := rlspplugin.PriorityHigh; priority <= rlspplugin.PriorityAsync; priority++ {
			if priority == rlspplugin.PriorityAsync {
				lists.Async = append(lists.Async, byPriority[priority]...)
			} else {
				lists.Sync = append(lists.Sync, byPriority[priority]...)
			}
		}
		result[method] = lists
	}

	return result, nil
}
