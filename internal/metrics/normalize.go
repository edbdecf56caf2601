package metrics

import "regexp"

// scatterSuffix matches the "-<shard>-<attempt>" suffix a workflow engine
// appends to each parallel instance of a scattered task.
var scatterSuffix = regexp.MustCompile(`-\d+-\d+$`)

// BaseTaskName strips the scatter suffix from a task name, recovering the
// logical task identity used for grouping. It is a no-op on names that carry
// no suffix, so applying it twice is safe.
func BaseTaskName(taskName string) string {
	return scatterSuffix.ReplaceAllString(taskName, "")
}
