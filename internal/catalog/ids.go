package catalog

import "stagehand/internal/api"

// The closed set of unit ids known to stagehand.
const (
	Session   api.UnitID = "session"
	Remote    api.UnitID = "remote"
	Devices   api.UnitID = "devices"
	Alarms    api.UnitID = "alarms"
	Endpoints api.UnitID = "endpoints"
	Files     api.UnitID = "files"
)

// All returns every unit id in registration order.
func All() []api.UnitID {
	return []api.UnitID{Session, Remote, Devices, Alarms, Endpoints, Files}
}

// Names returns All as plain strings.
func Names() []string {
	all := All()
	res := make([]string, len(all))
	for i, id := range all {
		res[i] = string(id)
	}
	return res
}

// DefaultHintOrder is the startup order of the eager units.
func DefaultHintOrder() []api.UnitID {
	return []api.UnitID{Remote, Devices, Alarms, Endpoints}
}
