package grouping

import (
	apiv1a1 "l7mp.io/livegroup/pkg/api/grouping/v1alpha1"
	"l7mp.io/livegroup/pkg/collection"
)

// Configure applies a declarative grouping configuration: sort settings
// first, then the group key, which triggers the full repartition.
func (e *Engine) Configure(cfg *apiv1a1.Config) error {
	if e.destroyed {
		return ErrEngineDestroyed
	}
	if cfg == nil {
		return newConfigurationError("config must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := e.SetMemberSort(sortOptionsFromConfig(cfg.MemberSort)); err != nil {
		return err
	}
	if err := e.SetGroupSort(sortOptionsFromConfig(cfg.GroupSort)); err != nil {
		return err
	}

	return e.SetGroupBy(cfg.GroupBy)
}

func sortOptionsFromConfig(sc *apiv1a1.SortConfig) *collection.SortOptions {
	if sc == nil {
		return nil
	}
	ret := &collection.SortOptions{Ascending: sc.IsAscending()}
	ret.Properties = make([]string, len(sc.Properties))
	copy(ret.Properties, sc.Properties)
	return ret
}
