package ui

import (
	relayapp "github.com/skobkin/dsrelay/internal/app"
	"github.com/skobkin/dsrelay/internal/config"
)

func BuildRuntimeDependencies(rt *relayapp.Runtime, launch LaunchOptions, onQuit func()) RuntimeDependencies {
	dep := RuntimeDependencies{
		Launch: launch,
		Actions: ActionDependencies{
			OnQuit: onQuit,
		},
	}

	if rt == nil {
		dep.Data.CurrentConfig = config.Default

		return dep
	}

	dep.Data = DataDependencies{
		Bus:               rt.Bus,
		CurrentConfig:     rt.CurrentConfig,
		CurrentConnStatus: rt.CurrentConnStatus,
	}
	dep.Actions.Dispatcher = rt.Dispatcher
	dep.Actions.OnSave = rt.SaveAndApplyConfig
	dep.Actions.OnConnect = rt.Connect
	dep.Actions.OnDisconnect = rt.Relay.Disconnect
	if rt.DB != nil {
		dep.Actions.OnClearJournal = rt.ClearJournal
	}

	return dep
}

func (dep RuntimeDependencies) currentConfig() config.AppConfig {
	if dep.Data.CurrentConfig == nil {
		return config.Default()
	}

	return dep.Data.CurrentConfig()
}

func (dep RuntimeDependencies) runOnUI(fn func()) {
	if dep.UIHooks.RunOnUI != nil {
		dep.UIHooks.RunOnUI(fn)

		return
	}
	fyneDo(fn)
}

func (dep RuntimeDependencies) runAsync(fn func()) {
	if dep.UIHooks.RunAsync != nil {
		dep.UIHooks.RunAsync(fn)

		return
	}
	go fn()
}
