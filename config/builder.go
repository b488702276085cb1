package config

import (
	"errors"
	"fmt"

	"kumabeacon"
)

// BuildBindings converts parsed configuration into SDK Binding objects.
//
// Disabled services are skipped. An error is returned if every service
// is disabled, since a beacon with nothing to drive is a misconfiguration.
func BuildBindings(cfg *Config) ([]kumabeacon.Binding, error) {
	var bindings []kumabeacon.Binding

	for i := range cfg.Services {
		svc := &cfg.Services[i]
		if !svc.IsEnabled() {
			continue
		}

		b, err := buildBinding(svc)
		if err != nil {
			return nil, fmt.Errorf("services[%d] (%s): %w", i, svc.label(), err)
		}
		bindings = append(bindings, b)
	}

	if len(bindings) == 0 {
		return nil, errors.New("all services are disabled")
	}

	return bindings, nil
}

// buildBinding converts a single ServiceConfig to an SDK Binding.
func buildBinding(svc *ServiceConfig) (kumabeacon.Binding, error) {
	var monitor kumabeacon.Monitor
	if svc.Name != "" {
		monitor = kumabeacon.MonitorName(svc.Name)
	} else {
		monitor = kumabeacon.MonitorID(svc.ID)
	}

	var opts []kumabeacon.BindingOption
	if svc.Reverse {
		opts = append(opts, kumabeacon.Inverted())
	}

	return kumabeacon.NewBinding(monitor, []int(svc.Pin), opts...)
}
