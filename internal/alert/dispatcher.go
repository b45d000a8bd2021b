package alert

// Dispatcher fans out alert events to matching webhook configurations.
type Dispatcher struct {
	configs []WebhookConfig
}

// NewDispatcher creates a Dispatcher from webhook configurations.
// Returns nil if configs is empty (callers should nil-check).
func NewDispatcher(configs []WebhookConfig) *Dispatcher {
	if len(configs) == 0 {
		return nil
	}
	return &Dispatcher{configs: configs}
}

// Dispatch sends the event to every webhook serving its target.
// Fires goroutines; does not block the caller.
func (d *Dispatcher) Dispatch(event Event) {
	for _, cfg := range d.configs {
		if matches(cfg.Targets, event.Target) {
			go func(cfg WebhookConfig) { _ = Send(cfg, event) }(cfg)
		}
	}
}

// matches reports whether a webhook serves the given alert target.
// An empty target list means the webhook serves every target.
func matches(targets []string, target string) bool {
	if len(targets) == 0 {
		return true
	}
	for _, t := range targets {
		if t == target {
			return true
		}
	}
	return false
}
